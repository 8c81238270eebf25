package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	database "techfest_backend/internals/databases"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	b, err := connect(false)
	if err != nil {
		return err
	}
	defer b.Close()

	if err := database.Migrate(b.DB); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Migrated %d tables.\n", len(database.Models()))
	return nil
}
