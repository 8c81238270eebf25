package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	eventRoute "techfest_backend/internals/features/events/route"
	"techfest_backend/internals/middlewares/cache"
	"techfest_backend/internals/seeds"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Upsert events from the catalog file and purge the events cache",
	RunE:  runSeed,
}

func runSeed(cmd *cobra.Command, args []string) error {
	b, err := connect(true)
	if err != nil {
		return err
	}
	defer b.Close()

	if err := seeds.RunAllSeeds(cmd.Context(), b.DB, b.Catalog); err != nil {
		return fmt.Errorf("seed events: %w", err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Seeded %d events.\n", len(b.Catalog.Events))

	if b.Redis == nil {
		return nil
	}
	n, err := cache.Purge(cmd.Context(), b.Redis, eventRoute.CacheNamespace)
	if err != nil {
		return fmt.Errorf("purge events cache: %w", err)
	}
	fmt.Fprintf(out, "Purged %d cached responses.\n", n)
	return nil
}
