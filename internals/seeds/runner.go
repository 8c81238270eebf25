package seeds

import (
	"context"

	"gorm.io/gorm"

	"techfest_backend/internals/features/events/catalog"
	eventSeeds "techfest_backend/internals/seeds/events"
)

// RunAllSeeds loads reference data. Registrations and users are never seeded.
func RunAllSeeds(ctx context.Context, db *gorm.DB, cat *catalog.Catalog) error {
	if _, err := eventSeeds.SeedFromCatalog(ctx, db, cat); err != nil {
		return err
	}
	return nil
}
