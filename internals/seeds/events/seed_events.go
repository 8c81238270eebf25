package events

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"techfest_backend/internals/features/events/catalog"
	"techfest_backend/internals/logging"
)

// SeedFromCatalog upserts one events row per catalog entry, keyed by slug.
// Existing ids are kept so registrations stay linked.
func SeedFromCatalog(ctx context.Context, db *gorm.DB, cat *catalog.Catalog) (int, error) {
	rows := cat.Models()
	if len(rows) == 0 {
		logging.Logger.Info().Msg("event catalog is empty, nothing to seed")
		return 0, nil
	}

	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "description", "date", "location", "max_participants"}),
		}).
		Create(&rows).Error
	if err != nil {
		return 0, fmt.Errorf("seed events: %w", err)
	}
	logging.Logger.Info().Int("events", len(rows)).Msg("events seeded from catalog")
	return len(rows), nil
}
