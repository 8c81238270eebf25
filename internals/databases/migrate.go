package database

import (
	"fmt"

	"gorm.io/gorm"

	eventModel "techfest_backend/internals/features/events/model"
	paymentModel "techfest_backend/internals/features/payments/model"
	registrationModel "techfest_backend/internals/features/registrations/model"
)

// Models lists every table in dependency order.
func Models() []any {
	return []any{
		&eventModel.EventModel{},
		&registrationModel.UserModel{},
		&registrationModel.RegistrationModel{},
		&paymentModel.PaymentGatewayEventModel{},
	}
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}
