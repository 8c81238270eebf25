package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	eventModel "techfest_backend/internals/features/events/model"
)

/* =========================================================
   ENUMS
========================================================= */

type RegistrationKind string

const (
	KindSingle RegistrationKind = "single"
	KindMulti  RegistrationKind = "multi"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
	PaymentSpot     PaymentStatus = "spot"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded, PaymentSpot:
		return true
	}
	return false
}

type Teammate struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

/* =========================================================
   MODEL: registrations
   One table for both kinds:
     single -> event_id set, selected_events holds that one slug
     multi  -> event_id NULL, selected_events holds 1..3 slugs
========================================================= */

type RegistrationModel struct {
	RegistrationID   uuid.UUID        `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	RegistrationKind RegistrationKind `gorm:"column:kind;type:varchar(10);not null;default:'single'" json:"kind"`

	RegistrationUserID  uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index:idx_registrations_user" json:"user_id"`
	RegistrationEventID *uuid.UUID `gorm:"column:event_id;type:uuid;index:idx_registrations_event" json:"event_id,omitempty"`

	RegistrationSelectedEvents datatypes.JSONSlice[string] `gorm:"column:selected_events" json:"selected_events"`

	RegistrationOrderID         string          `gorm:"column:order_id;type:varchar(100);not null;uniqueIndex:ux_registrations_order_id" json:"order_id"`
	RegistrationPaymentAmount   decimal.Decimal `gorm:"column:payment_amount;type:numeric(10,2);not null" json:"payment_amount"`
	RegistrationPaymentCurrency string          `gorm:"column:payment_currency;type:varchar(3);not null;default:'INR'" json:"payment_currency"`
	RegistrationPaymentStatus   PaymentStatus   `gorm:"column:payment_status;type:varchar(10);not null;default:'pending';index:idx_registrations_status" json:"payment_status"`

	RegistrationParticipationConfirmed bool `gorm:"column:participation_confirmed;not null;default:false" json:"participation_confirmed"`

	RegistrationTeammates datatypes.JSONSlice[Teammate] `gorm:"column:teammates" json:"teammates,omitempty"`

	RegistrationCreatedAt time.Time `gorm:"column:created_at;autoCreateTime;index:idx_registrations_created" json:"created_at"`
	RegistrationUpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	User  *UserModel             `gorm:"foreignKey:RegistrationUserID;references:UserID" json:"user,omitempty"`
	Event *eventModel.EventModel `gorm:"foreignKey:RegistrationEventID;references:EventID" json:"event,omitempty"`
}

func (RegistrationModel) TableName() string {
	return "registrations"
}

func (m *RegistrationModel) BeforeCreate(tx *gorm.DB) error {
	if m.RegistrationID == uuid.Nil {
		m.RegistrationID = uuid.New()
	}
	if m.RegistrationKind == "" {
		m.RegistrationKind = KindSingle
	}
	if m.RegistrationPaymentStatus == "" {
		m.RegistrationPaymentStatus = PaymentPending
	}
	if m.RegistrationPaymentCurrency == "" {
		m.RegistrationPaymentCurrency = "INR"
	}
	return nil
}
