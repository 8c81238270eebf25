// file: internals/features/payments/model/payment_gateway_event_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/*
  payment_gateway_events = webhook delivery log
  - one row per delivery, many per order
  - keeps raw headers and payload for replay/debugging
*/

type GatewayEventStatus string

const (
	GatewayEventReceived  GatewayEventStatus = "received"
	GatewayEventProcessed GatewayEventStatus = "processed"
	GatewayEventIgnored   GatewayEventStatus = "ignored"
	GatewayEventRejected  GatewayEventStatus = "rejected"
	GatewayEventFailed    GatewayEventStatus = "failed"
)

type PaymentGatewayEventModel struct {
	GatewayEventID uuid.UUID `gorm:"column:gateway_event_id;type:uuid;primaryKey" json:"gateway_event_id"`

	GatewayEventProvider      string  `gorm:"column:gateway_event_provider;type:varchar(20);not null;index:idx_gw_events_provider" json:"gateway_event_provider"`
	GatewayEventOrderID       *string `gorm:"column:gateway_event_order_id;type:varchar(100);index:idx_gw_events_order" json:"gateway_event_order_id"`
	GatewayEventOrderStatus   *string `gorm:"column:gateway_event_order_status;type:varchar(20)" json:"gateway_event_order_status"`
	GatewayEventPaymentStatus *string `gorm:"column:gateway_event_payment_status;type:varchar(20)" json:"gateway_event_payment_status"`

	GatewayEventHeaders        datatypes.JSON `gorm:"column:gateway_event_headers" json:"gateway_event_headers"`
	GatewayEventPayload        datatypes.JSON `gorm:"column:gateway_event_payload" json:"gateway_event_payload"`
	GatewayEventSignatureValid bool           `gorm:"column:gateway_event_signature_valid;not null;default:false" json:"gateway_event_signature_valid"`

	GatewayEventStatus GatewayEventStatus `gorm:"column:gateway_event_status;type:varchar(20);not null;default:'received';index:idx_gw_events_status" json:"gateway_event_status"`
	GatewayEventAction *string            `gorm:"column:gateway_event_action;type:varchar(40)" json:"gateway_event_action"`
	GatewayEventError  *string            `gorm:"column:gateway_event_error;type:text" json:"gateway_event_error"`

	GatewayEventReceivedAt  time.Time  `gorm:"column:gateway_event_received_at;not null;index:idx_gw_events_received" json:"gateway_event_received_at"`
	GatewayEventProcessedAt *time.Time `gorm:"column:gateway_event_processed_at" json:"gateway_event_processed_at"`
}

func (PaymentGatewayEventModel) TableName() string {
	return "payment_gateway_events"
}

func (m *PaymentGatewayEventModel) BeforeCreate(tx *gorm.DB) error {
	if m.GatewayEventID == uuid.Nil {
		m.GatewayEventID = uuid.New()
	}
	if m.GatewayEventReceivedAt.IsZero() {
		m.GatewayEventReceivedAt = time.Now()
	}
	if m.GatewayEventStatus == "" {
		m.GatewayEventStatus = GatewayEventReceived
	}
	return nil
}
