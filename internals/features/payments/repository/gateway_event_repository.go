package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"techfest_backend/internals/features/payments/model"
)

var ErrEventNotFound = errors.New("gateway event not found")

type EventFilter struct {
	Provider string
	Status   string
	OrderID  string
}

// EventLog stores every webhook delivery, trusted or not.
type EventLog interface {
	Record(ctx context.Context, ev *model.PaymentGatewayEventModel) error
	Finish(ctx context.Context, ev *model.PaymentGatewayEventModel) error
	List(ctx context.Context, f EventFilter, offset, limit int) ([]model.PaymentGatewayEventModel, int64, error)
	Get(ctx context.Context, id uuid.UUID) (*model.PaymentGatewayEventModel, error)
}

type gormEventLog struct {
	db *gorm.DB
}

func NewEventLog(db *gorm.DB) EventLog {
	return &gormEventLog{db: db}
}

func (l *gormEventLog) Record(ctx context.Context, ev *model.PaymentGatewayEventModel) error {
	if err := l.db.WithContext(ctx).Create(ev).Error; err != nil {
		return fmt.Errorf("record gateway event: %w", err)
	}
	return nil
}

// Finish writes back what processing learned about a recorded delivery.
func (l *gormEventLog) Finish(ctx context.Context, ev *model.PaymentGatewayEventModel) error {
	now := time.Now()
	ev.GatewayEventProcessedAt = &now
	res := l.db.WithContext(ctx).
		Model(&model.PaymentGatewayEventModel{}).
		Where("gateway_event_id = ?", ev.GatewayEventID).
		Updates(map[string]any{
			"gateway_event_order_id":        ev.GatewayEventOrderID,
			"gateway_event_order_status":    ev.GatewayEventOrderStatus,
			"gateway_event_payment_status":  ev.GatewayEventPaymentStatus,
			"gateway_event_signature_valid": ev.GatewayEventSignatureValid,
			"gateway_event_payload":         ev.GatewayEventPayload,
			"gateway_event_status":          string(ev.GatewayEventStatus),
			"gateway_event_action":          ev.GatewayEventAction,
			"gateway_event_error":           ev.GatewayEventError,
			"gateway_event_processed_at":    ev.GatewayEventProcessedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("finish gateway event: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (l *gormEventLog) List(ctx context.Context, f EventFilter, offset, limit int) ([]model.PaymentGatewayEventModel, int64, error) {
	q := l.db.WithContext(ctx).Model(&model.PaymentGatewayEventModel{})
	if p := strings.TrimSpace(f.Provider); p != "" {
		q = q.Where("gateway_event_provider = ?", strings.ToLower(p))
	}
	if s := strings.TrimSpace(f.Status); s != "" {
		q = q.Where("gateway_event_status = ?", strings.ToLower(s))
	}
	if o := strings.TrimSpace(f.OrderID); o != "" {
		q = q.Where("gateway_event_order_id = ?", o)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count gateway events: %w", err)
	}

	var rows []model.PaymentGatewayEventModel
	if err := q.Order("gateway_event_received_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("list gateway events: %w", err)
	}
	return rows, total, nil
}

func (l *gormEventLog) Get(ctx context.Context, id uuid.UUID) (*model.PaymentGatewayEventModel, error) {
	var ev model.PaymentGatewayEventModel
	err := l.db.WithContext(ctx).Where("gateway_event_id = ?", id).Take(&ev).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ev, nil
}
