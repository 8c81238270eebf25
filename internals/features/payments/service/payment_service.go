package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"techfest_backend/internals/features/payments/dto"
	"techfest_backend/internals/features/payments/gateway"
	payModel "techfest_backend/internals/features/payments/model"
	payRepo "techfest_backend/internals/features/payments/repository"
	regModel "techfest_backend/internals/features/registrations/model"
	regRepo "techfest_backend/internals/features/registrations/repository"
	helper "techfest_backend/internals/helpers"
	"techfest_backend/internals/logging"
)

/* =========================================================
   Outcome
========================================================= */

type Outcome string

const (
	OutcomeSuccess  Outcome = "Success"
	OutcomePending  Outcome = "Pending"
	OutcomeRefunded Outcome = "Refunded"
	OutcomeFailure  Outcome = "Failure"
)

// ResolveOutcome: any SUCCESS wins, then any PENDING, then any REFUNDED,
// otherwise Failure. An order with no transactions yet counts as Failure.
func ResolveOutcome(payments []gateway.Payment) Outcome {
	pending, refunded := false, false
	for _, p := range payments {
		switch strings.ToUpper(p.PaymentStatus) {
		case gateway.StatusSuccess:
			return OutcomeSuccess
		case gateway.StatusPending:
			pending = true
		case gateway.StatusRefunded:
			refunded = true
		}
	}
	switch {
	case pending:
		return OutcomePending
	case refunded:
		return OutcomeRefunded
	}
	return OutcomeFailure
}

// PaymentStatus is the registration status an outcome writes back. Pending and
// Refunded write nothing: a refund must never turn a paid registration into failed.
func (o Outcome) PaymentStatus() (regModel.PaymentStatus, bool) {
	switch o {
	case OutcomeSuccess:
		return regModel.PaymentPaid, true
	case OutcomeFailure:
		return regModel.PaymentFailed, true
	}
	return "", false
}

/* =========================================================
   Service
========================================================= */

type Service struct {
	Gateway gateway.Provider
	Store   regRepo.Store
	Events  payRepo.EventLog
}

func New(gw gateway.Provider, store regRepo.Store, events payRepo.EventLog) *Service {
	return &Service{Gateway: gw, Store: store, Events: events}
}

func configured(p gateway.Provider) bool {
	if p == nil {
		return false
	}
	if c, ok := p.(interface{ Configured() bool }); ok {
		return c.Configured()
	}
	return true
}

func (s *Service) CreateOrder(ctx context.Context, req dto.CreateOrderRequest) (*gateway.Order, error) {
	if !configured(s.Gateway) {
		return nil, gateway.ErrNotConfigured
	}
	return s.Gateway.CreateOrder(ctx, req.ToGateway())
}

// Payments returns the provider's transactions for an order with the resolved outcome.
func (s *Service) Payments(ctx context.Context, orderID string) ([]gateway.Payment, Outcome, error) {
	if !configured(s.Gateway) {
		return nil, "", gateway.ErrNotConfigured
	}
	payments, err := s.Gateway.FetchPayments(ctx, orderID)
	if err != nil {
		return nil, "", err
	}
	return payments, ResolveOutcome(payments), nil
}

type SyncResult struct {
	Payments     []gateway.Payment
	Outcome      Outcome
	Written      bool
	Registration *regModel.RegistrationModel
}

// Sync resolves the outcome and writes Success/Failure back to the registration.
// The write is best effort: a failure is logged and the stored row is returned as is.
// Registration is nil when no row exists for the order.
func (s *Service) Sync(ctx context.Context, orderID string) (*SyncResult, error) {
	payments, outcome, err := s.Payments(ctx, orderID)
	if err != nil {
		return nil, err
	}
	res := &SyncResult{Payments: payments, Outcome: outcome}
	log := logging.Logger.With().Str("order_id", orderID).Str("outcome", string(outcome)).Logger()

	if status, ok := outcome.PaymentStatus(); ok {
		switch err := s.Store.UpdatePaymentStatus(ctx, orderID, status); {
		case err == nil:
			res.Written = true
		case errors.Is(err, regRepo.ErrNotFound), errors.Is(err, regRepo.ErrSpotLocked):
			log.Info().Err(err).Msg("payment status not written back")
		default:
			log.Error().Err(err).Msg("payment status write-back failed")
		}
	}

	reg, err := s.Store.GetByOrderID(ctx, orderID)
	switch {
	case err == nil:
		res.Registration = reg
	case errors.Is(err, regRepo.ErrNotFound):
	default:
		log.Error().Err(err).Msg("load registration after sync")
	}
	return res, nil
}

/* =========================================================
   Webhook
========================================================= */

const (
	ActionMarkPaid   = "mark_paid"
	ActionMarkFailed = "mark_failed"
	ActionLogOnly    = "log_only"
)

// Decide maps (orderStatus, paymentStatus) to a registration write.
func Decide(orderStatus, paymentStatus string) (regModel.PaymentStatus, string, bool) {
	switch {
	case orderStatus == gateway.OrderPaid && paymentStatus == gateway.StatusSuccess:
		return regModel.PaymentPaid, ActionMarkPaid, true
	case orderStatus == gateway.OrderActive && paymentStatus == gateway.StatusFailed:
		return regModel.PaymentFailed, ActionMarkFailed, true
	}
	return "", ActionLogOnly, false
}

// Decoder turns a verified body into a notification.
type Decoder func(rawBody []byte) (*gateway.Notification, error)

// ValidationError lists the fields a webhook payload failed on.
type ValidationError struct {
	Details []helper.FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		parts = append(parts, d.Field+": "+d.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// DecodePayload reads the provider-neutral payload and validates it.
func DecodePayload(rawBody []byte) (*gateway.Notification, error) {
	var p dto.WebhookPayload
	if err := json.Unmarshal(rawBody, &p); err != nil {
		return nil, fmt.Errorf("decode webhook: %w", err)
	}
	if errs := dto.ValidateWebhook(&p); len(errs) > 0 {
		return nil, &ValidationError{Details: errs}
	}
	n := p.ToNotification()
	return &n, nil
}

func DecodeMidtrans(rawBody []byte) (*gateway.Notification, error) {
	return gateway.ParseMidtransNotification(rawBody)
}

type Delivery struct {
	Provider string
	Headers  map[string]string
	Body     []byte
	Verifier gateway.WebhookVerifier
	Decode   Decoder
}

type WebhookResult struct {
	EventID uuid.UUID
	Status  payModel.GatewayEventStatus
	Action  string
	Error   string
}

// MaxUnverifiedPayload caps how much of a delivery is stored before its signature checks out.
const MaxUnverifiedPayload = 2 << 10

var redactedHeaders = map[string]struct{}{
	"authorization":       {},
	"proxy-authorization": {},
	"cookie":              {},
}

// HandleWebhook logs the delivery, verifies it, then applies the status change.
// It never returns an error: the outcome is recorded on the event row instead.
// The full payload is only kept once the signature is valid.
func (s *Service) HandleWebhook(ctx context.Context, d Delivery) (res WebhookResult) {
	log := logging.Logger.With().Str("provider", d.Provider).Logger()

	ev := &payModel.PaymentGatewayEventModel{
		GatewayEventProvider: d.Provider,
		GatewayEventHeaders:  jsonOf(redactHeaders(d.Headers)),
		GatewayEventPayload:  payloadPreview(d.Body),
		GatewayEventStatus:   payModel.GatewayEventReceived,
	}
	if s.Events != nil {
		if err := s.Events.Record(ctx, ev); err != nil {
			log.Error().Err(err).Msg("webhook event not recorded")
		}
	}
	res.EventID = ev.GatewayEventID

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("webhook handler panicked")
			res.Status = payModel.GatewayEventFailed
			res.Error = fmt.Sprint(r)
		}
		s.finish(ctx, ev, res)
	}()

	if d.Verifier == nil {
		res.Status, res.Error = payModel.GatewayEventRejected, gateway.ErrNotConfigured.Error()
		log.Warn().Msg("webhook rejected: no verifier configured")
		return res
	}
	if err := d.Verifier.VerifyWebhook(d.Headers, d.Body); err != nil {
		res.Status, res.Error = payModel.GatewayEventRejected, err.Error()
		log.Warn().Err(err).Msg("webhook rejected")
		return res
	}
	ev.GatewayEventSignatureValid = true
	ev.GatewayEventPayload = rawJSON(d.Body)

	decode := d.Decode
	if decode == nil {
		decode = DecodePayload
	}
	n, err := decode(d.Body)
	if err != nil {
		res.Status, res.Error = payModel.GatewayEventRejected, err.Error()
		log.Warn().Err(err).Msg("webhook payload invalid")
		return res
	}
	ev.GatewayEventOrderID = &n.OrderID
	ev.GatewayEventOrderStatus = &n.OrderStatus
	ev.GatewayEventPaymentStatus = &n.PaymentStatus

	log = log.With().
		Str("order_id", n.OrderID).
		Str("order_status", n.OrderStatus).
		Str("payment_status", n.PaymentStatus).
		Logger()

	status, action, write := Decide(n.OrderStatus, n.PaymentStatus)
	res.Action = action
	if !write {
		res.Status = payModel.GatewayEventIgnored
		log.Info().Msg("webhook status received")
		return res
	}

	switch err := s.Store.UpdatePaymentStatus(ctx, n.OrderID, status); {
	case err == nil:
		res.Status = payModel.GatewayEventProcessed
		log.Info().Str("action", action).Msg("registration payment status updated")
	case errors.Is(err, regRepo.ErrNotFound), errors.Is(err, regRepo.ErrSpotLocked):
		res.Status, res.Error = payModel.GatewayEventIgnored, err.Error()
		log.Warn().Err(err).Msg("webhook not applied")
	default:
		res.Status, res.Error = payModel.GatewayEventFailed, err.Error()
		log.Error().Err(err).Msg("webhook status update failed")
	}
	return res
}

func (s *Service) finish(ctx context.Context, ev *payModel.PaymentGatewayEventModel, res WebhookResult) {
	if s.Events == nil || ev.GatewayEventID == uuid.Nil {
		return
	}
	ev.GatewayEventStatus = res.Status
	ev.GatewayEventAction = optional(res.Action)
	ev.GatewayEventError = optional(res.Error)
	if err := s.Events.Finish(ctx, ev); err != nil {
		logging.Logger.Warn().Err(err).Str("event_id", ev.GatewayEventID.String()).Msg("webhook event not finalized")
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func jsonOf(v any) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(b)
}

func redactHeaders(h map[string]string) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		if _, drop := redactedHeaders[strings.ToLower(k)]; drop {
			continue
		}
		out[k] = v
	}
	return out
}

// payloadPreview is rawJSON for small bodies and a truncated JSON string otherwise.
func payloadPreview(b []byte) datatypes.JSON {
	if len(b) <= MaxUnverifiedPayload {
		return rawJSON(b)
	}
	return jsonOf(string(b[:MaxUnverifiedPayload]))
}

// rawJSON keeps a JSON body as is and wraps anything else as a JSON string.
func rawJSON(b []byte) datatypes.JSON {
	if len(b) > 0 && json.Valid(b) {
		return datatypes.JSON(append([]byte(nil), b...))
	}
	return jsonOf(string(b))
}
