package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"techfest_backend/internals/features/events/catalog"
	eventModel "techfest_backend/internals/features/events/model"
	"techfest_backend/internals/features/payments/gateway"
	"techfest_backend/internals/features/registrations/dto"
	"techfest_backend/internals/features/registrations/model"
	"techfest_backend/internals/features/registrations/repository"
	"techfest_backend/internals/logging"
	"techfest_backend/internals/outbox"
)

var (
	ErrInvalidSelection = errors.New("invalid event selection")
	ErrTeamTooLarge     = errors.New("too many teammates for the selected events")
)

// Draft is a priced registration that has not been written yet. It is also
// the outbox payload when the write fails during checkout.
type Draft struct {
	User         model.UserModel         `json:"user"`
	Registration model.RegistrationModel `json:"registration"`
	EventNames   string                  `json:"event_names"`
}

type Service struct {
	Store   repository.Store
	Catalog *catalog.Catalog
	Gateway gateway.Provider
	Outbox  outbox.Queue
	Now     func() time.Time
}

func New(store repository.Store, cat *catalog.Catalog, gw gateway.Provider, q outbox.Queue) *Service {
	return &Service{Store: store, Catalog: cat, Gateway: gw, Outbox: q, Now: time.Now}
}

/* =========================================================
   Pricing
========================================================= */

// Prepare prices an online registration: the amount is the sum of the
// selected events' prices, status starts as pending.
func (s *Service) Prepare(req dto.RegisterRequest) (*Draft, error) {
	total, err := s.Catalog.Total(req.Events)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSelection, err)
	}
	if err := s.checkTeam(req.Events, len(req.Teammates)); err != nil {
		return nil, err
	}

	kind := model.KindSingle
	if len(req.Events) > 1 {
		kind = model.KindMulti
	}
	orderID := req.OrderID
	if orderID == "" {
		orderID = NewOrderID(PrefixOrder, s.Now())
	}

	return &Draft{
		User: req.ParticipantDTO.ToModel(),
		Registration: model.RegistrationModel{
			RegistrationKind:            kind,
			RegistrationSelectedEvents:  datatypes.JSONSlice[string](append([]string(nil), req.Events...)),
			RegistrationOrderID:         orderID,
			RegistrationPaymentAmount:   total,
			RegistrationPaymentCurrency: s.currency(),
			RegistrationPaymentStatus:   model.PaymentPending,
			RegistrationTeammates:       datatypes.JSONSlice[model.Teammate](dto.TeamToModel(req.Teammates)),
		},
		EventNames: s.Catalog.Names(req.Events),
	}, nil
}

// PrepareSpot prices a walk-in: spot price of a single event, status spot.
func (s *Service) PrepareSpot(req dto.SpotRegistrationRequest) (*Draft, error) {
	price, err := s.Catalog.SpotPrice(req.Event)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSelection, err)
	}
	events := []string{req.Event}
	if err := s.checkTeam(events, len(req.Teammates)); err != nil {
		return nil, err
	}
	return &Draft{
		User: req.ParticipantDTO.ToModel(),
		Registration: model.RegistrationModel{
			RegistrationKind:            model.KindSingle,
			RegistrationSelectedEvents:  datatypes.JSONSlice[string](events),
			RegistrationOrderID:         NewOrderID(PrefixSpot, s.Now()),
			RegistrationPaymentAmount:   price,
			RegistrationPaymentCurrency: s.currency(),
			RegistrationPaymentStatus:   model.PaymentSpot,
			RegistrationTeammates:       datatypes.JSONSlice[model.Teammate](dto.TeamToModel(req.Teammates)),
		},
		EventNames: s.Catalog.Names(events),
	}, nil
}

func (s *Service) checkTeam(events []string, teammates int) error {
	maxTeam := 1
	for _, slug := range events {
		if it, ok := s.Catalog.Get(slug); ok && it.TeamSize > maxTeam {
			maxTeam = it.TeamSize
		}
	}
	if teammates > maxTeam-1 {
		return fmt.Errorf("%w: at most %d", ErrTeamTooLarge, maxTeam-1)
	}
	return nil
}

func (s *Service) currency() string {
	if s.Catalog.Currency != "" {
		return s.Catalog.Currency
	}
	return "INR"
}

/* =========================================================
   Persistence
========================================================= */

// Save finds or creates the user, then inserts the registration. The two
// writes are independent; an orphaned user is reused on the next attempt.
func (s *Service) Save(ctx context.Context, d *Draft) (*model.RegistrationModel, error) {
	u := d.User
	user, err := s.Store.FindOrCreateUser(ctx, &u)
	if err != nil {
		return nil, fmt.Errorf("user: %w", err)
	}

	reg := d.Registration
	reg.RegistrationUserID = user.UserID
	reg.User = nil
	reg.Event = nil

	var ev *eventModel.EventModel
	if reg.RegistrationKind == model.KindSingle && len(reg.RegistrationSelectedEvents) == 1 {
		ev, err = s.Store.FindEventBySlug(ctx, reg.RegistrationSelectedEvents[0])
		if err != nil {
			return nil, fmt.Errorf("event: %w", err)
		}
		if ev != nil {
			reg.RegistrationEventID = &ev.EventID
		}
	}

	if err := s.Store.CreateRegistration(ctx, &reg); err != nil {
		return nil, err
	}
	reg.User = user
	reg.Event = ev
	return &reg, nil
}

func (s *Service) Register(ctx context.Context, req dto.RegisterRequest) (*model.RegistrationModel, error) {
	d, err := s.Prepare(req)
	if err != nil {
		return nil, err
	}
	return s.Save(ctx, d)
}

func (s *Service) RegisterSpot(ctx context.Context, req dto.SpotRegistrationRequest) (*model.RegistrationModel, error) {
	d, err := s.PrepareSpot(req)
	if err != nil {
		return nil, err
	}
	return s.Save(ctx, d)
}

/* =========================================================
   Checkout
========================================================= */

type CheckoutResult struct {
	Registration model.RegistrationModel
	EventNames   string
	Order        *gateway.Order
	Saved        bool
}

// Checkout registers and opens a provider order. When the registration write
// fails for a reason other than a duplicate order id, the draft goes to the
// outbox and payment still proceeds.
func (s *Service) Checkout(ctx context.Context, req dto.RegisterRequest) (*CheckoutResult, error) {
	if !gatewayReady(s.Gateway) {
		return nil, gateway.ErrNotConfigured
	}
	d, err := s.Prepare(req)
	if err != nil {
		return nil, err
	}
	if err := gateway.CheckAmount(s.Gateway, d.Registration.RegistrationPaymentAmount, d.Registration.RegistrationPaymentCurrency); err != nil {
		return nil, err
	}

	res := &CheckoutResult{Registration: d.Registration, EventNames: d.EventNames}
	saved, err := s.Save(ctx, d)
	switch {
	case err == nil:
		res.Registration = *saved
		res.Saved = true
	case errors.Is(err, repository.ErrDuplicateOrder):
		return nil, err
	default:
		s.enqueue(ctx, d, err)
		u := d.User
		res.Registration.User = &u
	}

	order, err := s.Gateway.CreateOrder(ctx, gateway.OrderRequest{
		OrderID:       d.Registration.RegistrationOrderID,
		Amount:        d.Registration.RegistrationPaymentAmount,
		Currency:      d.Registration.RegistrationPaymentCurrency,
		CustomerName:  d.User.FullName(),
		CustomerEmail: d.User.UserEmail,
		CustomerPhone: d.User.UserPhone,
		EventName:     d.EventNames,
	})
	if err != nil {
		return nil, err
	}
	res.Order = order
	return res, nil
}

func gatewayReady(p gateway.Provider) bool {
	if p == nil {
		return false
	}
	if c, ok := p.(interface{ Configured() bool }); ok {
		return c.Configured()
	}
	return true
}

func (s *Service) enqueue(ctx context.Context, d *Draft, cause error) {
	log := logging.Logger.With().Str("order_id", d.Registration.RegistrationOrderID).Logger()
	if s.Outbox == nil {
		log.Error().Err(cause).Msg("registration save failed and no outbox is configured")
		return
	}
	e, err := outbox.NewEntry(outbox.KindRegistration, d)
	if err == nil {
		e.LastError = cause.Error()
		err = s.Outbox.Push(ctx, e)
	}
	if err != nil {
		log.Error().Err(err).AnErr("cause", cause).Msg("registration save failed and could not be queued")
		return
	}
	log.Warn().Err(cause).Str("outbox_id", e.ID).Msg("registration save failed, queued for retry")
}

// ReplayHandler re-runs Save for queued drafts. An already stored order counts as done.
func (s *Service) ReplayHandler() outbox.Handler {
	return func(ctx context.Context, e outbox.Entry) error {
		var d Draft
		if err := json.Unmarshal(e.Payload, &d); err != nil {
			return outbox.Permanent(fmt.Errorf("decode draft: %w", err))
		}
		_, err := s.Save(ctx, &d)
		if errors.Is(err, repository.ErrDuplicateOrder) {
			return nil
		}
		return err
	}
}
