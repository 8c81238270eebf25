package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"techfest_backend/internals/databases/dbtest"
	eventModel "techfest_backend/internals/features/events/model"
	"techfest_backend/internals/features/registrations/model"
)

func newStore(t *testing.T) (Store, *eventModel.EventModel) {
	t.Helper()
	db := dbtest.Open(t)
	ev := &eventModel.EventModel{EventSlug: "code-loom", EventName: "Code Loom"}
	require.NoError(t, db.Create(ev).Error)
	return New(db), ev
}

func createReg(t *testing.T, s Store, userID uuid.UUID, orderID string, status model.PaymentStatus, eventID *uuid.UUID) *model.RegistrationModel {
	t.Helper()
	r := &model.RegistrationModel{
		RegistrationKind:           model.KindSingle,
		RegistrationUserID:         userID,
		RegistrationEventID:        eventID,
		RegistrationSelectedEvents: datatypes.JSONSlice[string]{"code-loom"},
		RegistrationOrderID:        orderID,
		RegistrationPaymentAmount:  decimal.NewFromInt(100),
		RegistrationPaymentStatus:  status,
	}
	require.NoError(t, s.CreateRegistration(context.Background(), r))
	return r
}

func TestFindOrCreateUserIsIdempotent(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	u1, err := s.FindOrCreateUser(ctx, &model.UserModel{UserEmail: "Jo@College.edu", UserFirstName: "Jo"})
	require.NoError(t, err)
	u2, err := s.FindOrCreateUser(ctx, &model.UserModel{UserEmail: "jo@college.edu", UserFirstName: "Joanna"})
	require.NoError(t, err)

	assert.Equal(t, u1.UserID, u2.UserID)
	assert.Equal(t, "Jo", u2.UserFirstName, "existing row is reused, not overwritten")
	assert.Equal(t, "jo@college.edu", u2.UserEmail)
}

func TestCreateRegistrationDuplicateOrder(t *testing.T) {
	s, ev := newStore(t)
	ctx := context.Background()
	u, err := s.FindOrCreateUser(ctx, &model.UserModel{UserEmail: "a@b.co", UserFirstName: "A"})
	require.NoError(t, err)

	createReg(t, s, u.UserID, "ORDER_1", model.PaymentPending, &ev.EventID)

	dup := &model.RegistrationModel{
		RegistrationUserID:        u.UserID,
		RegistrationOrderID:       "ORDER_1",
		RegistrationPaymentAmount: decimal.NewFromInt(100),
	}
	err = s.CreateRegistration(ctx, dup)
	assert.ErrorIs(t, err, ErrDuplicateOrder)
}

func TestGetByOrderIDJoinsUserAndEvent(t *testing.T) {
	s, ev := newStore(t)
	ctx := context.Background()
	u, err := s.FindOrCreateUser(ctx, &model.UserModel{UserEmail: "a@b.co", UserFirstName: "Asha", UserLastName: "Rao"})
	require.NoError(t, err)
	createReg(t, s, u.UserID, "ORDER_2", model.PaymentPending, &ev.EventID)

	r, err := s.GetByOrderID(ctx, "ORDER_2")
	require.NoError(t, err)
	require.NotNil(t, r.User)
	require.NotNil(t, r.Event)
	assert.Equal(t, "Asha Rao", r.User.FullName())
	assert.Equal(t, "Code Loom", r.Event.EventName)
	assert.Equal(t, model.PaymentPending, r.RegistrationPaymentStatus)
	assert.Equal(t, "INR", r.RegistrationPaymentCurrency)
	assert.True(t, r.RegistrationPaymentAmount.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, []string{"code-loom"}, []string(r.RegistrationSelectedEvents))

	_, err = s.GetByOrderID(ctx, "ORDER_missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdatePaymentStatus(t *testing.T) {
	s, ev := newStore(t)
	ctx := context.Background()
	u, err := s.FindOrCreateUser(ctx, &model.UserModel{UserEmail: "a@b.co", UserFirstName: "A"})
	require.NoError(t, err)
	createReg(t, s, u.UserID, "ORDER_3", model.PaymentPending, &ev.EventID)
	createReg(t, s, u.UserID, "SPOT_3", model.PaymentSpot, &ev.EventID)

	require.NoError(t, s.UpdatePaymentStatus(ctx, "ORDER_3", model.PaymentPaid))
	r, err := s.GetByOrderID(ctx, "ORDER_3")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPaid, r.RegistrationPaymentStatus)

	assert.ErrorIs(t, s.UpdatePaymentStatus(ctx, "SPOT_3", model.PaymentPaid), ErrSpotLocked)
	r, err = s.GetByOrderID(ctx, "SPOT_3")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentSpot, r.RegistrationPaymentStatus)

	assert.ErrorIs(t, s.UpdatePaymentStatus(ctx, "ORDER_none", model.PaymentPaid), ErrNotFound)
	assert.Error(t, s.UpdatePaymentStatus(ctx, "ORDER_3", model.PaymentStatus("bogus")))
}

func TestSetParticipationSinglePathForBothKinds(t *testing.T) {
	s, ev := newStore(t)
	ctx := context.Background()
	u, err := s.FindOrCreateUser(ctx, &model.UserModel{UserEmail: "a@b.co", UserFirstName: "A"})
	require.NoError(t, err)

	single := createReg(t, s, u.UserID, "ORDER_S", model.PaymentPaid, &ev.EventID)
	multi := &model.RegistrationModel{
		RegistrationKind:           model.KindMulti,
		RegistrationUserID:         u.UserID,
		RegistrationSelectedEvents: datatypes.JSONSlice[string]{"code-loom", "robo-race"},
		RegistrationOrderID:        "ORDER_M",
		RegistrationPaymentAmount:  decimal.NewFromInt(300),
	}
	require.NoError(t, s.CreateRegistration(ctx, multi))

	require.NoError(t, s.SetParticipation(ctx, single.RegistrationID, true))
	require.NoError(t, s.SetParticipation(ctx, multi.RegistrationID, true))
	assert.ErrorIs(t, s.SetParticipation(ctx, uuid.New(), true), ErrNotFound)

	r, err := s.GetByOrderID(ctx, "ORDER_M")
	require.NoError(t, err)
	assert.True(t, r.RegistrationParticipationConfirmed)
	assert.Nil(t, r.Event)

	r, err = s.SetParticipationByOrderID(ctx, "ORDER_S", false)
	require.NoError(t, err)
	assert.False(t, r.RegistrationParticipationConfirmed)
}

func TestListAllNewestFirst(t *testing.T) {
	s, ev := newStore(t)
	ctx := context.Background()
	u, err := s.FindOrCreateUser(ctx, &model.UserModel{UserEmail: "a@b.co", UserFirstName: "A"})
	require.NoError(t, err)

	createReg(t, s, u.UserID, "ORDER_old", model.PaymentPending, &ev.EventID)
	time.Sleep(5 * time.Millisecond)
	createReg(t, s, u.UserID, "ORDER_new", model.PaymentPending, &ev.EventID)

	rows, err := s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "ORDER_new", rows[0].RegistrationOrderID)
	require.NotNil(t, rows[0].User)
}

func TestFindEventBySlug(t *testing.T) {
	s, ev := newStore(t)
	got, err := s.FindEventBySlug(context.Background(), "Code-Loom")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, ev.EventID, got.EventID)

	got, err = s.FindEventBySlug(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}
