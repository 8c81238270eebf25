package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"techfest_backend/internals/configs"
	"techfest_backend/internals/databases/dbtest"
	"techfest_backend/internals/features/admin/view"
	"techfest_backend/internals/features/events/catalog"
	regDTO "techfest_backend/internals/features/registrations/dto"
	"techfest_backend/internals/features/registrations/model"
	"techfest_backend/internals/features/registrations/repository"
	regSvc "techfest_backend/internals/features/registrations/service"
	"techfest_backend/internals/middlewares/auth"
	"techfest_backend/internals/outbox"
)

func useBackends(t *testing.T) (*Backends, *gorm.DB) {
	t.Helper()
	db := dbtest.Open(t)
	cat, err := catalog.Default()
	require.NoError(t, err)
	require.NoError(t, db.Create(cat.Models()).Error)
	b := &Backends{DB: db, Catalog: cat, Config: configs.Config{Outbox: configs.OutboxConfig{MaxAttempts: 3}}}

	prev := connect
	connect = func(bool) (*Backends, error) { return b, nil }
	t.Cleanup(func() { connect = prev })
	return b, db
}

func seedReg(t *testing.T, db *gorm.DB, i int, first string, status model.PaymentStatus) {
	t.Helper()
	store := repository.New(db)
	u, err := store.FindOrCreateUser(context.Background(), &model.UserModel{
		UserEmail: fmt.Sprintf("u%d@college.edu", i), UserFirstName: first, UserLastName: "Rao", UserOrganization: "City College",
	})
	require.NoError(t, err)
	require.NoError(t, store.CreateRegistration(context.Background(), &model.RegistrationModel{
		RegistrationKind:            model.KindSingle,
		RegistrationUserID:          u.UserID,
		RegistrationSelectedEvents:  datatypes.JSONSlice[string]{"code-loom"},
		RegistrationOrderID:         fmt.Sprintf("ORDER_%d", i),
		RegistrationPaymentAmount:   decimal.NewFromInt(100),
		RegistrationPaymentCurrency: "INR",
		RegistrationPaymentStatus:   status,
		RegistrationCreatedAt:       time.Date(2025, 2, 1, 10, i, 0, 0, time.UTC),
	}))
}

func command(c *cobra.Command, stdin string) (*cobra.Command, *bytes.Buffer) {
	out := &bytes.Buffer{}
	c.SetOut(out)
	c.SetIn(strings.NewReader(stdin))
	c.SetContext(context.Background())
	return c, out
}

func TestHashPassword(t *testing.T) {
	cmd, out := command(hashPasswordCmd, "hunter22\n")
	require.NoError(t, runHashPassword(cmd, nil))

	hash := strings.TrimSpace(out.String())
	assert.True(t, strings.HasPrefix(hash, "$2a$"))
	assert.NoError(t, auth.CheckCredentials("a@b.co", hash, "a@b.co", "hunter22"))

	cmd, _ = command(hashPasswordCmd, "")
	assert.Error(t, runHashPassword(cmd, nil))
}

func TestRegistrationsList(t *testing.T) {
	_, db := useBackends(t)
	seedReg(t, db, 1, "Asha", model.PaymentPaid)
	seedReg(t, db, 2, "John", model.PaymentPending)
	seedReg(t, db, 3, "Johnny", model.PaymentPaid)

	cmd, out := command(registrationsListCmd, "")
	require.NoError(t, cmd.Flags().Set("status", "paid"))
	t.Cleanup(func() { _ = cmd.Flags().Set("status", view.StatusAll) })
	require.NoError(t, runRegistrationsList(cmd, nil))

	text := out.String()
	assert.Contains(t, text, "ORDER_1")
	assert.Contains(t, text, "ORDER_3")
	assert.NotContains(t, text, "ORDER_2")
	assert.Contains(t, text, "Code Loom")
	assert.Contains(t, text, "100.00 INR")
	assert.Contains(t, text, "Page 1 of 1 (2 matching, 25 per page)")
	// newest first
	assert.Less(t, strings.Index(text, "ORDER_3"), strings.Index(text, "ORDER_1"))
}

func TestSearchLoopRunsLastQueryOfBurst(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	rows := []model.RegistrationModel{
		{RegistrationOrderID: "ORDER_1", User: &model.UserModel{UserFirstName: "John", UserLastName: "Smith"}},
		{RegistrationOrderID: "ORDER_2", User: &model.UserModel{UserFirstName: "Jo", UserLastName: "Ann"}},
	}

	out := &bytes.Buffer{}
	ran, err := searchLoop(context.Background(), strings.NewReader("Jo\nJohn\n"), out, rows, cat, view.Filter{}, 25, view.SearchDelay)
	require.NoError(t, err)
	assert.Equal(t, []string{"John"}, ran)
	assert.Contains(t, out.String(), "ORDER_1")
	assert.NotContains(t, out.String(), "ORDER_2")
}

func TestSearchLoopSeparateBursts(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	rows := []model.RegistrationModel{
		{RegistrationOrderID: "ORDER_1", User: &model.UserModel{UserFirstName: "John"}},
		{RegistrationOrderID: "ORDER_2", User: &model.UserModel{UserFirstName: "Mary"}},
	}

	pr, pw := io.Pipe()
	go func() {
		_, _ = io.WriteString(pw, "J\nJo\nJohn\n")
		time.Sleep(300 * time.Millisecond)
		_, _ = io.WriteString(pw, "Ma\nMary\n")
		_ = pw.Close()
	}()

	ran, err := searchLoop(context.Background(), pr, io.Discard, rows, cat, view.Filter{}, 10, 50*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, []string{"John", "Mary"}, ran)
}

func TestSeedWithoutRedis(t *testing.T) {
	b, _ := useBackends(t)
	cmd, out := command(seedCmd, "")
	require.NoError(t, runSeed(cmd, nil))
	assert.Contains(t, out.String(), fmt.Sprintf("Seeded %d events.", len(b.Catalog.Events)))
	assert.NotContains(t, out.String(), "Purged")
}

func TestOutboxReplay(t *testing.T) {
	b, db := useBackends(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	q := outbox.NewRedisQueue(rdb, "test:outbox")

	svc := regSvc.New(repository.New(db), b.Catalog, nil, q)
	d, err := svc.Prepare(regDTO.RegisterRequest{
		OrderID:        "ORDER_1710000000000_abc123xyz",
		ParticipantDTO: regDTO.ParticipantDTO{FirstName: "Asha", Email: "asha@college.edu", Organization: "City College"},
		Events:         []string{"code-loom"},
	})
	require.NoError(t, err)
	e, err := outbox.NewEntry(outbox.KindRegistration, d)
	require.NoError(t, err)
	require.NoError(t, q.Push(context.Background(), e))

	cmd, out := command(outboxRunCmd, "")
	require.NoError(t, replay(cmd, b, q))
	assert.Contains(t, out.String(), "Processed 1, re-queued 0, dead-lettered 0, 0 still queued.")

	reg, err := repository.New(db).GetByOrderID(context.Background(), "ORDER_1710000000000_abc123xyz")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPending, reg.RegistrationPaymentStatus)
}
