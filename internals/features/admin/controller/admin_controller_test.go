package controller_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"techfest_backend/internals/databases/dbtest"
	"techfest_backend/internals/features/admin/controller"
	"techfest_backend/internals/features/admin/route"
	"techfest_backend/internals/features/events/catalog"
	"techfest_backend/internals/features/registrations/model"
	"techfest_backend/internals/features/registrations/repository"
	"techfest_backend/internals/middlewares/auth"
)

const (
	secret   = "admin-secret"
	email    = "admin@fest.example.org"
	password = "correct horse"
)

type fixture struct {
	app   *fiber.App
	store repository.Store
	token string
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	cat, err := catalog.Default()
	require.NoError(t, err)
	require.NoError(t, db.Create(cat.Models()).Error)

	hash, err := auth.HashPassword(password)
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	bl := auth.NewBlacklist(rdb, "test:revoked:")

	store := repository.New(db)
	h := controller.NewAdminController(store, cat, controller.Credentials{Email: email, PasswordHash: hash, Secret: secret, TTL: time.Hour}, "https://fest.example.org")
	h.Blacklist = bl

	app := fiber.New()
	route.AdminRoutes(app.Group("/api"), h, auth.AdminOnly(auth.AuthJWTOpts{Secret: secret, BlacklistChecker: bl.Checker()}))

	tok, _, err := auth.IssueToken(secret, email, auth.RoleAdmin, time.Hour, time.Now())
	require.NoError(t, err)
	return &fixture{app: app, store: store, token: tok}
}

func (f *fixture) do(t *testing.T, method, path, body, token string) (int, []byte) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func (f *fixture) seed(t *testing.T, i int, first string, status model.PaymentStatus, events ...string) *model.RegistrationModel {
	t.Helper()
	ctx := context.Background()
	u, err := f.store.FindOrCreateUser(ctx, &model.UserModel{
		UserEmail:        fmt.Sprintf("p%d@college.edu", i),
		UserFirstName:    first,
		UserLastName:     fmt.Sprint(i),
		UserOrganization: "City College",
	})
	require.NoError(t, err)
	kind := model.KindSingle
	if len(events) > 1 {
		kind = model.KindMulti
	}
	r := &model.RegistrationModel{
		RegistrationKind:           kind,
		RegistrationUserID:         u.UserID,
		RegistrationSelectedEvents: datatypes.JSONSlice[string](events),
		RegistrationOrderID:        fmt.Sprintf("ORDER_%d", i),
		RegistrationPaymentAmount:  decimal.NewFromInt(100),
		RegistrationPaymentStatus:  status,
		RegistrationCreatedAt:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Minute),
	}
	require.NoError(t, f.store.CreateRegistration(ctx, r))
	return r
}

type listBody struct {
	Data []struct {
		OrderID    string `json:"orderId"`
		Name       string `json:"name"`
		EventLabel string `json:"eventLabel"`
	} `json:"data"`
	Pagination struct {
		Page       int   `json:"page"`
		PerPage    int   `json:"per_page"`
		Total      int64 `json:"total"`
		TotalPages int   `json:"total_pages"`
	} `json:"pagination"`
	Counts map[string]int `json:"counts"`
}

func TestLogin(t *testing.T) {
	f := setup(t)

	code, raw := f.do(t, http.MethodPost, "/api/admin/login", `{"email":"ADMIN@fest.example.org","password":"correct horse"}`, "")
	require.Equal(t, http.StatusOK, code, string(raw))
	var out struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &out))
	require.NotEmpty(t, out.Data.Token)

	code, _ = f.do(t, http.MethodGet, "/api/admin/registrations", "", out.Data.Token)
	assert.Equal(t, http.StatusOK, code)

	code, _ = f.do(t, http.MethodPost, "/api/admin/login", `{"email":"admin@fest.example.org","password":"nope"}`, "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = f.do(t, http.MethodPost, "/api/admin/login", `{"email":"not-an-email"}`, "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestRegistrationsRequireAdmin(t *testing.T) {
	f := setup(t)
	code, _ := f.do(t, http.MethodGet, "/api/admin/registrations", "", "")
	assert.Equal(t, http.StatusUnauthorized, code)

	viewer, _, err := auth.IssueToken(secret, "x@fest.example.org", "viewer", time.Hour, time.Now())
	require.NoError(t, err)
	code, _ = f.do(t, http.MethodGet, "/api/admin/registrations", "", viewer)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestListRegistrationsPaginates(t *testing.T) {
	f := setup(t)
	for i := 1; i <= 47; i++ {
		f.seed(t, i, "Asha", model.PaymentPaid, "code-loom")
	}

	code, raw := f.do(t, http.MethodGet, "/api/admin/registrations?page=2&per_page=25", "", f.token)
	require.Equal(t, http.StatusOK, code, string(raw))
	var out listBody
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, 2, out.Pagination.TotalPages)
	assert.Equal(t, 2, out.Pagination.Page)
	assert.EqualValues(t, 47, out.Pagination.Total)
	require.Len(t, out.Data, 22)
	// newest first: page 2 holds the 22 oldest
	assert.Equal(t, "ORDER_22", out.Data[0].OrderID)
	assert.Equal(t, "ORDER_1", out.Data[21].OrderID)
	assert.Equal(t, "Code Loom", out.Data[0].EventLabel)

	// out of range pages clamp to the last one
	_, raw = f.do(t, http.MethodGet, "/api/admin/registrations?page=9&per_page=25", "", f.token)
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, 2, out.Pagination.Page)
}

func TestListRegistrationsFilters(t *testing.T) {
	f := setup(t)
	f.seed(t, 1, "John", model.PaymentPaid, "code-loom")
	f.seed(t, 2, "Johnny", model.PaymentPending, "robo-race", "code-loom")
	f.seed(t, 3, "Mary", model.PaymentFailed, "tech-quiz")
	f.seed(t, 4, "Ravi", model.PaymentSpot, "robo-race")

	var out listBody
	_, raw := f.do(t, http.MethodGet, "/api/admin/registrations?status=paid", "", f.token)
	require.NoError(t, json.Unmarshal(raw, &out))
	require.Len(t, out.Data, 1)
	assert.Equal(t, "ORDER_1", out.Data[0].OrderID)

	_, raw = f.do(t, http.MethodGet, "/api/admin/registrations?q=john&status=all", "", f.token)
	out = listBody{}
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Len(t, out.Data, 2)
	assert.Equal(t, 1, out.Counts["paid"])
	assert.Equal(t, 1, out.Counts["pending"])

	_, raw = f.do(t, http.MethodGet, "/api/admin/registrations?event=robo-race", "", f.token)
	out = listBody{}
	require.NoError(t, json.Unmarshal(raw, &out))
	require.Len(t, out.Data, 2)
	assert.Equal(t, "ORDER_4", out.Data[0].OrderID)
	assert.Equal(t, "Robo Race, Code Loom", out.Data[1].EventLabel)

	code, _ := f.do(t, http.MethodGet, "/api/admin/registrations?status=shipped", "", f.token)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSetParticipation(t *testing.T) {
	f := setup(t)
	single := f.seed(t, 1, "John", model.PaymentPaid, "code-loom")
	multi := f.seed(t, 2, "Mary", model.PaymentPaid, "code-loom", "robo-race")

	for _, r := range []*model.RegistrationModel{single, multi} {
		code, raw := f.do(t, http.MethodPatch, "/api/admin/registrations/"+r.RegistrationID.String()+"/participation", `{"confirmed":true}`, f.token)
		require.Equal(t, http.StatusOK, code, string(raw))
		got, err := f.store.GetByOrderID(context.Background(), r.RegistrationOrderID)
		require.NoError(t, err)
		assert.True(t, got.RegistrationParticipationConfirmed)
	}

	code, _ := f.do(t, http.MethodPatch, "/api/admin/registrations/"+single.RegistrationID.String()+"/participation", `{}`, f.token)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = f.do(t, http.MethodPatch, "/api/admin/registrations/not-a-uuid/participation", `{"confirmed":true}`, f.token)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = f.do(t, http.MethodPatch, "/api/admin/registrations/00000000-0000-0000-0000-000000000001/participation", `{"confirmed":false}`, f.token)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestConfirmFromTicket(t *testing.T) {
	f := setup(t)
	f.seed(t, 1, "John", model.PaymentPaid, "code-loom")
	f.seed(t, 2, "Mary", model.PaymentPending, "code-loom")

	code, raw := f.do(t, http.MethodPost, "/api/admin/confirm/ORDER_1", "", f.token)
	require.Equal(t, http.StatusOK, code, string(raw))
	assert.Contains(t, string(raw), `"participationConfirmed":true`)
	assert.Contains(t, string(raw), `https://fest.example.org/admin/confirm/ORDER_1`)

	// confirming twice is fine
	code, _ = f.do(t, http.MethodPost, "/api/admin/confirm/ORDER_1", "", f.token)
	assert.Equal(t, http.StatusOK, code)

	code, _ = f.do(t, http.MethodPost, "/api/admin/confirm/ORDER_2", "", f.token)
	assert.Equal(t, http.StatusConflict, code)

	code, _ = f.do(t, http.MethodPost, "/api/admin/confirm/ORDER_404", "", f.token)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestLogoutRevokesToken(t *testing.T) {
	f := setup(t)
	code, _ := f.do(t, http.MethodPost, "/api/admin/logout", "", f.token)
	require.Equal(t, http.StatusOK, code)

	code, _ = f.do(t, http.MethodGet, "/api/admin/registrations", "", f.token)
	assert.Equal(t, http.StatusUnauthorized, code)
}
