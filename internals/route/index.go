package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"techfest_backend/internals/configs"
	adminController "techfest_backend/internals/features/admin/controller"
	adminRoute "techfest_backend/internals/features/admin/route"
	"techfest_backend/internals/features/events/catalog"
	eventController "techfest_backend/internals/features/events/controller"
	eventRoute "techfest_backend/internals/features/events/route"
	"techfest_backend/internals/features/payments/gateway"
	payController "techfest_backend/internals/features/payments/controller"
	payRepo "techfest_backend/internals/features/payments/repository"
	payRoute "techfest_backend/internals/features/payments/route"
	paySvc "techfest_backend/internals/features/payments/service"
	regController "techfest_backend/internals/features/registrations/controller"
	regRepo "techfest_backend/internals/features/registrations/repository"
	regRoute "techfest_backend/internals/features/registrations/route"
	regSvc "techfest_backend/internals/features/registrations/service"
	"techfest_backend/internals/logging"
	"techfest_backend/internals/middlewares"
	"techfest_backend/internals/middlewares/auth"
	"techfest_backend/internals/outbox"
)

var startTime time.Time

// Deps is everything the HTTP layer is built from. Redis and Outbox may be nil.
type Deps struct {
	Config   configs.Config
	DB       *gorm.DB
	Redis    redis.UniversalClient
	Catalog  *catalog.Catalog
	Gateways gateway.Set
	Outbox   outbox.Queue
}

// Services are returned so main can hand the registration replay handler to the outbox worker.
type Services struct {
	Registrations *regSvc.Service
	Payments      *paySvc.Service
}

func SetupRoutes(app *fiber.App, d Deps) Services {
	startTime = time.Now()
	cfg := d.Config

	store := regRepo.New(d.DB)
	registrations := regSvc.New(store, d.Catalog, d.Gateways.Active, d.Outbox)
	payments := paySvc.New(d.Gateways.Active, store, payRepo.NewEventLog(d.DB))

	BaseRoutes(app, d)

	api := app.Group("/api")

	// ===================== PUBLIC =====================
	logging.Logger.Info().Msg("mounting event routes")
	eventRoute.EventRoutes(api, eventController.NewEventController(d.DB, d.Catalog), d.Redis, cfg.CacheTTL)

	logging.Logger.Info().Msg("mounting registration routes")
	regH := regController.NewRegistrationController(registrations, cfg.AdminBaseURL)
	api.Use("/registrations", middlewares.RegisterRateLimiter())
	api.Use("/checkout", middlewares.RegisterRateLimiter())
	regRoute.RegistrationRoutes(api, regH)

	logging.Logger.Info().Msg("mounting payment routes")
	payH := payController.NewPaymentController(payments, d.Catalog, cfg.AdminBaseURL)
	if d.Gateways.Cashfree != nil && d.Gateways.Cashfree.Configured() {
		payH.WebhookVerifier = d.Gateways.Cashfree
	}
	if d.Gateways.Midtrans != nil && d.Gateways.Midtrans.Configured() {
		payH.MidtransVerifier = d.Gateways.Midtrans
	}
	api.Use("/payment-webhook", middlewares.WebhookRateLimiter())
	payRoute.PaymentRoutes(api, payH)

	// ===================== ADMIN =====================
	logging.Logger.Info().Msg("mounting admin routes")
	guardOpts := auth.AuthJWTOpts{Secret: cfg.Admin.JWTSecret, AllowCookieFallback: true}
	adminH := adminController.NewAdminController(store, d.Catalog, adminController.Credentials{
		Email:        cfg.Admin.Email,
		PasswordHash: cfg.Admin.PasswordHash,
		Secret:       cfg.Admin.JWTSecret,
		TTL:          cfg.Admin.TokenTTL,
	}, cfg.AdminBaseURL)
	if d.Redis != nil {
		bl := auth.NewBlacklist(d.Redis, "techfest:auth:revoked:")
		adminH.Blacklist = bl
		guardOpts.BlacklistChecker = bl.Checker()
	}

	var guard []fiber.Handler
	if cfg.Admin.JWTSecret == "" {
		logging.Logger.Warn().Msg("JWT_SECRET not set, admin endpoints are disabled")
		guard = []fiber.Handler{func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusServiceUnavailable, "Admin access is not configured")
		}}
	} else {
		guard = auth.AdminOnly(guardOpts)
	}

	admin := adminRoute.AdminRoutes(api, adminH, guard, middlewares.LoginRateLimiter())
	regRoute.RegistrationAdminRoutes(admin, regH)
	payRoute.PaymentAdminRoutes(admin, payH)

	return Services{Registrations: registrations, Payments: payments}
}
