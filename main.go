package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"github.com/redis/go-redis/v9"

	"techfest_backend/internals/configs"
	database "techfest_backend/internals/databases"
	"techfest_backend/internals/features/events/catalog"
	"techfest_backend/internals/features/payments/gateway"
	"techfest_backend/internals/logging"
	"techfest_backend/internals/middlewares"
	"techfest_backend/internals/outbox"
	routes "techfest_backend/internals/route"
	"techfest_backend/internals/seeds"
)

func main() {
	configs.LoadEnv()
	cfg := configs.Load()
	log := logging.Init(cfg.LogLevel, cfg.LogFmt)

	app := fiber.New(fiber.Config{
		JSONEncoder:             sonic.Marshal,
		JSONDecoder:             sonic.Unmarshal,
		ErrorHandler:            middlewares.ErrorHandler,
		DisableStartupMessage:   true,
		ProxyHeader:             fiber.HeaderXForwardedFor,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          []string{"0.0.0.0/0"},
		BodyLimit:               1 << 20,
	})

	app.Use(compress.New(compress.Config{Level: compress.LevelDefault}))
	app.Use(etag.New())
	middlewares.SetupMiddlewares(app, cfg)

	// DB connect + pool + warm-up + schema
	db, err := database.ConnectDB(cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("database")
	}
	database.TunePool(db)
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}
	database.WarmUpQueries(db)

	cat, err := catalog.Load(cfg.Catalog)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.Catalog).Msg("event catalog")
	}
	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 10*time.Second)
	if err := seeds.RunAllSeeds(seedCtx, db, cat); err != nil {
		log.Warn().Err(err).Msg("seeding events failed, serving existing rows")
	}
	cancelSeed()

	deps := routes.Deps{
		Config:   cfg,
		DB:       db,
		Catalog:  cat,
		Gateways: gateway.FromConfig(cfg.Payment),
	}
	log.Info().Str("provider", deps.Gateways.Active.Name()).Msg("payment gateway selected")

	rdb, err := database.ConnectRedis(cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, cache and redis outbox disabled")
	}
	if rdb != nil {
		deps.Redis = rdb
	}

	deps.Outbox = openOutbox(cfg.Outbox, rdb)

	svcs := routes.SetupRoutes(app, deps)

	var worker *outbox.Worker
	if deps.Outbox != nil {
		worker = outbox.NewWorker(deps.Outbox, cfg.Outbox.MaxAttempts)
		worker.Handle(outbox.KindRegistration, svcs.Registrations.ReplayHandler())
		if err := worker.Start(cfg.Outbox.RetryCron); err != nil {
			log.Error().Err(err).Msg("outbox worker not started")
			worker = nil
		}
	}

	app.Server().ReadTimeout = 15 * time.Second
	app.Server().WriteTimeout = 30 * time.Second
	app.Server().IdleTimeout = 90 * time.Second

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("listening")
		if err := app.Listen("0.0.0.0:" + cfg.Port); err != nil {
			log.Fatal().Err(err).Msg("server")
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(ctx)

	if worker != nil {
		worker.Stop()
	}
	if deps.Outbox != nil {
		_ = deps.Outbox.Close()
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	database.Close(db)
}

// openOutbox picks the retry queue backend. nil disables the retry worker.
func openOutbox(cfg configs.OutboxConfig, rdb *redis.Client) outbox.Queue {
	switch cfg.Backend {
	case "rabbitmq", "amqp":
		if cfg.RabbitURL == "" {
			logging.Logger.Warn().Msg("OUTBOX_BACKEND=rabbitmq but RABBITMQ_URL is empty, outbox disabled")
			return nil
		}
		q, err := outbox.NewRabbitQueue(cfg.RabbitURL, cfg.Queue)
		if err != nil {
			logging.Logger.Warn().Err(err).Msg("outbox disabled")
			return nil
		}
		return q
	case "none", "off":
		return nil
	default:
		if rdb == nil {
			logging.Logger.Warn().Msg("redis outbox needs REDIS_ADDR, outbox disabled")
			return nil
		}
		return outbox.NewRedisQueue(rdb, cfg.Queue)
	}
}
