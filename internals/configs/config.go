package configs

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/utils"

	"techfest_backend/internals/logging"
)

// =======================
// ENV LOADER
// =======================

// LoadEnv reads .env when running outside a managed platform.
func LoadEnv(files ...string) {
	if os.Getenv("RAILWAY_ENVIRONMENT") != "" {
		logging.Logger.Info().Msg("running on Railway, using system ENV")
		return
	}
	if err := godotenv.Load(files...); err != nil {
		logging.Logger.Warn().Msg(".env not found, using system ENV")
		return
	}
	logging.Logger.Info().Msg(".env loaded")
}

func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if (!exists || strings.TrimSpace(value) == "") && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return strings.TrimSpace(value)
}

func GetEnvInt(key string, def int) int {
	if n, err := strconv.Atoi(GetEnv(key)); err == nil {
		return n
	}
	return def
}

func GetEnvBool(key string, def bool) bool {
	if b, err := strconv.ParseBool(GetEnv(key)); err == nil {
		return b
	}
	return def
}

func GetEnvDuration(key string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(GetEnv(key)); err == nil {
		return d
	}
	return def
}

// =======================
// TYPED CONFIG
// =======================

type Config struct {
	Env      string
	Port     string
	LogLevel string
	LogFmt   string

	AppBaseURL   string
	AdminBaseURL string
	CorsOrigins  string

	DB       DBConfig
	Payment  PaymentConfig
	Redis    RedisConfig
	Outbox   OutboxConfig
	Admin    AdminConfig
	Catalog  string
	CacheTTL time.Duration
}

type DBConfig struct {
	URL      string
	User     string
	Password string
	Host     string
	Port     string
	Name     string
	SSLMode  string
}

type PaymentConfig struct {
	Provider          string // cashfree | midtrans
	CashfreeAppID     string
	CashfreeSecret    string
	CashfreeEnv       string // sandbox | production
	CashfreeAPIVer    string
	SuccessURL        string
	NotifyURL         string
	MidtransServerKey string
	MidtransNotifyURL string
	MidtransUseProd   bool
	WebhookMaxSkew    time.Duration
	Timeout           time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type OutboxConfig struct {
	Backend     string // redis | rabbitmq
	RabbitURL   string
	Queue       string
	RetryCron   string
	MaxAttempts int
}

type AdminConfig struct {
	JWTSecret    string
	Email        string
	PasswordHash string
	TokenTTL     time.Duration
}

// Load builds a Config snapshot from the environment.
func Load() Config {
	c := Config{
		Env:      GetEnv("APP_ENV", "development"),
		Port:     GetEnv("PORT", "3000"),
		LogLevel: GetEnv("LOG_LEVEL", "info"),
		LogFmt:   GetEnv("LOG_FORMAT", "json"),

		AppBaseURL:   strings.TrimRight(GetEnv("APP_BASE_URL", "http://localhost:3000"), "/"),
		AdminBaseURL: strings.TrimRight(GetEnv("ADMIN_BASE_URL", "http://localhost:5173"), "/"),
		CorsOrigins:  GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173"),

		DB: DBConfig{
			URL:      GetEnv("DATABASE_URL"),
			User:     GetEnv("DB_USER"),
			Password: GetEnv("DB_PASSWORD"),
			Host:     GetEnv("DB_HOST", "localhost"),
			Port:     GetEnv("DB_PORT", "5432"),
			Name:     GetEnv("DB_NAME", "techfest"),
			SSLMode:  GetEnv("DB_SSLMODE", "require"),
		},
		Payment: PaymentConfig{
			Provider:          strings.ToLower(GetEnv("PAYMENT_PROVIDER", "cashfree")),
			CashfreeAppID:     GetEnv("CASHFREE_APP_ID"),
			CashfreeSecret:    GetEnv("CASHFREE_SECRET_KEY"),
			CashfreeEnv:       strings.ToLower(GetEnv("CASHFREE_ENV", "sandbox")),
			CashfreeAPIVer:    GetEnv("CASHFREE_API_VERSION", "2023-08-01"),
			SuccessURL:        GetEnv("PAYMENT_SUCCESS_URL"),
			NotifyURL:         GetEnv("PAYMENT_NOTIFY_URL"),
			MidtransServerKey: GetEnv("MIDTRANS_SERVER_KEY"),
			MidtransNotifyURL: GetEnv("MIDTRANS_NOTIFY_URL"),
			MidtransUseProd:   GetEnvBool("MIDTRANS_USE_PROD", false),
			WebhookMaxSkew:    GetEnvDuration("WEBHOOK_MAX_SKEW", 5*time.Minute),
			Timeout:           GetEnvDuration("PAYMENT_TIMEOUT", 15*time.Second),
		},
		Redis: RedisConfig{
			Addr:     GetEnv("REDIS_ADDR"),
			Password: GetEnv("REDIS_PASSWORD"),
			DB:       GetEnvInt("REDIS_DB", 0),
		},
		Outbox: OutboxConfig{
			Backend:     strings.ToLower(GetEnv("OUTBOX_BACKEND", "redis")),
			RabbitURL:   GetEnv("RABBITMQ_URL"),
			Queue:       GetEnv("OUTBOX_QUEUE", "techfest.registrations.outbox"),
			RetryCron:   GetEnv("OUTBOX_RETRY_CRON", "@every 1m"),
			MaxAttempts: GetEnvInt("OUTBOX_MAX_ATTEMPTS", 10),
		},
		Admin: AdminConfig{
			JWTSecret:    GetEnv("JWT_SECRET"),
			Email:        strings.ToLower(GetEnv("ADMIN_EMAIL")),
			PasswordHash: GetEnv("ADMIN_PASSWORD_HASH"),
			TokenTTL:     GetEnvDuration("JWT_TTL", 12*time.Hour),
		},
		Catalog:  GetEnv("EVENT_CATALOG_FILE", "config/events.yaml"),
		CacheTTL: GetEnvDuration("CACHE_TTL", 30*time.Second),
	}

	// Providers call back into this service unless told otherwise.
	if c.Payment.NotifyURL == "" {
		c.Payment.NotifyURL = c.AppBaseURL + "/api/payment-webhook"
	}
	if c.Payment.MidtransNotifyURL == "" {
		c.Payment.MidtransNotifyURL = c.AppBaseURL + "/api/payment-webhook/midtrans"
	}
	return c
}

// =======================
// GORM LOGGER CUSTOM
// =======================

type GormLogger struct {
	SlowThreshold time.Duration
	LogLevel      gormLogger.LogLevel
}

func NewGormLogger() gormLogger.Interface {
	return &GormLogger{
		SlowThreshold: 200 * time.Millisecond,
		LogLevel:      gormLogger.Warn,
	}
}

func (l *GormLogger) LogMode(level gormLogger.LogLevel) gormLogger.Interface {
	nl := *l
	nl.LogLevel = level
	return &nl
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Info {
		logging.Logger.Info().Msgf(msg, data...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Warn {
		logging.Logger.Warn().Msgf(msg, data...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Error {
		logging.Logger.Error().Msgf(msg, data...)
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.LogLevel <= gormLogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	file := utils.FileWithLineNum()

	switch {
	case err != nil && l.LogLevel >= gormLogger.Error:
		logging.Logger.Error().Err(err).Str("file", file).Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("query failed")
	case elapsed > l.SlowThreshold && l.LogLevel >= gormLogger.Warn:
		logging.Logger.Warn().Str("file", file).Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("slow query")
	case l.LogLevel >= gormLogger.Info:
		logging.Logger.Debug().Str("file", file).Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("query")
	}
}
