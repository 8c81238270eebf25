package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// Logger is the process-wide logger. Init replaces it; until then it writes JSON to stderr.
var Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

const localsKey = "logger"

// Init configures Logger from LOG_LEVEL / LOG_FORMAT.
// LOG_FORMAT=console gives the human readable writer used during development.
func Init(level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339

	var w io.Writer = os.Stderr
	if strings.EqualFold(format, "console") {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "2006-01-02 15:04:05"}
	}
	Logger = zerolog.New(w).With().Timestamp().Str("service", "techfest").Logger()
	return Logger
}

// WithRequest stores a request-scoped logger in fiber locals.
func WithRequest(c *fiber.Ctx, l zerolog.Logger) {
	c.Locals(localsKey, l)
}

// From returns the request-scoped logger, or the global one.
func From(c *fiber.Ctx) *zerolog.Logger {
	if c != nil {
		if l, ok := c.Locals(localsKey).(zerolog.Logger); ok {
			return &l
		}
	}
	return &Logger
}
