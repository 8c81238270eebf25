package configs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDerivesNotifyURLsFromAppBaseURL(t *testing.T) {
	t.Setenv("APP_BASE_URL", "https://api.fest.example.org/")
	t.Setenv("PAYMENT_NOTIFY_URL", "")
	t.Setenv("MIDTRANS_NOTIFY_URL", "")

	c := Load()
	assert.Equal(t, "https://api.fest.example.org", c.AppBaseURL)
	assert.Equal(t, "https://api.fest.example.org/api/payment-webhook", c.Payment.NotifyURL)
	assert.Equal(t, "https://api.fest.example.org/api/payment-webhook/midtrans", c.Payment.MidtransNotifyURL)
}

func TestLoadKeepsExplicitNotifyURLs(t *testing.T) {
	t.Setenv("APP_BASE_URL", "https://api.fest.example.org")
	t.Setenv("PAYMENT_NOTIFY_URL", "https://hooks.example.org/cf")
	t.Setenv("MIDTRANS_NOTIFY_URL", "https://hooks.example.org/mt")

	c := Load()
	assert.Equal(t, "https://hooks.example.org/cf", c.Payment.NotifyURL)
	assert.Equal(t, "https://hooks.example.org/mt", c.Payment.MidtransNotifyURL)
}

func TestGetEnvTypedFallbacks(t *testing.T) {
	t.Setenv("OUTBOX_MAX_ATTEMPTS", "not-a-number")
	t.Setenv("MIDTRANS_USE_PROD", "true")
	t.Setenv("PAYMENT_TIMEOUT", "3s")

	c := Load()
	assert.Equal(t, 10, c.Outbox.MaxAttempts)
	assert.True(t, c.Payment.MidtransUseProd)
	assert.Equal(t, "3s", c.Payment.Timeout.String())
}
