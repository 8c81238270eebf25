package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"techfest_backend/internals/configs"
)

func TestFromConfig(t *testing.T) {
	s := FromConfig(configs.PaymentConfig{Provider: "cashfree", CashfreeAppID: "app", CashfreeSecret: "sec"})
	assert.Equal(t, "cashfree", s.Active.Name())
	assert.True(t, s.Cashfree.Configured())
	assert.False(t, s.Midtrans.Configured())

	s = FromConfig(configs.PaymentConfig{Provider: "Midtrans", MidtransServerKey: "SB-key"})
	assert.Equal(t, "midtrans", s.Active.Name())
	assert.True(t, s.Midtrans.Configured())
	assert.False(t, s.Cashfree.Configured())
}
