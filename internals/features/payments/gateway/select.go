package gateway

import (
	"strings"

	"techfest_backend/internals/configs"
)

// Set holds every provider client built from config and the one checkout uses.
// Webhook endpoints verify with their own provider regardless of Active.
type Set struct {
	Active   Provider
	Cashfree *Cashfree
	Midtrans *Midtrans
}

func FromConfig(cfg configs.PaymentConfig) Set {
	s := Set{
		Cashfree: NewCashfree(CashfreeConfig{
			AppID:      cfg.CashfreeAppID,
			SecretKey:  cfg.CashfreeSecret,
			Env:        cfg.CashfreeEnv,
			APIVersion: cfg.CashfreeAPIVer,
			ReturnURL:  cfg.SuccessURL,
			NotifyURL:  cfg.NotifyURL,
			Timeout:    cfg.Timeout,
			MaxSkew:    cfg.WebhookMaxSkew,
		}),
		Midtrans: NewMidtrans(MidtransConfig{
			ServerKey:     cfg.MidtransServerKey,
			UseProduction: cfg.MidtransUseProd,
			FinishURL:     cfg.SuccessURL,
			NotifyURL:     cfg.MidtransNotifyURL,
		}),
	}
	s.Active = s.Cashfree
	if strings.EqualFold(cfg.Provider, "midtrans") {
		s.Active = s.Midtrans
	}
	return s
}
