package gateway

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/shopspring/decimal"
)

// MidtransCurrency is the only currency Snap charges in.
const MidtransCurrency = "IDR"

type MidtransConfig struct {
	ServerKey     string
	UseProduction bool
	// FinishURL is where Snap sends the customer after paying; order_id is appended.
	FinishURL string
	// NotifyURL overrides the dashboard notification URL for every transaction.
	NotifyURL string
}

// Midtrans drives Snap checkout; the Snap token is returned as the payment session id.
type Midtrans struct {
	cfg  MidtransConfig
	snap snap.Client
	core coreapi.Client
}

func NewMidtrans(cfg MidtransConfig) *Midtrans {
	env := midtrans.Sandbox
	if cfg.UseProduction {
		env = midtrans.Production
	}
	m := &Midtrans{cfg: cfg}
	m.snap.New(cfg.ServerKey, env)
	m.core.New(cfg.ServerKey, env)
	if cfg.NotifyURL != "" {
		m.snap.Options.SetPaymentOverrideNotification(cfg.NotifyURL)
	}
	return m
}

func (m *Midtrans) Name() string { return "midtrans" }

func (m *Midtrans) Configured() bool { return m.cfg.ServerKey != "" }

// CheckAmount: Snap takes an integer gross_amount in IDR. An empty currency means IDR.
func (m *Midtrans) CheckAmount(amount decimal.Decimal, currency string) error {
	if currency != "" && !strings.EqualFold(currency, MidtransCurrency) {
		return fmt.Errorf("%w: midtrans charges %s, not %s", ErrUnsupportedCurrency, MidtransCurrency, strings.ToUpper(currency))
	}
	if !amount.Equal(amount.Truncate(0)) {
		return fmt.Errorf("%w: %s", ErrFractionalAmount, amount.String())
	}
	return nil
}

func (m *Midtrans) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	if !m.Configured() {
		return nil, ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := m.CheckAmount(req.Amount, req.Currency); err != nil {
		return nil, err
	}
	gross := req.Amount.IntPart()
	first, last := splitName(req.CustomerName)

	sreq := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  req.OrderID,
			GrossAmt: gross,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: first,
			LName: last,
			Email: req.CustomerEmail,
			Phone: req.CustomerPhone,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:    truncate(req.OrderID, 50),
				Price: gross,
				Qty:   1,
				Name:  truncate(req.EventName, 50),
			},
		},
		CustomField1: truncate("Registration for "+req.EventName, 40),
	}
	if m.cfg.FinishURL != "" {
		sreq.Callbacks = &snap.Callbacks{Finish: withOrderID(m.cfg.FinishURL, req.OrderID)}
	}

	resp, merr := m.snap.CreateTransaction(sreq)
	if merr != nil {
		return nil, m.toError(merr)
	}
	return &Order{
		OrderID:          req.OrderID,
		PaymentSessionID: resp.Token,
		OrderStatus:      OrderActive,
		RedirectURL:      resp.RedirectURL,
	}, nil
}

// FetchPayments reports the single Midtrans transaction of an order. An order
// that was never paid into yields an empty list.
func (m *Midtrans) FetchPayments(ctx context.Context, orderID string) ([]Payment, error) {
	if !m.Configured() {
		return nil, ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	st, merr := m.core.CheckTransaction(orderID)
	if merr != nil {
		if merr.GetStatusCode() == http.StatusNotFound {
			return []Payment{}, nil
		}
		return nil, m.toError(merr)
	}
	if st == nil || st.StatusCode == "404" {
		return []Payment{}, nil
	}

	p := Payment{
		PaymentID:     st.TransactionID,
		OrderID:       st.OrderID,
		PaymentStatus: MidtransPaymentStatus(st.TransactionStatus, st.FraudStatus),
		Currency:      st.Currency,
		Method:        st.PaymentType,
		Message:       st.StatusMessage,
	}
	if amt, err := decimal.NewFromString(st.GrossAmount); err == nil {
		p.Amount = amt
	}
	if t, err := time.Parse("2006-01-02 15:04:05", st.SettlementTime); err == nil {
		p.PaidAt = &t
	}
	if raw, err := sonic.Marshal(st); err == nil {
		p.Raw = raw
	}
	return []Payment{p}, nil
}

type midtransNotif struct {
	TransactionTime   string `json:"transaction_time"`
	TransactionStatus string `json:"transaction_status"`
	TransactionID     string `json:"transaction_id"`
	StatusCode        string `json:"status_code"`
	SignatureKey      string `json:"signature_key"`
	OrderID           string `json:"order_id"`
	GrossAmount       string `json:"gross_amount"`
	Currency          string `json:"currency"`
	FraudStatus       string `json:"fraud_status"`
}

// ParseMidtransNotification maps an HTTP notification body onto provider-neutral statuses.
func ParseMidtransNotification(rawBody []byte) (*Notification, error) {
	var n midtransNotif
	if err := sonic.Unmarshal(rawBody, &n); err != nil {
		return nil, fmt.Errorf("midtrans notification: %w", err)
	}
	if strings.TrimSpace(n.OrderID) == "" || strings.TrimSpace(n.TransactionStatus) == "" {
		return nil, errors.New("midtrans notification: order_id and transaction_status are required")
	}
	ps := MidtransPaymentStatus(n.TransactionStatus, n.FraudStatus)
	cur := strings.ToUpper(n.Currency)
	if cur == "" {
		cur = "IDR"
	}
	return &Notification{
		OrderID:       n.OrderID,
		OrderStatus:   MidtransOrderStatus(n.TransactionStatus, ps),
		PaymentStatus: ps,
		Amount:        n.GrossAmount,
		Currency:      cur,
		Timestamp:     n.TransactionTime,
	}, nil
}

// VerifyWebhook checks SHA512(order_id + status_code + gross_amount + server key).
func (m *Midtrans) VerifyWebhook(_ map[string]string, rawBody []byte) error {
	if !m.Configured() {
		return ErrNotConfigured
	}
	var n midtransNotif
	if err := sonic.Unmarshal(rawBody, &n); err != nil {
		return ErrInvalidSignature
	}
	want := SignMidtrans(m.cfg.ServerKey, n.OrderID, n.StatusCode, n.GrossAmount)
	got := strings.ToLower(n.SignatureKey)
	if got == "" || subtle.ConstantTimeCompare([]byte(want), []byte(got)) != 1 {
		return ErrInvalidSignature
	}
	return nil
}

func SignMidtrans(serverKey, orderID, statusCode, grossAmount string) string {
	h := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(h[:])
}

// MidtransPaymentStatus maps a Midtrans transaction_status onto the provider-neutral statuses.
func MidtransPaymentStatus(transactionStatus, fraudStatus string) string {
	switch strings.ToLower(transactionStatus) {
	case "capture":
		switch strings.ToLower(fraudStatus) {
		case "accept", "":
			return StatusSuccess
		case "challenge":
			return StatusPending
		}
		return StatusFailed
	case "settlement":
		return StatusSuccess
	case "pending", "authorize":
		return StatusPending
	case "deny", "failure":
		return StatusFailed
	case "refund", "partial_refund":
		return StatusRefunded
	case "cancel", "expire":
		return StatusCancelled
	}
	return StatusFailed
}

// MidtransOrderStatus derives the order level status that goes with a payment status.
func MidtransOrderStatus(transactionStatus, paymentStatus string) string {
	switch {
	case paymentStatus == StatusSuccess:
		return OrderPaid
	case strings.EqualFold(transactionStatus, "expire"):
		return OrderExpired
	}
	return OrderActive
}

func (m *Midtrans) toError(merr *midtrans.Error) error {
	code := merr.GetStatusCode()
	if code == 0 {
		code = http.StatusBadGateway
	}
	return &ProviderError{Provider: m.Name(), StatusCode: code, Message: merr.GetMessage()}
}

func splitName(full string) (string, string) {
	full = strings.TrimSpace(full)
	if i := strings.LastIndex(full, " "); i > 0 {
		return full[:i], full[i+1:]
	}
	return full, ""
}

var (
	_ Provider = (*Midtrans)(nil)
	_ Provider = (*Cashfree)(nil)
)
