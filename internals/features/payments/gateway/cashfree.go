package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

const (
	CashfreeSandboxURL    = "https://sandbox.cashfree.com"
	CashfreeProductionURL = "https://api.cashfree.com"

	HeaderWebhookSignature = "x-webhook-signature"
	HeaderWebhookTimestamp = "x-webhook-timestamp"

	// Cashfree rejects orders without a phone; used when the customer left it blank.
	PlaceholderPhone = "9999999999"
)

type CashfreeConfig struct {
	AppID      string
	SecretKey  string
	Env        string // sandbox | production
	APIVersion string
	ReturnURL  string
	NotifyURL  string
	Timeout    time.Duration
	MaxSkew    time.Duration

	// BaseURL overrides the environment default.
	BaseURL string
}

type Cashfree struct {
	cfg    CashfreeConfig
	client *fiber.Client
	now    func() time.Time
}

func NewCashfree(cfg CashfreeConfig) *Cashfree {
	if cfg.APIVersion == "" {
		cfg.APIVersion = "2023-08-01"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = CashfreeSandboxURL
		if strings.EqualFold(cfg.Env, "production") {
			cfg.BaseURL = CashfreeProductionURL
		}
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Cashfree{
		cfg: cfg,
		client: &fiber.Client{
			JSONEncoder: sonic.Marshal,
			JSONDecoder: sonic.Unmarshal,
		},
		now: time.Now,
	}
}

func (c *Cashfree) Name() string { return "cashfree" }

func (c *Cashfree) Configured() bool {
	return c.cfg.AppID != "" && c.cfg.SecretKey != ""
}

/* =========================================================
   Wire types
========================================================= */

type cfCustomer struct {
	CustomerID    string `json:"customer_id"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`
}

type cfOrderMeta struct {
	ReturnURL string `json:"return_url,omitempty"`
	NotifyURL string `json:"notify_url,omitempty"`
}

type cfCreateOrder struct {
	OrderID         string      `json:"order_id"`
	OrderAmount     float64     `json:"order_amount"`
	OrderCurrency   string      `json:"order_currency"`
	CustomerDetails cfCustomer  `json:"customer_details"`
	OrderMeta       cfOrderMeta `json:"order_meta"`
	OrderNote       string      `json:"order_note,omitempty"`
}

type cfOrder struct {
	CfOrderID        json.RawMessage `json:"cf_order_id"`
	OrderID          string          `json:"order_id"`
	OrderStatus      string          `json:"order_status"`
	PaymentSessionID string          `json:"payment_session_id"`
}

type cfPayment struct {
	CfPaymentID    json.RawMessage `json:"cf_payment_id"`
	OrderID        string          `json:"order_id"`
	PaymentStatus  string          `json:"payment_status"`
	PaymentAmount  decimal.Decimal `json:"payment_amount"`
	PaymentCurr    string          `json:"payment_currency"`
	PaymentGroup   string          `json:"payment_group"`
	PaymentMessage string          `json:"payment_message"`
	PaymentTime    string          `json:"payment_time"`
}

type cfError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Type    string `json:"type"`
}

/* =========================================================
   API
========================================================= */

func (c *Cashfree) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	currency := req.Currency
	if currency == "" {
		currency = "INR"
	}
	phone := strings.TrimSpace(req.CustomerPhone)
	if phone == "" {
		phone = PlaceholderPhone
	}
	amount, _ := req.Amount.Round(2).Float64()

	body := cfCreateOrder{
		OrderID:       req.OrderID,
		OrderAmount:   amount,
		OrderCurrency: currency,
		CustomerDetails: cfCustomer{
			CustomerID:    CustomerID(req.CustomerEmail),
			CustomerName:  req.CustomerName,
			CustomerEmail: req.CustomerEmail,
			CustomerPhone: phone,
		},
		OrderMeta: cfOrderMeta{
			ReturnURL: withOrderID(c.cfg.ReturnURL, req.OrderID),
			NotifyURL: c.cfg.NotifyURL,
		},
		OrderNote: truncate("Registration for "+req.EventName, 200),
	}

	status, raw, err := c.do(ctx, fiber.MethodPost, "/pg/orders", body)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, c.providerError(status, raw)
	}

	var out cfOrder
	if err := sonic.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("cashfree: decode order: %w", err)
	}
	return &Order{
		OrderID:          out.OrderID,
		PaymentSessionID: out.PaymentSessionID,
		OrderStatus:      out.OrderStatus,
		ProviderOrderID:  strings.Trim(string(out.CfOrderID), `"`),
	}, nil
}

func (c *Cashfree) FetchPayments(ctx context.Context, orderID string) ([]Payment, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	status, raw, err := c.do(ctx, fiber.MethodGet, "/pg/orders/"+url.PathEscape(orderID)+"/payments", nil)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, c.providerError(status, raw)
	}

	var items []json.RawMessage
	if err := sonic.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("cashfree: decode payments: %w", err)
	}
	out := make([]Payment, 0, len(items))
	for _, item := range items {
		var p cfPayment
		if err := sonic.Unmarshal(item, &p); err != nil {
			return nil, fmt.Errorf("cashfree: decode payment: %w", err)
		}
		pay := Payment{
			PaymentID:     strings.Trim(string(p.CfPaymentID), `"`),
			OrderID:       p.OrderID,
			PaymentStatus: strings.ToUpper(p.PaymentStatus),
			Amount:        p.PaymentAmount,
			Currency:      p.PaymentCurr,
			Method:        p.PaymentGroup,
			Message:       p.PaymentMessage,
			Raw:           item,
		}
		if t, err := time.Parse(time.RFC3339, p.PaymentTime); err == nil {
			pay.PaidAt = &t
		}
		out = append(out, pay)
	}
	return out, nil
}

// VerifyWebhook checks base64(HMAC-SHA256(timestamp + body, secret)).
func (c *Cashfree) VerifyWebhook(headers map[string]string, rawBody []byte) error {
	if c.cfg.SecretKey == "" {
		return ErrNotConfigured
	}
	sig := headerValue(headers, HeaderWebhookSignature)
	ts := headerValue(headers, HeaderWebhookTimestamp)
	if sig == "" || ts == "" {
		return ErrInvalidSignature
	}
	want := SignCashfree(c.cfg.SecretKey, ts, rawBody)
	if subtle.ConstantTimeCompare([]byte(want), []byte(sig)) != 1 {
		return ErrInvalidSignature
	}
	if c.cfg.MaxSkew > 0 {
		sent, ok := parseEpoch(ts)
		if !ok {
			return ErrInvalidSignature
		}
		skew := c.now().Sub(sent)
		if skew < 0 {
			skew = -skew
		}
		if skew > c.cfg.MaxSkew {
			return ErrStaleWebhook
		}
	}
	return nil
}

// SignCashfree computes the signature Cashfree sends in x-webhook-signature.
func SignCashfree(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

/* =========================================================
   Helpers
========================================================= */

func (c *Cashfree) do(ctx context.Context, method, path string, body any) (int, []byte, error) {
	timeout, err := timeoutFrom(ctx, c.cfg.Timeout)
	if err != nil {
		return 0, nil, err
	}

	var a *fiber.Agent
	switch method {
	case fiber.MethodPost:
		a = c.client.Post(c.cfg.BaseURL + path)
	default:
		a = c.client.Get(c.cfg.BaseURL + path)
	}
	a.Set("x-client-id", c.cfg.AppID).
		Set("x-client-secret", c.cfg.SecretKey).
		Set("x-api-version", c.cfg.APIVersion).
		Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON).
		Timeout(timeout)
	if body != nil {
		a.JSON(body)
	}

	status, raw, errs := a.Bytes()
	if len(errs) > 0 {
		return 0, nil, fmt.Errorf("cashfree %s %s: %w", method, path, errors.Join(errs...))
	}
	return status, raw, nil
}

func (c *Cashfree) providerError(status int, raw []byte) error {
	var e cfError
	_ = sonic.Unmarshal(raw, &e)
	msg := e.Message
	if msg == "" {
		msg = strings.TrimSpace(string(raw))
	}
	if msg == "" {
		msg = fiber.ErrBadGateway.Message
	}
	return &ProviderError{Provider: c.Name(), StatusCode: status, Code: e.Code, Message: msg}
}

// CustomerID derives a provider-safe customer id from an email.
func CustomerID(email string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(email)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	id := truncate(b.String(), 50)
	if id == "" {
		return "guest"
	}
	return id
}

func withOrderID(base, orderID string) string {
	if base == "" {
		return ""
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "order_id=" + url.QueryEscape(orderID)
}

func headerValue(headers map[string]string, key string) string {
	if v, ok := headers[key]; ok {
		return strings.TrimSpace(v)
	}
	for k, v := range headers {
		if strings.EqualFold(k, key) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// parseEpoch accepts seconds or milliseconds.
func parseEpoch(s string) (time.Time, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return time.Time{}, false
	}
	if n > 1e12 {
		return time.UnixMilli(n), true
	}
	return time.Unix(n, 0), true
}
