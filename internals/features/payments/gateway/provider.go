// Package gateway talks to the hosted payment providers.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotConfigured means provider credentials are missing from the environment.
	ErrNotConfigured = errors.New("payment gateway not configured")

	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrStaleWebhook     = errors.New("webhook timestamp outside allowed window")

	// Order amounts a provider cannot charge as given. Both are caller errors.
	ErrUnsupportedCurrency = errors.New("currency not supported by payment gateway")
	ErrFractionalAmount    = errors.New("payment gateway only charges whole amounts")
)

// Provider payment statuses, as reported per transaction.
const (
	StatusSuccess   = "SUCCESS"
	StatusPending   = "PENDING"
	StatusFailed    = "FAILED"
	StatusCancelled = "CANCELLED"
	StatusRefunded  = "REFUNDED"
)

// Provider order statuses.
const (
	OrderPaid    = "PAID"
	OrderActive  = "ACTIVE"
	OrderExpired = "EXPIRED"
)

// Provider is the subset of a payment gateway the service needs.
type Provider interface {
	Name() string
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)
	FetchPayments(ctx context.Context, orderID string) ([]Payment, error)
	WebhookVerifier
}

// AmountChecker is implemented by providers that restrict what an order may
// charge. Callers check before persisting anything for the order.
type AmountChecker interface {
	CheckAmount(amount decimal.Decimal, currency string) error
}

// CheckAmount runs p's amount rules when it has any.
func CheckAmount(p Provider, amount decimal.Decimal, currency string) error {
	if c, ok := p.(AmountChecker); ok {
		return c.CheckAmount(amount, currency)
	}
	return nil
}

// WebhookVerifier checks a raw webhook delivery before its payload is trusted.
type WebhookVerifier interface {
	VerifyWebhook(headers map[string]string, rawBody []byte) error
}

type OrderRequest struct {
	OrderID       string
	Amount        decimal.Decimal
	Currency      string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	EventName     string
}

type Order struct {
	OrderID          string `json:"order_id"`
	PaymentSessionID string `json:"payment_session_id"`
	OrderStatus      string `json:"order_status"`
	ProviderOrderID  string `json:"provider_order_id,omitempty"`
	RedirectURL      string `json:"redirect_url,omitempty"`
}

// Payment is one transaction attempt against an order. Raw keeps the
// provider's own JSON so callers can pass it through untouched.
type Payment struct {
	PaymentID     string          `json:"payment_id"`
	OrderID       string          `json:"order_id"`
	PaymentStatus string          `json:"payment_status"`
	Amount        decimal.Decimal `json:"payment_amount"`
	Currency      string          `json:"payment_currency"`
	Method        string          `json:"payment_group,omitempty"`
	Message       string          `json:"payment_message,omitempty"`
	PaidAt        *time.Time      `json:"payment_time,omitempty"`
	Raw           json.RawMessage `json:"-"`
}

// Notification is a webhook reduced to the fields that drive a registration's status.
type Notification struct {
	OrderID       string `json:"orderId"`
	OrderStatus   string `json:"orderStatus"`
	PaymentStatus string `json:"paymentStatus"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	Timestamp     string `json:"timestamp"`
}

// ProviderError carries the provider's HTTP status and message through to the client.
type ProviderError struct {
	Provider   string
	StatusCode int
	Code       string
	Message    string
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %d %s: %s", e.Provider, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %d: %s", e.Provider, e.StatusCode, e.Message)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n])
}

// timeoutFrom shortens def to the context deadline when that comes first.
func timeoutFrom(ctx context.Context, def time.Duration) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if dl, ok := ctx.Deadline(); ok {
		left := time.Until(dl)
		if left <= 0 {
			return 0, context.DeadlineExceeded
		}
		if def <= 0 || left < def {
			return left, nil
		}
	}
	return def, nil
}
