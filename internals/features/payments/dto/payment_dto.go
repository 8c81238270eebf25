package dto

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"techfest_backend/internals/features/payments/gateway"
	helper "techfest_backend/internals/helpers"
)

/* =========================================================
   Requests
========================================================= */

type CreateOrderRequest struct {
	OrderID       string `json:"orderId" validate:"required,min=3,max=100,orderid"`
	OrderAmount   string `json:"orderAmount" validate:"required,amount"`
	CustomerName  string `json:"customerName" validate:"required,min=2,max=100"`
	CustomerEmail string `json:"customerEmail" validate:"required,email,max=254"`
	CustomerPhone string `json:"customerPhone,omitempty" validate:"omitempty,inphone"`
	EventName     string `json:"eventName" validate:"required,min=1,max=500"`
}

// UnmarshalJSON takes orderAmount as a JSON string or number, so a wrongly
// typed amount fails validation on its own field instead of the whole body.
func (r *CreateOrderRequest) UnmarshalJSON(b []byte) error {
	type alias CreateOrderRequest
	var aux struct {
		alias
		OrderAmount json.RawMessage `json:"orderAmount"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*r = CreateOrderRequest(aux.alias)
	r.OrderAmount = amountText(aux.OrderAmount)
	return nil
}

func (r *CreateOrderRequest) Normalize() {
	r.OrderID = strings.TrimSpace(r.OrderID)
	r.OrderAmount = strings.TrimSpace(r.OrderAmount)
	r.CustomerName = strings.TrimSpace(r.CustomerName)
	r.CustomerEmail = strings.ToLower(strings.TrimSpace(r.CustomerEmail))
	r.CustomerPhone = strings.TrimSpace(r.CustomerPhone)
	r.EventName = strings.TrimSpace(r.EventName)
}

// ToGateway assumes the request already passed validation.
func (r CreateOrderRequest) ToGateway() gateway.OrderRequest {
	amt, _ := decimal.NewFromString(r.OrderAmount)
	return gateway.OrderRequest{
		OrderID:       r.OrderID,
		Amount:        amt,
		Currency:      "INR",
		CustomerName:  r.CustomerName,
		CustomerEmail: r.CustomerEmail,
		CustomerPhone: r.CustomerPhone,
		EventName:     r.EventName,
	}
}

type PaymentStatusRequest struct {
	OrderID string `json:"orderId" validate:"required,min=3,max=100,orderid"`
}

type WebhookCustomer struct {
	CustomerName  string `json:"customerName" validate:"required,min=1,max=100"`
	CustomerEmail string `json:"customerEmail" validate:"required,email,max=254"`
	CustomerPhone string `json:"customerPhone,omitempty" validate:"omitempty,inphone"`
}

// WebhookPayload is the provider-neutral notification shape.
type WebhookPayload struct {
	OrderID       string `json:"orderId" validate:"required,min=3,max=100,orderid"`
	OrderStatus   string `json:"orderStatus" validate:"required,oneof=PAID ACTIVE EXPIRED"`
	PaymentStatus string `json:"paymentStatus" validate:"required,oneof=SUCCESS FAILED PENDING CANCELLED REFUNDED"`
	Amount        string `json:"amount" validate:"required,amount"`
	Currency      string `json:"currency" validate:"required,currency"`
	Timestamp     string `json:"timestamp" validate:"required"`
	WebhookCustomer
}

// UnmarshalJSON accepts amount as a JSON number or string.
func (p *WebhookPayload) UnmarshalJSON(b []byte) error {
	type alias WebhookPayload
	var aux struct {
		alias
		Amount json.RawMessage `json:"amount"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*p = WebhookPayload(aux.alias)
	p.Amount = amountText(aux.Amount)
	return nil
}

// amountText returns a JSON string's value, or the literal text of any other
// JSON value. The amount rule then judges that text.
func amountText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(raw)
}

func (p WebhookPayload) ToNotification() gateway.Notification {
	return gateway.Notification{
		OrderID:       p.OrderID,
		OrderStatus:   p.OrderStatus,
		PaymentStatus: p.PaymentStatus,
		Amount:        p.Amount,
		Currency:      p.Currency,
		Timestamp:     p.Timestamp,
	}
}

/* =========================================================
   Responses
========================================================= */

type CreateOrderResponse struct {
	Success          bool   `json:"success"`
	OrderID          string `json:"orderId"`
	PaymentSessionID string `json:"paymentSessionId"`
	OrderStatus      string `json:"orderStatus"`
}

type PaymentStatusResponse struct {
	Success  bool              `json:"success"`
	Payments []json.RawMessage `json:"payments"`
	Overall  string            `json:"overall"`
}

// ValidateCreateOrder normalizes then validates. nil means valid.
func ValidateCreateOrder(r *CreateOrderRequest) []helper.FieldError {
	r.Normalize()
	return helper.Validate(r)
}

func ValidatePaymentStatus(r *PaymentStatusRequest) []helper.FieldError {
	r.OrderID = strings.TrimSpace(r.OrderID)
	return helper.Validate(r)
}

func ValidateWebhook(p *WebhookPayload) []helper.FieldError {
	p.OrderID = strings.TrimSpace(p.OrderID)
	p.OrderStatus = strings.ToUpper(strings.TrimSpace(p.OrderStatus))
	p.PaymentStatus = strings.ToUpper(strings.TrimSpace(p.PaymentStatus))
	p.CustomerEmail = strings.ToLower(strings.TrimSpace(p.CustomerEmail))
	return helper.Validate(p)
}
