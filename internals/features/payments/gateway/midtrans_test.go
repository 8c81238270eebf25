package gateway

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	midtrans "github.com/midtrans/midtrans-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// snapRecorder stands in for the Snap HTTP API and keeps the last request.
type snapRecorder struct {
	calls   int
	body    map[string]any
	options *midtrans.ConfigOptions
}

func (r *snapRecorder) Call(_ string, _ string, _ *string, options *midtrans.ConfigOptions, body io.Reader, result interface{}) *midtrans.Error {
	r.calls++
	r.options = options
	raw, _ := io.ReadAll(body)
	r.body = map[string]any{}
	_ = json.Unmarshal(raw, &r.body)
	_ = json.Unmarshal([]byte(`{"token":"snap-token-1","redirect_url":"https://app.sandbox.midtrans.com/snap/v4/redirection/snap-token-1"}`), result)
	return nil
}

func newRecordedMidtrans() (*Midtrans, *snapRecorder) {
	m := NewMidtrans(MidtransConfig{
		ServerKey: "SB-server-key",
		FinishURL: "https://fest.example.org/payment/success",
		NotifyURL: "https://api.fest.example.org/api/payment-webhook/midtrans",
	})
	rec := &snapRecorder{}
	m.snap.HttpClient = rec
	return m, rec
}

func TestMidtransCreateOrderSendsCallbacks(t *testing.T) {
	m, rec := newRecordedMidtrans()
	order, err := m.CreateOrder(context.Background(), OrderRequest{
		OrderID:       "ORDER_1_abc",
		Amount:        decimal.RequireFromString("150000"),
		Currency:      "IDR",
		CustomerName:  "Asha Rao",
		CustomerEmail: "asha@college.edu",
		EventName:     "Code Loom",
	})
	require.NoError(t, err)
	assert.Equal(t, "snap-token-1", order.PaymentSessionID)
	assert.Equal(t, "ORDER_1_abc", order.OrderID)

	details := rec.body["transaction_details"].(map[string]any)
	assert.EqualValues(t, 150000, details["gross_amount"])
	callbacks := rec.body["callbacks"].(map[string]any)
	assert.Equal(t, "https://fest.example.org/payment/success?order_id=ORDER_1_abc", callbacks["finish"])

	require.NotNil(t, rec.options)
	require.NotNil(t, rec.options.PaymentOverrideNotification)
	assert.Equal(t, "https://api.fest.example.org/api/payment-webhook/midtrans", *rec.options.PaymentOverrideNotification)
}

func TestMidtransRejectsUnchargeableAmounts(t *testing.T) {
	m, rec := newRecordedMidtrans()

	_, err := m.CreateOrder(context.Background(), OrderRequest{OrderID: "ORDER_2_abc", Amount: decimal.RequireFromString("99.50"), Currency: "IDR"})
	assert.ErrorIs(t, err, ErrFractionalAmount)

	_, err = m.CreateOrder(context.Background(), OrderRequest{OrderID: "ORDER_3_abc", Amount: decimal.NewFromInt(100), Currency: "INR"})
	assert.ErrorIs(t, err, ErrUnsupportedCurrency)
	assert.Zero(t, rec.calls)

	assert.NoError(t, CheckAmount(m, decimal.NewFromInt(100), ""))
	assert.NoError(t, CheckAmount(m, decimal.RequireFromString("100.00"), "idr"))
	assert.NoError(t, CheckAmount(NewCashfree(CashfreeConfig{}), decimal.RequireFromString("99.50"), "INR"))
}

func TestMidtransRefundDoesNotReadAsFailure(t *testing.T) {
	assert.Equal(t, StatusRefunded, MidtransPaymentStatus("refund", ""))
	assert.Equal(t, StatusRefunded, MidtransPaymentStatus("partial_refund", ""))
	assert.Equal(t, StatusCancelled, MidtransPaymentStatus("cancel", ""))
	assert.Equal(t, OrderActive, MidtransOrderStatus("refund", StatusRefunded))
}
