// Package ticket renders the participant ticket and its confirmation QR code.
package ticket

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"net/url"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/shopspring/decimal"
	qrcode "github.com/skip2/go-qrcode"

	"techfest_backend/internals/features/registrations/model"
)

type Format string

const (
	FormatPNG  Format = "png"
	FormatWebP Format = "webp"

	DefaultSize = 256
	MinSize     = 128
	MaxSize     = 1024
)

var ErrUnknownFormat = errors.New("unknown qr image format")

// Ticket is what the ticket page shows for a stored registration.
type Ticket struct {
	OrderID       string                 `json:"orderId"`
	Name          string                 `json:"name"`
	Email         string                 `json:"email"`
	Organization  string                 `json:"organization,omitempty"`
	Kind          model.RegistrationKind `json:"kind"`
	Events        []string               `json:"events"`
	EventNames    string                 `json:"eventNames"`
	Amount        string                 `json:"amount"`
	PaymentStatus model.PaymentStatus    `json:"paymentStatus"`
	Confirmed     bool                   `json:"participationConfirmed"`
	Teammates     []model.Teammate       `json:"teammates,omitempty"`
	ConfirmURL    string                 `json:"confirmUrl"`
	QRPath        string                 `json:"qrPath"`
}

// Valid reports whether the ticket may be shown as an entry pass.
func (t Ticket) Valid() bool {
	return t.PaymentStatus == model.PaymentPaid || t.PaymentStatus == model.PaymentSpot
}

func Build(r *model.RegistrationModel, eventNames, adminBaseURL string) Ticket {
	t := Ticket{
		OrderID:       r.RegistrationOrderID,
		Kind:          r.RegistrationKind,
		Events:        []string(r.RegistrationSelectedEvents),
		EventNames:    eventNames,
		Amount:        FormatAmount(r.RegistrationPaymentAmount, r.RegistrationPaymentCurrency),
		PaymentStatus: r.RegistrationPaymentStatus,
		Confirmed:     r.RegistrationParticipationConfirmed,
		Teammates:     []model.Teammate(r.RegistrationTeammates),
		ConfirmURL:    ConfirmURL(adminBaseURL, r.RegistrationOrderID),
		QRPath:        "/api/tickets/" + url.PathEscape(r.RegistrationOrderID) + "/qr",
	}
	if t.Events == nil {
		t.Events = []string{}
	}
	if t.EventNames == "" && r.Event != nil {
		t.EventNames = r.Event.EventName
	}
	if r.User != nil {
		t.Name = r.User.FullName()
		t.Email = r.User.UserEmail
		t.Organization = r.User.UserOrganization
	}
	return t
}

// FormatAmount renders INR with the rupee sign (₹100.00), other currencies with their code.
func FormatAmount(d decimal.Decimal, currency string) string {
	switch strings.ToUpper(currency) {
	case "", "INR":
		return "₹" + d.StringFixed(2)
	default:
		return strings.ToUpper(currency) + " " + d.StringFixed(2)
	}
}

// ConfirmURL is the admin page that marks the holder as present.
func ConfirmURL(adminBaseURL, orderID string) string {
	return strings.TrimRight(adminBaseURL, "/") + "/admin/confirm/" + url.PathEscape(orderID)
}

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatPNG:
		return FormatPNG, nil
	case FormatWebP:
		return FormatWebP, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

func (f Format) ContentType() string {
	if f == FormatWebP {
		return "image/webp"
	}
	return "image/png"
}

func ClampSize(n int) int {
	switch {
	case n <= 0:
		return DefaultSize
	case n < MinSize:
		return MinSize
	case n > MaxSize:
		return MaxSize
	}
	return n
}

// QR encodes content as a square QR image of the given edge size.
func QR(content string, f Format, size int) ([]byte, error) {
	size = ClampSize(size)
	q, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("qr encode: %w", err)
	}

	switch f {
	case FormatPNG:
		return q.PNG(size)
	case FormatWebP:
		// go-qrcode rounds the edge to whole modules; resize to the exact size asked for
		var img image.Image = q.Image(size)
		if b := img.Bounds(); b.Dx() != size || b.Dy() != size {
			img = imaging.Resize(img, size, size, imaging.NearestNeighbor)
		}
		buf := new(bytes.Buffer)
		if err := webp.Encode(buf, img, &webp.Options{Lossless: true}); err != nil {
			return nil, fmt.Errorf("webp encode: %w", err)
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}
