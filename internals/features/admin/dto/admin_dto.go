package dto

import (
	"strings"
	"time"

	regDTO "techfest_backend/internals/features/registrations/dto"
	"techfest_backend/internals/features/registrations/model"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=1,max=200"`
}

func (r *LoginRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

type LoginResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"tokenType"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type ParticipationRequest struct {
	Confirmed *bool `json:"confirmed" validate:"required"`
}

// RegistrationRow is one dashboard line: the registration plus its event and status labels.
type RegistrationRow struct {
	regDTO.RegistrationResponse
	EventLabel string `json:"eventLabel"`
}

func ToRows(rows []model.RegistrationModel, names func([]string) string) []RegistrationRow {
	out := make([]RegistrationRow, 0, len(rows))
	for _, r := range rows {
		label := names(r.RegistrationSelectedEvents)
		if label == "" && r.Event != nil {
			label = r.Event.EventName
		}
		out = append(out, RegistrationRow{
			RegistrationResponse: regDTO.FromModel(r, label),
			EventLabel:           label,
		})
	}
	return out
}

// StatusCounts are per payment status totals over the filtered set.
type StatusCounts map[model.PaymentStatus]int

func CountStatuses(rows []model.RegistrationModel) StatusCounts {
	out := StatusCounts{}
	for _, r := range rows {
		out[r.RegistrationPaymentStatus]++
	}
	return out
}
