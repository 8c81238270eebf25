package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"techfest_backend/internals/features/registrations/model"
)

/* =========================================================
   REQUESTS
========================================================= */

type TeammateDTO struct {
	Name  string `json:"name" validate:"required,min=2,max=100"`
	Email string `json:"email" validate:"required,email,max=254"`
	Phone string `json:"phone,omitempty" validate:"omitempty,inphone"`
}

type ParticipantDTO struct {
	FirstName      string  `json:"firstName" validate:"required,min=1,max=100"`
	LastName       string  `json:"lastName" validate:"max=100"`
	Email          string  `json:"email" validate:"required,email,max=254"`
	Phone          string  `json:"phone,omitempty" validate:"omitempty,inphone"`
	Organization   string  `json:"organization" validate:"required,min=2,max=255"`
	Position       *string `json:"position,omitempty" validate:"omitempty,max=100"`
	Experience     *string `json:"experience,omitempty" validate:"omitempty,max=100"`
	Interests      *string `json:"interests,omitempty" validate:"omitempty,max=1000"`
	AdditionalInfo *string `json:"additionalInfo,omitempty" validate:"omitempty,max=2000"`
}

// RegisterRequest covers both kinds: one slug makes a single-event registration.
type RegisterRequest struct {
	OrderID string `json:"orderId,omitempty" validate:"omitempty,min=3,max=100,orderid"`
	ParticipantDTO
	Events    []string      `json:"events" validate:"required,min=1,max=3,dive,required,max=100"`
	Teammates []TeammateDTO `json:"teammates,omitempty" validate:"max=10,dive"`
}

// SpotRegistrationRequest is a walk-in registration for exactly one event.
type SpotRegistrationRequest struct {
	ParticipantDTO
	Event     string        `json:"event" validate:"required,max=100"`
	Teammates []TeammateDTO `json:"teammates,omitempty" validate:"max=10,dive"`
}

func (p *ParticipantDTO) Normalize() {
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.Phone = strings.TrimSpace(p.Phone)
	p.Organization = strings.TrimSpace(p.Organization)
}

func (r *RegisterRequest) Normalize() {
	r.OrderID = strings.TrimSpace(r.OrderID)
	r.ParticipantDTO.Normalize()
	for i := range r.Events {
		r.Events[i] = strings.ToLower(strings.TrimSpace(r.Events[i]))
	}
	normalizeTeam(r.Teammates)
}

func (r *SpotRegistrationRequest) Normalize() {
	r.ParticipantDTO.Normalize()
	r.Event = strings.ToLower(strings.TrimSpace(r.Event))
	normalizeTeam(r.Teammates)
}

func normalizeTeam(team []TeammateDTO) {
	for i := range team {
		team[i].Name = strings.TrimSpace(team[i].Name)
		team[i].Email = strings.ToLower(strings.TrimSpace(team[i].Email))
		team[i].Phone = strings.TrimSpace(team[i].Phone)
	}
}

func (p ParticipantDTO) ToModel() model.UserModel {
	return model.UserModel{
		UserEmail:          p.Email,
		UserFirstName:      p.FirstName,
		UserLastName:       p.LastName,
		UserPhone:          p.Phone,
		UserOrganization:   p.Organization,
		UserPosition:       p.Position,
		UserExperience:     p.Experience,
		UserInterests:      p.Interests,
		UserAdditionalInfo: p.AdditionalInfo,
	}
}

func TeamToModel(team []TeammateDTO) []model.Teammate {
	if len(team) == 0 {
		return nil
	}
	out := make([]model.Teammate, 0, len(team))
	for _, t := range team {
		out = append(out, model.Teammate{Name: t.Name, Email: t.Email, Phone: t.Phone})
	}
	return out
}

/* =========================================================
   RESPONSES
========================================================= */

type RegistrationResponse struct {
	ID                     uuid.UUID           `json:"id"`
	Kind                   string              `json:"kind"`
	OrderID                string              `json:"orderId"`
	Name                   string              `json:"name"`
	Email                  string              `json:"email"`
	Phone                  string              `json:"phone,omitempty"`
	Organization           string              `json:"organization,omitempty"`
	Events                 []string            `json:"events"`
	EventNames             string              `json:"eventNames"`
	Amount                 string              `json:"amount"`
	Currency               string              `json:"currency"`
	PaymentStatus          model.PaymentStatus `json:"paymentStatus"`
	ParticipationConfirmed bool                `json:"participationConfirmed"`
	Teammates              []model.Teammate    `json:"teammates,omitempty"`
	CreatedAt              time.Time           `json:"createdAt"`
}

// FromModel needs the event display names resolved by the caller.
func FromModel(r model.RegistrationModel, eventNames string) RegistrationResponse {
	out := RegistrationResponse{
		ID:                     r.RegistrationID,
		Kind:                   string(r.RegistrationKind),
		OrderID:                r.RegistrationOrderID,
		Events:                 []string(r.RegistrationSelectedEvents),
		EventNames:             eventNames,
		Amount:                 r.RegistrationPaymentAmount.StringFixed(2),
		Currency:               r.RegistrationPaymentCurrency,
		PaymentStatus:          r.RegistrationPaymentStatus,
		ParticipationConfirmed: r.RegistrationParticipationConfirmed,
		Teammates:              []model.Teammate(r.RegistrationTeammates),
		CreatedAt:              r.RegistrationCreatedAt,
	}
	if out.Events == nil {
		out.Events = []string{}
	}
	if r.User != nil {
		out.Name = r.User.FullName()
		out.Email = r.User.UserEmail
		out.Phone = r.User.UserPhone
		out.Organization = r.User.UserOrganization
	}
	return out
}

type CheckoutResponse struct {
	Success          bool                 `json:"success"`
	OrderID          string               `json:"orderId"`
	PaymentSessionID string               `json:"paymentSessionId"`
	OrderStatus      string               `json:"orderStatus"`
	Saved            bool                 `json:"saved"`
	Registration     RegistrationResponse `json:"registration"`
}
