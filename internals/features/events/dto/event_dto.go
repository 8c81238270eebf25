package dto

import (
	"time"

	"github.com/google/uuid"

	"techfest_backend/internals/features/events/catalog"
	"techfest_backend/internals/features/events/model"
)

type EventResponse struct {
	ID              uuid.UUID  `json:"id"`
	Slug            string     `json:"slug"`
	Name            string     `json:"name"`
	Description     *string    `json:"description,omitempty"`
	Date            *time.Time `json:"date,omitempty"`
	Location        *string    `json:"location,omitempty"`
	MaxParticipants *int       `json:"maxParticipants,omitempty"`
	Price           string     `json:"price"`
	SpotPrice       string     `json:"spotPrice"`
	Currency        string     `json:"currency"`
	TeamSize        int        `json:"teamSize"`
}

// FromModel joins a stored event with its catalog pricing. Events missing from
// the catalog come back with price "0.00" and cannot be registered for.
func FromModel(m model.EventModel, cat *catalog.Catalog) EventResponse {
	out := EventResponse{
		ID:              m.EventID,
		Slug:            m.EventSlug,
		Name:            m.EventName,
		Description:     m.EventDescription,
		Date:            m.EventDate,
		Location:        m.EventLocation,
		MaxParticipants: m.EventMaxParticipants,
		Price:           "0.00",
		SpotPrice:       "0.00",
		TeamSize:        1,
	}
	if cat == nil {
		return out
	}
	out.Currency = cat.Currency
	if it, ok := cat.Get(m.EventSlug); ok {
		out.Price = it.Price.StringFixed(2)
		out.SpotPrice = it.SpotPrice.StringFixed(2)
		out.TeamSize = it.TeamSize
	}
	return out
}

func FromModels(rows []model.EventModel, cat *catalog.Catalog) []EventResponse {
	out := make([]EventResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, FromModel(r, cat))
	}
	return out
}
