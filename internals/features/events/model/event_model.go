package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EventModel is read-only for the API; rows are seeded from the catalog.
type EventModel struct {
	EventID              uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	EventSlug            string     `gorm:"column:slug;type:varchar(100);not null;uniqueIndex:ux_events_slug" json:"slug"`
	EventName            string     `gorm:"column:name;type:varchar(255);not null" json:"name"`
	EventDescription     *string    `gorm:"column:description;type:text" json:"description,omitempty"`
	EventDate            *time.Time `gorm:"column:date" json:"date,omitempty"`
	EventLocation        *string    `gorm:"column:location;type:varchar(255)" json:"location,omitempty"`
	EventMaxParticipants *int       `gorm:"column:max_participants" json:"max_participants,omitempty"`
	EventCreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (EventModel) TableName() string {
	return "events"
}

func (m *EventModel) BeforeCreate(tx *gorm.DB) error {
	if m.EventID == uuid.Nil {
		m.EventID = uuid.New()
	}
	return nil
}
