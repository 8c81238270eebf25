package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserModel is created on the first registration for an email and reused afterwards.
type UserModel struct {
	UserID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserEmail          string    `gorm:"column:email;type:varchar(254);not null;uniqueIndex:ux_users_email" json:"email"`
	UserFirstName      string    `gorm:"column:first_name;type:varchar(100);not null" json:"first_name"`
	UserLastName       string    `gorm:"column:last_name;type:varchar(100)" json:"last_name"`
	UserPhone          string    `gorm:"column:phone;type:varchar(20)" json:"phone"`
	UserOrganization   string    `gorm:"column:organization;type:varchar(255)" json:"organization"`
	UserPosition       *string   `gorm:"column:position;type:varchar(100)" json:"position,omitempty"`
	UserExperience     *string   `gorm:"column:experience;type:varchar(100)" json:"experience,omitempty"`
	UserInterests      *string   `gorm:"column:interests;type:text" json:"interests,omitempty"`
	UserAdditionalInfo *string   `gorm:"column:additional_info;type:text" json:"additional_info,omitempty"`
	UserCreatedAt      time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (UserModel) TableName() string {
	return "users"
}

func (m *UserModel) BeforeCreate(tx *gorm.DB) error {
	if m.UserID == uuid.Nil {
		m.UserID = uuid.New()
	}
	return nil
}

func (m UserModel) FullName() string {
	if m.UserLastName == "" {
		return m.UserFirstName
	}
	return m.UserFirstName + " " + m.UserLastName
}
