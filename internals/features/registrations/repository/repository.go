package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	eventModel "techfest_backend/internals/features/events/model"
	"techfest_backend/internals/features/registrations/model"
	helper "techfest_backend/internals/helpers"
)

var (
	ErrNotFound       = errors.New("registration not found")
	ErrDuplicateOrder = errors.New("order id already registered")
	ErrUserNotFound   = errors.New("user not found")
	ErrSpotLocked     = errors.New("spot registrations keep their status")
)

// Store is the data access layer for users and registrations.
type Store interface {
	FindOrCreateUser(ctx context.Context, u *model.UserModel) (*model.UserModel, error)
	FindEventBySlug(ctx context.Context, slug string) (*eventModel.EventModel, error)
	CreateRegistration(ctx context.Context, r *model.RegistrationModel) error
	GetByOrderID(ctx context.Context, orderID string) (*model.RegistrationModel, error)
	UpdatePaymentStatus(ctx context.Context, orderID string, status model.PaymentStatus) error
	SetParticipation(ctx context.Context, id uuid.UUID, confirmed bool) error
	SetParticipationByOrderID(ctx context.Context, orderID string, confirmed bool) (*model.RegistrationModel, error)
	ListAll(ctx context.Context) ([]model.RegistrationModel, error)
}

type gormStore struct {
	db *gorm.DB
}

func New(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// FindOrCreateUser is idempotent by email: a second call returns the first row.
func (s *gormStore) FindOrCreateUser(ctx context.Context, u *model.UserModel) (*model.UserModel, error) {
	email := strings.ToLower(strings.TrimSpace(u.UserEmail))
	if email == "" {
		return nil, fmt.Errorf("find or create user: empty email")
	}
	u.UserEmail = email

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoNothing: true,
		}).
		Create(u).Error
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	var out model.UserModel
	if err := s.db.WithContext(ctx).Where("email = ?", email).Take(&out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &out, nil
}

func (s *gormStore) FindEventBySlug(ctx context.Context, slug string) (*eventModel.EventModel, error) {
	var ev eventModel.EventModel
	err := s.db.WithContext(ctx).Where("slug = ?", strings.ToLower(strings.TrimSpace(slug))).Take(&ev).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

func (s *gormStore) CreateRegistration(ctx context.Context, r *model.RegistrationModel) error {
	err := s.db.WithContext(ctx).Omit(clause.Associations).Create(r).Error
	if helper.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %s", ErrDuplicateOrder, r.RegistrationOrderID)
	}
	return err
}

func (s *gormStore) GetByOrderID(ctx context.Context, orderID string) (*model.RegistrationModel, error) {
	var r model.RegistrationModel
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("Event").
		Where("order_id = ?", orderID).
		Take(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// UpdatePaymentStatus writes status for the order; spot rows are left untouched.
func (s *gormStore) UpdatePaymentStatus(ctx context.Context, orderID string, status model.PaymentStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid payment status %q", status)
	}
	res := s.db.WithContext(ctx).
		Model(&model.RegistrationModel{}).
		Where("order_id = ? AND payment_status <> ?", orderID, model.PaymentSpot).
		Updates(map[string]any{
			"payment_status": status,
			"updated_at":     time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var cur model.RegistrationModel
	err := s.db.WithContext(ctx).Select("payment_status").Where("order_id = ?", orderID).Take(&cur).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if cur.RegistrationPaymentStatus == model.PaymentSpot {
		return ErrSpotLocked
	}
	return nil
}

// SetParticipation is the single update path for both registration kinds.
func (s *gormStore) SetParticipation(ctx context.Context, id uuid.UUID, confirmed bool) error {
	res := s.db.WithContext(ctx).
		Model(&model.RegistrationModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"participation_confirmed": confirmed,
			"updated_at":              time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormStore) SetParticipationByOrderID(ctx context.Context, orderID string, confirmed bool) (*model.RegistrationModel, error) {
	res := s.db.WithContext(ctx).
		Model(&model.RegistrationModel{}).
		Where("order_id = ?", orderID).
		Updates(map[string]any{
			"participation_confirmed": confirmed,
			"updated_at":              time.Now(),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.GetByOrderID(ctx, orderID)
}

// ListAll returns every registration with user and event, newest first.
func (s *gormStore) ListAll(ctx context.Context) ([]model.RegistrationModel, error) {
	var rows []model.RegistrationModel
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("Event").
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}
