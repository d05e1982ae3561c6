package database

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"pathology-lab-server/models"
)

// ErrNotFound is returned by store lookups when the row does not exist.
var ErrNotFound = errors.New("record not found")

// BookingStore is the GORM-backed persistence surface of the transition
// engine.
type BookingStore struct {
	db *gorm.DB
}

// NewBookingStore creates a booking store backed by GORM
func NewBookingStore(db *gorm.DB) *BookingStore {
	return &BookingStore{db: db}
}

// FindBooking loads one booking with its line items
func (s *BookingStore) FindBooking(ctx context.Context, id uint) (*models.Booking, error) {
	var booking models.Booking
	err := s.db.WithContext(ctx).Preload("Items").First(&booking, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// FindPartner loads a user and verifies the partner role against the stored
// roster, never against a client claim.
func (s *BookingStore) FindPartner(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("id = ? AND role = ? AND is_active = ?", id, models.RolePartner, true).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateBookingFrom applies updates to a booking only if its stored status
// still matches the expected prior status. The single conditional UPDATE is
// what keeps two concurrent transition requests from both succeeding off the
// same prior state: exactly one matches, the other sees zero rows affected.
func (s *BookingStore) UpdateBookingFrom(ctx context.Context, id uint, from models.BookingStatus, updates map[string]interface{}) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
