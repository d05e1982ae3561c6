package models

import "time"

// DiscountCode reduces a booking's total at creation time. Invalid or
// expired codes are reported but never block the booking flow.
type DiscountCode struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	Code      string     `json:"code" gorm:"size:50;uniqueIndex;not null"`
	Percent   float64    `json:"percent" gorm:"type:decimal(5,2);not null"` // 0-100
	IsActive  bool       `json:"is_active" gorm:"default:true"`
	ExpiresAt *time.Time `json:"expires_at"`
	CreatedAt time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for the DiscountCode model
func (DiscountCode) TableName() string {
	return "discount_codes"
}

// IsUsable returns true if the code can currently be applied.
func (d *DiscountCode) IsUsable(now time.Time) bool {
	if !d.IsActive {
		return false
	}
	if d.ExpiresAt != nil && d.ExpiresAt.Before(now) {
		return false
	}
	return d.Percent > 0 && d.Percent <= 100
}
