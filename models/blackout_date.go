package models

import "time"

// BlackoutDate is an admin-declared window during which no new bookings may
// be scheduled. Expired windows are purged lazily on read and by the sweep
// job.
type BlackoutDate struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Reason    string    `json:"reason" gorm:"size:255;not null"`
	StartDate time.Time `json:"start_date" gorm:"not null"`
	EndDate   time.Time `json:"end_date" gorm:"not null"`
	IsActive  bool      `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for the BlackoutDate model
func (BlackoutDate) TableName() string {
	return "blackout_dates"
}

// Covers returns true if the given date falls inside this window. Dates are
// compared at day granularity, boundaries included.
func (b *BlackoutDate) Covers(date time.Time) bool {
	day := date.Truncate(24 * time.Hour)
	start := b.StartDate.Truncate(24 * time.Hour)
	end := b.EndDate.Truncate(24 * time.Hour)
	return !day.Before(start) && !day.After(end)
}

// DateBlackedOut returns the first active window covering the date, or nil.
func DateBlackedOut(date time.Time, windows []BlackoutDate) *BlackoutDate {
	for i := range windows {
		if windows[i].IsActive && windows[i].Covers(date) {
			return &windows[i]
		}
	}
	return nil
}

// BlackoutDateCreate represents the request structure for blackout windows
type BlackoutDateCreate struct {
	Reason    string `json:"reason" binding:"required,min=2,max=255"`
	StartDate string `json:"start_date" binding:"required"` // YYYY-MM-DD
	EndDate   string `json:"end_date" binding:"required"`   // YYYY-MM-DD
}
