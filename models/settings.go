package models

import "time"

// SettingsID is the fixed primary key of the settings singleton. Exactly one
// row exists; it is created inside database initialization so two concurrent
// first readers cannot both insert it.
const SettingsID uint = 1

type Settings struct {
	ID uint `json:"id" gorm:"primaryKey"`
	// RequireReportVerification gates report release behind the admin's
	// completed mark. When disabled, reports become downloadable as soon as
	// they are uploaded.
	RequireReportVerification bool      `json:"require_report_verification" gorm:"default:true"`
	MaintenanceMode           bool      `json:"maintenance_mode" gorm:"default:false"`
	Announcement              string    `json:"announcement" gorm:"type:text"`
	UpdatedAt                 time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for the Settings model
func (Settings) TableName() string {
	return "settings"
}

// SettingsUpdate represents the upsert body for the settings singleton
type SettingsUpdate struct {
	RequireReportVerification *bool   `json:"require_report_verification"`
	MaintenanceMode           *bool   `json:"maintenance_mode"`
	Announcement              *string `json:"announcement"`
}
