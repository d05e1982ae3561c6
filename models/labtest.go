package models

import "time"

// LabTest is one catalog entry (investigation) patients can book.
type LabTest struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Title       string    `json:"title" gorm:"size:255;not null"`
	Category    string    `json:"category" gorm:"size:100;not null"`
	Description string    `json:"description" gorm:"type:text"`
	Price       float64   `json:"price" gorm:"type:decimal(10,2);not null"`
	IsActive    bool      `json:"is_active" gorm:"default:true"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for the LabTest model
func (LabTest) TableName() string {
	return "lab_tests"
}

// LabTestCreate represents the request structure for catalog entries
type LabTestCreate struct {
	Title       string  `json:"title" binding:"required,min=2,max=255"`
	Category    string  `json:"category" binding:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" binding:"required,gt=0"`
	IsActive    *bool   `json:"is_active"`
}
