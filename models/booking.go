package models

import (
	"time"
)

// BookingStatus represents the current state of a booking in its lifecycle.
type BookingStatus string

const (
	StatusPending         BookingStatus = "pending"
	StatusAccepted        BookingStatus = "accepted"
	StatusAssigned        BookingStatus = "assigned"
	StatusReached         BookingStatus = "reached"
	StatusSampleCollected BookingStatus = "sample_collected"
	StatusReportUploaded  BookingStatus = "report_uploaded"
	StatusCompleted       BookingStatus = "completed"
	StatusDeclined        BookingStatus = "declined"
)

// validTransitions defines the state machine for booking status transitions.
// The chain is linear; decline is the only branch and only from the two
// earliest states.
var validTransitions = map[BookingStatus][]BookingStatus{
	StatusPending:         {StatusAccepted, StatusDeclined},
	StatusAccepted:        {StatusAssigned, StatusDeclined},
	StatusAssigned:        {StatusReached},
	StatusReached:         {StatusSampleCollected},
	StatusSampleCollected: {StatusReportUploaded},
	StatusReportUploaded:  {StatusCompleted},
	StatusCompleted:       {},
	StatusDeclined:        {},
}

// IsValid returns true if the status is a recognized booking status.
func (s BookingStatus) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this status to the target is allowed.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible from this status.
func (s BookingStatus) IsTerminal() bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return true
	}
	return len(allowed) == 0
}

type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "paid"
	PaymentUnpaid  PaymentStatus = "unpaid"
	PaymentPartial PaymentStatus = "partial"
)

type PaymentMode string

const (
	PaymentModeOnline PaymentMode = "online"
	PaymentModeCash   PaymentMode = "cash"
)

type CollectionType string

const (
	CollectionHome     CollectionType = "home"
	CollectionLabVisit CollectionType = "lab_visit"
)

// ReportUploadFailed is the sentinel reference stored when the external
// storage call fails during report upload. The transition still completes;
// admins remediate via the failed-uploads queue. The delivery gate never
// releases this value.
const ReportUploadFailed = "upload_failed"

type Booking struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	PatientName string `json:"patient_name" gorm:"size:255;not null"`
	PhoneNumber string `json:"phone_number" gorm:"size:20"`
	Email       string `json:"email" gorm:"size:255"`
	UserID      *uint  `json:"user_id"` // nullable for guest/walk-in bookings
	User        *User  `json:"user,omitempty" gorm:"foreignKey:UserID"`

	Items []BookingItem `json:"items" gorm:"foreignKey:BookingID"`

	TotalAmount     float64       `json:"total_amount" gorm:"type:decimal(10,2);not null"`
	AmountCollected float64       `json:"amount_collected" gorm:"type:decimal(10,2);default:0"`
	BalanceAmount   float64       `json:"balance_amount" gorm:"type:decimal(10,2);default:0"`
	PaymentStatus   PaymentStatus `json:"payment_status" gorm:"type:varchar(20);not null;default:'unpaid'"`
	PaymentMode     PaymentMode   `json:"payment_mode" gorm:"type:varchar(20);not null;default:'cash'"`
	DiscountCode    string        `json:"discount_code,omitempty" gorm:"size:50"`

	CollectionType CollectionType `json:"collection_type" gorm:"type:varchar(20);not null"`
	ScheduledDate  time.Time      `json:"scheduled_date" gorm:"not null"`
	ScheduledTime  string         `json:"scheduled_time" gorm:"size:20"`
	LocationLat    *float64       `json:"location_lat" gorm:"type:decimal(10,8)"`
	LocationLng    *float64       `json:"location_lng" gorm:"type:decimal(11,8)"`

	Status              BookingStatus `json:"status" gorm:"type:varchar(30);not null;default:'pending'"`
	AssignedPartnerID   *uint         `json:"assigned_partner_id"`
	AssignedPartnerName string        `json:"assigned_partner_name,omitempty" gorm:"size:255"`
	ReportFileURL       *string       `json:"report_file_url,omitempty" gorm:"size:500"`
	ReferralSource      string        `json:"referral_source,omitempty" gorm:"size:255"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for the Booking model
func (Booking) TableName() string {
	return "bookings"
}

// HasReport returns true if a usable report reference is stored.
func (b *Booking) HasReport() bool {
	return b.ReportFileURL != nil && *b.ReportFileURL != "" && *b.ReportFileURL != ReportUploadFailed
}

// IsAssignedTo returns true if the booking is assigned to the given partner.
func (b *Booking) IsAssignedTo(partnerID uint) bool {
	return b.AssignedPartnerID != nil && *b.AssignedPartnerID == partnerID
}

// BookingItem is a price snapshot of one catalog test, taken at booking
// time. There is deliberately no foreign key back into lab_tests: later
// catalog edits must not rewrite past bookings.
type BookingItem struct {
	ID        uint    `json:"id" gorm:"primaryKey"`
	BookingID uint    `json:"booking_id" gorm:"not null;index"`
	Title     string  `json:"title" gorm:"size:255;not null"`
	Category  string  `json:"category" gorm:"size:100"`
	Price     float64 `json:"price" gorm:"type:decimal(10,2);not null"`
}

// TableName specifies the table name for the BookingItem model
func (BookingItem) TableName() string {
	return "booking_items"
}

// BookingCreate represents the request structure for creating a booking
type BookingCreate struct {
	PatientName    string   `json:"patient_name" binding:"required,min=2,max=255"`
	PhoneNumber    string   `json:"phone_number"`
	Email          string   `json:"email" binding:"omitempty,email"`
	TestIDs        []uint   `json:"test_ids" binding:"required,min=1"`
	CollectionType string   `json:"collection_type" binding:"required,oneof=home lab_visit"`
	ScheduledDate  string   `json:"scheduled_date" binding:"required"` // YYYY-MM-DD
	ScheduledTime  string   `json:"scheduled_time"`
	LocationLat    *float64 `json:"location_lat"`
	LocationLng    *float64 `json:"location_lng"`
	PaymentMode    string   `json:"payment_mode" binding:"required,oneof=online cash"`
	AmountTaken    float64  `json:"amount_taken" binding:"omitempty,gte=0"`
	DiscountCode   string   `json:"discount_code"`
	ReferralSource string   `json:"referral_source"`
}

// BookingPaymentUpdate represents an on-site collection update. Only the
// newly collected total is accepted; balance is always recomputed from the
// stored total server-side.
type BookingPaymentUpdate struct {
	AmountCollected float64 `json:"amount_collected" binding:"gte=0"`
}
