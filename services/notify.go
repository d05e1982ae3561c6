package services

import (
	"fmt"
	"log"

	"pathology-lab-server/database"
	"pathology-lab-server/models"
)

// DBNotifier persists in-app notifications. Delivery is best effort: a
// failed write is logged and absorbed, never surfaced to the caller, because
// a notification outage must not fail a clinical workflow step.
type DBNotifier struct{}

// NewDBNotifier creates a notifier backed by the notifications table
func NewDBNotifier() *DBNotifier {
	return &DBNotifier{}
}

// BookingCompleted tells the booking owner their verified report is ready.
func (n *DBNotifier) BookingCompleted(booking *models.Booking) {
	n.create(booking, "report_ready",
		"Your report is ready",
		fmt.Sprintf("The verified report for booking #%d is now available for download.", booking.ID))
}

// BookingDeclined tells the booking owner the booking was declined.
func (n *DBNotifier) BookingDeclined(booking *models.Booking) {
	n.create(booking, "booking_declined",
		"Booking declined",
		fmt.Sprintf("Booking #%d could not be accepted. Please contact the lab for details.", booking.ID))
}

func (n *DBNotifier) create(booking *models.Booking, notifType, title, body string) {
	if booking.UserID == nil {
		log.Printf("ℹ️ Booking %d has no owning user, skipping %s notification", booking.ID, notifType)
		return
	}

	notification := models.Notification{
		UserID:    *booking.UserID,
		BookingID: &booking.ID,
		Title:     title,
		Body:      body,
		Type:      notifType,
	}
	if err := database.DB.Create(&notification).Error; err != nil {
		log.Printf("⚠️ Failed to create %s notification for booking %d: %v", notifType, booking.ID, err)
		return
	}
	log.Printf("🔔 Notified user %d about booking %d (%s)", *booking.UserID, booking.ID, notifType)
}
