package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBookingStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    BookingStatus
		to      BookingStatus
		allowed bool
	}{
		{"pending to accepted", StatusPending, StatusAccepted, true},
		{"pending to declined", StatusPending, StatusDeclined, true},
		{"pending cannot skip to assigned", StatusPending, StatusAssigned, false},
		{"accepted to assigned", StatusAccepted, StatusAssigned, true},
		{"accepted to declined", StatusAccepted, StatusDeclined, true},
		{"assigned to reached", StatusAssigned, StatusReached, true},
		{"assigned cannot decline", StatusAssigned, StatusDeclined, false},
		{"reached to sample collected", StatusReached, StatusSampleCollected, true},
		{"sample collected to report uploaded", StatusSampleCollected, StatusReportUploaded, true},
		{"report uploaded to completed", StatusReportUploaded, StatusCompleted, true},
		{"no skipping report upload", StatusSampleCollected, StatusCompleted, false},
		{"no backwards movement", StatusReached, StatusAssigned, false},
		{"completed is terminal", StatusCompleted, StatusPending, false},
		{"declined is terminal", StatusDeclined, StatusAccepted, false},
		{"unknown source status", BookingStatus("bogus"), StatusAccepted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestBookingStatusIsValid(t *testing.T) {
	valid := []BookingStatus{
		StatusPending, StatusAccepted, StatusAssigned, StatusReached,
		StatusSampleCollected, StatusReportUploaded, StatusCompleted, StatusDeclined,
	}
	for _, s := range valid {
		assert.True(t, s.IsValid(), "expected %s to be valid", s)
	}

	assert.False(t, BookingStatus("cancelled").IsValid())
	assert.False(t, BookingStatus("").IsValid())
}

func TestBookingStatusIsTerminal(t *testing.T) {
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusDeclined.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusReportUploaded.IsTerminal())

	// Unknown statuses have nowhere to go
	assert.True(t, BookingStatus("bogus").IsTerminal())
}

func TestBookingHasReport(t *testing.T) {
	url := "https://res.cloudinary.com/demo/raw/upload/reports/42/cbc.pdf"
	failed := ReportUploadFailed
	empty := ""

	tests := []struct {
		name string
		url  *string
		want bool
	}{
		{"real report reference", &url, true},
		{"no reference stored", nil, false},
		{"empty reference", &empty, false},
		{"failure marker is not a report", &failed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Booking{ReportFileURL: tt.url}
			assert.Equal(t, tt.want, b.HasReport())
		})
	}
}

func TestBookingIsAssignedTo(t *testing.T) {
	partnerID := uint(7)
	b := Booking{AssignedPartnerID: &partnerID}

	assert.True(t, b.IsAssignedTo(7))
	assert.False(t, b.IsAssignedTo(8))

	unassigned := Booking{}
	assert.False(t, unassigned.IsAssignedTo(7))
}
