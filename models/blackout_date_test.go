package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(value string) time.Time {
	d, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return d
}

func TestBlackoutDateCovers(t *testing.T) {
	window := BlackoutDate{
		Reason:    "Holiday closure",
		StartDate: day("2025-12-24"),
		EndDate:   day("2025-12-26"),
		IsActive:  true,
	}

	tests := []struct {
		name    string
		date    time.Time
		covered bool
	}{
		{"day before window", day("2025-12-23"), false},
		{"start boundary inclusive", day("2025-12-24"), true},
		{"middle of window", day("2025-12-25"), true},
		{"end boundary inclusive", day("2025-12-26"), true},
		{"day after window", day("2025-12-27"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.covered, window.Covers(tt.date))
		})
	}
}

func TestBlackoutDateCoversIgnoresTimeOfDay(t *testing.T) {
	window := BlackoutDate{
		StartDate: day("2025-12-24"),
		EndDate:   day("2025-12-24"),
		IsActive:  true,
	}

	// A booking late in the blackout day is still blacked out.
	late := day("2025-12-24").Add(23 * time.Hour)
	assert.True(t, window.Covers(late))
}

func TestDateBlackedOut(t *testing.T) {
	windows := []BlackoutDate{
		{ID: 1, Reason: "Maintenance", StartDate: day("2025-11-10"), EndDate: day("2025-11-10"), IsActive: true},
		{ID: 2, Reason: "Holiday closure", StartDate: day("2025-12-24"), EndDate: day("2025-12-26"), IsActive: true},
		{ID: 3, Reason: "Deactivated window", StartDate: day("2025-12-30"), EndDate: day("2025-12-31"), IsActive: false},
	}

	hit := DateBlackedOut(day("2025-12-25"), windows)
	assert.NotNil(t, hit)
	assert.Equal(t, uint(2), hit.ID)

	assert.Nil(t, DateBlackedOut(day("2025-12-27"), windows))

	// Inactive windows never block bookings
	assert.Nil(t, DateBlackedOut(day("2025-12-30"), windows))

	assert.Nil(t, DateBlackedOut(day("2025-11-11"), nil))
}
