package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pathology-lab-server/models"
)

func blackoutFixture() []models.BlackoutDate {
	return []models.BlackoutDate{
		{
			ID:        1,
			Reason:    "Holiday closure",
			StartDate: time.Date(2025, 12, 24, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2025, 12, 26, 0, 0, 0, 0, time.UTC),
			IsActive:  true,
		},
		{
			ID:        2,
			Reason:    "Deactivated maintenance window",
			StartDate: time.Date(2025, 12, 30, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
			IsActive:  false,
		},
		{
			ID:        3,
			Reason:    "Stock taking",
			StartDate: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
			IsActive:  true,
		},
	}
}

func decodeBlackouts(t *testing.T, rec *httptest.ResponseRecorder) []models.BlackoutDate {
	var resp struct {
		Success       bool                  `json:"success"`
		BlackoutDates []models.BlackoutDate `json:"blackout_dates"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	return resp.BlackoutDates
}

// The public read feeds the booking form's date picker; a window an admin
// has deactivated no longer blocks bookings, so it must not grey out dates.
func TestPublicBlackoutListingHidesInactive(t *testing.T) {
	stubBlackouts(t, blackoutFixture())

	router := gin.New()
	RegisterSettingsRoutes(router.Group(""), router.Group("/admin"))

	req := httptest.NewRequest(http.MethodGet, "/settings/blackout-dates", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	windows := decodeBlackouts(t, rec)
	require.Len(t, windows, 2)
	for _, w := range windows {
		assert.True(t, w.IsActive)
	}
}

func TestAdminBlackoutListingIncludesInactive(t *testing.T) {
	stubBlackouts(t, blackoutFixture())

	router := gin.New()
	RegisterAdminRoutes(router.Group("/admin"))

	req := httptest.NewRequest(http.MethodGet, "/admin/blackout-dates", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	windows := decodeBlackouts(t, rec)
	require.Len(t, windows, 3)
}
