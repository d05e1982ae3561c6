package routes

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pathology-lab-server/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// authAs stands in for AuthMiddleware with a fixed caller.
func authAs(user models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user", user)
		c.Set("user_id", user.ID)
		c.Set("role", string(user.Role))
		c.Next()
	}
}

func newBookingRouter(user models.User) *gin.Engine {
	router := gin.New()
	group := router.Group("/bookings")
	group.Use(authAs(user))
	RegisterBookingRoutes(group, nil)
	return router
}

func stubSettings(t *testing.T, settings models.Settings) {
	orig := loadSettings
	loadSettings = func() (*models.Settings, error) { return &settings, nil }
	t.Cleanup(func() { loadSettings = orig })
}

func stubBlackouts(t *testing.T, windows []models.BlackoutDate) {
	orig := fetchBlackoutWindows
	fetchBlackoutWindows = func() ([]models.BlackoutDate, error) { return windows, nil }
	t.Cleanup(func() { fetchBlackoutWindows = orig })
}

func stubCatalog(t *testing.T, tests []models.LabTest) {
	orig := findActiveTests
	findActiveTests = func(ids []uint) ([]models.LabTest, error) { return tests, nil }
	t.Cleanup(func() { findActiveTests = orig })
}

func stubStoredBooking(t *testing.T, booking *models.Booking) {
	orig := findBookingByID
	findBookingByID = func(id uint) (*models.Booking, error) {
		if booking == nil || booking.ID != id {
			return nil, errors.New("record not found")
		}
		return booking, nil
	}
	t.Cleanup(func() { findBookingByID = orig })
}

func postJSON(router *gin.Engine, path string, body map[string]interface{}) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func patientCaller() models.User {
	return models.User{ID: 50, FullName: "Some Patient", Role: models.RolePatient, IsActive: true}
}

func bookingBody() map[string]interface{} {
	return map[string]interface{}{
		"patient_name":    "Some Patient",
		"test_ids":        []uint{1},
		"collection_type": "lab_visit",
		"scheduled_date":  "2026-01-10",
		"payment_mode":    "cash",
	}
}

func TestCreateBookingRejectsHomeCollectionWithoutCoordinates(t *testing.T) {
	stubSettings(t, models.Settings{RequireReportVerification: true})
	router := newBookingRouter(patientCaller())

	t.Run("missing coordinates", func(t *testing.T) {
		body := bookingBody()
		body["collection_type"] = "home"

		rec := postJSON(router, "/bookings", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("null island coordinates", func(t *testing.T) {
		body := bookingBody()
		body["collection_type"] = "home"
		body["location_lat"] = 0.0
		body["location_lng"] = 0.0

		rec := postJSON(router, "/bookings", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("valid coordinates pass the check", func(t *testing.T) {
		stubBlackouts(t, nil)
		stubCatalog(t, []models.LabTest{{ID: 1, Title: "CBC", Price: 350, IsActive: true}})
		origInsert := insertBooking
		insertBooking = func(b *models.Booking) error { return nil }
		t.Cleanup(func() { insertBooking = origInsert })

		body := bookingBody()
		body["collection_type"] = "home"
		body["location_lat"] = 19.076
		body["location_lng"] = 72.8777

		rec := postJSON(router, "/bookings", body)
		assert.Equal(t, http.StatusCreated, rec.Code)
	})
}

func TestCreateBookingRejectsBlackoutDate(t *testing.T) {
	stubSettings(t, models.Settings{RequireReportVerification: true})
	stubBlackouts(t, []models.BlackoutDate{{
		ID:        1,
		Reason:    "Holiday",
		StartDate: time.Date(2025, 12, 24, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 12, 26, 0, 0, 0, 0, time.UTC),
		IsActive:  true,
	}})
	router := newBookingRouter(patientCaller())

	body := bookingBody()
	body["scheduled_date"] = "2025-12-25"

	rec := postJSON(router, "/bookings", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "Holiday")
}

func TestCreateBookingOnlinePaymentSettlesInFull(t *testing.T) {
	stubSettings(t, models.Settings{RequireReportVerification: true})
	stubBlackouts(t, nil)
	stubCatalog(t, []models.LabTest{
		{ID: 1, Title: "CBC", Price: 350, IsActive: true},
		{ID: 2, Title: "Lipid Profile", Price: 650, IsActive: true},
	})

	var created *models.Booking
	origInsert := insertBooking
	insertBooking = func(b *models.Booking) error {
		created = b
		return nil
	}
	t.Cleanup(func() { insertBooking = origInsert })

	router := newBookingRouter(patientCaller())
	body := bookingBody()
	body["test_ids"] = []uint{1, 2}
	body["payment_mode"] = "online"

	rec := postJSON(router, "/bookings", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	require.NotNil(t, created)
	assert.Equal(t, 1000.0, created.TotalAmount)
	assert.Equal(t, 1000.0, created.AmountCollected)
	assert.Equal(t, 0.0, created.BalanceAmount)
	assert.Equal(t, models.PaymentPaid, created.PaymentStatus)
	assert.Equal(t, models.StatusPending, created.Status)
	require.NotNil(t, created.UserID)
	assert.Equal(t, uint(50), *created.UserID)
}

func TestCreateBookingRejectsUnknownTest(t *testing.T) {
	stubSettings(t, models.Settings{RequireReportVerification: true})
	stubBlackouts(t, nil)
	// Catalog only knows test 1; the request also asks for test 9.
	stubCatalog(t, []models.LabTest{{ID: 1, Title: "CBC", Price: 350, IsActive: true}})

	router := newBookingRouter(patientCaller())
	body := bookingBody()
	body["test_ids"] = []uint{1, 9}

	rec := postJSON(router, "/bookings", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateBookingMaintenanceMode(t *testing.T) {
	stubSettings(t, models.Settings{MaintenanceMode: true})
	router := newBookingRouter(patientCaller())

	rec := postJSON(router, "/bookings", bookingBody())
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDownloadReportGate(t *testing.T) {
	url := "https://res.cloudinary.com/demo/raw/upload/reports/42/cbc.pdf"
	sentinel := models.ReportUploadFailed
	ownerID := uint(50)

	tests := []struct {
		name                string
		status              models.BookingStatus
		reportURL           *string
		requireVerification bool
		wantCode            int
	}{
		{
			// A reference left behind by an earlier failed attempt must not
			// leak before the workflow reaches the release point.
			name:                "closed at sample_collected despite stale reference",
			status:              models.StatusSampleCollected,
			reportURL:           &url,
			requireVerification: true,
			wantCode:            http.StatusNotFound,
		},
		{
			name:                "closed at report_uploaded while verification required",
			status:              models.StatusReportUploaded,
			reportURL:           &url,
			requireVerification: true,
			wantCode:            http.StatusNotFound,
		},
		{
			name:                "open at completed",
			status:              models.StatusCompleted,
			reportURL:           &url,
			requireVerification: true,
			wantCode:            http.StatusOK,
		},
		{
			name:                "failure marker blocked even at completed",
			status:              models.StatusCompleted,
			reportURL:           &sentinel,
			requireVerification: true,
			wantCode:            http.StatusNotFound,
		},
		{
			name:                "missing reference blocked at completed",
			status:              models.StatusCompleted,
			reportURL:           nil,
			requireVerification: true,
			wantCode:            http.StatusNotFound,
		},
		{
			name:                "verification disabled releases from report_uploaded",
			status:              models.StatusReportUploaded,
			reportURL:           &url,
			requireVerification: false,
			wantCode:            http.StatusOK,
		},
		{
			name:                "verification disabled still closed at sample_collected",
			status:              models.StatusSampleCollected,
			reportURL:           &url,
			requireVerification: false,
			wantCode:            http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubSettings(t, models.Settings{RequireReportVerification: tt.requireVerification})
			stubStoredBooking(t, &models.Booking{
				ID:            42,
				UserID:        &ownerID,
				Status:        tt.status,
				ReportFileURL: tt.reportURL,
			})

			router := newBookingRouter(patientCaller())
			req := httptest.NewRequest(http.MethodGet, "/bookings/42/report", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)

			if tt.wantCode == http.StatusOK {
				var resp struct {
					ReportURL string `json:"report_url"`
				}
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.Equal(t, *tt.reportURL, resp.ReportURL)
			} else {
				assert.Contains(t, rec.Body.String(), "not yet available")
			}
		})
	}
}

func TestDownloadReportForeignPatient(t *testing.T) {
	ownerID := uint(50)
	url := "https://res.cloudinary.com/demo/raw/upload/reports/42/cbc.pdf"

	stubSettings(t, models.Settings{RequireReportVerification: true})
	stubStoredBooking(t, &models.Booking{
		ID:            42,
		UserID:        &ownerID,
		Status:        models.StatusCompleted,
		ReportFileURL: &url,
	})

	stranger := models.User{ID: 51, Role: models.RolePatient, IsActive: true}
	router := newBookingRouter(stranger)
	req := httptest.NewRequest(http.MethodGet, "/bookings/42/report", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
