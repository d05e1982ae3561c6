package routes

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pathology-lab-server/database"
	"pathology-lab-server/models"
)

// RegisterSettingsRoutes registers the public reads; writes are registered
// separately under the admin group.
func RegisterSettingsRoutes(public *gin.RouterGroup, admin *gin.RouterGroup) {
	// The booking form reads both of these without authentication.
	public.GET("/settings", getSettings)
	public.GET("/settings/blackout-dates", listBlackoutDates)

	admin.POST("/settings", upsertSettings)
	admin.POST("/settings/blackout-dates", createBlackoutDate)
	admin.DELETE("/settings/blackout-dates/:id", deleteBlackoutDate)
}

// currentSettings returns the settings singleton, creating it if a fresh
// database has none. FirstOrCreate on the fixed key keeps concurrent first
// readers from inserting twice.
func currentSettings() (*models.Settings, error) {
	settings := models.Settings{ID: models.SettingsID, RequireReportVerification: true}
	err := database.DB.Where(models.Settings{ID: models.SettingsID}).FirstOrCreate(&settings).Error
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// loadSettings and fetchBlackoutWindows are swapped out in handler tests.
var loadSettings = currentSettings

var fetchBlackoutWindows = func() ([]models.BlackoutDate, error) {
	purgeExpiredBlackouts()

	var windows []models.BlackoutDate
	if err := database.DB.Order("start_date ASC").Find(&windows).Error; err != nil {
		return nil, err
	}
	return windows, nil
}

func getSettings(c *gin.Context) {
	settings, err := currentSettings()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "message": "Failed to load settings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "settings": settings})
}

// upsertSettings applies a partial update to the singleton
func upsertSettings(c *gin.Context) {
	var req models.SettingsUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "message": err.Error()})
		return
	}

	settings, err := currentSettings()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "message": "Failed to load settings"})
		return
	}

	if req.RequireReportVerification != nil {
		settings.RequireReportVerification = *req.RequireReportVerification
	}
	if req.MaintenanceMode != nil {
		settings.MaintenanceMode = *req.MaintenanceMode
	}
	if req.Announcement != nil {
		settings.Announcement = *req.Announcement
	}

	if err := database.DB.Save(settings).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "message": "Failed to save settings"})
		return
	}

	log.Printf("⚙️ Settings updated (verification=%v maintenance=%v)",
		settings.RequireReportVerification, settings.MaintenanceMode)

	c.JSON(http.StatusOK, gin.H{"success": true, "settings": settings})
}

// purgeExpiredBlackouts deletes windows whose end date has passed. Called
// lazily on every read so stale windows never linger, and again by the
// background sweep.
func purgeExpiredBlackouts() {
	today := time.Now().Truncate(24 * time.Hour)
	res := database.DB.Where("end_date < ?", today).Delete(&models.BlackoutDate{})
	if res.Error != nil {
		log.Printf("⚠️ Failed to purge expired blackout dates: %v", res.Error)
		return
	}
	if res.RowsAffected > 0 {
		log.Printf("🧹 Purged %d expired blackout dates", res.RowsAffected)
	}
}

// activeBlackoutFor re-reads the live blackout set and returns the window
// covering the date, if any. Creation paths call this at write time - the
// set is never cached across requests.
func activeBlackoutFor(date time.Time) (*models.BlackoutDate, error) {
	windows, err := fetchBlackoutWindows()
	if err != nil {
		return nil, err
	}
	return models.DateBlackedOut(date, windows), nil
}

// listBlackoutDates is the public read used by the booking form to disable
// dates. Deactivated windows don't block bookings, so they are not shown
// here; admins see the full set on their own listing.
func listBlackoutDates(c *gin.Context) {
	windows, err := fetchBlackoutWindows()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "message": "Failed to fetch blackout dates"})
		return
	}

	active := make([]models.BlackoutDate, 0, len(windows))
	for _, w := range windows {
		if w.IsActive {
			active = append(active, w)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"blackout_dates": active,
		"total_count":    len(active),
	})
}

// listAllBlackoutDates is the admin view, deactivated windows included.
func listAllBlackoutDates(c *gin.Context) {
	windows, err := fetchBlackoutWindows()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "message": "Failed to fetch blackout dates"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"blackout_dates": windows,
		"total_count":    len(windows),
	})
}

func createBlackoutDate(c *gin.Context) {
	var req models.BlackoutDateCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "message": err.Error()})
		return
	}

	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date", "message": "start_date must be in YYYY-MM-DD format"})
		return
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date", "message": "end_date must be in YYYY-MM-DD format"})
		return
	}
	if end.Before(start) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid range", "message": "end_date cannot be before start_date"})
		return
	}

	window := models.BlackoutDate{
		Reason:    req.Reason,
		StartDate: start,
		EndDate:   end,
		IsActive:  true,
	}
	if err := database.DB.Create(&window).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "message": "Failed to create blackout date"})
		return
	}

	log.Printf("📅 Blackout window created: %s (%s - %s)", window.Reason, req.StartDate, req.EndDate)

	c.JSON(http.StatusCreated, gin.H{"success": true, "blackout_date": window})
}

func deleteBlackoutDate(c *gin.Context) {
	var window models.BlackoutDate
	if err := database.DB.First(&window, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found", "message": "Blackout date not found"})
		return
	}

	if err := database.DB.Delete(&window).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "message": "Failed to delete blackout date"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Blackout date deleted"})
}
