package routes

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"pathology-lab-server/database"
	"pathology-lab-server/middleware"
	"pathology-lab-server/models"
	"pathology-lab-server/services"
	"pathology-lab-server/utils"
)

var transitionEngine *services.TransitionEngine

// Database indirections, swapped out in handler tests.
var (
	findBookingByID = func(id uint) (*models.Booking, error) {
		var booking models.Booking
		if err := database.DB.Preload("Items").First(&booking, id).Error; err != nil {
			return nil, err
		}
		return &booking, nil
	}

	findActiveTests = func(ids []uint) ([]models.LabTest, error) {
		var tests []models.LabTest
		err := database.DB.Where("id IN ? AND is_active = ?", ids, true).Find(&tests).Error
		return tests, err
	}

	findDiscountCode = func(code string) *models.DiscountCode {
		var dc models.DiscountCode
		if err := database.DB.Where("code = ?", code).First(&dc).Error; err != nil {
			return nil
		}
		return &dc
	}

	insertBooking = func(b *models.Booking) error {
		return database.DB.Create(b).Error
	}
)

// RegisterBookingRoutes registers booking routes on a protected group
func RegisterBookingRoutes(rg *gin.RouterGroup, engine *services.TransitionEngine) {
	transitionEngine = engine

	rg.POST("", createBooking)
	rg.GET("", listBookings)
	rg.GET("/:id", getBooking)
	rg.PATCH("/:id", updateBookingStatus)
	rg.PATCH("/:id/schedule", rescheduleBooking)
	rg.PATCH("/:id/payment", updateBookingPayment)
	rg.GET("/:id/report", downloadReport)
}

// createBooking runs the creation path: blackout guard, coordinate
// validation, line-item snapshot, then the payment ledger.
func createBooking(c *gin.Context) {
	settings, err := loadSettings()
	if err == nil && settings.MaintenanceMode {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Maintenance",
			"message": "Booking is temporarily unavailable. Please try again later.",
		})
		return
	}

	var req models.BookingCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "message": err.Error()})
		return
	}

	scheduledDate, err := time.Parse("2006-01-02", req.ScheduledDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid date",
			"message": "scheduled_date must be in YYYY-MM-DD format",
		})
		return
	}

	// Home collection requires usable coordinates; a booking must never be
	// stored with a home collection type and no location.
	if models.CollectionType(req.CollectionType) == models.CollectionHome {
		if req.LocationLat == nil || req.LocationLng == nil ||
			!utils.IsLocationValid(*req.LocationLat, *req.LocationLng) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid location",
				"message": "Home collection requires valid location coordinates",
			})
			return
		}
	}

	// The blackout set is re-read at write time: a window added while the
	// patient had the form open still blocks the booking.
	if window, err := activeBlackoutFor(scheduledDate); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "message": "Failed to check blackout dates"})
		return
	} else if window != nil {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Date unavailable",
			"message": "Bookings cannot be scheduled on this date: " + window.Reason,
		})
		return
	}

	// Snapshot line items from the live catalog. The items carry copied
	// title/category/price, so later catalog edits never touch this booking.
	tests, err := findActiveTests(req.TestIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "message": "Failed to load test catalog"})
		return
	}
	if len(tests) != len(uniqueIDs(req.TestIDs)) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Unknown test",
			"message": "One or more selected tests are unavailable",
		})
		return
	}

	var items []models.BookingItem
	var total float64
	for _, t := range tests {
		items = append(items, models.BookingItem{
			Title:    t.Title,
			Category: t.Category,
			Price:    t.Price,
		})
		total += t.Price
	}

	// Discount failure is non-fatal: the booking proceeds at full price and
	// the problem is reported alongside the result.
	var discountNotice string
	appliedCode := ""
	if code := strings.TrimSpace(req.DiscountCode); code != "" {
		discounted, derr := services.DiscountedTotal(total, findDiscountCode(code), time.Now())
		if derr != nil {
			discountNotice = derr.Error()
		} else {
			total = discounted
			appliedCode = code
		}
	}

	collected := req.AmountTaken
	if models.PaymentMode(req.PaymentMode) == models.PaymentModeOnline {
		// Online payment settles the full amount immediately.
		collected = total
	}

	user := middleware.CurrentUser(c)
	var ownerID *uint
	if user != nil && user.IsPatient() {
		ownerID = &user.ID
	}

	booking := models.Booking{
		PatientName:     middleware.SanitizeInput(req.PatientName),
		PhoneNumber:     strings.TrimSpace(req.PhoneNumber),
		Email:           strings.TrimSpace(req.Email),
		UserID:          ownerID,
		Items:           items,
		TotalAmount:     total,
		AmountCollected: collected,
		BalanceAmount:   services.ComputeBalance(total, collected),
		PaymentStatus:   services.ResolvePaymentStatus(models.PaymentMode(req.PaymentMode), total, collected),
		PaymentMode:     models.PaymentMode(req.PaymentMode),
		DiscountCode:    appliedCode,
		CollectionType:  models.CollectionType(req.CollectionType),
		ScheduledDate:   scheduledDate,
		ScheduledTime:   req.ScheduledTime,
		LocationLat:     req.LocationLat,
		LocationLng:     req.LocationLng,
		Status:          models.StatusPending,
		ReferralSource:  middleware.SanitizeInput(req.ReferralSource),
	}

	// Create writes the booking and its items in one transaction.
	if err := insertBooking(&booking); err != nil {
		log.Printf("❌ Booking creation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "message": "Failed to create booking"})
		return
	}

	log.Printf("✅ Booking %d created for %s (%d tests, total %.2f)", booking.ID, booking.PatientName, len(items), total)

	response := gin.H{
		"success": true,
		"message": "Booking created successfully",
		"booking": booking,
	}
	if discountNotice != "" {
		response["discount_error"] = discountNotice
	}
	c.JSON(http.StatusCreated, response)
}

// listBookings returns bookings scoped by role: patients see their own,
// partners see their assignments, admins may filter freely.
func listBookings(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated", "message": "Authentication is required"})
		return
	}

	query := database.DB.Preload("Items").Order("created_at DESC")

	switch user.Role {
	case models.RoleAdmin:
		if userID := c.Query("userId"); userID != "" {
			query = query.Where("user_id = ?", userID)
		}
		if email := c.Query("email"); email != "" {
			query = query.Where("email = ?", email)
		}
		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", status)
		}
	case models.RolePartner:
		query = query.Where("assigned_partner_id = ?", user.ID)
	default:
		// Patients only ever see their own history, whatever they ask for.
		if user.Email != "" {
			query = query.Where("user_id = ? OR email = ?", user.ID, user.Email)
		} else {
			query = query.Where("user_id = ?", user.ID)
		}
	}

	var bookings []models.Booking
	if err := query.Find(&bookings).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "message": "Failed to fetch bookings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"bookings":    bookings,
		"total_count": len(bookings),
	})
}

// getBooking returns one booking to its owner, its assigned partner, or an admin
func getBooking(c *gin.Context) {
	user := middleware.CurrentUser(c)
	booking, ok := loadAccessibleBooking(c, user)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "booking": booking})
}

// updateBookingStatus is the single entry point into the transition engine.
// A multipart body signals a report-upload transition; JSON carries plain
// transitions and partner assignment.
func updateBookingStatus(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated", "message": "Authentication is required"})
		return
	}

	bookingID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID", "message": "Booking ID must be numeric"})
		return
	}

	var req services.TransitionRequest

	if strings.Contains(c.ContentType(), "multipart/form-data") {
		req.Status = models.BookingStatus(c.PostForm("status"))
		fileHeader, ferr := c.FormFile("file")
		if ferr == nil && fileHeader != nil {
			file, oerr := fileHeader.Open()
			if oerr != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file", "message": "Failed to read uploaded file"})
				return
			}
			defer file.Close()
			req.ReportFile = file
			req.ReportFilename = fileHeader.Filename
		}
	} else {
		var body struct {
			Status    string `json:"status" binding:"required"`
			PartnerID *uint  `json:"partner_id"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "message": err.Error()})
			return
		}
		req.Status = models.BookingStatus(body.Status)
		req.PartnerID = body.PartnerID
	}

	booking, err := transitionEngine.Apply(c.Request.Context(), user, uint(bookingID), req)
	if err != nil {
		respondAppError(c, err)
		return
	}

	response := gin.H{
		"success": true,
		"message": "Booking updated successfully",
		"booking": booking,
	}
	if booking.ReportFileURL != nil && *booking.ReportFileURL == models.ReportUploadFailed {
		// Surfaced so the admin dashboard can flag the booking for manual
		// remediation; the workflow itself is not blocked.
		response["report_upload_failed"] = true
	}
	c.JSON(http.StatusOK, response)
}

// rescheduleBooking moves an early-stage booking to a new date. The blackout
// set is re-checked live, same as on creation.
func rescheduleBooking(c *gin.Context) {
	user := middleware.CurrentUser(c)
	booking, ok := loadAccessibleBooking(c, user)
	if !ok {
		return
	}

	// Partners never reschedule; owners and admins may, but only before
	// collection logistics are underway.
	isOwner := booking.UserID != nil && *booking.UserID == user.ID
	if !user.IsAdmin() && !isOwner {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden", "message": "Only the booking owner or an admin may reschedule"})
		return
	}
	if booking.Status != models.StatusPending && booking.Status != models.StatusAccepted {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Cannot reschedule",
			"message": "Bookings can only be rescheduled before a partner is assigned",
			"status":  booking.Status,
		})
		return
	}

	var req struct {
		ScheduledDate string `json:"scheduled_date" binding:"required"` // YYYY-MM-DD
		ScheduledTime string `json:"scheduled_time"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "message": err.Error()})
		return
	}

	scheduledDate, err := time.Parse("2006-01-02", req.ScheduledDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date", "message": "scheduled_date must be in YYYY-MM-DD format"})
		return
	}

	if window, err := activeBlackoutFor(scheduledDate); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "message": "Failed to check blackout dates"})
		return
	} else if window != nil {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Date unavailable",
			"message": "Bookings cannot be scheduled on this date: " + window.Reason,
		})
		return
	}

	updates := map[string]interface{}{"scheduled_date": scheduledDate}
	if req.ScheduledTime != "" {
		updates["scheduled_time"] = req.ScheduledTime
	}
	if err := database.DB.Model(&models.Booking{}).Where("id = ?", booking.ID).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "message": "Failed to reschedule booking"})
		return
	}

	booking.ScheduledDate = scheduledDate
	if req.ScheduledTime != "" {
		booking.ScheduledTime = req.ScheduledTime
	}

	log.Printf("📅 Booking %d rescheduled to %s", booking.ID, req.ScheduledDate)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Booking rescheduled", "booking": booking})
}

// updateBookingPayment records an on-site collection. The balance is always
// recomputed from the stored total; a client-supplied balance is ignored.
func updateBookingPayment(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated", "message": "Authentication is required"})
		return
	}

	bookingID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID", "message": "Booking ID must be numeric"})
		return
	}

	var req models.BookingPaymentUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "message": err.Error()})
		return
	}

	var booking models.Booking
	if err := database.DB.First(&booking, bookingID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found", "message": "Booking not found"})
		return
	}

	isAdmin := user.IsAdmin()
	isAssignedPartner := user.IsPartner() && booking.IsAssignedTo(user.ID)
	if !isAdmin && !isAssignedPartner {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden", "message": "Only admins or the assigned partner may record payments"})
		return
	}

	if err := services.ApplyCollection(&booking, req.AmountCollected); err != nil {
		respondAppError(c, err)
		return
	}

	updates := map[string]interface{}{
		"amount_collected": booking.AmountCollected,
		"balance_amount":   booking.BalanceAmount,
		"payment_status":   booking.PaymentStatus,
	}
	if err := database.DB.Model(&models.Booking{}).Where("id = ?", booking.ID).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "message": "Failed to update payment"})
		return
	}

	log.Printf("💰 Payment updated on booking %d: collected=%.2f balance=%.2f (%s)",
		booking.ID, booking.AmountCollected, booking.BalanceAmount, booking.PaymentStatus)

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Payment updated", "booking": booking})
}

// downloadReport is the report delivery gate. It releases the stored
// reference only when the workflow has reached the release point and the
// reference is usable; otherwise the report is "not yet available" - never a
// broken or stale link.
func downloadReport(c *gin.Context) {
	user := middleware.CurrentUser(c)
	booking, ok := loadAccessibleBooking(c, user)
	if !ok {
		return
	}

	releaseFrom := models.StatusCompleted
	if settings, err := loadSettings(); err == nil && !settings.RequireReportVerification {
		releaseFrom = models.StatusReportUploaded
	}

	released := booking.Status == releaseFrom ||
		(releaseFrom == models.StatusReportUploaded && booking.Status == models.StatusCompleted)

	if !released || !booking.HasReport() {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Report not available",
			"message": "The report for this booking is not yet available",
			"status":  booking.Status,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"report_url": *booking.ReportFileURL,
	})
}

// loadAccessibleBooking loads the booking from the path parameter and
// enforces read access: owner, assigned partner, or admin.
func loadAccessibleBooking(c *gin.Context, user *models.User) (*models.Booking, bool) {
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated", "message": "Authentication is required"})
		return nil, false
	}

	bookingID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID", "message": "Booking ID must be numeric"})
		return nil, false
	}

	booking, err := findBookingByID(uint(bookingID))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found", "message": "Booking not found"})
		return nil, false
	}

	isOwner := booking.UserID != nil && *booking.UserID == user.ID
	isAssignedPartner := user.IsPartner() && booking.IsAssignedTo(user.ID)
	if !user.IsAdmin() && !isOwner && !isAssignedPartner {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden", "message": "You do not have access to this booking"})
		return nil, false
	}

	return booking, true
}

// respondAppError maps core errors to HTTP responses
func respondAppError(c *gin.Context, err error) {
	var appErr *services.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus(), gin.H{
			"error":   string(appErr.Kind),
			"message": appErr.Message,
		})
		return
	}
	log.Printf("❌ Unexpected error: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "Internal server error",
		"message": "Something went wrong",
	})
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	var out []uint
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
