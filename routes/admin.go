package routes

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pathology-lab-server/database"
	"pathology-lab-server/models"
)

// RegisterAdminRoutes registers admin-only management routes. The group is
// already gated by AuthMiddleware + RequireRole(admin).
func RegisterAdminRoutes(rg *gin.RouterGroup) {
	// Partner roster (assignment picker)
	rg.GET("/partners", getPartners)

	// Booking oversight
	rg.GET("/bookings", getAllBookings)
	rg.GET("/bookings/failed-uploads", getFailedUploadBookings)

	// User management
	rg.GET("/users", getAllUsers)
	rg.PATCH("/users/:id/status", updateUserStatus)

	// Catalog management
	rg.POST("/tests", createTest)
	rg.PUT("/tests/:id", updateTest)
	rg.DELETE("/tests/:id", deleteTest)

	// Full blackout listing (the public read hides deactivated windows)
	rg.GET("/blackout-dates", listAllBlackoutDates)

	// Discount codes
	rg.GET("/discounts", getDiscountCodes)
	rg.POST("/discounts", createDiscountCode)
	rg.DELETE("/discounts/:id", deleteDiscountCode)
}

// getPartners returns the active partner roster
func getPartners(c *gin.Context) {
	var partners []models.User
	if err := database.DB.Where("role = ? AND is_active = ?", models.RolePartner, true).
		Order("full_name ASC").
		Find(&partners).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "message": "Failed to fetch partners"})
		return
	}

	payload := make([]gin.H, 0, len(partners))
	for i := range partners {
		payload = append(payload, userPayload(&partners[i]))
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"partners":    payload,
		"total_count": len(payload),
	})
}

func getAllBookings(c *gin.Context) {
	query := database.DB.Preload("Items").Order("created_at DESC")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
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

// getFailedUploadBookings is the manual remediation queue: bookings whose
// report upload degraded to the sentinel reference.
func getFailedUploadBookings(c *gin.Context) {
	var bookings []models.Booking
	if err := database.DB.Where("report_file_url = ?", models.ReportUploadFailed).
		Order("updated_at ASC").
		Find(&bookings).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "message": "Failed to fetch bookings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"bookings":    bookings,
		"total_count": len(bookings),
	})
}

func getAllUsers(c *gin.Context) {
	query := database.DB.Order("created_at DESC")
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "message": "Failed to fetch users"})
		return
	}

	payload := make([]gin.H, 0, len(users))
	for i := range users {
		payload = append(payload, userPayload(&users[i]))
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "users": payload, "total_count": len(payload)})
}

func updateUserStatus(c *gin.Context) {
	var req struct {
		IsActive *bool `json:"is_active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "message": err.Error()})
		return
	}

	var user models.User
	if err := database.DB.First(&user, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found", "message": "User not found"})
		return
	}

	user.IsActive = *req.IsActive
	if err := database.DB.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "message": "Failed to update user"})
		return
	}

	log.Printf("👤 User %d active=%v", user.ID, user.IsActive)
	c.JSON(http.StatusOK, gin.H{"success": true, "user": userPayload(&user)})
}

func createTest(c *gin.Context) {
	var req models.LabTestCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "message": err.Error()})
		return
	}

	test := models.LabTest{
		Title:       req.Title,
		Category:    req.Category,
		Description: req.Description,
		Price:       req.Price,
		IsActive:    true,
	}
	if req.IsActive != nil {
		test.IsActive = *req.IsActive
	}

	if err := database.DB.Create(&test).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "message": "Failed to create test"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "test": test})
}

// updateTest edits a catalog entry. Past bookings keep their snapshotted
// prices; only future bookings see the change.
func updateTest(c *gin.Context) {
	var test models.LabTest
	if err := database.DB.First(&test, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found", "message": "Test not found"})
		return
	}

	var req models.LabTestCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "message": err.Error()})
		return
	}

	test.Title = req.Title
	test.Category = req.Category
	test.Description = req.Description
	test.Price = req.Price
	if req.IsActive != nil {
		test.IsActive = *req.IsActive
	}

	if err := database.DB.Save(&test).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "message": "Failed to update test"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "test": test})
}

func deleteTest(c *gin.Context) {
	var test models.LabTest
	if err := database.DB.First(&test, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found", "message": "Test not found"})
		return
	}

	if err := database.DB.Delete(&test).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "message": "Failed to delete test"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Test deleted"})
}

func getDiscountCodes(c *gin.Context) {
	var codes []models.DiscountCode
	if err := database.DB.Order("created_at DESC").Find(&codes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "message": "Failed to fetch discount codes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "discounts": codes, "total_count": len(codes)})
}

func createDiscountCode(c *gin.Context) {
	var req struct {
		Code      string  `json:"code" binding:"required,min=2,max=50"`
		Percent   float64 `json:"percent" binding:"required,gt=0,lte=100"`
		ExpiresAt string  `json:"expires_at"` // YYYY-MM-DD, optional
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "message": err.Error()})
		return
	}

	code := models.DiscountCode{
		Code:     req.Code,
		Percent:  req.Percent,
		IsActive: true,
	}
	if req.ExpiresAt != "" {
		expires, err := time.Parse("2006-01-02", req.ExpiresAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date", "message": "expires_at must be in YYYY-MM-DD format"})
			return
		}
		code.ExpiresAt = &expires
	}

	if err := database.DB.Create(&code).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "message": "Failed to create discount code"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "discount": code})
}

func deleteDiscountCode(c *gin.Context) {
	var code models.DiscountCode
	if err := database.DB.First(&code, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found", "message": "Discount code not found"})
		return
	}

	if err := database.DB.Delete(&code).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "message": "Failed to delete discount code"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Discount code deleted"})
}
