package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pathology-lab-server/database"
	"pathology-lab-server/models"
)

// RegisterTestRoutes registers the public catalog listing
func RegisterTestRoutes(rg *gin.RouterGroup) {
	rg.GET("/tests", listTests)
}

// listTests returns the active catalog, optionally filtered by category
func listTests(c *gin.Context) {
	query := database.DB.Where("is_active = ?", true).Order("category ASC, title ASC")
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}

	var tests []models.LabTest
	if err := query.Find(&tests).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "message": "Failed to fetch tests"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"tests":       tests,
		"total_count": len(tests),
	})
}
