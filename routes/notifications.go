package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pathology-lab-server/database"
	"pathology-lab-server/middleware"
	"pathology-lab-server/models"
)

// RegisterNotificationRoutes registers in-app notification routes
func RegisterNotificationRoutes(rg *gin.RouterGroup) {
	rg.GET("", getUserNotifications)
	rg.GET("/unread-count", getUnreadCount)
	rg.POST("/mark-read/:id", markNotificationAsRead)
}

func getUserNotifications(c *gin.Context) {
	userID := c.GetUint("user_id")

	var notifications []models.Notification
	if err := database.DB.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(100).
		Find(&notifications).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "message": "Failed to fetch notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"notifications": notifications,
		"total_count":   len(notifications),
	})
}

func getUnreadCount(c *gin.Context) {
	userID := c.GetUint("user_id")

	var count int64
	if err := database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&count).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "message": "Failed to count notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "unread_count": count})
}

func markNotificationAsRead(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated", "message": "Authentication is required"})
		return
	}

	var notification models.Notification
	if err := database.DB.Where("id = ? AND user_id = ?", c.Param("id"), user.ID).
		First(&notification).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found", "message": "Notification not found"})
		return
	}

	notification.Read = true
	if err := database.DB.Save(&notification).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "message": "Failed to update notification"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Notification marked as read"})
}
