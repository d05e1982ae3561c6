package routes

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pathology-lab-server/database"
	"pathology-lab-server/middleware"
	"pathology-lab-server/models"
	"pathology-lab-server/services"
)

// RegisterAuthRoutes registers authentication routes
func RegisterAuthRoutes(router *gin.RouterGroup) {
	jwtService := services.NewJWTService()

	// Sign up endpoint. Role is patient by default; partner accounts can be
	// requested at signup, admin can never be self-assigned.
	router.POST("/signup", func(c *gin.Context) {
		var req struct {
			FullName    string `json:"full_name" binding:"required,min=2,max=100"`
			Username    string `json:"username" binding:"required,min=3,max=100"`
			Email       string `json:"email" binding:"omitempty,email"`
			PhoneNumber string `json:"phone_number"`
			Password    string `json:"password" binding:"required,min=8,max=128"`
			Role        string `json:"role" binding:"omitempty,oneof=patient partner"`
			Specialty   string `json:"specialty"`
		}

		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request",
				"message": err.Error(),
			})
			return
		}

		req.FullName = middleware.SanitizeInput(req.FullName)
		req.Username = strings.ToLower(strings.TrimSpace(req.Username))

		isStrong, problems := middleware.ValidatePasswordStrength(req.Password)
		if !isStrong {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Weak password",
				"message": "Password does not meet security requirements",
				"details": problems,
			})
			return
		}

		var existingUser models.User
		if err := database.DB.Where("username = ?", req.Username).First(&existingUser).Error; err == nil {
			c.JSON(http.StatusConflict, gin.H{
				"error":   "User already exists",
				"message": "An account with this username already exists",
			})
			return
		}

		hashedPassword, err := jwtService.HashPassword(req.Password)
		if err != nil {
			log.Printf("❌ Password hashing failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Internal server error",
				"message": "Failed to process password",
			})
			return
		}

		userRole := models.RolePatient
		if strings.ToLower(req.Role) == string(models.RolePartner) {
			userRole = models.RolePartner
		}

		user := models.User{
			FullName:     req.FullName,
			Username:     req.Username,
			Email:        strings.TrimSpace(req.Email),
			PhoneNumber:  strings.TrimSpace(req.PhoneNumber),
			PasswordHash: hashedPassword,
			Role:         userRole,
			Specialty:    middleware.SanitizeInput(req.Specialty),
			IsActive:     true,
		}

		if err := database.DB.Create(&user).Error; err != nil {
			log.Printf("❌ User creation failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Internal server error",
				"message": "Failed to create account",
			})
			return
		}

		token, expiresIn, err := jwtService.GenerateToken(&user)
		if err != nil {
			log.Printf("❌ Token generation failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Internal server error",
				"message": "Failed to generate authentication token",
			})
			return
		}

		log.Printf("✅ User created successfully: %d (%s)", user.ID, user.Role)

		c.JSON(http.StatusCreated, gin.H{
			"success": true,
			"message": "Account created successfully",
			"data": gin.H{
				"user":       userPayload(&user),
				"token":      token,
				"expires_in": expiresIn,
			},
		})
	})

	// Login endpoint
	router.POST("/login", func(c *gin.Context) {
		var req struct {
			Username string `json:"username" binding:"required"`
			Password string `json:"password" binding:"required"`
		}

		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request",
				"message": err.Error(),
			})
			return
		}

		req.Username = strings.ToLower(strings.TrimSpace(req.Username))

		var user models.User
		if err := database.DB.Where("username = ?", req.Username).First(&user).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid credentials",
				"message": "Username or password is incorrect",
			})
			return
		}

		if !user.IsActive {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Account deactivated",
				"message": "Your account has been deactivated",
			})
			return
		}

		if !jwtService.CheckPasswordHash(req.Password, user.PasswordHash) {
			log.Printf("❌ Invalid password for user: %d", user.ID)
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid credentials",
				"message": "Username or password is incorrect",
			})
			return
		}

		token, expiresIn, err := jwtService.GenerateToken(&user)
		if err != nil {
			log.Printf("❌ Token generation failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Internal server error",
				"message": "Failed to generate authentication token",
			})
			return
		}

		log.Printf("✅ User signed in successfully: %d", user.ID)

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Sign in successful",
			"data": gin.H{
				"user":       userPayload(&user),
				"token":      token,
				"expires_in": expiresIn,
			},
		})
	})

	// Get current user endpoint
	router.GET("/me", middleware.AuthMiddleware(), func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Not authenticated",
				"message": "Authentication is required",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    gin.H{"user": userPayload(user)},
		})
	})
}

func userPayload(user *models.User) gin.H {
	return gin.H{
		"id":           user.ID,
		"full_name":    user.FullName,
		"username":     user.Username,
		"email":        user.Email,
		"phone_number": user.PhoneNumber,
		"role":         user.Role,
		"specialty":    user.Specialty,
		"is_active":    user.IsActive,
		"created_at":   user.CreatedAt,
	}
}
