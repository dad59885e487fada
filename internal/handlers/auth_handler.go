package handlers

import (
	"net/http"
	"time"

	"github.com/Abhishek-089/Hireoo-sub001/internal/auth"
	"github.com/Abhishek-089/Hireoo-sub001/internal/dtos"
	"github.com/Abhishek-089/Hireoo-sub001/internal/models"
	"github.com/Abhishek-089/Hireoo-sub001/internal/usage"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AuthHandler struct {
	DB  *gorm.DB
	JWT *auth.JWT
}

func NewAuthHandler(db *gorm.DB, jwtSvc *auth.JWT) *AuthHandler {
	return &AuthHandler{DB: db, JWT: jwtSvc}
}

// IssueToken is the POST /auth/token endpoint. Email-only login: the account
// is created on first sight with a fresh usage window.
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req dtos.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid JSON format: " + err.Error()})
		return
	}

	var user models.User
	err := h.DB.WithContext(c.Request.Context()).
		Where(models.User{Email: req.Email}).
		Attrs(models.User{
			SubscriptionTier:  string(usage.TierFree),
			DailyLimitResetAt: usage.NextResetUTC(time.Now()),
		}).
		FirstOrCreate(&user).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to resolve user: " + err.Error()})
		return
	}

	token, err := h.JWT.Sign(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to sign token: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"token": token, "user": user},
	})
}
