package handlers

import (
	"errors"
	"net/http"

	"github.com/Abhishek-089/Hireoo-sub001/internal/auth"
	"github.com/Abhishek-089/Hireoo-sub001/internal/dtos"
	"github.com/Abhishek-089/Hireoo-sub001/internal/usage"
	"github.com/gin-gonic/gin"
)

type LimitHandler struct {
	Usage *usage.Service
}

func NewLimitHandler(usageSvc *usage.Service) *LimitHandler {
	return &LimitHandler{Usage: usageSvc}
}

// GetDailyLimit is the GET /api/scraping/daily-limit endpoint backing the
// extension's progress bar.
func (h *LimitHandler) GetDailyLimit(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "unauthenticated"})
		return
	}

	info, err := h.Usage.GetDailyLimitInfo(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, usage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to load daily limit: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": dtos.DailyLimitData{
			Current:         info.Current,
			Limit:           info.Limit,
			ResetAt:         info.ResetAt,
			HoursUntilReset: info.HoursUntilReset,
			Tier:            string(info.Tier),
		},
	})
}
