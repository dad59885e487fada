package handlers

import (
	"errors"
	"net/http"

	"github.com/Abhishek-089/Hireoo-sub001/internal/auth"
	"github.com/Abhishek-089/Hireoo-sub001/internal/dtos"
	"github.com/Abhishek-089/Hireoo-sub001/internal/services"
	"github.com/Abhishek-089/Hireoo-sub001/internal/usage"
	"github.com/gin-gonic/gin"
)

type MatchHandler struct {
	LLMService *services.LLMService
	Matches    *services.MatchService
	Emails     *services.EmailService
}

func NewMatchHandler(llm *services.LLMService, matches *services.MatchService, emails *services.EmailService) *MatchHandler {
	return &MatchHandler{
		LLMService: llm,
		Matches:    matches,
		Emails:     emails,
	}
}

// CapturePost is the POST /matches/capture endpoint: raw post HTML in, a new
// match out (or 429 when the daily limit is spent).
func (h *MatchHandler) CapturePost(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "unauthenticated"})
		return
	}

	var req dtos.PostCaptureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid JSON format: " + err.Error()})
		return
	}

	post, err := h.LLMService.ExtractHiringPost(c.Request.Context(), req.RawHTML)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "AI extraction failed: " + err.Error()})
		return
	}

	match, err := h.Matches.CreateMatch(c.Request.Context(), userID, post, req.URL)
	if err != nil {
		switch {
		case errors.Is(err, usage.ErrLimitExceeded):
			c.JSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   "Daily match limit reached. Upgrade your plan for more matches.",
			})
		case errors.Is(err, services.ErrBelowThreshold):
			c.JSON(http.StatusOK, gin.H{
				"success": true,
				"data":    gin.H{"matched": false},
			})
		case errors.Is(err, usage.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "user not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to create match: " + err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": match})
}

func (h *MatchHandler) ListMatches(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "unauthenticated"})
		return
	}

	matches, err := h.Matches.ListMatches(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to list matches: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": matches})
}

func (h *MatchHandler) GetMatch(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "unauthenticated"})
		return
	}

	match, err := h.Matches.GetMatch(c.Request.Context(), userID, c.Param("uuid"))
	if err != nil {
		if errors.Is(err, usage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "match not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to load match: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": match})
}

func (h *MatchHandler) DeleteMatch(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "unauthenticated"})
		return
	}

	if err := h.Matches.DeleteMatch(c.Request.Context(), userID, c.Param("uuid")); err != nil {
		if errors.Is(err, usage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "match not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to delete match: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SendOutreach is the POST /matches/:uuid/apply endpoint: generate and send
// the cold email, marking the match applied.
func (h *MatchHandler) SendOutreach(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "unauthenticated"})
		return
	}

	outreach, err := h.Emails.SendOutreach(c.Request.Context(), userID, c.Param("uuid"))
	if err != nil {
		if errors.Is(err, usage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "match not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to send outreach: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": outreach})
}
