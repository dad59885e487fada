package dtos

import "time"

// PostCaptureRequest is what the browser extension sends when it sees a
// hiring post.
type PostCaptureRequest struct {
	RawHTML string `json:"raw_html" binding:"required"`
	URL     string `json:"url"`
}

// HiringPost is the structured output of the LLM extraction step.
type HiringPost struct {
	CompanyName    string   `json:"company_name"`
	RoleTitle      string   `json:"role_title"`
	Location       string   `json:"location"`
	RecruiterEmail string   `json:"recruiter_email"`
	Skills         []string `json:"skills"`
	Summary        string   `json:"summary"`
}

type TokenRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// DailyLimitData is the payload of GET /api/scraping/daily-limit.
type DailyLimitData struct {
	Current         int       `json:"current"`
	Limit           int       `json:"limit"`
	ResetAt         time.Time `json:"resetAt"`
	HoursUntilReset float64   `json:"hoursUntilReset"`
	Tier            string    `json:"tier"`
}
