package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Email           string `gorm:"uniqueIndex;not null" json:"email"`
	ProfileKeywords string `gorm:"type:text" json:"profile_keywords"`

	// Billing state. SubscriptionTier is the stored fallback; the live value
	// comes from Stripe when a customer id is present.
	SubscriptionTier string `gorm:"default:'free'" json:"subscription_tier"`
	StripeCustomerID string `json:"-"`

	// Daily usage counter. The count covers unapplied matches created in the
	// current window; DailyLimitResetAt is the UTC instant of the next IST
	// midnight at which the window rolls over.
	DailyMatchedJobsCount int       `gorm:"not null;default:0" json:"daily_matched_jobs_count"`
	DailyLimitResetAt     time.Time `json:"daily_limit_reset_at"`

	// Gmail incremental sync bookmark for the reply watcher.
	LastHistoryID uint64 `json:"last_history_id"`
}

// JobMatch rows are hard-deleted on purpose: the delete trigger that gives
// the slot back to the daily counter only fires on a real DELETE.
type JobMatch struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UUID   string `gorm:"uniqueIndex;not null" json:"uuid"`
	UserID uint   `gorm:"index;not null" json:"user_id"`

	CompanyName    string `json:"company_name"`
	RoleTitle      string `json:"role_title"`
	PostURL        string `json:"post_url"`
	Snippet        string `gorm:"type:text" json:"snippet"`
	RecruiterEmail string `json:"recruiter_email"`
	Score          int    `json:"score"`

	Applied bool `gorm:"not null;default:false" json:"applied"`
}

func (JobMatch) TableName() string {
	return "job_matches"
}

type OutreachEmail struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	MatchID uint `gorm:"index;not null" json:"match_id"`
	UserID  uint `gorm:"index;not null" json:"user_id"`

	GmailMessageID string `json:"gmail_message_id"`
	ThreadID       string `gorm:"index" json:"thread_id"`
	Subject        string `json:"subject"`
	Body           string `gorm:"type:text" json:"body"`

	RepliedAt *time.Time `json:"replied_at"`
}

type ProcessedEmail struct {
	ID        string `gorm:"primaryKey"`
	CreatedAt time.Time
}
