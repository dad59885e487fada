package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/Abhishek-089/Hireoo-sub001/internal/dtos"
	"github.com/Abhishek-089/Hireoo-sub001/internal/models"
	"github.com/Abhishek-089/Hireoo-sub001/internal/usage"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrBelowThreshold means the captured post did not score high enough against
// the user profile to spend a daily slot on.
var ErrBelowThreshold = errors.New("post does not match the user profile")

type MatchService struct {
	DB      *gorm.DB
	Usage   *usage.Service
	Matcher *MatcherService
}

func NewMatchService(db *gorm.DB, usageSvc *usage.Service, matcher *MatcherService) *MatchService {
	return &MatchService{
		DB:      db,
		Usage:   usageSvc,
		Matcher: matcher,
	}
}

// CreateMatch turns an extracted hiring post into a match, first claiming a
// slot under the user's daily limit. usage.ErrLimitExceeded propagates to the
// caller untouched so the pipeline can skip instead of retrying.
func (s *MatchService) CreateMatch(ctx context.Context, userID uint, post *dtos.HiringPost, postURL string) (*models.JobMatch, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usage.ErrNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	score := s.Matcher.ScorePost(&user, post)
	if score < MatchThreshold {
		return nil, ErrBelowThreshold
	}

	// Claim the slot before inserting; the increment is the atomic guard.
	if err := s.Usage.RecordMatchCreated(ctx, userID); err != nil {
		return nil, err
	}

	match := &models.JobMatch{
		UUID:           uuid.New().String(),
		UserID:         userID,
		CompanyName:    post.CompanyName,
		RoleTitle:      post.RoleTitle,
		PostURL:        postURL,
		Snippet:        post.Summary,
		RecruiterEmail: post.RecruiterEmail,
		Score:          score,
	}
	if err := s.DB.WithContext(ctx).Create(match).Error; err != nil {
		// The row never landed, so give the claimed slot back with the same
		// floored decrement the triggers use.
		if derr := s.DB.WithContext(ctx).Model(&models.User{}).
			Where("id = ?", userID).
			UpdateColumn("daily_matched_jobs_count",
				gorm.Expr("GREATEST(daily_matched_jobs_count - 1, 0)")).Error; derr != nil {
			log.Printf("failed to release match slot for user %d: %v", userID, derr)
		}
		return nil, fmt.Errorf("create match: %w", err)
	}
	return match, nil
}

func (s *MatchService) ListMatches(ctx context.Context, userID uint) ([]models.JobMatch, error) {
	var matches []models.JobMatch
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&matches).Error
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	return matches, nil
}

func (s *MatchService) GetMatch(ctx context.Context, userID uint, matchUUID string) (*models.JobMatch, error) {
	var match models.JobMatch
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND uuid = ?", userID, matchUUID).
		First(&match).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usage.ErrNotFound
		}
		return nil, fmt.Errorf("load match: %w", err)
	}
	return &match, nil
}

// DeleteMatch hard-deletes the row; the delete trigger hands the slot back to
// the counter when the match was still unapplied.
func (s *MatchService) DeleteMatch(ctx context.Context, userID uint, matchUUID string) error {
	res := s.DB.WithContext(ctx).
		Where("user_id = ? AND uuid = ?", userID, matchUUID).
		Delete(&models.JobMatch{})
	if res.Error != nil {
		return fmt.Errorf("delete match: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return usage.ErrNotFound
	}
	return nil
}

// MarkApplied flips applied to true. The update trigger decrements the
// counter exactly on the false-to-true transition, so re-applying an already
// applied match is harmless.
func (s *MatchService) MarkApplied(ctx context.Context, userID uint, matchUUID string) error {
	res := s.DB.WithContext(ctx).Model(&models.JobMatch{}).
		Where("user_id = ? AND uuid = ?", userID, matchUUID).
		Update("applied", true)
	if res.Error != nil {
		return fmt.Errorf("mark match applied: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return usage.ErrNotFound
	}
	return nil
}
