package usage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Abhishek-089/Hireoo-sub001/internal/models"
	"gorm.io/gorm"
)

// Usage is the per-user counter row as the service sees it.
type Usage struct {
	UserID  uint
	Count   int
	ResetAt time.Time
}

// Store is the persistence contract for the daily counter. Both writes are
// single conditional statements; the counter row is shared mutable state
// across processes, so a read-then-write from service code is never enough.
type Store interface {
	GetUsage(ctx context.Context, userID uint) (*Usage, error)

	// ResetUsage zeroes the counter and advances the boundary, keyed on the
	// previously observed resetAt. Matching zero rows is not an error: a
	// concurrent request won the same reset, and callers re-read.
	ResetUsage(ctx context.Context, userID uint, prevResetAt, newResetAt time.Time) error

	// IncrementBelow adds one to the counter only while it is below limit.
	// Returns ErrLimitExceeded when the guard fails, ErrNotFound when the
	// user row is gone.
	IncrementBelow(ctx context.Context, userID uint, limit int) error
}

type gormStore struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) GetUsage(ctx context.Context, userID uint) (*Usage, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load usage row: %w", err)
	}
	return &Usage{
		UserID:  u.ID,
		Count:   u.DailyMatchedJobsCount,
		ResetAt: u.DailyLimitResetAt.UTC(),
	}, nil
}

func (s *gormStore) ResetUsage(ctx context.Context, userID uint, prevResetAt, newResetAt time.Time) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND daily_limit_reset_at = ?", userID, prevResetAt).
		Updates(map[string]interface{}{
			"daily_matched_jobs_count": 0,
			"daily_limit_reset_at":     newResetAt,
		})
	if res.Error != nil {
		return fmt.Errorf("reset usage row: %w", res.Error)
	}
	return nil
}

func (s *gormStore) IncrementBelow(ctx context.Context, userID uint, limit int) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND daily_matched_jobs_count < ?", userID, limit).
		UpdateColumn("daily_matched_jobs_count", gorm.Expr("daily_matched_jobs_count + 1"))
	if res.Error != nil {
		return fmt.Errorf("increment usage row: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// The guard failed: either the user is at the ceiling or the row
		// does not exist. Tell the two apart for the caller.
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.User{}).
			Where("id = ?", userID).Count(&count).Error; err != nil {
			return fmt.Errorf("check usage row: %w", err)
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrLimitExceeded
	}
	return nil
}
