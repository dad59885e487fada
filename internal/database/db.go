package database

import (
	"fmt"
	"log"
	"time"

	"github.com/Abhishek-089/Hireoo-sub001/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the Postgres connection, runs migrations and installs the
// counter triggers.
func Connect(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Println("Database connection established")

	log.Println("Running Migrations...")
	if err := db.AutoMigrate(
		&models.User{},
		&models.JobMatch{},
		&models.OutreachEmail{},
		&models.ProcessedEmail{},
	); err != nil {
		return nil, fmt.Errorf("auto-migrate failed: %w", err)
	}

	if err := applyCounterTriggers(db); err != nil {
		return nil, fmt.Errorf("failed to install counter triggers: %w", err)
	}

	return db, nil
}

// applyCounterTriggers keeps users.daily_matched_jobs_count in sync with
// job_matches mutations that do not go through the usage service: deleting an
// unapplied match, or flipping a match from unapplied to applied, gives the
// slot back. The decrement is floored at zero and the triggers never touch
// daily_limit_reset_at; staleness handling belongs to the service layer.
func applyCounterTriggers(db *gorm.DB) error {
	stmts := []string{
		`CREATE OR REPLACE FUNCTION job_match_delete_decrement() RETURNS trigger AS $$
		BEGIN
			IF OLD.applied = false THEN
				UPDATE users
				SET daily_matched_jobs_count = GREATEST(daily_matched_jobs_count - 1, 0)
				WHERE id = OLD.user_id;
			END IF;
			RETURN OLD;
		END;
		$$ LANGUAGE plpgsql;`,

		`DROP TRIGGER IF EXISTS trg_job_match_delete_decrement ON job_matches;`,

		`CREATE TRIGGER trg_job_match_delete_decrement
		AFTER DELETE ON job_matches
		FOR EACH ROW EXECUTE FUNCTION job_match_delete_decrement();`,

		`CREATE OR REPLACE FUNCTION job_match_applied_decrement() RETURNS trigger AS $$
		BEGIN
			IF OLD.applied = false AND NEW.applied = true THEN
				UPDATE users
				SET daily_matched_jobs_count = GREATEST(daily_matched_jobs_count - 1, 0)
				WHERE id = NEW.user_id;
			END IF;
			RETURN NEW;
		END;
		$$ LANGUAGE plpgsql;`,

		`DROP TRIGGER IF EXISTS trg_job_match_applied_decrement ON job_matches;`,

		`CREATE TRIGGER trg_job_match_applied_decrement
		AFTER UPDATE OF applied ON job_matches
		FOR EACH ROW EXECUTE FUNCTION job_match_applied_decrement();`,
	}

	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	log.Println("Counter triggers installed")
	return nil
}
