package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/akash12888/note-taking-app/internal/models"
	"github.com/akash12888/note-taking-app/pkg/logger"
)

const (
	defaultCodeSpec         = "@hourly"
	defaultStaleSignupSpec  = "@daily"
	defaultStaleSignupAfter = 7 * 24 * time.Hour
)

// Cleaner coordinates background maintenance: clearing expired one-time
// codes and purging abandoned unverified signups.
type Cleaner struct {
	db   *gorm.DB
	cron *cron.Cron
	now  func() time.Time
	log  *zap.Logger

	codeSchedule     string
	staleSchedule    string
	staleSignupAfter time.Duration
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used for cleanup comparisons.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithCodeSchedule overrides the cron specification for expired code cleanup.
func WithCodeSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.codeSchedule = spec
		}
	}
}

// WithStaleSignupSchedule overrides the cron specification for abandoned signup cleanup.
func WithStaleSignupSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.staleSchedule = spec
		}
	}
}

// WithStaleSignupAfter adjusts how long an unverified signup may linger
// before it is removed.
func WithStaleSignupAfter(d time.Duration) Option {
	return func(cleaner *Cleaner) {
		if d > 0 {
			cleaner.staleSignupAfter = d
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults.
func NewCleaner(db *gorm.DB, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		db:               db,
		now:              time.Now,
		codeSchedule:     defaultCodeSpec,
		staleSchedule:    defaultStaleSignupSpec,
		staleSignupAfter: defaultStaleSignupAfter,
		log:              logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return cleaner
}

// Start registers cleanup jobs with the cron scheduler and launches it.
func (c *Cleaner) Start() error {
	if c.db == nil {
		return nil
	}

	if _, err := c.cron.AddFunc(c.codeSchedule, func() {
		if _, err := ClearExpiredCodes(context.Background(), c.db, c.now()); err != nil {
			c.log.Warn("expired code cleanup failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	if _, err := c.cron.AddFunc(c.staleSchedule, func() {
		if _, err := PurgeStaleSignups(context.Background(), c.db, c.now().Add(-c.staleSignupAfter)); err != nil {
			c.log.Warn("stale signup cleanup failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes all cleanup routines sequentially. Used in tests and
// during graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if c.db == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error
	if _, err := ClearExpiredCodes(ctx, c.db, c.now()); err != nil {
		errs = multierr.Append(errs, err)
	}
	if _, err := PurgeStaleSignups(ctx, c.db, c.now().Add(-c.staleSignupAfter)); err != nil {
		errs = multierr.Append(errs, err)
	}
	return errs
}

// ClearExpiredCodes blanks the pending code columns on accounts whose code
// has expired. The accounts themselves are untouched.
func ClearExpiredCodes(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	if db == nil {
		return 0, errors.New("clear expired codes: db is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	result := db.WithContext(ctx).
		Model(&models.User{}).
		Where("otp_expires_at IS NOT NULL AND otp_expires_at < ?", now).
		Updates(map[string]any{
			"otp_code_hash":  nil,
			"otp_expires_at": nil,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("clear expired codes: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// PurgeStaleSignups deletes unverified accounts that never completed signup
// and have no federated link, once they are older than the cutoff.
func PurgeStaleSignups(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	if db == nil {
		return 0, errors.New("purge stale signups: db is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	result := db.WithContext(ctx).
		Where("is_verified = ? AND google_id IS NULL AND created_at < ?", false, cutoff).
		Delete(&models.User{})
	if result.Error != nil {
		return 0, fmt.Errorf("purge stale signups: %w", result.Error)
	}
	return result.RowsAffected, nil
}
