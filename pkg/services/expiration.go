package services

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/pantry-engine/pkg/cache"
	"github.com/ekaya-inc/pantry-engine/pkg/database"
	"github.com/ekaya-inc/pantry-engine/pkg/metrics"
	"github.com/ekaya-inc/pantry-engine/pkg/models"
	"github.com/ekaya-inc/pantry-engine/pkg/repositories"
	"github.com/ekaya-inc/pantry-engine/pkg/retry"
)

// SweepResult summarises one expiration sweep.
type SweepResult struct {
	Today    models.Date
	Disabled int
	Notified int
}

// ExpirationService disables expired stock and warns users about batches
// that expire soon.
type ExpirationService interface {
	// Sweep runs once for the calendar day containing now:
	// active batches expiring today or earlier are disabled (no notification), and active
	// batches expiring NotifyDaysAhead days later get one notification each.
	// Requires a database scope in ctx. Running it twice on one day is harmless.
	Sweep(ctx context.Context, now time.Time) (*SweepResult, error)

	// RunScheduler sweeps immediately and then on every interval until ctx is
	// cancelled. It blocks and returns nil on cancellation.
	RunScheduler(ctx context.Context, interval time.Duration) error
}

type expirationService struct {
	db               *database.DB
	stockRepo        repositories.StockRepository
	notificationRepo repositories.NotificationRepository
	invalidator      cache.StockInvalidator
	location         *time.Location
	notifyDaysAhead  int
	now              func() time.Time
	metrics          *metrics.Metrics
	logger           *zap.Logger
}

// NewExpirationService creates a new expiration service. location decides
// which calendar day "today" is.
func NewExpirationService(
	db *database.DB,
	stockRepo repositories.StockRepository,
	notificationRepo repositories.NotificationRepository,
	invalidator cache.StockInvalidator,
	location *time.Location,
	notifyDaysAhead int,
	m *metrics.Metrics,
	logger *zap.Logger,
) ExpirationService {
	return &expirationService{
		db:               db,
		stockRepo:        stockRepo,
		notificationRepo: notificationRepo,
		invalidator:      invalidator,
		location:         location,
		notifyDaysAhead:  notifyDaysAhead,
		now:              time.Now,
		metrics:          m,
		logger:           logger.Named("expiration-service"),
	}
}

var _ ExpirationService = (*expirationService)(nil)

func (s *expirationService) Sweep(ctx context.Context, now time.Time) (*SweepResult, error) {
	today := models.DateOf(now.In(s.location))
	result := &SweepResult{Today: today}

	userIDs, err := s.stockRepo.DisableExpiredBy(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("failed to disable expired stock: %w", err)
	}
	result.Disabled = len(userIDs)

	if len(userIDs) > 0 {
		slices.Sort(userIDs)
		s.invalidator.Invalidate(ctx, slices.Compact(userIDs)...)
	}

	warnDay := today.AddDays(s.notifyDaysAhead)
	expiring, err := s.stockRepo.ListActiveExpiringOn(ctx, warnDay)
	if err != nil {
		return nil, fmt.Errorf("failed to list expiring stock: %w", err)
	}

	for _, stock := range expiring {
		created, err := s.notificationRepo.CreateForStock(ctx, stock.UserID, stock.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to notify user %d about stock %d: %w", stock.UserID, stock.ID, err)
		}
		if created {
			result.Notified++
		}
	}

	return result, nil
}

func (s *expirationService) RunScheduler(ctx context.Context, interval time.Duration) error {
	s.logger.Info("Expiration scheduler started",
		zap.Duration("interval", interval),
		zap.Int("notify_days_ahead", s.notifyDaysAhead),
		zap.String("timezone", s.location.String()))

	s.sweepOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Expiration scheduler stopped")
			return nil
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

// sweepOnce acquires a connection and sweeps, retrying transient failures.
// Errors are logged; the scheduler keeps running.
func (s *expirationService) sweepOnce(ctx context.Context) {
	var result *SweepResult

	err := retry.DoIfRetryable(ctx, retry.DefaultConfig(), func() error {
		scopedCtx, cleanup, err := s.db.WithScope(ctx)
		if err != nil {
			return fmt.Errorf("failed to acquire connection: %w", err)
		}
		defer cleanup()

		result, err = s.Sweep(scopedCtx, s.now())
		return err
	})
	if err != nil {
		s.metrics.ObserveSweep(0, 0, err)
		if ctx.Err() == nil {
			s.logger.Error("Expiration sweep failed", zap.Error(err))
		}
		return
	}

	s.metrics.ObserveSweep(result.Disabled, result.Notified, nil)
	s.logger.Info("Expiration sweep completed",
		zap.String("today", result.Today.String()),
		zap.Int("disabled", result.Disabled),
		zap.Int("notified", result.Notified))
}
