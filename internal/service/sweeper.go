package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dollarfunding/webhook-engine/internal/repository"
	"go.uber.org/zap"
)

const (
	defaultSweepInterval = 30 * time.Second
	defaultSweepLimit    = 100

	// sweepGrace keeps the sweeper behind the broker: a delivery is only
	// re-enqueued once its nextAttemptAt is this far past due, so the normal
	// queued message gets to arrive first. Duplicates are harmless either way
	// because the worker claim serializes attempts.
	sweepGrace = time.Minute
)

// Sweeper is the safety net under the broker: it re-enqueues deliveries whose
// nextAttemptAt is well past due, covering enqueues lost to publish failures
// and attempt leases orphaned by worker crashes.
type Sweeper struct {
	deliveries repository.DeliveryRepository
	scheduler  Scheduler
	logger     *zap.Logger
	interval   time.Duration
	limit      int
	now        func() time.Time
}

func NewSweeper(
	deliveries repository.DeliveryRepository,
	scheduler Scheduler,
	interval time.Duration,
	limit int,
	logger *zap.Logger,
) (*Sweeper, error) {
	if deliveries == nil {
		return nil, fmt.Errorf("delivery repository is required")
	}
	if scheduler == nil {
		return nil, fmt.Errorf("scheduler is required")
	}
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	if limit <= 0 {
		limit = defaultSweepLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Sweeper{
		deliveries: deliveries,
		scheduler:  scheduler,
		logger:     logger,
		interval:   interval,
		limit:      limit,
		now:        time.Now,
	}, nil
}

func (s *Sweeper) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Run an initial scan so deliveries stranded before a restart do not wait
	// for the first ticker edge.
	if err := s.scanDue(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("sweeper initial scan failed", zap.Error(err))
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.scanDue(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				s.logger.Error("sweeper scan failed", zap.Error(err))
			}
		}
	}
}

func (s *Sweeper) scanDue(ctx context.Context) error {
	dueBefore := s.now().UTC().Add(-sweepGrace)

	due, err := s.deliveries.GetDueForRedelivery(ctx, dueBefore, s.limit)
	if err != nil {
		return fmt.Errorf("failed to fetch overdue deliveries: %w", err)
	}

	for i := range due {
		delivery := due[i]
		if err := s.scheduler.EnqueueNow(ctx, delivery.ID); err != nil {
			s.logger.Error("failed to re-enqueue overdue delivery",
				zap.String("deliveryId", delivery.ID),
				zap.Error(err),
			)
			continue
		}

		s.logger.Info("re-enqueued overdue delivery",
			zap.String("deliveryId", delivery.ID),
			zap.String("status", delivery.Status.String()),
		)
	}

	return nil
}
