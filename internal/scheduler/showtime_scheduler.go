package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ShowtimeSweeper closes booking for showtimes that already ended.
type ShowtimeSweeper interface {
	DeactivateEnded(ctx context.Context) (int, error)
}

type ShowtimeScheduler struct {
	cron    *cron.Cron
	sweeper ShowtimeSweeper
	logger  *zap.Logger
	timeout time.Duration
}

func NewShowtimeScheduler(sweeper ShowtimeSweeper, logger *zap.Logger) *ShowtimeScheduler {
	return &ShowtimeScheduler{
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cron.DiscardLogger),
		)),
		sweeper: sweeper,
		logger:  logger,
		timeout: time.Minute,
	}
}

// Start registers the sweep under spec (standard five field cron syntax) and starts ticking.
func (s *ShowtimeScheduler) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.sweep); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("showtime scheduler started", zap.String("schedule", spec))
	return nil
}

// Stop waits for a running sweep to finish or ctx to expire.
func (s *ShowtimeScheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

func (s *ShowtimeScheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	n, err := s.sweeper.DeactivateEnded(ctx)
	if err != nil {
		s.logger.Error("failed to deactivate ended showtimes", zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Info("deactivated ended showtimes", zap.Int("count", n))
	}
}
