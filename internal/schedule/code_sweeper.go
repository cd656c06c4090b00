package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"anonchat/internal/observability"
)

type ExpiredCodeClearer interface {
	ClearExpiredCodes(ctx context.Context, now time.Time) (int64, error)
}

// CodeSweeper periodically blanks verification codes whose expiry has passed.
type CodeSweeper struct {
	store     ExpiredCodeClearer
	scheduler *gocron.Scheduler
	every     int
	now       func() time.Time
}

func NewCodeSweeper(store ExpiredCodeClearer, everyMinutes int) *CodeSweeper {
	if everyMinutes <= 0 {
		everyMinutes = 15
	}
	return &CodeSweeper{
		store:     store,
		scheduler: gocron.NewScheduler(time.UTC),
		every:     everyMinutes,
		now:       time.Now,
	}
}

func (s *CodeSweeper) Start() error {
	if _, err := s.scheduler.Every(s.every).Minutes().Tag("expired code sweep").Do(s.sweep); err != nil {
		return fmt.Errorf("schedule code sweep failed: %w", err)
	}
	s.scheduler.StartAsync()
	return nil
}

func (s *CodeSweeper) Stop() {
	s.scheduler.Stop()
}

func (s *CodeSweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := s.store.ClearExpiredCodes(ctx, s.now().UTC())
	if err != nil {
		slog.Error("sweep expired codes failed", "error", err)
		return
	}
	if n > 0 {
		observability.ExpiredCodesCleared.Add(float64(n))
		slog.Info("expired verification codes cleared", "count", n)
	}
}
