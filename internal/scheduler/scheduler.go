package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"jobpilot/internal/automation"
	"jobpilot/internal/store"
)

// DefaultSpec fires the daily cycle at 10:00 local time.
const DefaultSpec = "0 10 * * *"

// UserLister enumerates the users a tick should process.
type UserLister interface {
	ListUsers(ctx context.Context) ([]store.User, error)
}

// CycleRunner executes one automation cycle for a user.
type CycleRunner interface {
	Run(ctx context.Context, userID int64) (*automation.Report, error)
}

// Scheduler ticks the automation cycle for every user on a cron schedule.
// Users are processed sequentially; one user's failure never stops the tick.
type Scheduler struct {
	users  UserLister
	runner CycleRunner
	logger *zap.Logger
	cron   *cron.Cron
	spec   string
}

func New(users UserLister, runner CycleRunner, spec string, logger *zap.Logger) *Scheduler {
	if spec == "" {
		spec = DefaultSpec
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		users:  users,
		runner: runner,
		logger: logger,
		cron:   cron.New(),
		spec:   spec,
	}
}

// Start registers the tick and launches the cron loop in the background.
// It returns an error only for an invalid cron expression.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.Tick(ctx)
	})
	if err != nil {
		return fmt.Errorf("register schedule %q: %w", s.spec, err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", zap.String("spec", s.spec))
	return nil
}

// Stop halts the cron loop and waits for a running tick to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// Tick runs one full pass over all users. Exposed so a cycle can also be
// triggered outside the cron loop.
func (s *Scheduler) Tick(ctx context.Context) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		s.logger.Error("listing users failed, skipping tick", zap.Error(err))
		return
	}

	s.logger.Info("daily tick started", zap.Int("users", len(users)))

	for _, user := range users {
		report, err := s.runner.Run(ctx, user.ID)
		if err != nil {
			s.logger.Warn("cycle failed for user",
				zap.Int64("user_id", user.ID),
				zap.String("name", user.Name),
				zap.Error(err))
			continue
		}
		s.logger.Info("cycle completed for user",
			zap.Int64("user_id", user.ID),
			zap.Int("found", report.Found),
			zap.Int("matched", report.Matched),
			zap.Int("applied", report.Applied))
	}
}
