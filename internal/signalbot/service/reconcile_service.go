package service

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"trade-signal-bot/pkg/logger"
)

// ReconcileService periodically re-renders posted messages so the channel
// catches up with the store after a failed edit.
type ReconcileService interface {
	Start(ctx context.Context) error
	RunOnce(ctx context.Context)
}

// NewReconcileService creates a new reconcile service running on schedule, a
// standard cron expression or descriptor such as "@every 30m".
func NewReconcileService(signals SignalService, schedule string, log *logger.Logger) ReconcileService {
	return &reconcileService{
		signals:  signals,
		schedule: schedule,
		logger:   log,
		parser:   cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

type reconcileService struct {
	signals  SignalService
	schedule string
	logger   *logger.Logger
	parser   cron.Parser
}

// Start schedules the job and blocks until ctx is cancelled.
func (s *reconcileService) Start(ctx context.Context) error {
	c := cron.New(cron.WithParser(s.parser), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(s.schedule, func() { s.RunOnce(ctx) }); err != nil {
		return err
	}

	s.logger.Info("Reconcile scheduler started", logger.StringField("cron", s.schedule))
	c.Start()
	<-ctx.Done()

	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(30 * time.Second):
		s.logger.Warn("Reconcile job did not finish before shutdown")
	}
	s.logger.Info("Reconcile scheduler stopped")
	return nil
}

// RunOnce reconciles every posted signal and the summary.
func (s *reconcileService) RunOnce(ctx context.Context) {
	start := time.Now()
	if err := s.signals.Reconcile(ctx); err != nil {
		s.logger.ErrorContext(ctx, "Reconcile failed", logger.ErrorField(err))
		return
	}
	s.logger.DebugContext(ctx, "Reconcile finished", logger.Field("duration", time.Since(start)))
}
