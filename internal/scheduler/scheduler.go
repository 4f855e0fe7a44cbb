package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/finopshq/budgetwatch/pkg/monitor"
)

// Checker runs a monitoring pass over all active budgets.
type Checker interface {
	RunCheck(ctx context.Context, now time.Time) (*monitor.CheckResult, error)
}

// Dispatcher delivers pending alerts to the configured channels.
type Dispatcher interface {
	DispatchPending(ctx context.Context) (int, error)
}

// Scheduler drives periodic budget checks and alert dispatch.
type Scheduler struct {
	cron          *cron.Cron
	checker       Checker
	dispatcher    Dispatcher
	checkDeadline time.Duration
	logger        *slog.Logger

	// checkMu serializes monitoring passes. A pass that is still running
	// when the next tick fires causes the tick to be skipped.
	checkMu sync.Mutex
}

// New creates a scheduler. checkDeadline bounds each monitoring pass.
func New(checker Checker, dispatcher Dispatcher, checkDeadline time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:          cron.New(),
		checker:       checker,
		dispatcher:    dispatcher,
		checkDeadline: checkDeadline,
		logger:        logger,
	}
}

// Start registers the check and dispatch jobs and starts the cron loop.
// Specs use cron syntax or descriptors like "@every 15m".
func (s *Scheduler) Start(checkSpec, dispatchSpec string) error {
	if _, err := s.cron.AddFunc(checkSpec, s.runCheck); err != nil {
		return err
	}
	if s.dispatcher != nil {
		if _, err := s.cron.AddFunc(dispatchSpec, s.runDispatch); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "check_spec", checkSpec, "dispatch_spec", dispatchSpec)
	return nil
}

// Stop halts the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) runCheck() {
	if !s.checkMu.TryLock() {
		s.logger.Warn("previous check still running, skipping tick")
		return
	}
	defer s.checkMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.checkDeadline)
	defer cancel()

	result, err := s.checker.RunCheck(ctx, time.Now().UTC())
	if err != nil {
		s.logger.Error("budget check failed", "error", err)
		return
	}

	s.logger.Info("budget check complete",
		"budgets_checked", result.BudgetsChecked,
		"alerts_emitted", result.AlertsEmitted,
		"suppressed", result.Suppressed,
		"failures", len(result.Failures),
	)
	if err := result.Err(); err != nil {
		s.logger.Error("some budgets failed", "error", err)
	}
}

func (s *Scheduler) runDispatch() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	delivered, err := s.dispatcher.DispatchPending(ctx)
	if err != nil {
		s.logger.Error("alert dispatch failed", "error", err)
		return
	}
	if delivered > 0 {
		s.logger.Info("alerts dispatched", "delivered", delivered)
	}
}
