package bot

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// delayedSchedule fires once at first and then every interval after the previous run.
type delayedSchedule struct {
	first time.Time
	every time.Duration
}

func (s delayedSchedule) Next(t time.Time) time.Time {
	if t.Before(s.first) {
		return s.first
	}
	return t.Add(s.every)
}

// cronLogger routes cron's own messages to zap.
type cronLogger struct {
	inner *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.inner.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.inner.Errorw(msg, append(keysAndValues, "error", err)...)
}

// Scheduler runs the periodic jobs. A job never overlaps with itself and a
// panic inside a job is logged instead of killing the process.
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
	now    func() time.Time
}

func NewScheduler(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("scheduler")
	cl := cronLogger{inner: logger.Sugar()}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger: logger,
		now:    time.Now,
	}
}

// Every schedules job to run after first and then every interval. The job
// context is not tied to the process signal, so a run in progress finishes
// during shutdown.
func (s *Scheduler) Every(name string, first, every time.Duration, job func(context.Context) error) {
	if first <= 0 {
		first = every
	}
	sched := delayedSchedule{first: s.now().Add(first), every: every}
	s.cron.Schedule(sched, cron.FuncJob(s.wrap(name, job)))
	s.logger.Info("job scheduled", zap.String("job", name), zap.Duration("first_run", first), zap.Duration("every", every))
}

// Cron schedules job with a standard cron spec such as "@daily".
func (s *Scheduler) Cron(name, spec string, job func(context.Context) error) error {
	if _, err := s.cron.AddFunc(spec, s.wrap(name, job)); err != nil {
		return err
	}
	s.logger.Info("job scheduled", zap.String("job", name), zap.String("spec", spec))
	return nil
}

func (s *Scheduler) wrap(name string, job func(context.Context) error) func() {
	return func() {
		start := s.now()
		err := job(context.Background())
		jobRuns.WithLabelValues(name, resultLabel(err)).Inc()
		if err != nil {
			s.logger.Warn("job failed", zap.String("job", name), zap.Duration("took", time.Since(start)), zap.Error(err))
			return
		}
		s.logger.Debug("job finished", zap.String("job", name), zap.Duration("took", time.Since(start)))
	}
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and waits up to timeout for running jobs to return.
func (s *Scheduler) Stop(timeout time.Duration) {
	done := s.cron.Stop()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done.Done():
		s.logger.Info("scheduler stopped")
	case <-timer.C:
		s.logger.Warn("scheduler stop timed out with jobs still running")
	}
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
