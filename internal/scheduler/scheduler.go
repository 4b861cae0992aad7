package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"EquityPulse/internal/model"
	"EquityPulse/internal/notifier"
	"EquityPulse/internal/pipeline"
)

// Runner executes one ETL pass.
type Runner interface {
	Run(ctx context.Context, trigger model.RunTrigger) (*model.RunSummary, error)
}

// Notifier publishes run outcomes.
type Notifier interface {
	NotifyRun(ctx context.Context, s *model.RunSummary) error
}

// Scheduler manages the cron-driven ETL.
type Scheduler struct {
	Cron     *cron.Cron
	Runner   Runner
	Notifier Notifier // optional
	Log      *zap.Logger
	Ctx      context.Context

	mu      sync.Mutex
	last    *model.RunSummary
	stopped bool
	wg      sync.WaitGroup
}

// NewScheduler creates a new Scheduler. n may be nil.
func NewScheduler(ctx context.Context, runner Runner, n Notifier, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Runner:   runner,
		Notifier: n,
		Log:      log,
		Ctx:      ctx,
	}
}

// Register adds the daily ETL job under expr.
func (s *Scheduler) Register(expr string) error {
	if _, err := s.Cron.AddFunc(expr, func() { s.RunNow(model.TriggerScheduled) }); err != nil {
		return fmt.Errorf("register etl task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Log.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	<-s.Cron.Stop().Done()
	s.wg.Wait()
	s.Log.Info("scheduler stopped")
}

// RunNow executes the ETL immediately and notifies the outcome.
func (s *Scheduler) RunNow(trigger model.RunTrigger) *model.RunSummary {
	s.Log.Info("running etl task", zap.String("trigger", string(trigger)))
	summary, err := s.Runner.Run(s.Ctx, trigger)
	if errors.Is(err, pipeline.ErrRunInProgress) {
		s.Log.Warn("etl task skipped", zap.Error(err))
		return nil
	}
	if err != nil {
		s.Log.Error("etl task", zap.Error(err))
	}
	if summary == nil {
		return nil
	}

	s.mu.Lock()
	s.last = summary
	s.mu.Unlock()

	if s.Notifier != nil {
		if err := s.Notifier.NotifyRun(s.Ctx, summary); err != nil {
			s.Log.Error("send notification", zap.Error(err))
		}
	}
	return summary
}

// RunAsync starts RunNow in the background; Stop waits for it. It reports
// false once the scheduler is stopping.
func (s *Scheduler) RunAsync(trigger model.RunTrigger) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || s.Ctx.Err() != nil {
		return false
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.RunNow(trigger)
	}()
	return true
}

// Last returns the most recent completed run, or nil.
func (s *Scheduler) Last() *model.RunSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch command {
	case "/run":
		if !s.RunAsync(model.TriggerManual) {
			return "服务正在关闭，无法执行"
		}
		return "ETL 已开始执行"
	case "/status":
		last := s.Last()
		if last == nil {
			return "暂无运行记录"
		}
		return notifier.FormatRunSummary(last)
	default:
		return notifier.FormatHelp()
	}
}
