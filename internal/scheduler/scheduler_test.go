package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EquityPulse/internal/model"
	"EquityPulse/internal/pipeline"
)

type fakeRunner struct {
	mu       sync.Mutex
	triggers []model.RunTrigger
	err      error
}

func (f *fakeRunner) Run(_ context.Context, trigger model.RunTrigger) (*model.RunSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.triggers = append(f.triggers, trigger)
	if errors.Is(f.err, pipeline.ErrRunInProgress) {
		return nil, f.err
	}
	return &model.RunSummary{
		Trigger: trigger,
		Results: []model.TickerResult{{Ticker: "AAPL", EnrichedRows: 3}},
	}, f.err
}

func (f *fakeRunner) calls() []model.RunTrigger {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.RunTrigger(nil), f.triggers...)
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []*model.RunSummary
}

func (f *fakeNotifier) NotifyRun(_ context.Context, s *model.RunSummary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, s)
	return nil
}

func TestRunNow_NotifiesAndRemembers(t *testing.T) {
	r := &fakeRunner{}
	n := &fakeNotifier{}
	s := NewScheduler(context.Background(), r, n, nil)

	summary := s.RunNow(model.TriggerStartup)
	require.NotNil(t, summary)
	assert.Equal(t, []model.RunTrigger{model.TriggerStartup}, r.calls())
	require.Len(t, n.sent, 1)
	assert.Same(t, summary, n.sent[0])
	assert.Same(t, summary, s.Last())
}

func TestRunNow_SkipsOverlap(t *testing.T) {
	n := &fakeNotifier{}
	s := NewScheduler(context.Background(), &fakeRunner{err: pipeline.ErrRunInProgress}, n, nil)

	assert.Nil(t, s.RunNow(model.TriggerManual))
	assert.Empty(t, n.sent)
	assert.Nil(t, s.Last())
}

func TestRunNow_NilNotifier(t *testing.T) {
	s := NewScheduler(context.Background(), &fakeRunner{}, nil, nil)
	assert.NotNil(t, s.RunNow(model.TriggerManual))
}

func TestRegister(t *testing.T) {
	s := NewScheduler(context.Background(), &fakeRunner{}, nil, nil)
	require.NoError(t, s.Register("0 30 22 * * 1-5"))
	assert.Len(t, s.Cron.Entries(), 1)
	assert.Error(t, s.Register("not a cron"))
}

func TestCronFires(t *testing.T) {
	r := &fakeRunner{}
	s := NewScheduler(context.Background(), r, nil, nil)
	require.NoError(t, s.Register("@every 1s"))
	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool {
		calls := r.calls()
		return len(calls) > 0 && calls[0] == model.TriggerScheduled
	}, 3*time.Second, 20*time.Millisecond)
}

func TestHandleCommand(t *testing.T) {
	r := &fakeRunner{}
	s := NewScheduler(context.Background(), r, nil, nil)

	assert.Equal(t, "暂无运行记录", s.HandleCommand("/status"))
	assert.Contains(t, s.HandleCommand("/help"), "/run")

	assert.Equal(t, "ETL 已开始执行", s.HandleCommand("/run"))
	s.Stop()
	assert.Equal(t, []model.RunTrigger{model.TriggerManual}, r.calls())
	assert.Contains(t, s.HandleCommand("/status"), "AAPL")
}

func TestRunAsync_AfterStop(t *testing.T) {
	r := &fakeRunner{}
	s := NewScheduler(context.Background(), r, nil, nil)
	s.Start()
	s.Stop()

	assert.False(t, s.RunAsync(model.TriggerManual))
	assert.Equal(t, "服务正在关闭，无法执行", s.HandleCommand("/run"))
	assert.Empty(t, r.calls())
}

func TestRunAsync_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &fakeRunner{}
	s := NewScheduler(ctx, r, nil, nil)

	assert.False(t, s.RunAsync(model.TriggerManual))
	s.Stop()
	assert.Empty(t, r.calls())
}

func TestRunAsync_ConcurrentWithStop(t *testing.T) {
	r := &fakeRunner{}
	s := NewScheduler(context.Background(), r, nil, nil)
	s.Start()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.HandleCommand("/run")
		}()
	}
	s.Stop()
	wg.Wait()
	s.Stop()
}
