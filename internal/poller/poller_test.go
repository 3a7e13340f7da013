package poller

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rickgao/seoulhigh/internal/state"
)

// countingJob counts runs and optionally fails.
type countingJob struct {
	runs atomic.Int32
	err  error
}

func (j *countingJob) Name() string { return "test" }

func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	return j.err
}

func TestPoller_StartStop(t *testing.T) {
	job := &countingJob{}
	p := New(Config{Interval: 50 * time.Millisecond}, job, nil, nil, nil)

	ctx := context.Background()
	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Immediate run plus at least one tick.
	time.Sleep(120 * time.Millisecond)

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := p.Stop(stopCtx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	if got := job.runs.Load(); got < 2 {
		t.Errorf("runs = %d, want >= 2", got)
	}
}

func TestPoller_RunsImmediately(t *testing.T) {
	job := &countingJob{}
	p := New(Config{Interval: time.Hour}, job, nil, nil, nil)

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	deadline := time.Now().Add(time.Second)
	for job.runs.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	p.Stop(context.Background())

	if got := job.runs.Load(); got != 1 {
		t.Errorf("runs = %d, want 1", got)
	}
}

func TestPoller_RecordsHealth(t *testing.T) {
	st := state.New()

	ok := &countingJob{}
	p := New(Config{Interval: time.Hour}, ok, st, nil, nil)
	p.ctx = context.Background()
	p.poll()

	h := st.Load().Health["test"]
	if h.LastSuccessAt == nil || h.LastError != "" {
		t.Errorf("health after success = %+v", h)
	}

	failing := &countingJob{err: errors.New("gamma 503")}
	p = New(Config{Interval: time.Hour}, failing, st, nil, nil)
	p.ctx = context.Background()
	p.poll()

	h = st.Load().Health["test"]
	if h.LastError != "gamma 503" || h.LastErrorAt == nil {
		t.Errorf("health after error = %+v", h)
	}
	if h.LastSuccessAt == nil {
		t.Error("last success lost after error")
	}
}

func TestPoller_DefaultTimeout(t *testing.T) {
	p := New(Config{Interval: 30 * time.Second}, &countingJob{}, nil, nil, nil)
	if p.cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want interval", p.cfg.Timeout)
	}
}
