package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rickgao/seoulhigh/internal/metrics"
	"github.com/rickgao/seoulhigh/internal/state"
)

// Job is one unit of periodic ingestion work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Config holds poller configuration.
type Config struct {
	Interval time.Duration // Time between runs
	Timeout  time.Duration // Per-run timeout (default: Interval)
}

// Poller runs a Job periodically.
type Poller struct {
	cfg     Config
	job     Job
	state   *state.Cache
	metrics *metrics.Metrics
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Poller. st and m may be nil.
func New(cfg Config, job Job, st *state.Cache, m *metrics.Metrics, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = cfg.Interval
	}
	return &Poller{
		cfg:     cfg,
		job:     job,
		state:   st,
		metrics: m,
		logger:  logger.With("job", job.Name()),
	}
}

// Start begins the polling loop.
func (p *Poller) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.run()

	p.logger.Info("poller started", "interval", p.cfg.Interval)
	return nil
}

// Stop gracefully shuts down the poller.
func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the main polling loop.
func (p *Poller) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	// Poll immediately on start.
	p.poll()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.poll()
		}
	}
}

// poll runs the job once and records the outcome.
func (p *Poller) poll() {
	ctx, cancel := context.WithTimeout(p.ctx, p.cfg.Timeout)
	defer cancel()

	start := time.Now()
	err := p.job.Run(ctx)
	if err != nil {
		if p.ctx.Err() != nil {
			// Shutting down.
			return
		}
		p.logger.Warn("poll failed", "error", err, "duration", time.Since(start))
		p.metrics.PollError(p.job.Name())
		if p.state != nil {
			p.state.MarkError(p.job.Name(), err)
		}
		return
	}

	p.logger.Debug("poll complete", "duration", time.Since(start))
	p.metrics.PollSuccess(p.job.Name())
	if p.state != nil {
		p.state.MarkSuccess(p.job.Name())
	}
}
