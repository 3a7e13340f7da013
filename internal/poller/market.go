package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/seoulhigh/internal/dayhigh"
	"github.com/rickgao/seoulhigh/internal/kst"
	"github.com/rickgao/seoulhigh/internal/metrics"
	"github.com/rickgao/seoulhigh/internal/model"
	"github.com/rickgao/seoulhigh/internal/polymarket"
	"github.com/rickgao/seoulhigh/internal/state"
	"github.com/rickgao/seoulhigh/internal/store"
)

// MarketSource fetches events and order books.
type MarketSource interface {
	EventBySlug(ctx context.Context, slug string) (*polymarket.Event, error)
	Book(ctx context.Context, tokenID string) (*polymarket.Book, error)
}

// MarketConfig configures the market job.
type MarketConfig struct {
	SlugPrefix   string        // Event slug prefix; the KST date is appended
	EventRefresh time.Duration // How often the event and markets are re-read
	Concurrency  int           // Max concurrent book requests
}

// MarketJob snapshots the top of book of every market of today's event.
type MarketJob struct {
	cfg     MarketConfig
	source  MarketSource
	store   store.Writer
	state   *state.Cache
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time

	// Event cache, touched only by Run.
	day       kst.Date
	fetchedAt time.Time
	gamma     map[string]*polymarket.Market // by gamma market id
	markets   []model.Market
	event     model.Event
}

// NewMarketJob creates the market job.
func NewMarketJob(cfg MarketConfig, source MarketSource, w store.Writer, st *state.Cache, m *metrics.Metrics, logger *slog.Logger) *MarketJob {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &MarketJob{
		cfg:     cfg,
		source:  source,
		store:   w,
		state:   st,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// Name implements Job.
func (j *MarketJob) Name() string { return state.JobMarket }

// Run refreshes the event when due, then snapshots every market.
func (j *MarketJob) Run(ctx context.Context) error {
	now := j.now()
	day := kst.DateOf(now)

	if day != j.day || j.gamma == nil || now.Sub(j.fetchedAt) >= j.cfg.EventRefresh {
		if err := j.refreshEvent(ctx, day, now); err != nil {
			return err
		}
	}

	quotes, err := j.fetchBooks(ctx, now)
	if err != nil {
		return err
	}

	snapshots := make([]model.Snapshot, 0, len(quotes))
	for _, q := range quotes {
		if q != nil {
			snapshots = append(snapshots, *q)
		}
	}
	written, err := j.store.InsertSnapshots(ctx, snapshots)
	if err != nil {
		return fmt.Errorf("insert snapshots: %w", err)
	}
	j.metrics.SnapshotsWritten(written)

	j.publish(day, quotes)

	j.logger.Info("market snapshot complete",
		"event", j.event.Slug,
		"markets", len(j.markets),
		"snapshots", len(snapshots),
		"written", written,
	)
	return nil
}

// refreshEvent reads the event for day from gamma and stores it with its markets.
func (j *MarketJob) refreshEvent(ctx context.Context, day kst.Date, now time.Time) error {
	slug := polymarket.Slug(j.cfg.SlugPrefix, day)
	ev, err := j.source.EventBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, polymarket.ErrEventNotFound) {
			j.clear(day)
		}
		return fmt.Errorf("event %s: %w", slug, err)
	}

	event := model.Event{
		DateKST:      day,
		Slug:         slug,
		GammaEventID: ev.ID,
		LastSeenAt:   now,
	}
	event.ID, err = j.store.UpsertEvent(ctx, event)
	if err != nil {
		return err
	}

	gamma := make(map[string]*polymarket.Market, len(ev.Markets))
	markets := make([]model.Market, 0, len(ev.Markets))
	for i := range ev.Markets {
		gm := &ev.Markets[i]
		m := gm.ToModel(event.ID)
		if !m.Outcome.Parsed() {
			j.logger.Warn("unparseable bucket label",
				"event", slug,
				"market", gm.ID,
				"label", m.GroupItemTitle,
			)
		}
		gamma[gm.ID] = gm
		markets = append(markets, m)
	}

	stored, err := j.store.UpsertMarkets(ctx, markets)
	if err != nil {
		return err
	}
	dayhigh.SortByThreshold(stored)

	j.day, j.fetchedAt, j.event = day, now, event
	j.gamma, j.markets = gamma, stored

	j.logger.Info("event refreshed", "event", slug, "markets", len(stored))
	return nil
}

// clear drops the cached event so the next run retries and the dashboard
// stops showing a previous day.
func (j *MarketJob) clear(day kst.Date) {
	j.day, j.gamma, j.markets, j.event = day, nil, nil, model.Event{}
	if j.state != nil {
		j.state.Update(func(s *state.Snapshot) {
			s.Day = day
			s.Event = nil
			s.Outcomes = nil
			s.DefaultMarketID = nil
		})
	}
}

// fetchBooks reads both books of every market concurrently. A market whose
// books cannot be read gets a nil quote. It fails only when no market could
// be read.
func (j *MarketJob) fetchBooks(ctx context.Context, capturedAt time.Time) ([]*model.Snapshot, error) {
	quotes := make([]*model.Snapshot, len(j.markets))
	var failed atomic.Int64
	launched := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.cfg.Concurrency)

	for i, m := range j.markets {
		gm := j.gamma[m.GammaMarketID]
		if gm == nil {
			continue
		}
		launched++
		g.Go(func() error {
			yes, err := j.top(gctx, m.YesTokenID)
			if err == nil {
				var no polymarket.Top
				if no, err = j.top(gctx, m.NoTokenID); err == nil {
					snap := polymarket.Snapshot(m, gm, yes, no, capturedAt)
					quotes[i] = &snap
					return nil
				}
			}
			failed.Add(1)
			j.logger.Warn("failed to fetch book", "market", m.GammaMarketID, "error", err)
			return nil
		})
	}
	_ = g.Wait()

	if n := failed.Load(); n > 0 && int(n) == launched {
		return nil, fmt.Errorf("all %d book requests failed", n)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return quotes, nil
}

func (j *MarketJob) top(ctx context.Context, tokenID string) (polymarket.Top, error) {
	if tokenID == "" {
		return polymarket.Top{}, nil
	}
	b, err := j.source.Book(ctx, tokenID)
	if err != nil {
		return polymarket.Top{}, err
	}
	return polymarket.TopOfBook(b), nil
}

// publish replaces the event and outcomes in the state cache.
func (j *MarketJob) publish(day kst.Date, quotes []*model.Snapshot) {
	if j.state == nil {
		return
	}
	event := j.event
	outcomes := make([]state.Outcome, len(j.markets))
	for i, m := range j.markets {
		outcomes[i] = state.Outcome{Market: m, Quote: quotes[i]}
	}
	j.state.Update(func(s *state.Snapshot) {
		s.Day = day
		s.Event = &event
		s.Outcomes = outcomes
		high, _ := s.DayHigh(day)
		s.DefaultMarketID = defaultMarket(day, outcomes, high)
	})
}

// defaultMarket picks the market holding highC, or the median bucket when the
// high is not known yet.
func defaultMarket(day kst.Date, outcomes []state.Outcome, highC *int) *uuid.UUID {
	markets := make([]model.Market, len(outcomes))
	for i, o := range outcomes {
		markets[i] = o.Market
	}
	var slice dayhigh.Slice
	if highC != nil {
		slice.Changes = []model.DayHighChange{{DateKST: day, ObservedAt: day.Midnight(), HighC: *highC}}
	}
	return dayhigh.SelectDefault(day, markets, slice)
}
