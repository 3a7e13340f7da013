package poller

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rickgao/seoulhigh/internal/dayhigh"
	"github.com/rickgao/seoulhigh/internal/kst"
	"github.com/rickgao/seoulhigh/internal/model"
	"github.com/rickgao/seoulhigh/internal/state"
	"github.com/rickgao/seoulhigh/internal/store"
	"github.com/rickgao/seoulhigh/internal/weather"
)

// WundergroundSource fetches daily history pages.
type WundergroundSource interface {
	History(ctx context.Context, station string, day kst.Date) (*weather.WUHistory, error)
}

// WundergroundStore is the store access the Weather Underground job needs.
type WundergroundStore interface {
	UpsertWUObservation(ctx context.Context, o model.WUObservation) error
	InsertDayHighChange(ctx context.Context, c model.DayHighChange) error
	DayHighChanges(ctx context.Context, day kst.Date) ([]model.DayHighChange, error)
}

var _ WundergroundStore = (store.Store)(nil)

// WundergroundJob stores the latest history row and records day-high changes
// from the page's daily summary and from its observation rows.
type WundergroundJob struct {
	station  string
	source   WundergroundSource
	store    WundergroundStore
	state    *state.Cache
	observed *dayhigh.Tracker
	logger   *slog.Logger
	now      func() time.Time

	seeded    kst.Date
	dailyHigh *int
}

// NewWundergroundJob creates the Weather Underground job for station.
func NewWundergroundJob(station string, source WundergroundSource, s WundergroundStore, st *state.Cache, logger *slog.Logger) *WundergroundJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &WundergroundJob{
		station:  station,
		source:   source,
		store:    s,
		state:    st,
		observed: dayhigh.NewTracker(weather.SourceWundergroundObserved),
		logger:   logger,
		now:      time.Now,
	}
}

// Name implements Job.
func (j *WundergroundJob) Name() string { return state.JobWunderground }

// Run fetches today's history page.
func (j *WundergroundJob) Run(ctx context.Context) error {
	now := j.now()
	today := kst.DateOf(now)

	if err := j.seed(ctx, today); err != nil {
		return err
	}

	h, err := j.source.History(ctx, j.station, today)
	if err != nil {
		return err
	}

	if o, ok := h.Observation(j.station); ok {
		if err := j.store.UpsertWUObservation(ctx, o); err != nil {
			return err
		}
		c, ok := j.observed.Peek(model.WeatherObservation{ObservedAt: o.ObservedAt, TempC: o.TempC})
		if ok && c.DateKST == today {
			if err := j.store.InsertDayHighChange(ctx, c); err != nil {
				return fmt.Errorf("insert observed day high change: %w", err)
			}
			j.observed.Commit(c)
			j.logger.Info("new observed day high", "date", c.DateKST, "high_c", c.HighC, "observed_at", c.ObservedAt)
		}
	}

	if h.DayHighC != nil {
		high := dayhigh.Floor(*h.DayHighC)
		if j.dailyHigh == nil || *j.dailyHigh != high {
			c := model.DayHighChange{
				DateKST:       today,
				ObservedAt:    now,
				PreviousHighC: j.dailyHigh,
				HighC:         high,
				Source:        weather.SourceWunderground,
			}
			if err := j.store.InsertDayHighChange(ctx, c); err != nil {
				return fmt.Errorf("insert day high change: %w", err)
			}
			j.dailyHigh = &high
			j.logger.Info("daily summary high changed", "date", today, "high_c", high)
		}
	}

	j.publish(today, h)
	return nil
}

// seed restores both running highs from persisted changes once per day.
func (j *WundergroundJob) seed(ctx context.Context, today kst.Date) error {
	if j.seeded == today {
		return nil
	}
	changes, err := j.store.DayHighChanges(ctx, today)
	if err != nil {
		return err
	}
	j.dailyHigh = nil
	for _, c := range changes {
		switch c.Source {
		case weather.SourceWundergroundObserved:
			j.observed.Seed(today, c.HighC)
		case weather.SourceWunderground:
			// Changes are oldest first; the last one is current.
			high := c.HighC
			j.dailyHigh = &high
		}
	}
	j.seeded = today
	return nil
}

func (j *WundergroundJob) publish(today kst.Date, h *weather.WUHistory) {
	if j.state == nil {
		return
	}
	w := &state.Wunderground{
		Day:      today,
		URL:      h.URL,
		DayHighC: h.DayHighC,
		DayLowC:  h.DayLowC,
	}
	if o, ok := h.Observation(j.station); ok {
		w.Latest = &o
	}
	if j.dailyHigh != nil {
		high := *j.dailyHigh
		w.HighWholeC = &high
	}
	if high, ok := j.observed.High(today); ok {
		w.ObservedMaxC = &high
	}

	j.state.Update(func(s *state.Snapshot) {
		if prev := s.Wunderground; w.Latest == nil && prev != nil && prev.Day == today {
			w.Latest = prev.Latest
		}
		s.Wunderground = w
		if s.Day == today && len(s.Outcomes) > 0 {
			high, _ := s.DayHigh(today)
			s.DefaultMarketID = defaultMarket(today, s.Outcomes, high)
		}
	})
}
