package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/seoulhigh/internal/dayhigh"
	"github.com/rickgao/seoulhigh/internal/kst"
	"github.com/rickgao/seoulhigh/internal/model"
)

// Memory is an in-process Store with the same semantics as Postgres.
type Memory struct {
	mu           sync.RWMutex
	events       []model.Event
	markets      []model.Market
	snapshots    map[uuid.UUID][]model.Snapshot
	observations []model.WeatherObservation
	changes      []model.DayHighChange
	wu           []model.WUObservation
	runs         []model.ForecastRun
	points       map[uuid.UUID][]model.ForecastPoint
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		snapshots: make(map[uuid.UUID][]model.Snapshot),
		points:    make(map[uuid.UUID][]model.ForecastPoint),
	}
}

// EventDates returns the distinct event dates, newest first.
func (s *Memory) EventDates(ctx context.Context) ([]kst.Date, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[kst.Date]bool)
	var dates []kst.Date
	for _, e := range s.events {
		if !seen[e.DateKST] {
			seen[e.DateKST] = true
			dates = append(dates, e.DateKST)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].String() > dates[j].String() })
	return dates, nil
}

// EventByDate returns the most recently seen event for the day.
func (s *Memory) EventByDate(ctx context.Context, day kst.Date) (model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		best  model.Event
		found bool
	)
	for _, e := range s.events {
		if e.DateKST == day && (!found || e.LastSeenAt.After(best.LastSeenAt)) {
			best, found = e, true
		}
	}
	if !found {
		return model.Event{}, ErrNotFound
	}
	return best, nil
}

// Markets returns an event's markets ordered by threshold, nulls last.
func (s *Memory) Markets(ctx context.Context, eventID uuid.UUID) ([]model.Market, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Market
	for _, m := range s.markets {
		if m.EventID == eventID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].GroupItemTitle < out[j].GroupItemTitle })
	dayhigh.SortByThreshold(out)
	return out, nil
}

// Snapshots returns a market's snapshots in [from, to), oldest first.
func (s *Memory) Snapshots(ctx context.Context, marketID uuid.UUID, from, to time.Time) ([]model.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Snapshot
	for _, snap := range s.snapshots[marketID] {
		if inRange(snap.CapturedAt, from, to) {
			out = append(out, snap)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CapturedAt.Before(out[j].CapturedAt) })
	return out, nil
}

// Observations returns a station's reports in [from, to), oldest first.
func (s *Memory) Observations(ctx context.Context, station, source string, from, to time.Time) ([]model.WeatherObservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.WeatherObservation
	for _, o := range s.observations {
		if o.Station == station && o.Source == source && inRange(o.ObservedAt, from, to) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ObservedAt.Before(out[j].ObservedAt) })
	return out, nil
}

// DayHighChanges returns the recorded changes for a day, oldest first.
func (s *Memory) DayHighChanges(ctx context.Context, day kst.Date) ([]model.DayHighChange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.DayHighChange
	for _, c := range s.changes {
		if c.DateKST == day {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].ObservedAt.Equal(out[j].ObservedAt) {
			return out[i].ObservedAt.Before(out[j].ObservedAt)
		}
		return out[i].HighC < out[j].HighC
	})
	return out, nil
}

// UpsertEvent inserts or refreshes an event keyed by slug and returns its id.
func (s *Memory) UpsertEvent(ctx context.Context, e model.Event) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.events {
		if s.events[i].Slug == e.Slug {
			s.events[i].GammaEventID = e.GammaEventID
			s.events[i].LastSeenAt = e.LastSeenAt
			return s.events[i].ID, nil
		}
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	s.events = append(s.events, e)
	return e.ID, nil
}

// UpsertMarkets inserts or refreshes markets and returns them with stored ids.
func (s *Memory) UpsertMarkets(ctx context.Context, markets []model.Market) ([]model.Market, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Market, 0, len(markets))
	for _, m := range markets {
		idx := -1
		for i := range s.markets {
			if s.markets[i].EventID == m.EventID && s.markets[i].GammaMarketID == m.GammaMarketID {
				idx = i
				break
			}
		}
		if idx >= 0 {
			m.ID = s.markets[idx].ID
			s.markets[idx] = m
		} else {
			if m.ID == uuid.Nil {
				m.ID = uuid.New()
			}
			s.markets = append(s.markets, m)
		}
		out = append(out, m)
	}
	return out, nil
}

// InsertSnapshots appends snapshots, skipping (market, captured_at) repeats.
func (s *Memory) InsertSnapshots(ctx context.Context, snapshots []model.Snapshot) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	written := 0
	for _, snap := range snapshots {
		dup := false
		for _, existing := range s.snapshots[snap.MarketID] {
			if existing.CapturedAt.Equal(snap.CapturedAt) {
				dup = true
				break
			}
		}
		if !dup {
			s.snapshots[snap.MarketID] = append(s.snapshots[snap.MarketID], snap)
			written++
		}
	}
	return written, nil
}

// UpsertObservations stores reports, replacing any with the same key.
func (s *Memory) UpsertObservations(ctx context.Context, observations []model.WeatherObservation) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range observations {
		replaced := false
		for i, existing := range s.observations {
			if existing.Station == o.Station && existing.Source == o.Source && existing.ObservedAt.Equal(o.ObservedAt) {
				s.observations[i] = o
				replaced = true
				break
			}
		}
		if !replaced {
			s.observations = append(s.observations, o)
		}
	}
	return len(observations), nil
}

// InsertDayHighChange records a new high. A repeat of the same high is ignored.
func (s *Memory) InsertDayHighChange(ctx context.Context, c model.DayHighChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.changes {
		if existing.DateKST == c.DateKST && existing.Source == c.Source && existing.HighC == c.HighC {
			return nil
		}
	}
	s.changes = append(s.changes, c)
	return nil
}

// UpsertWUObservation stores a reading, replacing one with the same key.
func (s *Memory) UpsertWUObservation(ctx context.Context, o model.WUObservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.wu {
		if existing.Station == o.Station && existing.ObservedAt.Equal(o.ObservedAt) {
			s.wu[i] = o
			return nil
		}
	}
	s.wu = append(s.wu, o)
	return nil
}

// WUObservations returns every stored reading in insertion order.
func (s *Memory) WUObservations() []model.WUObservation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.WUObservation(nil), s.wu...)
}

// InsertForecast stores a run and its hourly points.
func (s *Memory) InsertForecast(ctx context.Context, run model.ForecastRun, points []model.ForecastPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	s.runs = append(s.runs, run)
	for _, pt := range points {
		pt.RunID = run.ID
		s.points[run.ID] = append(s.points[run.ID], pt)
	}
	return nil
}

// ForecastRuns returns every stored run in insertion order.
func (s *Memory) ForecastRuns() []model.ForecastRun {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.ForecastRun(nil), s.runs...)
}

// ForecastPoints returns the stored points of a run.
func (s *Memory) ForecastPoints(runID uuid.UUID) []model.ForecastPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.ForecastPoint(nil), s.points[runID]...)
}

func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}
