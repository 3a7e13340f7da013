// Package state holds the latest ingested view of today's market and weather.
//
// Pollers are the only writers. Each update builds a new Snapshot and swaps it
// in atomically, so readers never see a half-written view and never block
// writers. Subscribers are notified with the new Snapshot after every swap.
package state

import (
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/seoulhigh/internal/kst"
	"github.com/rickgao/seoulhigh/internal/model"
	"github.com/rickgao/seoulhigh/internal/weather"
)

// Job names used for health tracking.
const (
	JobMarket       = "market"
	JobWeather      = "weather"
	JobForecast     = "forecast"
	JobWunderground = "wunderground"
)

// Outcome is one market with its most recent quote.
type Outcome struct {
	Market model.Market
	Quote  *model.Snapshot
}

// ForecastSeries is the latest hourly forecast of one model.
type ForecastSeries struct {
	Model  string
	RunAt  time.Time
	Points []model.ForecastPoint
}

// Wunderground is the latest history page reading for Day.
type Wunderground struct {
	Day      kst.Date
	URL      string
	DayHighC *float64
	DayLowC  *float64
	Latest   *model.WUObservation
	// Whole-degree floors of the page's daily high and of the running
	// maximum of its observation rows.
	HighWholeC   *int
	ObservedMaxC *int
}

// Health is the last outcome of a job.
type Health struct {
	LastSuccessAt *time.Time
	LastError     string
	LastErrorAt   *time.Time
}

// Snapshot is an immutable view. Never modify one obtained from Load.
type Snapshot struct {
	UpdatedAt       time.Time
	Day             kst.Date
	Event           *model.Event
	Outcomes        []Outcome
	DefaultMarketID *uuid.UUID
	LatestMETAR     *model.WeatherObservation
	DayHighC        *int
	Wunderground    *Wunderground
	Forecast        []ForecastSeries
	Health          map[string]Health
}

// DayHigh returns the whole-degree high of day and where it came from. The
// Weather Underground daily summary wins, then its observed running maximum,
// then the METAR running high when the latest report falls on day.
func (s *Snapshot) DayHigh(day kst.Date) (*int, string) {
	if w := s.Wunderground; w != nil && w.Day == day {
		if w.HighWholeC != nil {
			return w.HighWholeC, weather.SourceWunderground
		}
		if w.ObservedMaxC != nil {
			return w.ObservedMaxC, weather.SourceWundergroundObserved
		}
	}
	if s.DayHighC != nil && s.LatestMETAR != nil && day.Contains(s.LatestMETAR.ObservedAt) {
		return s.DayHighC, weather.SourceAWC
	}
	return nil, ""
}

func (s *Snapshot) clone() *Snapshot {
	c := *s
	c.Outcomes = slices.Clone(s.Outcomes)
	c.Forecast = slices.Clone(s.Forecast)
	c.Health = maps.Clone(s.Health)
	if c.Health == nil {
		c.Health = make(map[string]Health)
	}
	return &c
}

// Cache publishes Snapshots.
type Cache struct {
	current atomic.Pointer[Snapshot]

	// mu serializes writers and guards subscribers.
	mu          sync.Mutex
	subscribers map[int]chan *Snapshot
	nextID      int

	now func() time.Time
}

// New returns a Cache holding an empty Snapshot.
func New() *Cache {
	c := &Cache{
		subscribers: make(map[int]chan *Snapshot),
		now:         time.Now,
	}
	c.current.Store(&Snapshot{Health: make(map[string]Health)})
	return c
}

// Load returns the current Snapshot. It is never nil.
func (c *Cache) Load() *Snapshot {
	return c.current.Load()
}

// Update applies fn to a copy of the current Snapshot and publishes the result.
func (c *Cache) Update(fn func(s *Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.current.Load().clone()
	fn(next)
	next.UpdatedAt = c.now()
	c.current.Store(next)

	for _, ch := range c.subscribers {
		// Keep only the newest pending snapshot per subscriber.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- next:
		default:
		}
	}
}

// MarkSuccess records a successful run of job.
func (c *Cache) MarkSuccess(job string) {
	at := c.now()
	c.Update(func(s *Snapshot) {
		h := s.Health[job]
		h.LastSuccessAt = &at
		s.Health[job] = h
	})
}

// MarkError records a failed run of job. The last success is kept.
func (c *Cache) MarkError(job string, err error) {
	at := c.now()
	c.Update(func(s *Snapshot) {
		h := s.Health[job]
		h.LastError = err.Error()
		h.LastErrorAt = &at
		s.Health[job] = h
	})
}

// Subscribe returns a channel receiving each newly published Snapshot and a
// function that unsubscribes and closes it. Slow subscribers miss
// intermediate snapshots but always get the latest.
func (c *Cache) Subscribe() (<-chan *Snapshot, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	ch := make(chan *Snapshot, 1)
	c.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subscribers, id)
			c.mu.Unlock()
			close(ch)
		})
	}
}
