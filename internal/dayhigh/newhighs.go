package dayhigh

import (
	"math"
	"sort"
	"sync"

	"github.com/rickgao/seoulhigh/internal/kst"
	"github.com/rickgao/seoulhigh/internal/model"
)

// NewHighs lists the moments the day's high increased, oldest first. Recorded
// changes win; without any, the list is derived from observations by tracking
// the running floored maximum.
func NewHighs(day kst.Date, changes []model.DayHighChange, observations []model.WeatherObservation) []model.DayHighChange {
	var recorded []model.DayHighChange
	for _, c := range changes {
		if c.DateKST == day {
			recorded = append(recorded, c)
		}
	}
	if len(recorded) > 0 {
		sort.SliceStable(recorded, func(i, j int) bool {
			return recorded[i].ObservedAt.Before(recorded[j].ObservedAt)
		})
		return recorded
	}

	obs := make([]model.WeatherObservation, 0, len(observations))
	for _, o := range observations {
		if day.Contains(o.ObservedAt) && !math.IsNaN(o.TempC) {
			obs = append(obs, o)
		}
	}
	sort.SliceStable(obs, func(i, j int) bool {
		return obs[i].ObservedAt.Before(obs[j].ObservedAt)
	})

	var derived []model.DayHighChange
	var current *int
	for _, o := range obs {
		whole := Floor(o.TempC)
		if current != nil && whole <= *current {
			continue
		}
		derived = append(derived, model.DayHighChange{
			DateKST:       day,
			ObservedAt:    o.ObservedAt,
			PreviousHighC: current,
			HighC:         whole,
			Source:        o.Source,
		})
		c := whole
		current = &c
	}
	return derived
}

// Find returns the change whose HighC equals highC, or the latest change when
// highC is nil or not present.
func Find(changes []model.DayHighChange, highC *int) (model.DayHighChange, bool) {
	if len(changes) == 0 {
		return model.DayHighChange{}, false
	}
	if highC != nil {
		for _, c := range changes {
			if c.HighC == *highC {
				return c, true
			}
		}
	}
	return changes[len(changes)-1], true
}

// Tracker follows the running floored high of the current KST day and reports
// each increase. It is safe for concurrent use.
type Tracker struct {
	mu    sync.Mutex
	day   kst.Date
	high  *int
	label string
}

// NewTracker returns a Tracker whose changes carry the given source label.
func NewTracker(source string) *Tracker {
	return &Tracker{label: source}
}

// Seed primes the tracker with a previously persisted high for day.
func (t *Tracker) Seed(day kst.Date, highC int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.day != day || t.high == nil || highC > *t.high {
		h := highC
		t.day, t.high = day, &h
	}
}

// Observe feeds one observation. It returns a change when the floored
// temperature exceeds the running high of the observation's KST day. A new
// day resets the running high.
func (t *Tracker) Observe(o model.WeatherObservation) (model.DayHighChange, bool) {
	c, ok := t.Peek(o)
	if ok {
		t.Commit(c)
	}
	return c, ok
}

// Peek reports the change o would produce without advancing the running
// high. Callers that persist changes Commit only after the write succeeds.
func (t *Tracker) Peek(o model.WeatherObservation) (model.DayHighChange, bool) {
	if math.IsNaN(o.TempC) {
		return model.DayHighChange{}, false
	}
	day := kst.DateOf(o.ObservedAt)
	whole := Floor(o.TempC)

	t.mu.Lock()
	defer t.mu.Unlock()

	high := t.high
	if day != t.day {
		if t.high != nil && day.Midnight().Before(t.day.Midnight()) {
			// Late observation for a day already rolled over.
			return model.DayHighChange{}, false
		}
		high = nil
	}
	if high != nil && whole <= *high {
		return model.DayHighChange{}, false
	}

	return model.DayHighChange{
		DateKST:       day,
		ObservedAt:    o.ObservedAt,
		PreviousHighC: high,
		HighC:         whole,
		Source:        t.label,
	}, true
}

// Commit advances the running high to c. A change for an earlier day or at or
// below the current high is ignored.
func (t *Tracker) Commit(c model.DayHighChange) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if c.DateKST != t.day {
		if t.high != nil && c.DateKST.Midnight().Before(t.day.Midnight()) {
			return
		}
		t.day, t.high = c.DateKST, nil
	}
	if t.high != nil && c.HighC <= *t.high {
		return
	}
	h := c.HighC
	t.high = &h
}

// High returns the running high for day, if known.
func (t *Tracker) High(day kst.Date) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.day != day || t.high == nil {
		return 0, false
	}
	return *t.high, true
}
