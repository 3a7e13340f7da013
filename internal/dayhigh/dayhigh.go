// Package dayhigh derives the defining temperature of a KST day and picks the
// market bucket that represents it.
//
// The high is chosen by precedence: the latest recorded day-high change, then
// the floor of the hottest observation inside the day, then the representative
// value of the median bucket. Whole degrees are always floored, never rounded.
package dayhigh

import (
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/rickgao/seoulhigh/internal/bucket"
	"github.com/rickgao/seoulhigh/internal/kst"
	"github.com/rickgao/seoulhigh/internal/model"
)

// Source names where a Value came from.
type Source string

const (
	SourceChange       Source = "day_high_change"
	SourceObservations Source = "observations"
	SourceBucketMedian Source = "bucket_median"
)

// Value is a computed day high in whole °C.
type Value struct {
	C      int
	Source Source
}

// Slice is the weather data a caller hands to the selector. Historical pages
// pass the whole day; live pages pass whatever has been observed so far.
type Slice struct {
	Changes      []model.DayHighChange
	Observations []model.WeatherObservation
}

// Floor converts a temperature to the integer scale buckets are labelled on.
func Floor(tempC float64) int {
	return int(math.Floor(tempC))
}

// Compute returns the day high for day. ok is false only when neither weather
// data nor a usable bucket exists.
func Compute(day kst.Date, markets []model.Market, slice Slice) (v Value, ok bool) {
	if c, found := latestChange(day, slice.Changes); found {
		return Value{C: c.HighC, Source: SourceChange}, true
	}
	if maxC, found := MaxTemp(day, slice.Observations); found {
		return Value{C: Floor(maxC), Source: SourceObservations}, true
	}
	if m, found := MedianMarket(markets); found {
		return Value{C: Floor(m.Outcome.Representative()), Source: SourceBucketMedian}, true
	}
	return Value{}, false
}

// SelectDefault returns the id of the market whose bucket holds the day high,
// or nil when there is no high or no bucket matches it.
func SelectDefault(day kst.Date, markets []model.Market, slice Slice) *uuid.UUID {
	v, ok := Compute(day, markets, slice)
	if !ok {
		return nil
	}
	return MarketFor(v.C, markets)
}

// MarketFor returns the id of the market best matching highC.
func MarketFor(highC int, markets []model.Market) *uuid.UUID {
	outcomes := make([]bucket.Outcome, len(markets))
	for i := range markets {
		outcomes[i] = markets[i].Outcome
	}
	idx := bucket.Match(float64(highC), outcomes)
	if idx < 0 {
		return nil
	}
	id := markets[idx].ID
	return &id
}

// MaxTemp is the hottest observation whose ObservedAt falls inside day.
func MaxTemp(day kst.Date, observations []model.WeatherObservation) (float64, bool) {
	maxC, found := 0.0, false
	for i := range observations {
		o := &observations[i]
		if !day.Contains(o.ObservedAt) || math.IsNaN(o.TempC) {
			continue
		}
		if !found || o.TempC > maxC {
			maxC, found = o.TempC, true
		}
	}
	return maxC, found
}

// MedianMarket returns the middle parsed market when ordered by
// GroupItemThreshold. Markets without a threshold sort last.
func MedianMarket(markets []model.Market) (model.Market, bool) {
	parsed := make([]model.Market, 0, len(markets))
	for _, m := range markets {
		if m.Outcome.Parsed() {
			parsed = append(parsed, m)
		}
	}
	if len(parsed) == 0 {
		return model.Market{}, false
	}
	SortByThreshold(parsed)
	return parsed[len(parsed)/2], true
}

// SortByThreshold orders markets by GroupItemThreshold ascending, nil last,
// keeping input order between equal keys.
func SortByThreshold(markets []model.Market) {
	sort.SliceStable(markets, func(i, j int) bool {
		a, b := markets[i].GroupItemThreshold, markets[j].GroupItemThreshold
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})
}

func latestChange(day kst.Date, changes []model.DayHighChange) (model.DayHighChange, bool) {
	var latest model.DayHighChange
	found := false
	for _, c := range changes {
		if c.DateKST != day {
			continue
		}
		if !found || c.ObservedAt.After(latest.ObservedAt) {
			latest, found = c, true
		}
	}
	return latest, found
}
