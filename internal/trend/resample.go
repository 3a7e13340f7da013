// Package trend turns irregular order-book snapshots into an evenly spaced
// series of anchors for charting.
//
// Everything here is a pure function of its arguments. Snapshot slices must be
// sorted by CapturedAt ascending and are never modified.
package trend

import (
	"time"

	"github.com/rickgao/seoulhigh/internal/kst"
	"github.com/rickgao/seoulhigh/internal/model"
)

// Point is one anchor of a resampled series.
type Point struct {
	AnchorKST       string     `json:"anchor_kst"`
	AnchorUTC       time.Time  `json:"anchor_utc"`
	CapturedAt      *time.Time `json:"captured_at"`
	TempC           *float64   `json:"temp_c"`
	YesBestBid      *float64   `json:"yes_best_bid"`
	YesBestAsk      *float64   `json:"yes_best_ask"`
	NoBestBid       *float64   `json:"no_best_bid"`
	NoBestAsk       *float64   `json:"no_best_ask"`
	YesBidSize      *float64   `json:"yes_bid_size"`
	YesAskSize      *float64   `json:"yes_ask_size"`
	NoBidSize       *float64   `json:"no_bid_size"`
	NoAskSize       *float64   `json:"no_ask_size"`
	AcceptingOrders *bool      `json:"accepting_orders"`
}

// Missing reports whether no snapshot satisfied the anchor. Missing points
// carry no price, size or accepting_orders values.
func (p Point) Missing() bool {
	return p.CapturedAt == nil
}

// Series is a resampled series with its coverage.
type Series struct {
	Points   []Point
	Coverage Coverage
}

// Resample produces one Point per anchor of w spaced by interval, filled from
// snapshots according to mode, together with its coverage.
func Resample(snapshots []model.Snapshot, w Window, interval time.Duration, mode Mode) (Series, error) {
	if err := w.validate(); err != nil {
		return Series{}, err
	}
	if interval <= 0 {
		return Series{}, ErrInvalidInterval
	}
	if _, err := ParseMode(string(mode)); err != nil {
		return Series{}, err
	}

	points := ResampleAt(snapshots, w.Anchors(interval), mode, Tolerance(interval))
	return Series{
		Points:   points,
		Coverage: CoverageOf(snapshots, w, points),
	}, nil
}

// ResampleAt fills the given ascending anchors from snapshots. In Closest mode
// a snapshot further than tolerance from its anchor leaves the point missing;
// when two snapshots are equally close the earlier one wins. An unknown mode is
// treated as Closest.
//
// Both modes walk the snapshots with a single forward cursor, so the cost is
// O(len(snapshots) + len(anchors)).
func ResampleAt(snapshots []model.Snapshot, anchors []time.Time, mode Mode, tolerance time.Duration) []Point {
	points := make([]Point, len(anchors))
	n := len(snapshots)
	i := 0

	for k, anchor := range anchors {
		points[k] = Point{
			AnchorKST: kst.HHMM(anchor),
			AnchorUTC: anchor.UTC(),
		}

		if mode == Carry {
			for i < n && !snapshots[i].CapturedAt.After(anchor) {
				i++
			}
			if i > 0 {
				points[k].fill(&snapshots[i-1])
			}
			continue
		}

		// snapshots[i-1] < anchor <= snapshots[i]
		for i < n && snapshots[i].CapturedAt.Before(anchor) {
			i++
		}
		best := -1
		var bestDist time.Duration
		if i > 0 {
			best, bestDist = i-1, anchor.Sub(snapshots[i-1].CapturedAt)
		}
		if i < n {
			if d := snapshots[i].CapturedAt.Sub(anchor); best < 0 || d < bestDist {
				best, bestDist = i, d
			}
		}
		if best >= 0 && bestDist <= tolerance {
			points[k].fill(&snapshots[best])
		}
	}

	return points
}

func (p *Point) fill(s *model.Snapshot) {
	captured := s.CapturedAt.UTC()
	p.CapturedAt = &captured
	p.YesBestBid = s.YesBestBid
	p.YesBestAsk = s.YesBestAsk
	p.NoBestBid = s.NoBestBid
	p.NoBestAsk = s.NoBestAsk
	p.YesBidSize = s.YesBidSize
	p.YesAskSize = s.YesAskSize
	p.NoBidSize = s.NoBidSize
	p.NoAskSize = s.NoAskSize
	p.AcceptingOrders = s.AcceptingOrders
}

// AttachTemps sets TempC on each point to the latest observation at or before
// its anchor. Observations must be sorted by ObservedAt ascending. Temperatures
// are for display only and do not affect Missing.
func AttachTemps(points []Point, observations []model.WeatherObservation) {
	i := 0
	var last *float64
	for k := range points {
		for i < len(observations) && !observations[i].ObservedAt.After(points[k].AnchorUTC) {
			t := observations[i].TempC
			last = &t
			i++
		}
		points[k].TempC = last
	}
}
