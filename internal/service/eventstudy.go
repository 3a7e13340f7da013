package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/seoulhigh/internal/dayhigh"
	"github.com/rickgao/seoulhigh/internal/kst"
	"github.com/rickgao/seoulhigh/internal/model"
	"github.com/rickgao/seoulhigh/internal/trend"
)

// Event-study parameter limits, in minutes.
const (
	MaxStudyMinutes  = 720
	MaxStudyInterval = 120
)

// Market selectors accepted by EventStudyQuery.Markets besides market ids.
const (
	SelectPrev = "prev" // bucket holding the high just below the new one
	SelectNew  = "new"  // bucket holding the new high
)

// EventStudyQuery selects the markets and window around one new-high event.
type EventStudyQuery struct {
	Day             kst.Date
	HighC           *int // nil selects the day's last new high
	PreMinutes      int
	PostMinutes     int
	IntervalMinutes int
	Markets         []string // SelectPrev, SelectNew or market ids
	Mode            trend.Mode
}

// DefaultEventStudyQuery returns the defaults for day.
func DefaultEventStudyQuery(day kst.Date) EventStudyQuery {
	return EventStudyQuery{
		Day:             day,
		PreMinutes:      60,
		PostMinutes:     120,
		IntervalMinutes: 5,
		Markets:         []string{SelectPrev, SelectNew},
		Mode:            trend.Closest,
	}
}

// ParseMarketSelectors splits a comma-separated selector list.
func ParseMarketSelectors(s string) []string {
	var out []string
	for _, tok := range strings.Split(s, ",") {
		if tok = strings.TrimSpace(tok); tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

func (q EventStudyQuery) validate() error {
	if q.PreMinutes < 1 || q.PreMinutes > MaxStudyMinutes {
		return paramErr("pre_minutes", fmt.Errorf("must be between 1 and %d, got %d", MaxStudyMinutes, q.PreMinutes))
	}
	if q.PostMinutes < 1 || q.PostMinutes > MaxStudyMinutes {
		return paramErr("post_minutes", fmt.Errorf("must be between 1 and %d, got %d", MaxStudyMinutes, q.PostMinutes))
	}
	if q.IntervalMinutes < 1 || q.IntervalMinutes > MaxStudyInterval {
		return paramErr("interval_minutes", fmt.Errorf("%w: must be between 1 and %d, got %d", trend.ErrInvalidInterval, MaxStudyInterval, q.IntervalMinutes))
	}
	if _, err := trend.ParseMode(string(q.Mode)); err != nil {
		return paramErr("mode", err)
	}
	return nil
}

// EventStudy resamples the selected markets around a new-high event. Offsets
// run from -PreMinutes to +PostMinutes inclusive.
func (s *Service) EventStudy(ctx context.Context, q EventStudyQuery) (EventStudyResponse, error) {
	if err := q.validate(); err != nil {
		return EventStudyResponse{}, err
	}
	d, err := s.loadEvent(ctx, q.Day)
	if err != nil {
		return EventStudyResponse{}, err
	}
	if err := s.loadWeather(ctx, d); err != nil {
		return EventStudyResponse{}, err
	}

	highs := dayhigh.NewHighs(q.Day, d.slice.Changes, d.slice.Observations)
	selected, ok := dayhigh.Find(highs, q.HighC)
	if !ok {
		return EventStudyResponse{
			Meta:   EventStudyMeta{DateKST: q.Day.String()},
			Series: []StudySeries{},
		}, nil
	}

	ids := selectMarkets(d.markets, q.Markets, selected.HighC)

	interval := time.Duration(q.IntervalMinutes) * time.Minute
	pre := time.Duration(q.PreMinutes) * time.Minute
	post := time.Duration(q.PostMinutes) * time.Minute
	anchors, offsets := trend.AnchorsAround(selected.ObservedAt, pre, post, interval)

	// Anchors include the last offset, so the fetch range extends one
	// interval past it.
	from, to := selected.ObservedAt.Add(-pre-interval), selected.ObservedAt.Add(post+interval)

	series := make([]StudySeries, 0, len(ids))
	for _, id := range ids {
		snapshots, err := s.store.Snapshots(ctx, id, from, to)
		if err != nil {
			return EventStudyResponse{}, err
		}
		points := trend.ResampleAt(snapshots, anchors, q.Mode, trend.Tolerance(interval))
		study := make([]StudyPoint, len(points))
		for i, p := range points {
			study[i] = StudyPoint{OffsetMinutes: int(offsets[i] / time.Minute), Point: p}
		}
		series = append(series, StudySeries{MarketID: id, MarketLabel: d.label(id), Points: study})
	}

	event := newHighView(selected)
	observedAt := selected.ObservedAt.UTC()
	high := selected.HighC
	return EventStudyResponse{
		Meta: EventStudyMeta{
			DateKST:         q.Day.String(),
			EventID:         &d.event.ID,
			Slug:            d.event.Slug,
			HighC:           &high,
			ObservedAt:      &observedAt,
			ObservedKST:     event.ObservedKST,
			PreMinutes:      q.PreMinutes,
			PostMinutes:     q.PostMinutes,
			IntervalMinutes: q.IntervalMinutes,
			Mode:            string(q.Mode),
		},
		Event:  &event,
		Series: series,
	}, nil
}

// selectMarkets resolves selectors to market ids in order, dropping unknown
// ids, unmatched buckets and duplicates.
func selectMarkets(markets []model.Market, selectors []string, highC int) []uuid.UUID {
	var ids []uuid.UUID
	seen := make(map[uuid.UUID]bool)
	add := func(id *uuid.UUID) {
		if id != nil && !seen[*id] {
			seen[*id] = true
			ids = append(ids, *id)
		}
	}

	for _, sel := range selectors {
		switch sel {
		case SelectPrev:
			add(dayhigh.MarketFor(highC-1, markets))
		case SelectNew:
			add(dayhigh.MarketFor(highC, markets))
		default:
			id, err := uuid.Parse(sel)
			if err != nil {
				continue
			}
			for _, m := range markets {
				if m.ID == id {
					add(&id)
					break
				}
			}
		}
	}
	return ids
}
