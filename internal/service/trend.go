package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/seoulhigh/internal/dayhigh"
	"github.com/rickgao/seoulhigh/internal/kst"
	"github.com/rickgao/seoulhigh/internal/model"
	"github.com/rickgao/seoulhigh/internal/trend"
	"github.com/rickgao/seoulhigh/internal/weather"
)

// Intervals are the accepted trend intervals in minutes.
var Intervals = []int{1, 5, 15, 30, 60}

// tempLookback is how far before a window observations are loaded so the
// first anchors carry a temperature. It never reaches into the previous day.
const tempLookback = 3 * time.Hour

// TrendQuery selects one market's series for a window of a KST day.
type TrendQuery struct {
	Day             kst.Date
	MarketID        *uuid.UUID // nil selects the default market
	Start           kst.Clock
	End             kst.Clock
	IntervalMinutes int
	Mode            trend.Mode
}

func (q TrendQuery) validate() error {
	if !slices.Contains(Intervals, q.IntervalMinutes) {
		return paramErr("interval_minutes", fmt.Errorf("%w: must be one of %v, got %d", trend.ErrInvalidInterval, Intervals, q.IntervalMinutes))
	}
	if _, err := trend.ParseMode(string(q.Mode)); err != nil {
		return paramErr("mode", err)
	}
	return nil
}

// Trend resamples one market's snapshots over the query window and attaches
// the observed temperature to each point.
func (s *Service) Trend(ctx context.Context, q TrendQuery) (TrendResponse, error) {
	if err := q.validate(); err != nil {
		return TrendResponse{}, err
	}
	w, err := trend.NewWindow(q.Day, q.Start, q.End)
	if err != nil {
		return TrendResponse{}, paramErr("end_kst", err)
	}

	d, err := s.loadEvent(ctx, q.Day)
	if err != nil {
		return TrendResponse{}, err
	}

	var marketID uuid.UUID
	if q.MarketID != nil {
		if _, ok := d.market(*q.MarketID); !ok {
			return TrendResponse{}, ErrMarketNotFound
		}
		marketID = *q.MarketID
	} else {
		if err := s.loadWeather(ctx, d); err != nil {
			return TrendResponse{}, err
		}
		id := dayhigh.SelectDefault(q.Day, d.markets, d.slice)
		if id == nil {
			return TrendResponse{}, ErrMarketNotFound
		}
		marketID = *id
	}

	interval := time.Duration(q.IntervalMinutes) * time.Minute
	from, to := w.FetchRange(interval, q.Mode)
	snapshots, err := s.store.Snapshots(ctx, marketID, from, to)
	if err != nil {
		return TrendResponse{}, err
	}

	series, err := trend.Resample(snapshots, w, interval, q.Mode)
	if err != nil {
		return TrendResponse{}, paramErr("window", err)
	}

	dayStart, _ := q.Day.Bounds()
	obs, err := s.store.Observations(ctx, s.cfg.Station, weather.SourceAWC, maxTime(w.Start.Add(-tempLookback), dayStart), w.End)
	if err != nil {
		return TrendResponse{}, err
	}
	trend.AttachTemps(series.Points, obs)

	return TrendResponse{
		Meta: TrendMeta{
			DateKST:         q.Day.String(),
			Slug:            d.event.Slug,
			EventID:         d.event.ID,
			MarketID:        marketID,
			MarketLabel:     d.label(marketID),
			TempSource:      tempSource(obs),
			Timezone:        "Asia/Seoul",
			IntervalMinutes: q.IntervalMinutes,
			StartKST:        q.Start.String(),
			EndKST:          q.End.String(),
			Mode:            string(q.Mode),
		},
		Coverage: series.Coverage,
		Series:   series.Points,
	}, nil
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

// tempSource names the observation source, or nil when there was nothing to
// attach.
func tempSource(obs []model.WeatherObservation) *string {
	if len(obs) == 0 {
		return nil
	}
	src := weather.SourceAWC
	return &src
}
