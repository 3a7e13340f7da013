package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/seoulhigh/internal/kst"
	"github.com/rickgao/seoulhigh/internal/model"
	"github.com/rickgao/seoulhigh/internal/trend"
	"github.com/rickgao/seoulhigh/internal/weather"
)

func clock(s string) kst.Clock {
	c, err := kst.ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

func TestTrend_EmptyFullDay(t *testing.T) {
	f := newFixture(t)
	id := f.markets["3°C"].ID

	for _, mode := range []trend.Mode{trend.Closest, trend.Carry} {
		resp, err := f.svc.Trend(context.Background(), TrendQuery{
			Day: day, MarketID: &id, Start: clock("00:00"), End: clock("24:00"), IntervalMinutes: 15, Mode: mode,
		})
		if err != nil {
			t.Fatalf("Trend(%s): %v", mode, err)
		}
		if len(resp.Series) != 96 {
			t.Errorf("%s: len(Series) = %d, want 96", mode, len(resp.Series))
		}
		if resp.Coverage.MissingPointCount != 96 || resp.Coverage.SnapshotCount != 0 {
			t.Errorf("%s: coverage = %+v", mode, resp.Coverage)
		}
		if resp.Meta.TempSource != nil {
			t.Errorf("%s: TempSource = %q, want nil without observations", mode, *resp.Meta.TempSource)
		}
		if resp.Meta.EndKST != "24:00" || resp.Meta.Timezone != "Asia/Seoul" {
			t.Errorf("%s: meta = %+v", mode, resp.Meta)
		}
	}
}

func TestTrend_TempsStayInDay(t *testing.T) {
	f := newFixture(t)
	// 23:30 KST the evening before.
	f.mem.UpsertObservations(context.Background(), []model.WeatherObservation{
		{Station: "RKSI", Source: weather.SourceAWC, ObservedAt: at("00:00").Add(-30 * time.Minute), TempC: 9.0},
	})
	f.observe("00:40", 1.0)
	id := f.markets["3°C"].ID

	resp, err := f.svc.Trend(context.Background(), TrendQuery{
		Day: day, MarketID: &id, Start: clock("00:00"), End: clock("01:00"), IntervalMinutes: 15, Mode: trend.Carry,
	})
	if err != nil {
		t.Fatalf("Trend: %v", err)
	}
	if len(resp.Series) != 4 {
		t.Fatalf("len(Series) = %d, want 4", len(resp.Series))
	}
	for i, p := range resp.Series[:3] {
		if p.TempC != nil {
			t.Errorf("point %d TempC = %v, want nil before the day's first observation", i, *p.TempC)
		}
	}
	if p := resp.Series[3]; p.TempC == nil || *p.TempC != 1.0 {
		t.Errorf("00:45 TempC = %v, want 1.0", p.TempC)
	}
}

func TestTrend_CarryAcrossShortGap(t *testing.T) {
	f := newFixture(t)
	id := f.markets["3°C"].ID
	f.snapshot("3°C", at("09:57"), 0.33)

	resp, err := f.svc.Trend(context.Background(), TrendQuery{
		Day: day, MarketID: &id, Start: clock("10:00"), End: clock("10:05"), IntervalMinutes: 1, Mode: trend.Carry,
	})
	if err != nil {
		t.Fatalf("Trend: %v", err)
	}
	if p := resp.Series[0]; p.YesBestBid == nil || *p.YesBestBid != 0.33 {
		t.Errorf("10:00 YesBestBid = %v, want 0.33 carried from 09:57", p.YesBestBid)
	}
}

func TestTrend_DefaultMarketWithTemps(t *testing.T) {
	f := newFixture(t)
	f.observe("09:30", 2.2)
	f.observe("10:20", 3.6)
	f.snapshot("3°C", at("10:00").Add(20*time.Second), 0.41)
	f.snapshot("3°C", at("10:14"), 0.47)
	f.snapshot("3°C", at("10:31"), 0.52)
	f.snapshot("2°C", at("10:00"), 0.10)

	resp, err := f.svc.Trend(context.Background(), TrendQuery{
		Day: day, Start: clock("10:00"), End: clock("11:00"), IntervalMinutes: 15, Mode: trend.Closest,
	})
	if err != nil {
		t.Fatalf("Trend: %v", err)
	}

	if resp.Meta.MarketID != f.markets["3°C"].ID || resp.Meta.MarketLabel == nil || *resp.Meta.MarketLabel != "3°C" {
		t.Errorf("meta market = %v %v, want 3°C", resp.Meta.MarketID, resp.Meta.MarketLabel)
	}
	if resp.Meta.TempSource == nil || *resp.Meta.TempSource != "awc" || resp.Meta.IntervalMinutes != 15 || resp.Meta.Mode != "closest" {
		t.Errorf("meta = %+v", resp.Meta)
	}
	if len(resp.Series) != 4 {
		t.Fatalf("len(Series) = %d, want 4", len(resp.Series))
	}

	want := []struct {
		anchor string
		bid    *float64
		temp   float64
	}{
		{"10:00", f64(0.41), 2.2},
		{"10:15", f64(0.47), 2.2},
		{"10:30", f64(0.52), 3.6},
		{"10:45", nil, 3.6},
	}
	for i, w := range want {
		p := resp.Series[i]
		if p.AnchorKST != w.anchor {
			t.Errorf("point %d anchor = %s, want %s", i, p.AnchorKST, w.anchor)
		}
		if (p.YesBestBid == nil) != (w.bid == nil) || (w.bid != nil && *p.YesBestBid != *w.bid) {
			t.Errorf("point %d bid = %v, want %v", i, p.YesBestBid, w.bid)
		}
		if p.TempC == nil || *p.TempC != w.temp {
			t.Errorf("point %d temp = %v, want %v", i, p.TempC, w.temp)
		}
	}
	if resp.Coverage.SnapshotCount != 3 || resp.Coverage.MissingPointCount != 1 {
		t.Errorf("coverage = %+v, want 3 snapshots, 1 missing", resp.Coverage)
	}
}

func TestTrend_Carry(t *testing.T) {
	f := newFixture(t)
	id := f.markets["3°C"].ID
	f.snapshot("3°C", at("09:58"), 0.30)
	f.snapshot("3°C", at("10:20"), 0.60)

	resp, err := f.svc.Trend(context.Background(), TrendQuery{
		Day: day, MarketID: &id, Start: clock("10:00"), End: clock("10:30"), IntervalMinutes: 5, Mode: trend.Carry,
	})
	if err != nil {
		t.Fatalf("Trend: %v", err)
	}
	bids := make([]float64, len(resp.Series))
	for i, p := range resp.Series {
		if p.YesBestBid == nil {
			t.Fatalf("point %d missing in carry mode", i)
		}
		bids[i] = *p.YesBestBid
	}
	want := []float64{0.30, 0.30, 0.30, 0.30, 0.60, 0.60}
	for i := range want {
		if bids[i] != want[i] {
			t.Errorf("bids = %v, want %v", bids, want)
			break
		}
	}
	// The look-back snapshot before 10:00 is not counted.
	if resp.Coverage.SnapshotCount != 1 {
		t.Errorf("SnapshotCount = %d, want 1", resp.Coverage.SnapshotCount)
	}
}

func TestTrend_Errors(t *testing.T) {
	f := newFixture(t)
	id := f.markets["3°C"].ID
	unknown := uuid.New()
	base := TrendQuery{Day: day, MarketID: &id, Start: clock("00:00"), End: clock("24:00"), IntervalMinutes: 15, Mode: trend.Closest}

	tests := []struct {
		name      string
		mutate    func(q *TrendQuery)
		wantParam string
		wantErr   error
	}{
		{"interval not allowed", func(q *TrendQuery) { q.IntervalMinutes = 7 }, "interval_minutes", trend.ErrInvalidInterval},
		{"bad mode", func(q *TrendQuery) { q.Mode = "nearest" }, "mode", trend.ErrInvalidMode},
		{"end before start", func(q *TrendQuery) { q.Start, q.End = clock("12:00"), clock("11:00") }, "end_kst", trend.ErrInvalidWindow},
		{"empty window", func(q *TrendQuery) { q.Start, q.End = clock("12:00"), clock("12:00") }, "end_kst", trend.ErrInvalidWindow},
		{"unknown market", func(q *TrendQuery) { q.MarketID = &unknown }, "", ErrMarketNotFound},
		{"no event", func(q *TrendQuery) { q.Day = day.AddDays(5) }, "", ErrEventNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := base
			tt.mutate(&q)
			_, err := f.svc.Trend(context.Background(), q)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			var pe *ParamError
			if tt.wantParam != "" && (!errors.As(err, &pe) || pe.Param != tt.wantParam) {
				t.Errorf("error = %v, want ParamError for %s", err, tt.wantParam)
			}
		})
	}
}
