package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/seoulhigh/internal/bucket"
	"github.com/rickgao/seoulhigh/internal/kst"
	"github.com/rickgao/seoulhigh/internal/model"
)

var (
	_ Store = (*Postgres)(nil)
	_ Store = (*Memory)(nil)
)

var day = kst.Date{Year: 2025, Month: time.January, Day: 15}

func intp(v int) *int { return &v }

func TestOutcomeOf(t *testing.T) {
	tests := []struct {
		kind   string
		lo, hi *int
		want   bucket.Outcome
	}{
		{"exact", intp(3), intp(3), bucket.ExactOf(3)},
		{"range", intp(3), intp(4), bucket.RangeOf(3, 4)},
		{"at_or_below", nil, intp(-1), bucket.AtOrBelowOf(-1)},
		{"at_or_above", intp(5), nil, bucket.AtOrAboveOf(5)},
		{"unparseable", nil, nil, bucket.Outcome{}},
		{"unparseable", intp(1), intp(2), bucket.Outcome{}},
	}
	for _, tt := range tests {
		if got := outcomeOf(tt.kind, tt.lo, tt.hi); got != tt.want {
			t.Errorf("outcomeOf(%s) = %+v, want %+v", tt.kind, got, tt.want)
		}
	}
}

func TestMemory_Events(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	if _, err := s.EventByDate(ctx, day); !errors.Is(err, ErrNotFound) {
		t.Fatalf("EventByDate on empty store = %v, want ErrNotFound", err)
	}

	seen := day.Midnight()
	id, err := s.UpsertEvent(ctx, model.Event{DateKST: day, Slug: "a", GammaEventID: "1", LastSeenAt: seen})
	if err != nil {
		t.Fatalf("UpsertEvent: %v", err)
	}
	again, _ := s.UpsertEvent(ctx, model.Event{DateKST: day, Slug: "a", GammaEventID: "1", LastSeenAt: seen.Add(time.Hour)})
	if again != id {
		t.Errorf("second upsert id = %v, want %v", again, id)
	}
	s.UpsertEvent(ctx, model.Event{DateKST: day.AddDays(-1), Slug: "b", LastSeenAt: seen})
	s.UpsertEvent(ctx, model.Event{DateKST: day.AddDays(1), Slug: "c", LastSeenAt: seen})

	e, err := s.EventByDate(ctx, day)
	if err != nil {
		t.Fatalf("EventByDate: %v", err)
	}
	if e.ID != id || !e.LastSeenAt.Equal(seen.Add(time.Hour)) {
		t.Errorf("event = %+v, want refreshed last_seen_at", e)
	}

	dates, _ := s.EventDates(ctx)
	want := []kst.Date{day.AddDays(1), day, day.AddDays(-1)}
	if len(dates) != len(want) {
		t.Fatalf("EventDates = %v, want %v", dates, want)
	}
	for i := range want {
		if dates[i] != want[i] {
			t.Errorf("EventDates[%d] = %s, want %s", i, dates[i], want[i])
		}
	}
}

func TestMemory_MarketsOrdered(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	eventID := uuid.New()

	stored, err := s.UpsertMarkets(ctx, []model.Market{
		{EventID: eventID, GammaMarketID: "x", GroupItemTitle: "Other"},
		{EventID: eventID, GammaMarketID: "b", GroupItemTitle: "2°C", GroupItemThreshold: intp(2)},
		{EventID: eventID, GammaMarketID: "a", GroupItemTitle: "1°C", GroupItemThreshold: intp(1)},
		{EventID: uuid.New(), GammaMarketID: "z", GroupItemThreshold: intp(0)},
	})
	if err != nil {
		t.Fatalf("UpsertMarkets: %v", err)
	}
	for _, m := range stored {
		if m.ID == uuid.Nil {
			t.Errorf("market %s stored without id", m.GammaMarketID)
		}
	}

	// Re-upsert keeps the id.
	again, _ := s.UpsertMarkets(ctx, []model.Market{{EventID: eventID, GammaMarketID: "a", GroupItemTitle: "1°C", GroupItemThreshold: intp(1)}})
	if again[0].ID != stored[2].ID {
		t.Errorf("re-upsert id = %v, want %v", again[0].ID, stored[2].ID)
	}

	markets, _ := s.Markets(ctx, eventID)
	var got string
	for _, m := range markets {
		got += m.GammaMarketID
	}
	if got != "abx" {
		t.Errorf("Markets order = %q, want %q", got, "abx")
	}
}

func TestMemory_SnapshotsRangeAndDedup(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	marketID := uuid.New()
	base := day.Midnight()

	snaps := []model.Snapshot{
		{MarketID: marketID, CapturedAt: base.Add(2 * time.Minute)},
		{MarketID: marketID, CapturedAt: base},
		{MarketID: marketID, CapturedAt: base.Add(time.Minute)},
		{MarketID: marketID, CapturedAt: base.Add(time.Minute)},
		{MarketID: uuid.New(), CapturedAt: base},
	}
	n, err := s.InsertSnapshots(ctx, snaps)
	if err != nil {
		t.Fatalf("InsertSnapshots: %v", err)
	}
	if n != 4 {
		t.Errorf("InsertSnapshots wrote %d, want 4", n)
	}

	got, _ := s.Snapshots(ctx, marketID, base, base.Add(2*time.Minute))
	if len(got) != 2 {
		t.Fatalf("len(Snapshots) = %d, want 2 (end exclusive)", len(got))
	}
	if !got[0].CapturedAt.Equal(base) || !got[1].CapturedAt.Equal(base.Add(time.Minute)) {
		t.Errorf("Snapshots not ascending: %v, %v", got[0].CapturedAt, got[1].CapturedAt)
	}
}

func TestMemory_ObservationsAndChanges(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	base := day.Midnight()

	s.UpsertObservations(ctx, []model.WeatherObservation{
		{Station: "RKSI", Source: "awc", ObservedAt: base.Add(time.Hour), TempC: 1},
		{Station: "RKSI", Source: "awc", ObservedAt: base, TempC: 0},
		{Station: "RKSS", Source: "awc", ObservedAt: base, TempC: 9},
	})
	s.UpsertObservations(ctx, []model.WeatherObservation{
		{Station: "RKSI", Source: "awc", ObservedAt: base.Add(time.Hour), TempC: 1.5},
	})

	obs, _ := s.Observations(ctx, "RKSI", "awc", base, base.Add(24*time.Hour))
	if len(obs) != 2 || obs[0].TempC != 0 || obs[1].TempC != 1.5 {
		t.Errorf("Observations = %+v, want [0, 1.5]", obs)
	}

	s.InsertDayHighChange(ctx, model.DayHighChange{DateKST: day, ObservedAt: base.Add(2 * time.Hour), HighC: 2, Source: "awc"})
	s.InsertDayHighChange(ctx, model.DayHighChange{DateKST: day, ObservedAt: base.Add(time.Hour), HighC: 1, Source: "awc"})
	s.InsertDayHighChange(ctx, model.DayHighChange{DateKST: day, ObservedAt: base.Add(3 * time.Hour), HighC: 2, Source: "awc"})

	changes, _ := s.DayHighChanges(ctx, day)
	if len(changes) != 2 || changes[0].HighC != 1 || changes[1].HighC != 2 {
		t.Errorf("DayHighChanges = %+v, want [1, 2]", changes)
	}
	if other, _ := s.DayHighChanges(ctx, day.AddDays(1)); len(other) != 0 {
		t.Errorf("DayHighChanges(next day) = %+v, want empty", other)
	}
}

func TestMemory_Forecast(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	base := day.Midnight()

	err := s.InsertForecast(ctx, model.ForecastRun{Model: "kma_seamless", Station: "RKSI", RunAt: base},
		[]model.ForecastPoint{{ValidAt: base, TempC: 1}, {ValidAt: base.Add(time.Hour), TempC: 2}})
	if err != nil {
		t.Fatalf("InsertForecast: %v", err)
	}
	runs := s.ForecastRuns()
	if len(runs) != 1 || runs[0].ID == uuid.Nil {
		t.Fatalf("ForecastRuns = %+v", runs)
	}
	pts := s.ForecastPoints(runs[0].ID)
	if len(pts) != 2 || pts[1].RunID != runs[0].ID {
		t.Errorf("ForecastPoints = %+v", pts)
	}
}

func TestMemory_WUObservations(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	at := day.Midnight().Add(14 * time.Hour)
	high := 7.8
	if err := s.UpsertWUObservation(ctx, model.WUObservation{Station: "RKSI", ObservedAt: at, TempC: 7.2}); err != nil {
		t.Fatalf("UpsertWUObservation: %v", err)
	}
	if err := s.UpsertWUObservation(ctx, model.WUObservation{Station: "RKSI", ObservedAt: at, TempC: 7.5, DayHighC: &high}); err != nil {
		t.Fatalf("UpsertWUObservation: %v", err)
	}
	s.UpsertWUObservation(ctx, model.WUObservation{Station: "RKSI", ObservedAt: at.Add(30 * time.Minute), TempC: 7.6})

	got := s.WUObservations()
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].TempC != 7.5 || got[0].DayHighC == nil || *got[0].DayHighC != 7.8 {
		t.Errorf("replaced reading = %+v", got[0])
	}
}
