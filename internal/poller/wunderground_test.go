package poller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/seoulhigh/internal/bucket"
	"github.com/rickgao/seoulhigh/internal/kst"
	"github.com/rickgao/seoulhigh/internal/model"
	"github.com/rickgao/seoulhigh/internal/state"
	"github.com/rickgao/seoulhigh/internal/store"
	"github.com/rickgao/seoulhigh/internal/weather"
)

type fakeHistory struct {
	pages []*weather.WUHistory
	err   error
	calls int
}

func (f *fakeHistory) History(ctx context.Context, station string, day kst.Date) (*weather.WUHistory, error) {
	if f.err != nil {
		return nil, f.err
	}
	h := f.pages[min(f.calls, len(f.pages)-1)]
	f.calls++
	return h, nil
}

func historyAt(offset time.Duration, tempC float64, dayHighC *float64) *weather.WUHistory {
	return &weather.WUHistory{
		Date:     testDay,
		URL:      "https://www.wunderground.com/history/daily/kr/incheon/RKSI/date/2025-3-3",
		DayHighC: dayHighC,
		Latest:   &weather.WUReading{ObservedAt: testDay.Midnight().Add(offset), TempC: tempC},
	}
}

func f64p(v float64) *float64 { return &v }

func intp(v int) *int { return &v }

func changesBySource(t *testing.T, mem *store.Memory, source string) []model.DayHighChange {
	t.Helper()
	all, err := mem.DayHighChanges(context.Background(), testDay)
	if err != nil {
		t.Fatalf("DayHighChanges: %v", err)
	}
	var out []model.DayHighChange
	for _, c := range all {
		if c.Source == source {
			out = append(out, c)
		}
	}
	return out
}

func TestWundergroundJob_RecordsHighs(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	st := state.New()
	src := &fakeHistory{pages: []*weather.WUHistory{
		historyAt(11*time.Hour, 3.9, f64p(4.4)),
		historyAt(12*time.Hour, 5.2, f64p(5.6)),
		historyAt(13*time.Hour, 4.8, f64p(5.6)),
	}}
	job := NewWundergroundJob("RKSI", src, mem, st, nil)
	job.now = testNow

	for i := 0; i < 3; i++ {
		if err := job.Run(ctx); err != nil {
			t.Fatalf("Run %d failed: %v", i, err)
		}
	}

	if got := mem.WUObservations(); len(got) != 3 || got[2].TempC != 4.8 || got[2].SourceURL == "" {
		t.Errorf("stored readings = %+v", got)
	}

	observed := changesBySource(t, mem, weather.SourceWundergroundObserved)
	if len(observed) != 2 || observed[0].HighC != 3 || observed[1].HighC != 5 {
		t.Fatalf("observed changes = %+v, want [3 5]", observed)
	}
	if p := observed[1].PreviousHighC; p == nil || *p != 3 {
		t.Errorf("observed previous = %v, want 3", p)
	}

	daily := changesBySource(t, mem, weather.SourceWunderground)
	if len(daily) != 2 || daily[0].HighC != 4 || daily[1].HighC != 5 {
		t.Fatalf("daily changes = %+v, want [4 5]", daily)
	}
	if daily[0].PreviousHighC != nil || daily[1].PreviousHighC == nil || *daily[1].PreviousHighC != 4 {
		t.Errorf("daily previous highs = %v, %v", daily[0].PreviousHighC, daily[1].PreviousHighC)
	}

	w := st.Load().Wunderground
	if w == nil || w.Day != testDay {
		t.Fatalf("state Wunderground = %+v", w)
	}
	if w.HighWholeC == nil || *w.HighWholeC != 5 || w.ObservedMaxC == nil || *w.ObservedMaxC != 5 {
		t.Errorf("state highs = %v, %v", w.HighWholeC, w.ObservedMaxC)
	}
	if w.Latest == nil || w.Latest.TempC != 4.8 {
		t.Errorf("state Latest = %+v", w.Latest)
	}
}

func TestWundergroundJob_SeedsFromStore(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	at := testDay.Midnight().Add(10 * time.Hour)
	mem.InsertDayHighChange(ctx, model.DayHighChange{DateKST: testDay, ObservedAt: at, HighC: 6, Source: weather.SourceWundergroundObserved})
	mem.InsertDayHighChange(ctx, model.DayHighChange{DateKST: testDay, ObservedAt: at, HighC: 7, Source: weather.SourceWunderground})
	mem.InsertDayHighChange(ctx, model.DayHighChange{DateKST: testDay, ObservedAt: at, HighC: 9, Source: weather.SourceAWC})

	src := &fakeHistory{pages: []*weather.WUHistory{historyAt(13*time.Hour, 6.5, f64p(7.9))}}
	job := NewWundergroundJob("RKSI", src, mem, nil, nil)
	job.now = testNow

	if err := job.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := changesBySource(t, mem, weather.SourceWundergroundObserved); len(got) != 1 {
		t.Errorf("observed changes = %+v, want only the seeded one", got)
	}
	if got := changesBySource(t, mem, weather.SourceWunderground); len(got) != 1 {
		t.Errorf("daily changes = %+v, want only the seeded one", got)
	}
}

type flakyWUChanges struct {
	*store.Memory
	failures int
}

func (f *flakyWUChanges) InsertDayHighChange(ctx context.Context, c model.DayHighChange) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("connection reset")
	}
	return f.Memory.InsertDayHighChange(ctx, c)
}

func TestWundergroundJob_RetriesFailedChange(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	flaky := &flakyWUChanges{Memory: mem, failures: 1}
	src := &fakeHistory{pages: []*weather.WUHistory{historyAt(12*time.Hour, 4.1, nil)}}
	job := NewWundergroundJob("RKSI", src, flaky, nil, nil)
	job.now = testNow

	if err := job.Run(ctx); err == nil {
		t.Fatal("first Run succeeded, want insert error")
	}
	if err := job.Run(ctx); err != nil {
		t.Fatalf("second Run failed: %v", err)
	}
	if got := changesBySource(t, mem, weather.SourceWundergroundObserved); len(got) != 1 || got[0].HighC != 4 {
		t.Errorf("observed changes = %+v, want [4]", got)
	}
}

func TestWundergroundJob_UpdatesDefaultMarket(t *testing.T) {
	st := state.New()
	cold := model.Market{ID: uuid.New(), GroupItemTitle: "4°C or below", Outcome: bucket.AtOrBelowOf(4)}
	warm := model.Market{ID: uuid.New(), GroupItemTitle: "5°C or higher", Outcome: bucket.AtOrAboveOf(5)}
	st.Update(func(s *state.Snapshot) {
		s.Day = testDay
		s.Outcomes = []state.Outcome{{Market: cold}, {Market: warm}}
		s.LatestMETAR = &model.WeatherObservation{ObservedAt: testDay.Midnight().Add(13 * time.Hour), TempC: 3.9}
		s.DayHighC = intp(3)
		s.DefaultMarketID = &cold.ID
	})

	src := &fakeHistory{pages: []*weather.WUHistory{historyAt(13*time.Hour, 4.2, f64p(5.1))}}
	job := NewWundergroundJob("RKSI", src, store.NewMemory(), st, nil)
	job.now = testNow

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if id := st.Load().DefaultMarketID; id == nil || *id != warm.ID {
		t.Errorf("DefaultMarketID = %v, want the daily summary's bucket %v", id, warm.ID)
	}
}

func TestWundergroundJob_SourceError(t *testing.T) {
	job := NewWundergroundJob("RKSI", &fakeHistory{err: errors.New("403 Forbidden")}, store.NewMemory(), nil, nil)
	job.now = testNow
	if err := job.Run(context.Background()); err == nil {
		t.Error("Run succeeded, want error")
	}
}
