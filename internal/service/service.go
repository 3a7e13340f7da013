package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/seoulhigh/internal/dayhigh"
	"github.com/rickgao/seoulhigh/internal/kst"
	"github.com/rickgao/seoulhigh/internal/model"
	"github.com/rickgao/seoulhigh/internal/state"
	"github.com/rickgao/seoulhigh/internal/store"
	"github.com/rickgao/seoulhigh/internal/weather"
)

// Config holds service configuration.
type Config struct {
	Station    string // METAR station whose observations drive the day high
	SlugPrefix string // Event slug prefix, for the dashboard
}

// Service answers read queries. The store may be nil, in which case history
// queries return ErrNoStore and only the dashboard works.
type Service struct {
	cfg    Config
	store  store.Reader
	state  *state.Cache
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Service.
func New(cfg Config, r store.Reader, st *state.Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if st == nil {
		st = state.New()
	}
	return &Service{
		cfg:    cfg,
		store:  r,
		state:  st,
		logger: logger,
		now:    time.Now,
	}
}

// HasStore reports whether history queries are available.
func (s *Service) HasStore() bool {
	return s.store != nil
}

// dayData is everything known about one event day.
type dayData struct {
	day     kst.Date
	event   model.Event
	markets []model.Market
	slice   dayhigh.Slice
}

func (s *Service) reader() (store.Reader, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	return s.store, nil
}

// loadEvent returns the event for day and its markets.
func (s *Service) loadEvent(ctx context.Context, day kst.Date) (*dayData, error) {
	r, err := s.reader()
	if err != nil {
		return nil, err
	}
	event, err := r.EventByDate(ctx, day)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	markets, err := r.Markets(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	return &dayData{day: day, event: event, markets: markets}, nil
}

// loadWeather fills the day's recorded changes and observations.
func (s *Service) loadWeather(ctx context.Context, d *dayData) error {
	changes, err := s.store.DayHighChanges(ctx, d.day)
	if err != nil {
		return err
	}
	start, end := d.day.Bounds()
	obs, err := s.store.Observations(ctx, s.cfg.Station, weather.SourceAWC, start, end)
	if err != nil {
		return err
	}
	d.slice = dayhigh.Slice{Changes: changes, Observations: obs}
	return nil
}

func (d *dayData) market(id uuid.UUID) (model.Market, bool) {
	for _, m := range d.markets {
		if m.ID == id {
			return m, true
		}
	}
	return model.Market{}, false
}

func (d *dayData) label(id uuid.UUID) *string {
	if m, ok := d.market(id); ok {
		title := m.GroupItemTitle
		return &title
	}
	return nil
}

// Dates lists the dates with an event, newest first.
func (s *Service) Dates(ctx context.Context) (DatesResponse, error) {
	r, err := s.reader()
	if err != nil {
		return DatesResponse{}, err
	}
	dates, err := r.EventDates(ctx)
	if err != nil {
		return DatesResponse{}, err
	}
	out := DatesResponse{Dates: make([]string, 0, len(dates))}
	seen := make(map[kst.Date]bool, len(dates))
	for _, d := range dates {
		if !seen[d] {
			seen[d] = true
			out.Dates = append(out.Dates, d.String())
		}
	}
	return out, nil
}

// Markets returns the markets of day's event with its day high and default
// market.
func (s *Service) Markets(ctx context.Context, day kst.Date) (MarketsResponse, error) {
	d, err := s.loadEvent(ctx, day)
	if err != nil {
		return MarketsResponse{}, err
	}
	if err := s.loadWeather(ctx, d); err != nil {
		return MarketsResponse{}, err
	}

	resp := MarketsResponse{
		DateKST: day.String(),
		Slug:    d.event.Slug,
		EventID: d.event.ID,
		Markets: marketViews(d.markets),
	}
	if v, ok := dayhigh.Compute(day, d.markets, d.slice); ok {
		high := v.C
		resp.DayHighC = &high
		resp.DayHighSource = string(v.Source)
		resp.DefaultMarketID = dayhigh.MarketFor(v.C, d.markets)
	}
	return resp, nil
}

// NewHighs lists the day's new-high events: recorded changes when present,
// otherwise derived from observations.
func (s *Service) NewHighs(ctx context.Context, day kst.Date) (NewHighsResponse, error) {
	changes, err := s.newHighs(ctx, day)
	if err != nil {
		return NewHighsResponse{}, err
	}
	resp := NewHighsResponse{DateKST: day.String(), Events: make([]NewHighView, len(changes))}
	for i, c := range changes {
		resp.Events[i] = newHighView(c)
	}
	return resp, nil
}

func (s *Service) newHighs(ctx context.Context, day kst.Date) ([]model.DayHighChange, error) {
	if _, err := s.reader(); err != nil {
		return nil, err
	}
	d := &dayData{day: day}
	if err := s.loadWeather(ctx, d); err != nil {
		return nil, err
	}
	return dayhigh.NewHighs(day, d.slice.Changes, d.slice.Observations), nil
}
