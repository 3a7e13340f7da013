package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/seoulhigh/internal/kst"
	"github.com/rickgao/seoulhigh/internal/model"
)

// ErrNotFound is returned when a single-row lookup matches nothing.
var ErrNotFound = errors.New("not found")

// Reader is the query side used by the HTTP service.
type Reader interface {
	// EventDates returns the distinct event dates, newest first.
	EventDates(ctx context.Context) ([]kst.Date, error)
	EventByDate(ctx context.Context, day kst.Date) (model.Event, error)
	// Markets returns an event's markets ordered by threshold, nulls last.
	Markets(ctx context.Context, eventID uuid.UUID) ([]model.Market, error)
	Snapshots(ctx context.Context, marketID uuid.UUID, from, to time.Time) ([]model.Snapshot, error)
	Observations(ctx context.Context, station, source string, from, to time.Time) ([]model.WeatherObservation, error)
	DayHighChanges(ctx context.Context, day kst.Date) ([]model.DayHighChange, error)
}

// Writer is the ingestion side used by the pollers.
type Writer interface {
	// UpsertEvent inserts or refreshes an event keyed by slug and returns its id.
	UpsertEvent(ctx context.Context, e model.Event) (uuid.UUID, error)
	// UpsertMarkets inserts or refreshes markets keyed by (event, gamma id) and
	// returns them with their stored ids.
	UpsertMarkets(ctx context.Context, markets []model.Market) ([]model.Market, error)
	// InsertSnapshots appends snapshots, skipping duplicates. It returns the
	// number of rows written.
	InsertSnapshots(ctx context.Context, snapshots []model.Snapshot) (int, error)
	UpsertObservations(ctx context.Context, observations []model.WeatherObservation) (int, error)
	InsertDayHighChange(ctx context.Context, c model.DayHighChange) error
	// UpsertWUObservation stores a history page reading keyed by
	// (station, observed_at).
	UpsertWUObservation(ctx context.Context, o model.WUObservation) error
	InsertForecast(ctx context.Context, run model.ForecastRun, points []model.ForecastPoint) error
}

// Store is both sides.
type Store interface {
	Reader
	Writer
}
