package poller

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rickgao/seoulhigh/internal/dayhigh"
	"github.com/rickgao/seoulhigh/internal/kst"
	"github.com/rickgao/seoulhigh/internal/model"
	"github.com/rickgao/seoulhigh/internal/state"
	"github.com/rickgao/seoulhigh/internal/store"
	"github.com/rickgao/seoulhigh/internal/weather"
)

// metarHours covers a full KST day whatever the time of the run.
const metarHours = 26

// WeatherSource fetches METAR observations.
type WeatherSource interface {
	METARs(ctx context.Context, station string, hours int) ([]model.WeatherObservation, error)
}

// WeatherStore is the store access the weather job needs.
type WeatherStore interface {
	UpsertObservations(ctx context.Context, observations []model.WeatherObservation) (int, error)
	InsertDayHighChange(ctx context.Context, c model.DayHighChange) error
	DayHighChanges(ctx context.Context, day kst.Date) ([]model.DayHighChange, error)
}

var _ WeatherStore = (store.Store)(nil)

// WeatherJob stores observations and records each new day high.
type WeatherJob struct {
	station string
	source  WeatherSource
	store   WeatherStore
	state   *state.Cache
	tracker *dayhigh.Tracker
	logger  *slog.Logger
	now     func() time.Time

	seeded kst.Date
}

// NewWeatherJob creates the weather job for station.
func NewWeatherJob(station string, source WeatherSource, s WeatherStore, st *state.Cache, logger *slog.Logger) *WeatherJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &WeatherJob{
		station: station,
		source:  source,
		store:   s,
		state:   st,
		tracker: dayhigh.NewTracker(weather.SourceAWC),
		logger:  logger,
		now:     time.Now,
	}
}

// Name implements Job.
func (j *WeatherJob) Name() string { return state.JobWeather }

// Run fetches recent reports, stores them and records day-high increases for
// the current KST day.
func (j *WeatherJob) Run(ctx context.Context) error {
	today := kst.DateOf(j.now())

	if err := j.seed(ctx, today); err != nil {
		return err
	}

	obs, err := j.source.METARs(ctx, j.station, metarHours)
	if err != nil {
		return err
	}
	if _, err := j.store.UpsertObservations(ctx, obs); err != nil {
		return fmt.Errorf("upsert observations: %w", err)
	}

	changes := 0
	for _, o := range obs {
		if !today.Contains(o.ObservedAt) {
			continue
		}
		c, ok := j.tracker.Peek(o)
		if !ok {
			continue
		}
		if err := j.store.InsertDayHighChange(ctx, c); err != nil {
			return fmt.Errorf("insert day high change: %w", err)
		}
		j.tracker.Commit(c)
		changes++
		j.logger.Info("new day high", "date", c.DateKST, "high_c", c.HighC, "observed_at", c.ObservedAt)
	}

	j.publish(today, obs)

	j.logger.Debug("weather poll complete", "observations", len(obs), "changes", changes)
	return nil
}

// seed primes the tracker from persisted METAR changes once per day so a restart
// does not re-record highs.
func (j *WeatherJob) seed(ctx context.Context, today kst.Date) error {
	if j.seeded == today {
		return nil
	}
	changes, err := j.store.DayHighChanges(ctx, today)
	if err != nil {
		return err
	}
	for _, c := range changes {
		if c.Source == weather.SourceAWC {
			j.tracker.Seed(today, c.HighC)
		}
	}
	j.seeded = today
	return nil
}

func (j *WeatherJob) publish(today kst.Date, obs []model.WeatherObservation) {
	if j.state == nil {
		return
	}
	latest, hasLatest := weather.Latest(obs)
	var high *int
	if h, ok := j.tracker.High(today); ok {
		high = &h
	}
	j.state.Update(func(s *state.Snapshot) {
		if hasLatest {
			s.LatestMETAR = &latest
		}
		s.DayHighC = high
		if s.Day == today && len(s.Outcomes) > 0 {
			best, _ := s.DayHigh(today)
			s.DefaultMarketID = defaultMarket(today, s.Outcomes, best)
		}
	})
}
