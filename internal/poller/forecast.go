package poller

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/rickgao/seoulhigh/internal/model"
	"github.com/rickgao/seoulhigh/internal/state"
	"github.com/rickgao/seoulhigh/internal/store"
	"github.com/rickgao/seoulhigh/internal/weather"
)

// ForecastSource fetches model forecasts.
type ForecastSource interface {
	Forecast(ctx context.Context, req weather.ForecastRequest) (*weather.Forecast, error)
}

// ForecastJob stores one run per model on every poll.
type ForecastJob struct {
	station string
	req     weather.ForecastRequest
	source  ForecastSource
	store   store.Writer
	state   *state.Cache
	logger  *slog.Logger
}

// NewForecastJob creates the forecast job. station labels the stored runs.
func NewForecastJob(station string, req weather.ForecastRequest, source ForecastSource, w store.Writer, st *state.Cache, logger *slog.Logger) *ForecastJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &ForecastJob{
		station: station,
		req:     req,
		source:  source,
		store:   w,
		state:   st,
		logger:  logger,
	}
}

// Name implements Job.
func (j *ForecastJob) Name() string { return state.JobForecast }

// Run fetches the forecast and stores a run per model.
func (j *ForecastJob) Run(ctx context.Context) error {
	fc, err := j.source.Forecast(ctx, j.req)
	if err != nil {
		return err
	}

	series := make([]state.ForecastSeries, 0, len(fc.Models))
	for _, name := range fc.Models {
		hourly := fc.Hourly[name]
		if len(hourly) == 0 {
			j.logger.Warn("forecast model returned no data", "model", name)
			continue
		}

		run := model.ForecastRun{
			ID:      uuid.New(),
			Model:   name,
			Station: j.station,
			RunAt:   fc.Fetched,
			Source:  weather.SourceOpenMeteo,
		}
		points := make([]model.ForecastPoint, len(hourly))
		for i, h := range hourly {
			points[i] = model.ForecastPoint{RunID: run.ID, ValidAt: h.ValidAt, TempC: h.TempC}
		}
		if err := j.store.InsertForecast(ctx, run, points); err != nil {
			return err
		}
		series = append(series, state.ForecastSeries{Model: name, RunAt: run.RunAt, Points: points})
	}

	if j.state != nil {
		j.state.Update(func(s *state.Snapshot) { s.Forecast = series })
	}
	j.logger.Debug("forecast poll complete", "models", len(series))
	return nil
}
