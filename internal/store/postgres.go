package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rickgao/seoulhigh/internal/bucket"
	"github.com/rickgao/seoulhigh/internal/kst"
	"github.com/rickgao/seoulhigh/internal/model"
)

// Postgres is the pgx-backed Store.
type Postgres struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgres wraps a connection pool. The schema is applied separately by
// database.Migrate.
func NewPostgres(db *pgxpool.Pool, logger *slog.Logger) *Postgres {
	if logger == nil {
		logger = slog.Default()
	}
	return &Postgres{db: db, logger: logger}
}

// -----------------------------------------------------------------------------
// Reads
// -----------------------------------------------------------------------------

// EventDates returns the distinct event dates, newest first.
func (p *Postgres) EventDates(ctx context.Context) ([]kst.Date, error) {
	rows, err := p.db.Query(ctx, `
		SELECT DISTINCT to_char(date_kst, 'YYYY-MM-DD') AS d
		FROM events
		ORDER BY d DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query event dates: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (kst.Date, error) {
		var s string
		if err := row.Scan(&s); err != nil {
			return kst.Date{}, err
		}
		return kst.ParseDate(s)
	})
}

// EventByDate returns the most recently seen event for the day.
func (p *Postgres) EventByDate(ctx context.Context, day kst.Date) (model.Event, error) {
	var (
		e    model.Event
		date string
	)
	err := p.db.QueryRow(ctx, `
		SELECT id, to_char(date_kst, 'YYYY-MM-DD'), slug, gamma_event_id, last_seen_at
		FROM events
		WHERE date_kst = $1::date
		ORDER BY last_seen_at DESC
		LIMIT 1
	`, day.String()).Scan(&e.ID, &date, &e.Slug, &e.GammaEventID, &e.LastSeenAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Event{}, ErrNotFound
	}
	if err != nil {
		return model.Event{}, fmt.Errorf("query event %s: %w", day, err)
	}
	if e.DateKST, err = kst.ParseDate(date); err != nil {
		return model.Event{}, err
	}
	return e, nil
}

// Markets returns an event's markets ordered by threshold, nulls last.
func (p *Postgres) Markets(ctx context.Context, eventID uuid.UUID) ([]model.Market, error) {
	rows, err := p.db.Query(ctx, `
		SELECT id, event_id, gamma_market_id, condition_id, market_slug, question,
		       group_item_title, group_item_threshold, bucket_kind,
		       lower_bound_celsius, upper_bound_celsius, yes_token_id, no_token_id
		FROM event_markets
		WHERE event_id = $1
		ORDER BY group_item_threshold ASC NULLS LAST, group_item_title ASC
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("query markets: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Market, error) {
		var (
			m      model.Market
			kind   string
			lo, hi *int
		)
		err := row.Scan(&m.ID, &m.EventID, &m.GammaMarketID, &m.ConditionID, &m.Slug, &m.Question,
			&m.GroupItemTitle, &m.GroupItemThreshold, &kind, &lo, &hi, &m.YesTokenID, &m.NoTokenID)
		if err != nil {
			return model.Market{}, err
		}
		m.Outcome = outcomeOf(kind, lo, hi)
		return m, nil
	})
}

// outcomeOf rebuilds a parsed bucket from its stored columns.
func outcomeOf(kind string, lo, hi *int) bucket.Outcome {
	if bucket.ParseKind(kind) == bucket.Unparseable {
		return bucket.Outcome{}
	}
	return bucket.FromBounds(lo, hi)
}

// Snapshots returns a market's snapshots in [from, to), oldest first.
func (p *Postgres) Snapshots(ctx context.Context, marketID uuid.UUID, from, to time.Time) ([]model.Snapshot, error) {
	rows, err := p.db.Query(ctx, `
		SELECT market_id, event_id, captured_at,
		       yes_best_bid, yes_best_ask, no_best_bid, no_best_ask,
		       yes_bid_size, yes_ask_size, no_bid_size, no_ask_size,
		       accepting_orders, volume24h, source
		FROM market_snapshots
		WHERE market_id = $1 AND captured_at >= $2 AND captured_at < $3
		ORDER BY captured_at ASC
	`, marketID, from, to)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Snapshot, error) {
		var s model.Snapshot
		err := row.Scan(&s.MarketID, &s.EventID, &s.CapturedAt,
			&s.YesBestBid, &s.YesBestAsk, &s.NoBestBid, &s.NoBestAsk,
			&s.YesBidSize, &s.YesAskSize, &s.NoBidSize, &s.NoAskSize,
			&s.AcceptingOrders, &s.Volume24h, &s.Source)
		return s, err
	})
}

// Observations returns a station's reports in [from, to), oldest first.
func (p *Postgres) Observations(ctx context.Context, station, source string, from, to time.Time) ([]model.WeatherObservation, error) {
	rows, err := p.db.Query(ctx, `
		SELECT station, source, observed_at, temp_c, dewpoint_c,
		       wind_dir_deg, wind_speed_kt, wind_gust_kt, pressure_hpa,
		       visibility, flight_category, raw_text
		FROM weather_metar_obs
		WHERE station = $1 AND source = $2 AND observed_at >= $3 AND observed_at < $4
		ORDER BY observed_at ASC
	`, station, source, from, to)
	if err != nil {
		return nil, fmt.Errorf("query observations: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.WeatherObservation, error) {
		var o model.WeatherObservation
		err := row.Scan(&o.Station, &o.Source, &o.ObservedAt, &o.TempC, &o.DewpointC,
			&o.WindDirDeg, &o.WindSpeedKt, &o.WindGustKt, &o.PressureHPa,
			&o.Visibility, &o.FlightCategory, &o.RawText)
		return o, err
	})
}

// DayHighChanges returns the recorded changes for a day, oldest first.
func (p *Postgres) DayHighChanges(ctx context.Context, day kst.Date) ([]model.DayHighChange, error) {
	rows, err := p.db.Query(ctx, `
		SELECT observed_at, previous_high_celsius, high_celsius, source
		FROM weather_day_high_changes
		WHERE date_kst = $1::date
		ORDER BY observed_at ASC, high_celsius ASC
	`, day.String())
	if err != nil {
		return nil, fmt.Errorf("query day high changes: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.DayHighChange, error) {
		c := model.DayHighChange{DateKST: day}
		err := row.Scan(&c.ObservedAt, &c.PreviousHighC, &c.HighC, &c.Source)
		return c, err
	})
}

// -----------------------------------------------------------------------------
// Writes
// -----------------------------------------------------------------------------

// UpsertEvent inserts or refreshes an event keyed by slug and returns its id.
func (p *Postgres) UpsertEvent(ctx context.Context, e model.Event) (uuid.UUID, error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	var id uuid.UUID
	err := p.db.QueryRow(ctx, `
		INSERT INTO events (id, date_kst, slug, gamma_event_id, last_seen_at)
		VALUES ($1, $2::date, $3, $4, $5)
		ON CONFLICT (slug) DO UPDATE SET
			gamma_event_id = EXCLUDED.gamma_event_id,
			last_seen_at   = EXCLUDED.last_seen_at
		RETURNING id
	`, e.ID, e.DateKST.String(), e.Slug, e.GammaEventID, e.LastSeenAt).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("upsert event %s: %w", e.Slug, err)
	}
	return id, nil
}

// UpsertMarkets inserts or refreshes markets and returns them with stored ids.
func (p *Postgres) UpsertMarkets(ctx context.Context, markets []model.Market) ([]model.Market, error) {
	if len(markets) == 0 {
		return nil, nil
	}

	batch := &pgx.Batch{}
	for _, m := range markets {
		id := m.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		batch.Queue(`
			INSERT INTO event_markets (id, event_id, gamma_market_id, condition_id, market_slug, question,
				group_item_title, group_item_threshold, bucket_kind, lower_bound_celsius, upper_bound_celsius,
				yes_token_id, no_token_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			ON CONFLICT (event_id, gamma_market_id) DO UPDATE SET
				condition_id         = EXCLUDED.condition_id,
				market_slug          = EXCLUDED.market_slug,
				question             = EXCLUDED.question,
				group_item_title     = EXCLUDED.group_item_title,
				group_item_threshold = EXCLUDED.group_item_threshold,
				bucket_kind          = EXCLUDED.bucket_kind,
				lower_bound_celsius  = EXCLUDED.lower_bound_celsius,
				upper_bound_celsius  = EXCLUDED.upper_bound_celsius,
				yes_token_id         = EXCLUDED.yes_token_id,
				no_token_id          = EXCLUDED.no_token_id
			RETURNING id
		`, id, m.EventID, m.GammaMarketID, m.ConditionID, m.Slug, m.Question,
			m.GroupItemTitle, m.GroupItemThreshold, m.Outcome.Kind.String(), m.LowerBoundC(), m.UpperBoundC(),
			m.YesTokenID, m.NoTokenID)
	}

	results := p.db.SendBatch(ctx, batch)
	defer results.Close()

	out := make([]model.Market, len(markets))
	copy(out, markets)
	for i := range out {
		if err := results.QueryRow().Scan(&out[i].ID); err != nil {
			return nil, fmt.Errorf("upsert market %s: %w", out[i].GammaMarketID, err)
		}
	}
	return out, nil
}

// InsertSnapshots appends snapshots with ON CONFLICT DO NOTHING.
func (p *Postgres) InsertSnapshots(ctx context.Context, snapshots []model.Snapshot) (int, error) {
	batch := &pgx.Batch{}
	for _, s := range snapshots {
		batch.Queue(`
			INSERT INTO market_snapshots (market_id, event_id, captured_at,
				yes_best_bid, yes_best_ask, no_best_bid, no_best_ask,
				yes_bid_size, yes_ask_size, no_bid_size, no_ask_size,
				accepting_orders, volume24h, source)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			ON CONFLICT (market_id, captured_at) DO NOTHING
		`, s.MarketID, s.EventID, s.CapturedAt,
			s.YesBestBid, s.YesBestAsk, s.NoBestBid, s.NoBestAsk,
			s.YesBidSize, s.YesAskSize, s.NoBidSize, s.NoAskSize,
			s.AcceptingOrders, s.Volume24h, s.Source)
	}
	return p.execBatch(ctx, batch, len(snapshots))
}

// UpsertObservations stores reports, refreshing any already stored.
func (p *Postgres) UpsertObservations(ctx context.Context, observations []model.WeatherObservation) (int, error) {
	batch := &pgx.Batch{}
	for _, o := range observations {
		batch.Queue(`
			INSERT INTO weather_metar_obs (station, source, observed_at, temp_c, dewpoint_c,
				wind_dir_deg, wind_speed_kt, wind_gust_kt, pressure_hpa,
				visibility, flight_category, raw_text)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (station, source, observed_at) DO UPDATE SET
				temp_c          = EXCLUDED.temp_c,
				dewpoint_c      = EXCLUDED.dewpoint_c,
				wind_dir_deg    = EXCLUDED.wind_dir_deg,
				wind_speed_kt   = EXCLUDED.wind_speed_kt,
				wind_gust_kt    = EXCLUDED.wind_gust_kt,
				pressure_hpa    = EXCLUDED.pressure_hpa,
				visibility      = EXCLUDED.visibility,
				flight_category = EXCLUDED.flight_category,
				raw_text        = EXCLUDED.raw_text
		`, o.Station, o.Source, o.ObservedAt, o.TempC, o.DewpointC,
			o.WindDirDeg, o.WindSpeedKt, o.WindGustKt, o.PressureHPa,
			o.Visibility, o.FlightCategory, o.RawText)
	}
	return p.execBatch(ctx, batch, len(observations))
}

// InsertDayHighChange records a new high. A repeat of the same high is ignored.
func (p *Postgres) InsertDayHighChange(ctx context.Context, c model.DayHighChange) error {
	_, err := p.db.Exec(ctx, `
		INSERT INTO weather_day_high_changes (date_kst, observed_at, previous_high_celsius, high_celsius, source)
		VALUES ($1::date, $2, $3, $4, $5)
		ON CONFLICT (date_kst, source, high_celsius) DO NOTHING
	`, c.DateKST.String(), c.ObservedAt, c.PreviousHighC, c.HighC, c.Source)
	if err != nil {
		return fmt.Errorf("insert day high change: %w", err)
	}
	return nil
}

// UpsertWUObservation stores a history page reading, refreshing the summary
// of one already stored.
func (p *Postgres) UpsertWUObservation(ctx context.Context, o model.WUObservation) error {
	_, err := p.db.Exec(ctx, `
		INSERT INTO weather_wu_obs (station, observed_at, temp_c, day_high_c, day_low_c, source_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (station, observed_at) DO UPDATE SET
			temp_c     = EXCLUDED.temp_c,
			day_high_c = EXCLUDED.day_high_c,
			day_low_c  = EXCLUDED.day_low_c,
			source_url = EXCLUDED.source_url,
			fetched_at = now()
	`, o.Station, o.ObservedAt, o.TempC, o.DayHighC, o.DayLowC, o.SourceURL)
	if err != nil {
		return fmt.Errorf("upsert wunderground observation: %w", err)
	}
	return nil
}

// InsertForecast stores a run and its hourly points in one transaction.
func (p *Postgres) InsertForecast(ctx context.Context, run model.ForecastRun, points []model.ForecastPoint) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	return pgx.BeginFunc(ctx, p.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO forecast_runs (id, model, station, run_at, source)
			VALUES ($1, $2, $3, $4, $5)
		`, run.ID, run.Model, run.Station, run.RunAt, run.Source); err != nil {
			return fmt.Errorf("insert forecast run: %w", err)
		}

		batch := &pgx.Batch{}
		for _, pt := range points {
			batch.Queue(`
				INSERT INTO forecast_hourly (run_id, valid_at, temp_c)
				VALUES ($1, $2, $3)
				ON CONFLICT (run_id, valid_at) DO NOTHING
			`, run.ID, pt.ValidAt, pt.TempC)
		}
		results := tx.SendBatch(ctx, batch)
		defer results.Close()
		for range points {
			if _, err := results.Exec(); err != nil {
				return fmt.Errorf("insert forecast point: %w", err)
			}
		}
		return nil
	})
}

// execBatch runs n queued statements and returns how many rows they touched.
func (p *Postgres) execBatch(ctx context.Context, batch *pgx.Batch, n int) (int, error) {
	if n == 0 {
		return 0, nil
	}
	start := time.Now()

	results := p.db.SendBatch(ctx, batch)
	defer results.Close()

	written := 0
	for i := 0; i < n; i++ {
		ct, err := results.Exec()
		if err != nil {
			p.logger.Error("batch insert failed", "error", err, "count", n)
			return written, err
		}
		written += int(ct.RowsAffected())
	}

	p.logger.Debug("batch insert",
		"count", n,
		"written", written,
		"duration", time.Since(start),
	)
	return written, nil
}
