// Package database manages the Postgres connection pool of the snapshot store
// and applies its schema.
//
// Tables:
//   - events, event_markets: one row per daily event and per outcome bucket
//   - market_snapshots: append-only top-of-book rows
//   - weather_metar_obs, weather_day_high_changes: station telemetry
//   - forecast_runs, forecast_hourly: model forecasts
//
// Migrations are embedded SQL files applied in name order and recorded in
// schema_migrations, so Migrate is safe to run on every start.
package database
