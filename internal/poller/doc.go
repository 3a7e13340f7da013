// Package poller runs the ingestion jobs.
//
// A Poller drives one Job on a ticker, running it once immediately on Start.
// Jobs:
//   - market: today's Polymarket event, its markets and top-of-book snapshots
//   - weather: METAR observations and day-high changes
//   - forecast: hourly model forecasts
//
// Every run is recorded as a success or error in the state cache health and
// in the poll counters.
package poller
