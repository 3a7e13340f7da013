// Package store persists and queries events, markets, order-book snapshots,
// weather observations, day-high changes and forecasts.
//
// Postgres is the production implementation. Memory is an in-process Store
// used by tests and by tools that run without a database.
//
// Range queries are half-open: from <= t < to. Results are sorted by time
// ascending unless noted otherwise.
package store
