// Package model defines shared data types used across the Seoul daily-high
// trend service.
//
// All types mirror the tables in internal/database/migrations.
//
// Conventions:
//   - Prices: float64 probabilities on the [0,1] scale (not cents)
//   - Nullable columns: pointer fields, nil means absent
//   - Timestamps: time.Time, stored as timestamptz (UTC)
//   - Calendar days: kst.Date (Asia/Seoul, fixed UTC+9)
//   - IDs: uuid.UUID for rows owned by this service, string for Gamma/CLOB ids
package model
