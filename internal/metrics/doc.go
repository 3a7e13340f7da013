// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - Poll outcomes per ingestion job
//   - Snapshot rows written to the store
//   - HTTP request latency per route and status
//   - Go runtime and process collectors
package metrics
