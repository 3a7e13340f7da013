// Package server exposes the service over HTTP with gin.
//
// Routes:
//   - GET /api/trends/dates, /api/trends/markets, /api/trends
//   - GET /api/new-highs, /api/event-study
//   - GET /api/dashboard and the /ws/dashboard websocket feed
//   - GET /healthz, /version and the prometheus metrics path
//
// Errors are JSON {"error": "..."}: 400 for bad parameters, 404 for a missing
// event or market, 503 when no store is configured.
package server
