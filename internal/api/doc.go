// Package api provides the HTTP client shared by the ingestion pollers.
//
// Requests are GETs returning JSON. Responses with status 429 or 5xx are
// retried with jittered exponential backoff; other 4xx responses fail at once
// as *APIError. An optional token-bucket limiter paces every attempt.
package api
