// Package service answers the trend explorer and dashboard queries.
//
// It joins store reads with the pure trend and dayhigh packages and shapes the
// results into the JSON views served over HTTP. Views use snake_case field
// names and prices on the [0,1] probability scale.
package service
