// Package config loads the service configuration.
//
// The file is YAML with ${VAR} references expanded from the environment before
// decoding, so secrets such as the database password stay out of the file:
//
//	database:
//	  host: localhost
//	  password: ${SEOULHIGH_DB_PASSWORD}
//
// Zero values are replaced by the Default* constants, then Validate checks the
// result.
package config
