package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNoStore is returned by history queries when no database is configured.
	ErrNoStore = errors.New("store not configured")

	// ErrEventNotFound is returned when no event exists for the requested date.
	ErrEventNotFound = errors.New("no event for date")

	// ErrMarketNotFound is returned when the requested or default market does
	// not exist.
	ErrMarketNotFound = errors.New("market not found")
)

// ParamError reports an invalid query parameter.
type ParamError struct {
	Param string
	Err   error
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Param, e.Err)
}

func (e *ParamError) Unwrap() error { return e.Err }

func paramErr(param string, err error) error {
	return &ParamError{Param: param, Err: err}
}
