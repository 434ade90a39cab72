package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies provider failures.
type ErrorKind string

const (
	KindRateLimit ErrorKind = "RATE_LIMIT"
	KindNetwork   ErrorKind = "NETWORK_ERROR"
	KindAPI       ErrorKind = "API_ERROR"
	KindNoData    ErrorKind = "NO_DATA"
)

var (
	ErrRateLimit = errors.New("all api keys exhausted")
	ErrNetwork   = errors.New("network error")
	ErrAPI       = errors.New("provider api error")
	// ErrNoData is soft: callers map it to an empty result.
	ErrNoData = errors.New("no data")
)

// FetchError is a classified provider failure.
type FetchError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func NewFetchError(kind ErrorKind, op string, err error) *FetchError {
	return &FetchError{Kind: kind, Op: op, Err: err}
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is matches the sentinel for the error's kind.
func (e *FetchError) Is(target error) bool {
	switch target {
	case ErrRateLimit:
		return e.Kind == KindRateLimit
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrAPI:
		return e.Kind == KindAPI
	case ErrNoData:
		return e.Kind == KindNoData
	}
	return false
}

// KindOf returns the classification of err, defaulting to API_ERROR for
// unclassified failures.
func KindOf(err error) ErrorKind {
	var fe *FetchError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &fe):
		return fe.Kind
	case errors.Is(err, ErrRateLimit):
		return KindRateLimit
	case errors.Is(err, ErrNoData):
		return KindNoData
	case errors.Is(err, ErrNetwork):
		return KindNetwork
	}
	return KindAPI
}
