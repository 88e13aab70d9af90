package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrResolution is returned when no watched line could be fetched at all.
	ErrResolution = errors.New("no watched line could be resolved")
	// ErrAggregation wraps a resolution failure that happened during a query.
	ErrAggregation = errors.New("realtime aggregation failed")
	// ErrInvalidOrder marks a station order that is not a positive integer.
	ErrInvalidOrder = errors.New("invalid station order")
	// ErrLineNotFound is returned by lookups for a line that is not being reported.
	ErrLineNotFound = errors.New("line not found")
	// ErrTimetableUnsupported is returned when the provider has no timetable capability.
	ErrTimetableUnsupported = errors.New("timetable not supported by provider")
)

// Classifies why an upstream call failed.
type ProviderErrorKind int

const (
	KindNetwork ProviderErrorKind = iota + 1
	KindTimeout
	KindHTTPStatus
	KindMalformed
	KindBusiness
)

func (k ProviderErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindHTTPStatus:
		return "http_status"
	case KindMalformed:
		return "malformed"
	case KindBusiness:
		return "business"
	default:
		return "unknown"
	}
}

// ProviderError is the only error type returned across the provider boundary.
type ProviderError struct {
	Kind   ProviderErrorKind
	Op     string
	LineID string
	Err    error
}

func (e *ProviderError) Error() string {
	if e.LineID != "" {
		return fmt.Sprintf("%s: line_id=%s: %s: %v", e.Op, e.LineID, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IsProviderKind reports whether err is a ProviderError of the given kind.
func IsProviderKind(err error, kind ProviderErrorKind) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Kind == kind
}
