// Package geo acquires the device position once per activation and reports
// it as a located, errored or locating state.
package geo

import (
	"context"
	"fmt"
	"time"
)

// Position is one location fix.
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
}

// Options configures a single position request.
type Options struct {
	HighAccuracy bool          `json:"enableHighAccuracy"`
	Timeout      time.Duration `json:"-"`
	MaximumAge   time.Duration `json:"-"`
}

// DefaultOptions: high accuracy, 5s timeout, no cached fixes.
func DefaultOptions() Options {
	return Options{
		HighAccuracy: true,
		Timeout:      5 * time.Second,
		MaximumAge:   0,
	}
}

// Overrides is a partial Options. Nil fields keep the default.
type Overrides struct {
	HighAccuracy *bool
	Timeout      *time.Duration
	MaximumAge   *time.Duration
}

// Merge returns o with every non-nil field of ov applied.
func (o Options) Merge(ov *Overrides) Options {
	if ov == nil {
		return o
	}
	if ov.HighAccuracy != nil {
		o.HighAccuracy = *ov.HighAccuracy
	}
	if ov.Timeout != nil {
		o.Timeout = *ov.Timeout
	}
	if ov.MaximumAge != nil {
		o.MaximumAge = *ov.MaximumAge
	}
	return o
}

// Code is a position failure reason, numbered like the browser API.
type Code int

const (
	CodePermissionDenied    Code = 1
	CodePositionUnavailable Code = 2
	CodeTimeout             Code = 3
)

func (c Code) String() string {
	switch c {
	case CodePermissionDenied:
		return "permission denied"
	case CodePositionUnavailable:
		return "position unavailable"
	case CodeTimeout:
		return "timeout"
	default:
		return fmt.Sprintf("code %d", int(c))
	}
}

// PositionError is a failed position request.
type PositionError struct {
	Code    Code
	Message string
}

func (e *PositionError) Error() string {
	if e.Message == "" {
		return "position error: " + e.Code.String()
	}
	return fmt.Sprintf("position error: %s: %s", e.Code, e.Message)
}

// Source is the device location capability.
type Source interface {
	// Available reports whether the device can provide a position at all.
	Available() bool
	// CurrentPosition requests a single fix.
	CurrentPosition(ctx context.Context, opts Options) (Position, error)
}
