package report

import "errors"

// Validation errors surfaced for bad ad-hoc specs. The service layer maps
// them to 4xx responses; storage failures are wrapped and surfaced as-is.
var (
	ErrUnknownEntity    = errors.New("unknown report entity")
	ErrUnknownDimension = errors.New("unknown dimension")
	ErrUnknownMeasure   = errors.New("unknown measure")
	ErrUnknownColumn    = errors.New("unknown filter column")
	ErrInvalidFilter    = errors.New("invalid filter value")
	ErrMissingDimension = errors.New("report dimension is required")
	ErrMissingMeasure   = errors.New("report measure is required")
)
