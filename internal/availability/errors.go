package availability

import "errors"

var (
	// ErrMalformedDue marks a due value that could not be parsed. It never
	// aborts a batch; the affected occurrence is treated as undated.
	ErrMalformedDue = errors.New("malformed due value")
	// ErrInvalidWorkWindowFormat indicates a workday bound that is not HH:MM
	ErrInvalidWorkWindowFormat = errors.New("invalid work window format")
	// ErrDegenerateWorkWindow indicates a workday end at or before its start
	ErrDegenerateWorkWindow = errors.New("work window end must be after start")
	// ErrInvalidDateRange indicates a date range whose end precedes its start
	ErrInvalidDateRange = errors.New("date_to must not be before date_from")
)
