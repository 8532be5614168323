package schedule

import "errors"

var (
	// ErrTaskStoreUnavailable wraps any failure of the task store
	ErrTaskStoreUnavailable = errors.New("task store unavailable")
	// ErrUnknownProject is returned when a project name is not in the directory
	ErrUnknownProject = errors.New("unknown project")
	// ErrInvalidTimezone is returned for a zone name time.LoadLocation rejects
	ErrInvalidTimezone = errors.New("invalid timezone")
	// ErrInvalidRequest covers other malformed request fields
	ErrInvalidRequest = errors.New("invalid request")
)
