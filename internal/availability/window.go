package availability

import (
	"fmt"
	"time"

	"github.com/benvon/slotfinder/internal/models"
)

const (
	// DefaultWorkdayStart is the default start of the daily search window
	DefaultWorkdayStart = "08:00"
	// DefaultWorkdayEnd is the default end of the daily search window
	DefaultWorkdayEnd = "23:00"
	// DefaultMinSlotMinutes is the default minimum free slot length
	DefaultMinSlotMinutes = 45
)

// Clock is a time of day with minute precision
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses "HH:MM" (a single-digit hour is accepted)
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return Clock{}, fmt.Errorf("%w: %q is not HH:MM", ErrInvalidWorkWindowFormat, s)
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (c Clock) minutes() int {
	return c.Hour*60 + c.Minute
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// WorkHours is the daily availability window shared by every day in a request
type WorkHours struct {
	Start Clock
	End   Clock
}

// NewWorkHours parses and validates a start/end pair. A window whose end is
// not after its start is rejected.
func NewWorkHours(start, end string) (WorkHours, error) {
	s, err := ParseClock(start)
	if err != nil {
		return WorkHours{}, fmt.Errorf("workday_start: %w", err)
	}
	e, err := ParseClock(end)
	if err != nil {
		return WorkHours{}, fmt.Errorf("workday_end: %w", err)
	}
	if e.minutes() <= s.minutes() {
		return WorkHours{}, fmt.Errorf("%w: %s-%s", ErrDegenerateWorkWindow, s, e)
	}
	return WorkHours{Start: s, End: e}, nil
}

// Window returns the concrete window for day d in loc
func (h WorkHours) Window(d models.Date, loc *time.Location) models.WorkWindow {
	return models.WorkWindow{
		Start: d.At(h.Start.Hour, h.Start.Minute, loc),
		End:   d.At(h.End.Hour, h.End.Minute, loc),
	}
}
