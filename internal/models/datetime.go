package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// localLayouts are the accepted forms of a timestamp without a UTC offset
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// LocalDateTime is a timestamp that may omit its UTC offset. Without one it
// is a wall-clock time whose zone is chosen when it is used.
type LocalDateTime struct {
	Time      time.Time
	HasOffset bool
}

// ParseLocalDateTime accepts RFC 3339 or an offset-less "YYYY-MM-DDTHH:MM[:SS]"
func ParseLocalDateTime(s string) (LocalDateTime, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return LocalDateTime{Time: t, HasOffset: true}, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return LocalDateTime{Time: t}, nil
		}
	}
	return LocalDateTime{}, fmt.Errorf("invalid datetime %q: expected RFC 3339 or YYYY-MM-DDTHH:MM:SS", s)
}

// In returns the instant. Offset-less values are read as wall-clock time in loc.
func (l LocalDateTime) In(loc *time.Location) time.Time {
	if l.HasOffset {
		return l.Time
	}
	t := l.Time
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}

// String formats the value the way it was given
func (l LocalDateTime) String() string {
	if l.HasOffset {
		return l.Time.Format(time.RFC3339Nano)
	}
	return l.Time.Format("2006-01-02T15:04:05.999999999")
}

// MarshalJSON keeps the offset, or its absence, so stored requests replay
// the same way
func (l LocalDateTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// UnmarshalJSON decodes a string accepted by ParseLocalDateTime
func (l *LocalDateTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseLocalDateTime(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
