package models

import (
	"sort"
	"time"
)

// TimingKind says which variant of Timing is populated
type TimingKind int

const (
	TimingNone TimingKind = iota
	TimingInstant
	TimingDate
)

func (k TimingKind) String() string {
	switch k {
	case TimingInstant:
		return "instant"
	case TimingDate:
		return "date"
	default:
		return "none"
	}
}

// Timing is either a precise instant, a bare civil date, or nothing.
// Only the field matching Kind is meaningful.
type Timing struct {
	Kind    TimingKind
	Instant time.Time
	Date    Date
}

// InstantTiming returns a timing pinned to t
func InstantTiming(t time.Time) Timing {
	return Timing{Kind: TimingInstant, Instant: t}
}

// DateTiming returns a date-only timing
func DateTiming(d Date) Timing {
	return Timing{Kind: TimingDate, Date: d}
}

// NoTiming returns an undated timing
func NoTiming() Timing {
	return Timing{Kind: TimingNone}
}

// Representative returns the instant used for range filtering and ordering:
// the instant itself, or midnight of the date in loc. ok is false when undated.
func (t Timing) Representative(loc *time.Location) (time.Time, bool) {
	switch t.Kind {
	case TimingInstant:
		return t.Instant, true
	case TimingDate:
		return t.Date.Midnight(loc), true
	default:
		return time.Time{}, false
	}
}

// LabelSet is an unordered set of label names
type LabelSet map[string]struct{}

// NewLabelSet builds a set from names, dropping duplicates and empty names
func NewLabelSet(names ...string) LabelSet {
	s := make(LabelSet, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		s[n] = struct{}{}
	}
	return s
}

// Has reports membership
func (s LabelSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// HasAll reports whether every name is a member
func (s LabelSet) HasAll(names []string) bool {
	for _, n := range names {
		if !s.Has(n) {
			return false
		}
	}
	return true
}

// Sorted returns the labels in lexical order
func (s LabelSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// RawFields carries task fields the engine passes through untouched
type RawFields struct {
	Content     string
	Description string
	Priority    int
	IsCompleted bool
	URL         string
}

// Occurrence is the normalized view of one task
type Occurrence struct {
	ID              string
	Timing          Timing
	DurationMinutes *int
	ProjectID       string
	SectionID       string
	Labels          LabelSet
	Raw             RawFields
}
