package models

import (
	"encoding/json"
	"time"
)

// BusyInterval is a half-open occupied range [Start, End)
type BusyInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// WorkWindow is the part of one day eligible for free-slot search
type WorkWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// IsDegenerate reports whether the window holds no time at all
func (w WorkWindow) IsDegenerate() bool {
	return !w.End.After(w.Start)
}

// FreeSlot is an unoccupied range inside a work window
type FreeSlot struct {
	Start time.Time
	End   time.Time
}

// Duration returns the slot length
func (s FreeSlot) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Minutes returns the slot length in whole minutes
func (s FreeSlot) Minutes() int {
	return int(s.Duration() / time.Minute)
}

// MarshalJSON adds duration_minutes to the encoded slot
func (s FreeSlot) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Start           time.Time `json:"start"`
		End             time.Time `json:"end"`
		DurationMinutes int       `json:"duration_minutes"`
	}{
		Start:           s.Start,
		End:             s.End,
		DurationMinutes: s.Minutes(),
	})
}
