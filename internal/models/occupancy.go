package models

import "time"

// OccupancySource tags where a blocked interval came from.
type OccupancySource string

const (
	SourceInternal OccupancySource = "INTERNAL"
	SourceExternal OccupancySource = "EXTERNAL"
)

// BusyInterval is an absolute busy span reported by an external calendar.
type BusyInterval struct {
	Start time.Time
	End   time.Time
}

// BlockedInterval is a half-open span [Start, End) during which nothing can be booked.
// StartLabel and EndLabel carry the local wall-clock rendering for logs only.
type BlockedInterval struct {
	Start      time.Time
	End        time.Time
	Source     OccupancySource
	Ref        string
	StartLabel string
	EndLabel   string
}

// Overlaps applies the half-open overlap test to [a1,a2) and [b1,b2).
func Overlaps(a1, a2, b1, b2 time.Time) bool {
	return a1.Before(b2) && a2.After(b1)
}
