package models

import (
	"fmt"
	"time"

	"github.com/noah-isme/workshop-availability-api/pkg/civiltime"
)

// BreakWindow is a pause inside a working day.
type BreakWindow struct {
	Start civiltime.Clock `json:"start"`
	End   civiltime.Clock `json:"end"`
}

// DaySchedule is one weekday entry of a weekly schedule.
// Working and Closed keep the raw legacy flags; either one may be unset.
type DaySchedule struct {
	Working *bool           `json:"working,omitempty"`
	Closed  *bool           `json:"closed,omitempty"`
	Open    civiltime.Clock `json:"open"`
	Close   civiltime.Clock `json:"close"`
	Break   *BreakWindow    `json:"break,omitempty"`
}

// IsOpen accepts both legacy representations of an open day: working == true or closed == false.
func (d DaySchedule) IsOpen() bool {
	if d.Working != nil && *d.Working {
		return true
	}
	return d.Closed != nil && !*d.Closed
}

// Validate checks the ordering invariants of an open day.
func (d DaySchedule) Validate() error {
	if !d.Open.Valid() || !d.Close.Valid() {
		return fmt.Errorf("times out of range")
	}
	if d.Open >= d.Close {
		return fmt.Errorf("open %s must be before close %s", d.Open, d.Close)
	}
	if d.Break != nil {
		if d.Break.Start < d.Open || d.Break.Start >= d.Break.End || d.Break.End > d.Close {
			return fmt.Errorf("break %s-%s must lie inside %s-%s", d.Break.Start, d.Break.End, d.Open, d.Close)
		}
	}
	return nil
}

// WeeklySchedule maps weekdays to their schedule entry. Missing weekdays have no entry.
type WeeklySchedule map[time.Weekday]DaySchedule

// Day returns the entry for weekday if one exists.
func (w WeeklySchedule) Day(weekday time.Weekday) (DaySchedule, bool) {
	if w == nil {
		return DaySchedule{}, false
	}
	day, ok := w[weekday]
	return day, ok
}
