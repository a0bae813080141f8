package models

import "cloud.google.com/go/civil"

// WindowReason explains why a date has no working window. Empty means the window exists.
type WindowReason string

const (
	WindowOpen            WindowReason = ""
	WindowNoScheduleEntry WindowReason = "no_schedule_entry"
	WindowDayClosed       WindowReason = "day_closed"
	WindowProviderAbsent  WindowReason = "provider_absent"
	WindowStaffAbsent     WindowReason = "staff_absent"
	WindowNoStaffWorking  WindowReason = "no_staff_working"
	WindowStaffNotWorking WindowReason = "staff_not_working"
)

// ExternalCalendarStatus reports how the external busy feed contributed to a result.
type ExternalCalendarStatus string

const (
	ExternalCalendarOK       ExternalCalendarStatus = "ok"
	ExternalCalendarSkipped  ExternalCalendarStatus = "skipped"
	ExternalCalendarDegraded ExternalCalendarStatus = "degraded"
)

// SlotAvailability is one row of the public response.
type SlotAvailability struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

// Availability is the computed slot grid for one provider and date.
type Availability struct {
	ProviderID       string                 `json:"provider_id"`
	Date             civil.Date             `json:"date"`
	DurationMinutes  int                    `json:"duration_minutes"`
	CalendarOwner    *ScheduleOwner         `json:"calendar_owner,omitempty"`
	ExternalCalendar ExternalCalendarStatus `json:"external_calendar"`
	WindowReason     WindowReason           `json:"window_reason,omitempty"`
	Slots            []SlotAvailability     `json:"slots"`
}
