package models

import (
	"strings"
	"time"
)

// CalendarMode selects where working hours and the external calendar of record come from.
type CalendarMode string

const (
	// CalendarModeProvider uses the provider's own opening hours and calendar.
	CalendarModeProvider CalendarMode = "PROVIDER_CALENDAR"
	// CalendarModeStaff uses a staff member's working hours and calendar.
	CalendarModeStaff CalendarMode = "STAFF_CALENDAR"
)

// ParseCalendarMode maps stored mode values onto CalendarMode.
// The booking application stores "workshop" and "employees"; empty means provider mode.
func ParseCalendarMode(raw string) (CalendarMode, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "workshop", "provider", "provider_calendar":
		return CalendarModeProvider, true
	case "employees", "employee", "staff", "staff_calendar":
		return CalendarModeStaff, true
	default:
		return "", false
	}
}

// CalendarCredentials identifies an external calendar and the OAuth tokens to read it.
type CalendarCredentials struct {
	CalendarID   string     `json:"calendar_id"`
	AccessToken  string     `json:"-"`
	RefreshToken string     `json:"-"`
	TokenExpiry  *time.Time `json:"-"`
}

// Configured reports whether the credentials are complete enough to query busy times.
func (c *CalendarCredentials) Configured() bool {
	return c != nil && c.CalendarID != "" && c.RefreshToken != ""
}

// Provider is a service location being scheduled against.
type Provider struct {
	ID       string               `json:"id"`
	Name     string               `json:"name"`
	Mode     CalendarMode         `json:"calendar_mode"`
	Calendar *CalendarCredentials `json:"calendar,omitempty"`
}

// StaffMember is an individual resource within a provider.
type StaffMember struct {
	ID         string               `json:"id"`
	ProviderID string               `json:"provider_id"`
	Name       string               `json:"name"`
	Calendar   *CalendarCredentials `json:"calendar,omitempty"`
}

// HasCalendar reports whether the staff member has a connected external calendar.
func (s StaffMember) HasCalendar() bool {
	return s.Calendar.Configured()
}

// OwnerKind distinguishes providers from staff members as schedule and calendar owners.
type OwnerKind string

const (
	OwnerProvider OwnerKind = "provider"
	OwnerStaff    OwnerKind = "staff"
)

// ScheduleOwner references the entity a weekly schedule belongs to.
type ScheduleOwner struct {
	Kind OwnerKind `json:"kind"`
	ID   string    `json:"id"`
}
