package models

import (
	"strings"

	"cloud.google.com/go/civil"

	"github.com/noah-isme/workshop-availability-api/pkg/civiltime"
)

// AppointmentStatus mirrors the booking workflow's status column.
type AppointmentStatus string

const (
	AppointmentReserved  AppointmentStatus = "RESERVED"
	AppointmentConfirmed AppointmentStatus = "CONFIRMED"
	AppointmentCompleted AppointmentStatus = "COMPLETED"
	AppointmentCancelled AppointmentStatus = "CANCELLED"
)

// Occupying reports whether an appointment in this status blocks its time span.
func (s AppointmentStatus) Occupying() bool {
	switch AppointmentStatus(strings.ToUpper(strings.TrimSpace(string(s)))) {
	case AppointmentCancelled, AppointmentCompleted:
		return false
	default:
		return true
	}
}

// InternalAppointment is a booking recorded by this system.
type InternalAppointment struct {
	ID              string            `json:"id"`
	ProviderID      string            `json:"provider_id"`
	Date            civil.Date        `json:"date"`
	StartTime       civiltime.Clock   `json:"start_time"`
	DurationMinutes *int              `json:"duration_minutes,omitempty"`
	Status          AppointmentStatus `json:"status"`
}
