package service

import (
	"cloud.google.com/go/civil"

	"github.com/noah-isme/workshop-availability-api/internal/models"
)

// IsAbsent reports whether any interval covers date.
func IsAbsent(absences []models.AbsenceInterval, date civil.Date) bool {
	for _, absence := range absences {
		if absence.Covers(date) {
			return true
		}
	}
	return false
}

// FilterAbsentStaff returns the staff members not absent on date, preserving order.
// absences is keyed by staff id.
func FilterAbsentStaff(staff []models.StaffMember, absences map[string][]models.AbsenceInterval, date civil.Date) []models.StaffMember {
	present := make([]models.StaffMember, 0, len(staff))
	for _, member := range staff {
		if IsAbsent(absences[member.ID], date) {
			continue
		}
		present = append(present, member)
	}
	return present
}
