package models

import (
	"cloud.google.com/go/civil"

	"github.com/noah-isme/workshop-availability-api/pkg/civiltime"
)

// AbsenceInterval is an inclusive range of calendar dates during which an owner does not work.
type AbsenceInterval struct {
	ID        string     `json:"id"`
	OwnerID   string     `json:"owner_id"`
	StartDate civil.Date `json:"start_date"`
	EndDate   civil.Date `json:"end_date"`
}

// Covers reports whether date falls inside the interval.
func (a AbsenceInterval) Covers(date civil.Date) bool {
	return civiltime.Within(date, a.StartDate, a.EndDate)
}
