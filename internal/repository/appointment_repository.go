package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/workshop-availability-api/internal/models"
	"github.com/noah-isme/workshop-availability-api/pkg/civiltime"
)

// AppointmentRepository reads direct bookings made through the booking workflow.
type AppointmentRepository struct {
	db *sqlx.DB
}

// NewAppointmentRepository constructs the repository.
func NewAppointmentRepository(db *sqlx.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

type appointmentRow struct {
	ID              string        `db:"id"`
	ProviderID      string        `db:"workshop_id"`
	Date            time.Time     `db:"date"`
	Time            string        `db:"time"`
	DurationMinutes sql.NullInt64 `db:"duration_minutes"`
	Status          string        `db:"status"`
}

// ListAppointments returns all bookings of the provider on date regardless of status.
func (r *AppointmentRepository) ListAppointments(ctx context.Context, providerID string, date civil.Date) ([]models.InternalAppointment, error) {
	const query = `SELECT id, workshop_id, date, time, duration_minutes, status FROM direct_bookings WHERE workshop_id = $1 AND date = $2 ORDER BY time ASC, id ASC`
	var rows []appointmentRow
	if err := r.db.SelectContext(ctx, &rows, query, providerID, date.String()); err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	result := make([]models.InternalAppointment, 0, len(rows))
	for _, row := range rows {
		start, err := civiltime.ParseClock(row.Time)
		if err != nil {
			return nil, fmt.Errorf("appointment %s: %w", row.ID, err)
		}
		appt := models.InternalAppointment{
			ID:         row.ID,
			ProviderID: row.ProviderID,
			Date:       civil.DateOf(row.Date),
			StartTime:  start,
			Status:     models.AppointmentStatus(row.Status),
		}
		if row.DurationMinutes.Valid {
			minutes := int(row.DurationMinutes.Int64)
			appt.DurationMinutes = &minutes
		}
		result = append(result, appt)
	}
	return result, nil
}
