package repository

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/workshop-availability-api/internal/models"
)

// AbsenceRepository reads staff and provider vacations.
type AbsenceRepository struct {
	db *sqlx.DB
}

// NewAbsenceRepository constructs the repository.
func NewAbsenceRepository(db *sqlx.DB) *AbsenceRepository {
	return &AbsenceRepository{db: db}
}

type absenceRow struct {
	ID        string    `db:"id"`
	OwnerID   string    `db:"owner_id"`
	StartDate time.Time `db:"start_date"`
	EndDate   time.Time `db:"end_date"`
}

// GetAbsences returns every absence interval of a staff member.
func (r *AbsenceRepository) GetAbsences(ctx context.Context, staffID string) ([]models.AbsenceInterval, error) {
	const query = `SELECT id, employee_id AS owner_id, start_date, end_date FROM employee_vacations WHERE employee_id = $1 ORDER BY start_date ASC`
	var rows []absenceRow
	if err := r.db.SelectContext(ctx, &rows, query, staffID); err != nil {
		return nil, fmt.Errorf("list staff absences: %w", err)
	}
	return toAbsences(rows)
}

// GetProviderAbsences returns every provider-wide closure interval.
func (r *AbsenceRepository) GetProviderAbsences(ctx context.Context, providerID string) ([]models.AbsenceInterval, error) {
	const query = `SELECT id, workshop_id AS owner_id, start_date, end_date FROM workshop_vacations WHERE workshop_id = $1 ORDER BY start_date ASC`
	var rows []absenceRow
	if err := r.db.SelectContext(ctx, &rows, query, providerID); err != nil {
		return nil, fmt.Errorf("list provider absences: %w", err)
	}
	return toAbsences(rows)
}

// DATE columns arrive as midnight UTC; only the calendar date is kept.
func toAbsences(rows []absenceRow) ([]models.AbsenceInterval, error) {
	result := make([]models.AbsenceInterval, 0, len(rows))
	for _, row := range rows {
		absence := models.AbsenceInterval{
			ID:        row.ID,
			OwnerID:   row.OwnerID,
			StartDate: civil.DateOf(row.StartDate),
			EndDate:   civil.DateOf(row.EndDate),
		}
		if absence.EndDate.Before(absence.StartDate) {
			return nil, fmt.Errorf("absence %s ends %s before it starts %s", row.ID, absence.EndDate, absence.StartDate)
		}
		result = append(result, absence)
	}
	return result, nil
}
