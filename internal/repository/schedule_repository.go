package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/workshop-availability-api/internal/models"
)

// ScheduleRepository loads weekly opening hours of providers and working hours of staff.
type ScheduleRepository struct {
	db     *sqlx.DB
	parser *ScheduleParser
}

// NewScheduleRepository constructs the repository.
func NewScheduleRepository(db *sqlx.DB, parser *ScheduleParser) *ScheduleRepository {
	if parser == nil {
		parser = NewScheduleParser(nil, nil)
	}
	return &ScheduleRepository{db: db, parser: parser}
}

// GetWeeklySchedule returns the parsed weekly schedule of owner.
func (r *ScheduleRepository) GetWeeklySchedule(ctx context.Context, owner models.ScheduleOwner) (models.WeeklySchedule, error) {
	var query string
	switch owner.Kind {
	case models.OwnerProvider:
		query = `SELECT opening_hours FROM workshops WHERE id = $1`
	case models.OwnerStaff:
		query = `SELECT working_hours FROM employees WHERE id = $1`
	default:
		return nil, fmt.Errorf("unknown schedule owner kind %q", owner.Kind)
	}

	var raw sql.NullString
	if err := r.db.GetContext(ctx, &raw, query, owner.ID); err != nil {
		return nil, err
	}
	if !raw.Valid {
		return models.WeeklySchedule{}, nil
	}
	return r.parser.Parse(owner, types.JSONText(raw.String))
}
