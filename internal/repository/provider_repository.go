package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/workshop-availability-api/internal/models"
)

// ProviderRepository reads workshops and their employees.
type ProviderRepository struct {
	db *sqlx.DB
}

// NewProviderRepository constructs the repository.
func NewProviderRepository(db *sqlx.DB) *ProviderRepository {
	return &ProviderRepository{db: db}
}

type calendarColumns struct {
	CalendarID   sql.NullString `db:"google_calendar_id"`
	AccessToken  sql.NullString `db:"google_access_token"`
	RefreshToken sql.NullString `db:"google_refresh_token"`
	TokenExpiry  sql.NullTime   `db:"google_token_expiry"`
}

func (c calendarColumns) credentials() *models.CalendarCredentials {
	if !c.CalendarID.Valid && !c.RefreshToken.Valid {
		return nil
	}
	creds := &models.CalendarCredentials{
		CalendarID:   c.CalendarID.String,
		AccessToken:  c.AccessToken.String,
		RefreshToken: c.RefreshToken.String,
	}
	if c.TokenExpiry.Valid {
		expiry := c.TokenExpiry.Time
		creds.TokenExpiry = &expiry
	}
	return creds
}

type providerRow struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	CalendarMode sql.NullString `db:"calendar_mode"`
	calendarColumns
}

type staffRow struct {
	ID         string `db:"id"`
	ProviderID string `db:"workshop_id"`
	Name       string `db:"name"`
	calendarColumns
}

// FindByID returns a provider by id.
func (r *ProviderRepository) FindByID(ctx context.Context, id string) (*models.Provider, error) {
	const query = `SELECT id, name, calendar_mode, google_calendar_id, google_access_token, google_refresh_token, google_token_expiry FROM workshops WHERE id = $1`
	var row providerRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	mode, ok := models.ParseCalendarMode(row.CalendarMode.String)
	if !ok {
		return nil, fmt.Errorf("provider %s: unknown calendar mode %q", id, row.CalendarMode.String)
	}
	return &models.Provider{
		ID:       row.ID,
		Name:     row.Name,
		Mode:     mode,
		Calendar: row.credentials(),
	}, nil
}

// ListStaff returns the provider's staff in a stable order.
func (r *ProviderRepository) ListStaff(ctx context.Context, providerID string) ([]models.StaffMember, error) {
	const query = `SELECT id, workshop_id, name, google_calendar_id, google_access_token, google_refresh_token, google_token_expiry FROM employees WHERE workshop_id = $1 ORDER BY created_at ASC, id ASC`
	var rows []staffRow
	if err := r.db.SelectContext(ctx, &rows, query, providerID); err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	staff := make([]models.StaffMember, 0, len(rows))
	for _, row := range rows {
		staff = append(staff, models.StaffMember{
			ID:         row.ID,
			ProviderID: row.ProviderID,
			Name:       row.Name,
			Calendar:   row.credentials(),
		})
	}
	return staff, nil
}
