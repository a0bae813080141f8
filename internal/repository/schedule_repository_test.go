package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/workshop-availability-api/internal/models"
)

func TestScheduleRepositoryProviderSchedule(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewScheduleRepository(db, nil)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT opening_hours FROM workshops WHERE id = $1")).
		WithArgs("ws-1").
		WillReturnRows(sqlmock.NewRows([]string{"opening_hours"}).AddRow(`{"monday":"08:00-17:00"}`))

	schedule, err := repo.GetWeeklySchedule(context.Background(), models.ScheduleOwner{Kind: models.OwnerProvider, ID: "ws-1"})
	require.NoError(t, err)
	_, ok := schedule.Day(time.Monday)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryStaffScheduleNull(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewScheduleRepository(db, nil)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT working_hours FROM employees WHERE id = $1")).
		WithArgs("emp-1").
		WillReturnRows(sqlmock.NewRows([]string{"working_hours"}).AddRow(nil))

	schedule, err := repo.GetWeeklySchedule(context.Background(), models.ScheduleOwner{Kind: models.OwnerStaff, ID: "emp-1"})
	require.NoError(t, err)
	assert.Empty(t, schedule)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryUnknownOwnerKind(t *testing.T) {
	db, _, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewScheduleRepository(db, nil)

	_, err := repo.GetWeeklySchedule(context.Background(), models.ScheduleOwner{Kind: "room", ID: "x"})
	assert.Error(t, err)
}
