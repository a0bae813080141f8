package repository

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/workshop-availability-api/internal/models"
)

func TestAppointmentRepositoryListAppointments(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewAppointmentRepository(db)

	day := civil.Date{Year: 2026, Month: time.June, Day: 15}
	stored := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "workshop_id", "date", "time", "duration_minutes", "status"}).
		AddRow("bk-1", "ws-1", stored, "10:00", 90, "CONFIRMED").
		AddRow("bk-2", "ws-1", stored, "14:30", nil, "cancelled")
	mock.ExpectQuery("FROM direct_bookings WHERE workshop_id = \\$1 AND date = \\$2").
		WithArgs("ws-1", "2026-06-15").
		WillReturnRows(rows)

	appts, err := repo.ListAppointments(context.Background(), "ws-1", day)
	require.NoError(t, err)
	require.Len(t, appts, 2)
	assert.Equal(t, "10:00", appts[0].StartTime.String())
	require.NotNil(t, appts[0].DurationMinutes)
	assert.Equal(t, 90, *appts[0].DurationMinutes)
	assert.Equal(t, day, appts[0].Date)
	assert.Nil(t, appts[1].DurationMinutes)
	assert.Equal(t, models.AppointmentStatus("cancelled"), appts[1].Status)
	assert.False(t, appts[1].Status.Occupying())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryMalformedTime(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewAppointmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "workshop_id", "date", "time", "duration_minutes", "status"}).
		AddRow("bk-1", "ws-1", time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC), "ten", 60, "CONFIRMED")
	mock.ExpectQuery("FROM direct_bookings").WillReturnRows(rows)

	_, err := repo.ListAppointments(context.Background(), "ws-1", civil.Date{Year: 2026, Month: time.June, Day: 15})
	assert.ErrorContains(t, err, "bk-1")
}
