package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/workshop-availability-api/internal/models"
	"github.com/noah-isme/workshop-availability-api/pkg/civiltime"
	appErrors "github.com/noah-isme/workshop-availability-api/pkg/errors"
)

func TestOccupancyAggregatorInternalIntervals(t *testing.T) {
	n := berlin(t)
	appts := &appointmentStoreStub{appointments: []models.InternalAppointment{
		{ID: "a", StartTime: civiltime.MustParseClock("10:00"), DurationMinutes: intPtr(60), Status: models.AppointmentConfirmed},
		{ID: "b", StartTime: civiltime.MustParseClock("13:00"), Status: "reserved"},
		{ID: "c", StartTime: civiltime.MustParseClock("14:00"), DurationMinutes: intPtr(30), Status: "Cancelled"},
		{ID: "d", StartTime: civiltime.MustParseClock("15:00"), DurationMinutes: intPtr(30), Status: models.AppointmentCompleted},
		{ID: "e", StartTime: civiltime.MustParseClock("16:00"), DurationMinutes: intPtr(0), Status: models.AppointmentReserved},
	}}
	agg := NewOccupancyAggregator(appts, nil, n, 0, 0, nil, nil)

	occ, err := agg.Aggregate(context.Background(), OccupancyRequest{ProviderID: "ws-1", Date: plainMonday})
	require.NoError(t, err)
	assert.Equal(t, models.ExternalCalendarSkipped, occ.External)
	require.Len(t, occ.Blocked, 3)

	assert.Equal(t, "a", occ.Blocked[0].Ref)
	assert.True(t, occ.Blocked[0].Start.Equal(time.Date(2026, 6, 15, 8, 0, 0, 0, time.UTC)))
	assert.Equal(t, time.Hour, occ.Blocked[0].End.Sub(occ.Blocked[0].Start))
	assert.Equal(t, models.SourceInternal, occ.Blocked[0].Source)

	assert.Equal(t, "b", occ.Blocked[1].Ref)
	assert.Equal(t, DefaultAppointmentDuration, occ.Blocked[1].End.Sub(occ.Blocked[1].Start))
	assert.Equal(t, "14:00", occ.Blocked[1].EndLabel)

	assert.Equal(t, "e", occ.Blocked[2].Ref)
	assert.Equal(t, DefaultAppointmentDuration, occ.Blocked[2].End.Sub(occ.Blocked[2].Start))
}

func TestOccupancyAggregatorMergesExternal(t *testing.T) {
	n := berlin(t)
	gw := &gatewayStub{busy: []models.BusyInterval{{
		Start: time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 6, 15, 13, 20, 0, 0, time.UTC),
	}}}
	appts := &appointmentStoreStub{appointments: []models.InternalAppointment{
		{ID: "a", StartTime: civiltime.MustParseClock("10:00"), DurationMinutes: intPtr(60), Status: models.AppointmentConfirmed},
	}}
	agg := NewOccupancyAggregator(appts, gw, n, time.Hour, time.Second, NewMetricsService(), nil)

	occ, err := agg.Aggregate(context.Background(), OccupancyRequest{
		ProviderID:    "ws-1",
		Date:          plainMonday,
		CalendarOwner: &models.ScheduleOwner{Kind: models.OwnerProvider, ID: "ws-1"},
		Calendar:      creds("ws-cal"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.ExternalCalendarOK, occ.External)
	require.Len(t, occ.Blocked, 2)
	assert.Equal(t, models.SourceInternal, occ.Blocked[0].Source)
	assert.Equal(t, models.SourceExternal, occ.Blocked[1].Source)
	assert.Equal(t, "14:00", occ.Blocked[1].StartLabel)
	assert.Equal(t, "15:20", occ.Blocked[1].EndLabel)

	dayStart, dayEnd := n.DayRange(plainMonday)
	assert.True(t, gw.start.Equal(dayStart))
	assert.True(t, gw.end.Equal(dayEnd))
	assert.Equal(t, "ws-cal", gw.seen.CalendarID)
}

func TestOccupancyAggregatorSkipsIncompleteCredentials(t *testing.T) {
	gw := &gatewayStub{}
	agg := NewOccupancyAggregator(&appointmentStoreStub{}, gw, berlin(t), 0, 0, nil, nil)

	occ, err := agg.Aggregate(context.Background(), OccupancyRequest{
		ProviderID: "ws-1",
		Date:       plainMonday,
		Calendar:   &models.CalendarCredentials{CalendarID: "cal-without-token"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.ExternalCalendarSkipped, occ.External)
	assert.Zero(t, gw.callCount())
}

func TestOccupancyAggregatorDegradesOnGatewayFailure(t *testing.T) {
	cases := []struct {
		name  string
		gw    *gatewayStub
		cause string
	}{
		{"auth", &gatewayStub{err: fmt.Errorf("%w: invalid_grant", appErrors.ErrCalendarAuthExpired)}, CauseAuthExpired},
		{"rate", &gatewayStub{err: fmt.Errorf("%w: 429", appErrors.ErrCalendarRateLimited)}, CauseRateLimited},
		{"network", &gatewayStub{err: fmt.Errorf("%w: connection reset", appErrors.ErrCalendarUnavailable)}, CauseUnavailable},
		{"timeout", &gatewayStub{block: true}, CauseTimeout},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			core, logs := observer.New(zap.InfoLevel)
			appts := &appointmentStoreStub{appointments: []models.InternalAppointment{
				{ID: "a", StartTime: civiltime.MustParseClock("10:00"), Status: models.AppointmentConfirmed},
			}}
			agg := NewOccupancyAggregator(appts, tc.gw, berlin(t), 0, 20*time.Millisecond, NewMetricsService(), zap.New(core))

			occ, err := agg.Aggregate(context.Background(), OccupancyRequest{ProviderID: "ws-1", Date: plainMonday, Calendar: creds("cal")})
			require.NoError(t, err)
			assert.Equal(t, models.ExternalCalendarDegraded, occ.External)
			assert.Equal(t, tc.cause, occ.ExternalCause)
			require.Len(t, occ.Blocked, 1)
			assert.Equal(t, models.SourceInternal, occ.Blocked[0].Source)

			entries := logs.FilterMessage("external_calendar_degraded").All()
			require.Len(t, entries, 1)
			assert.Equal(t, tc.cause, entries[0].ContextMap()["cause"])
		})
	}
}

func TestOccupancyAggregatorInternalFailureIsFatal(t *testing.T) {
	gw := &gatewayStub{block: true}
	agg := NewOccupancyAggregator(&appointmentStoreStub{err: errors.New("db down")}, gw, berlin(t), 0, time.Minute, nil, nil)

	done := make(chan struct{})
	var err error
	go func() {
		_, err = agg.Aggregate(context.Background(), OccupancyRequest{ProviderID: "ws-1", Date: plainMonday, Calendar: creds("cal")})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("internal failure did not cancel the external lookup")
	}
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrUpstreamStore.Code))
}
