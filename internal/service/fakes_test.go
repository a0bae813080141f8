package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/workshop-availability-api/internal/models"
	"github.com/noah-isme/workshop-availability-api/pkg/civiltime"
	appErrors "github.com/noah-isme/workshop-availability-api/pkg/errors"
)

var (
	plainMonday   = civil.Date{Year: 2026, Month: time.June, Day: 15}
	springForward = civil.Date{Year: 2026, Month: time.March, Day: 29}
	fallBack      = civil.Date{Year: 2026, Month: time.October, Day: 25}
)

func berlin(t *testing.T) *civiltime.Normalizer {
	t.Helper()
	n, err := civiltime.NewNormalizer("Europe/Berlin")
	require.NoError(t, err)
	return n
}

func boolPtr(v bool) *bool { return &v }

func intPtr(v int) *int { return &v }

func openDay(open, close string) models.DaySchedule {
	return models.DaySchedule{
		Working: boolPtr(true),
		Open:    civiltime.MustParseClock(open),
		Close:   civiltime.MustParseClock(close),
	}
}

func withBreak(day models.DaySchedule, start, end string) models.DaySchedule {
	day.Break = &models.BreakWindow{Start: civiltime.MustParseClock(start), End: civiltime.MustParseClock(end)}
	return day
}

func everyDay(day models.DaySchedule) models.WeeklySchedule {
	week := models.WeeklySchedule{}
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		week[wd] = day
	}
	return week
}

func creds(calendarID string) *models.CalendarCredentials {
	return &models.CalendarCredentials{CalendarID: calendarID, AccessToken: "access", RefreshToken: "refresh"}
}

type providerStoreStub struct {
	providers map[string]*models.Provider
	staff     map[string][]models.StaffMember
	err       error
}

func (s *providerStoreStub) FindByID(ctx context.Context, id string) (*models.Provider, error) {
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.providers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (s *providerStoreStub) ListStaff(ctx context.Context, providerID string) ([]models.StaffMember, error) {
	if s.err != nil {
		return nil, s.err
	}
	return append([]models.StaffMember(nil), s.staff[providerID]...), nil
}

type scheduleStoreStub struct {
	schedules map[models.ScheduleOwner]models.WeeklySchedule
	err       error
}

func (s *scheduleStoreStub) GetWeeklySchedule(ctx context.Context, owner models.ScheduleOwner) (models.WeeklySchedule, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.schedules[owner], nil
}

type absenceStoreStub struct {
	staff    map[string][]models.AbsenceInterval
	provider map[string][]models.AbsenceInterval
	err      error
}

func (s *absenceStoreStub) GetAbsences(ctx context.Context, staffID string) ([]models.AbsenceInterval, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.staff[staffID], nil
}

func (s *absenceStoreStub) GetProviderAbsences(ctx context.Context, providerID string) ([]models.AbsenceInterval, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.provider[providerID], nil
}

type appointmentStoreStub struct {
	appointments []models.InternalAppointment
	err          error
}

func (s *appointmentStoreStub) ListAppointments(ctx context.Context, providerID string, date civil.Date) ([]models.InternalAppointment, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.appointments, nil
}

// gatewayStub blocks until ctx is done when block is set.
type gatewayStub struct {
	mu    sync.Mutex
	busy  []models.BusyInterval
	err   error
	block bool
	calls int
	seen  models.CalendarCredentials
	start time.Time
	end   time.Time
}

func (g *gatewayStub) GetBusyIntervals(ctx context.Context, c models.CalendarCredentials, start, end time.Time) ([]models.BusyInterval, error) {
	g.mu.Lock()
	g.calls++
	g.seen = c
	g.start, g.end = start, end
	g.mu.Unlock()
	if g.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if g.err != nil {
		return nil, g.err
	}
	return g.busy, nil
}

func (g *gatewayStub) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type cacheRepoStub struct {
	mu      sync.Mutex
	entries map[string][]byte
	ttls    map[string]time.Duration
}

func newCacheRepoStub() *cacheRepoStub {
	return &cacheRepoStub{entries: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (c *cacheRepoStub) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *cacheRepoStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = raw
	c.ttls[key] = ttl
	return nil
}

func (c *cacheRepoStub) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
