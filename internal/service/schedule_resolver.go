package service

import (
	"context"
	"database/sql"
	"errors"

	"cloud.google.com/go/civil"
	"go.uber.org/zap"

	"github.com/noah-isme/workshop-availability-api/internal/models"
	"github.com/noah-isme/workshop-availability-api/pkg/civiltime"
	appErrors "github.com/noah-isme/workshop-availability-api/pkg/errors"
)

type providerStore interface {
	FindByID(ctx context.Context, id string) (*models.Provider, error)
	ListStaff(ctx context.Context, providerID string) ([]models.StaffMember, error)
}

type scheduleStore interface {
	GetWeeklySchedule(ctx context.Context, owner models.ScheduleOwner) (models.WeeklySchedule, error)
}

type absenceStore interface {
	GetAbsences(ctx context.Context, staffID string) ([]models.AbsenceInterval, error)
	GetProviderAbsences(ctx context.Context, providerID string) ([]models.AbsenceInterval, error)
}

// ResolvedSchedule is the working window of a date and the calendar of record that goes with it.
type ResolvedSchedule struct {
	Provider      *models.Provider
	Day           *models.DaySchedule
	Reason        models.WindowReason
	CalendarOwner *models.ScheduleOwner
	Calendar      *models.CalendarCredentials
}

// HasWindow reports whether slots should be generated.
func (r *ResolvedSchedule) HasWindow() bool {
	return r != nil && r.Day != nil
}

// ScheduleResolver picks the working window for a provider and date.
type ScheduleResolver struct {
	providers providerStore
	schedules scheduleStore
	absences  absenceStore
	logger    *zap.Logger
}

// NewScheduleResolver constructs the resolver.
func NewScheduleResolver(providers providerStore, schedules scheduleStore, absences absenceStore, logger *zap.Logger) *ScheduleResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleResolver{providers: providers, schedules: schedules, absences: absences, logger: logger}
}

// Resolve returns the working window for date. staffID is optional and only honoured in staff mode.
func (r *ScheduleResolver) Resolve(ctx context.Context, providerID string, date civil.Date, staffID string) (*ResolvedSchedule, error) {
	provider, err := r.providers.FindByID(ctx, providerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "provider not found")
		}
		return nil, upstreamError(err, "failed to load provider")
	}
	result := &ResolvedSchedule{Provider: provider}
	logger := r.logger.With(
		zap.String("provider_id", provider.ID),
		zap.String("mode", string(provider.Mode)),
		zap.String("date", date.String()),
	)

	providerAbsences, err := r.absences.GetProviderAbsences(ctx, provider.ID)
	if err != nil {
		return nil, upstreamError(err, "failed to load provider absences")
	}
	if IsAbsent(providerAbsences, date) {
		return r.absent(logger, result, models.WindowProviderAbsent), nil
	}

	if provider.Mode == models.CalendarModeStaff {
		return r.resolveStaff(ctx, logger, result, date, staffID)
	}
	if staffID != "" {
		logger.Info("staff_id_ignored", zap.String("staff_id", staffID))
	}
	return r.resolveProvider(ctx, logger, result, date)
}

func (r *ScheduleResolver) resolveProvider(ctx context.Context, logger *zap.Logger, result *ResolvedSchedule, date civil.Date) (*ResolvedSchedule, error) {
	owner := models.ScheduleOwner{Kind: models.OwnerProvider, ID: result.Provider.ID}
	schedule, err := r.schedules.GetWeeklySchedule(ctx, owner)
	if err != nil {
		return nil, upstreamError(err, "failed to load provider schedule")
	}

	day, ok := schedule.Day(civiltime.Weekday(date))
	if !ok {
		return r.absent(logger, result, models.WindowNoScheduleEntry), nil
	}
	if !day.IsOpen() {
		return r.absent(logger, result, models.WindowDayClosed), nil
	}

	result.Day = &day
	result.CalendarOwner = &owner
	result.Calendar = result.Provider.Calendar
	r.resolved(logger, result)
	return result, nil
}

func (r *ScheduleResolver) resolveStaff(ctx context.Context, logger *zap.Logger, result *ResolvedSchedule, date civil.Date, staffID string) (*ResolvedSchedule, error) {
	staff, err := r.providers.ListStaff(ctx, result.Provider.ID)
	if err != nil {
		return nil, upstreamError(err, "failed to load staff")
	}

	explicit := staffID != ""
	if explicit {
		member, ok := findStaff(staff, staffID)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "staff member not found")
		}
		staff = []models.StaffMember{member}
	}
	if len(staff) == 0 {
		return r.absent(logger, result, models.WindowNoStaffWorking), nil
	}

	absences := make(map[string][]models.AbsenceInterval, len(staff))
	for _, member := range staff {
		items, err := r.absences.GetAbsences(ctx, member.ID)
		if err != nil {
			return nil, upstreamError(err, "failed to load staff absences")
		}
		absences[member.ID] = items
	}
	present := FilterAbsentStaff(staff, absences, date)
	if len(present) == 0 {
		return r.absent(logger, result, models.WindowStaffAbsent), nil
	}

	weekday := civiltime.Weekday(date)
	type candidate struct {
		member models.StaffMember
		day    models.DaySchedule
	}
	working := make([]candidate, 0, len(present))
	for _, member := range present {
		schedule, err := r.schedules.GetWeeklySchedule(ctx, models.ScheduleOwner{Kind: models.OwnerStaff, ID: member.ID})
		if err != nil {
			return nil, upstreamError(err, "failed to load staff schedule")
		}
		if day, ok := schedule.Day(weekday); ok && day.IsOpen() {
			working = append(working, candidate{member: member, day: day})
		}
	}
	if len(working) == 0 {
		if explicit {
			return r.absent(logger, result, models.WindowStaffNotWorking), nil
		}
		return r.absent(logger, result, models.WindowNoStaffWorking), nil
	}

	// Prefer the first staff member with a connected calendar, else roster order.
	chosen := working[0]
	for _, c := range working {
		if c.member.HasCalendar() {
			chosen = c
			break
		}
	}

	logger.Info("staff_selected",
		zap.String("staff_id", chosen.member.ID),
		zap.Bool("has_calendar", chosen.member.HasCalendar()),
		zap.Bool("explicit", explicit),
		zap.Int("candidates", len(working)),
	)

	result.Day = &chosen.day
	result.CalendarOwner = &models.ScheduleOwner{Kind: models.OwnerStaff, ID: chosen.member.ID}
	result.Calendar = chosen.member.Calendar
	r.resolved(logger, result)
	return result, nil
}

func (r *ScheduleResolver) absent(logger *zap.Logger, result *ResolvedSchedule, reason models.WindowReason) *ResolvedSchedule {
	result.Reason = reason
	logger.Info("availability_window_absent", zap.String("reason", string(reason)))
	return result
}

func (r *ScheduleResolver) resolved(logger *zap.Logger, result *ResolvedSchedule) {
	fields := []zap.Field{
		zap.String("owner_kind", string(result.CalendarOwner.Kind)),
		zap.String("owner_id", result.CalendarOwner.ID),
		zap.String("open", result.Day.Open.String()),
		zap.String("close", result.Day.Close.String()),
	}
	if result.Day.Break != nil {
		fields = append(fields,
			zap.String("break_start", result.Day.Break.Start.String()),
			zap.String("break_end", result.Day.Break.End.String()),
		)
	}
	logger.Info("schedule_resolved", fields...)
}

func findStaff(staff []models.StaffMember, id string) (models.StaffMember, bool) {
	for _, member := range staff {
		if member.ID == id {
			return member, true
		}
	}
	return models.StaffMember{}, false
}

func upstreamError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrUpstreamStore.Code, appErrors.ErrUpstreamStore.Status, message)
}
