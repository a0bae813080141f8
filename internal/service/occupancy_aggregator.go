package service

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/civil"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/workshop-availability-api/internal/models"
	"github.com/noah-isme/workshop-availability-api/pkg/civiltime"
	appErrors "github.com/noah-isme/workshop-availability-api/pkg/errors"
)

// DefaultAppointmentDuration applies to stored appointments without a duration.
const DefaultAppointmentDuration = 60 * time.Minute

// DefaultExternalTimeout bounds the external calendar lookup.
const DefaultExternalTimeout = 5 * time.Second

// Degradation causes reported when the external calendar cannot be read.
const (
	CauseAuthExpired = "auth_expired"
	CauseTimeout     = "timeout"
	CauseUnavailable = "unavailable"
	CauseRateLimited = "rate_limited"
)

type appointmentStore interface {
	ListAppointments(ctx context.Context, providerID string, date civil.Date) ([]models.InternalAppointment, error)
}

type calendarGateway interface {
	GetBusyIntervals(ctx context.Context, creds models.CalendarCredentials, start, end time.Time) ([]models.BusyInterval, error)
}

// OccupancyRequest identifies whose occupancy to collect.
type OccupancyRequest struct {
	ProviderID    string
	Date          civil.Date
	CalendarOwner *models.ScheduleOwner
	Calendar      *models.CalendarCredentials
}

// Occupancy is the flat union of blocked intervals for one day.
// Internal intervals come first, each source in store order.
type Occupancy struct {
	Blocked       []models.BlockedInterval
	External      models.ExternalCalendarStatus
	ExternalCause string
}

// OccupancyAggregator fetches internal appointments and external busy times concurrently.
type OccupancyAggregator struct {
	appointments    appointmentStore
	gateway         calendarGateway
	normalizer      *civiltime.Normalizer
	defaultDuration time.Duration
	timeout         time.Duration
	metrics         *MetricsService
	logger          *zap.Logger
}

// NewOccupancyAggregator constructs the aggregator. gateway may be nil, which skips external lookups.
func NewOccupancyAggregator(appointments appointmentStore, gateway calendarGateway, normalizer *civiltime.Normalizer, defaultDuration, timeout time.Duration, metrics *MetricsService, logger *zap.Logger) *OccupancyAggregator {
	if defaultDuration <= 0 {
		defaultDuration = DefaultAppointmentDuration
	}
	if timeout <= 0 {
		timeout = DefaultExternalTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OccupancyAggregator{
		appointments:    appointments,
		gateway:         gateway,
		normalizer:      normalizer,
		defaultDuration: defaultDuration,
		timeout:         timeout,
		metrics:         metrics,
		logger:          logger,
	}
}

// Aggregate returns the blocked intervals of the day. Only an internal store failure is returned as an error;
// external failures degrade to internal-only occupancy.
func (a *OccupancyAggregator) Aggregate(ctx context.Context, req OccupancyRequest) (*Occupancy, error) {
	ctx, span := tracer.Start(ctx, "availability.occupancy", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	logger := a.logger.With(zap.String("provider_id", req.ProviderID), zap.String("date", req.Date.String()))
	dayStart, dayEnd := a.normalizer.DayRange(req.Date)

	var (
		internal    []models.BlockedInterval
		external    []models.BlockedInterval
		externalErr error
		queried     bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		appts, err := a.appointments.ListAppointments(gctx, req.ProviderID, req.Date)
		if err != nil {
			return upstreamError(err, "failed to load appointments")
		}
		internal = a.internalIntervals(req.Date, appts)
		return nil
	})
	if a.gateway != nil && req.Calendar.Configured() {
		queried = true
		g.Go(func() error {
			external, externalErr = a.externalIntervals(gctx, *req.Calendar, dayStart, dayEnd)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "internal occupancy failed")
		return nil, err
	}

	result := &Occupancy{External: models.ExternalCalendarOK}
	switch {
	case !queried:
		result.External = models.ExternalCalendarSkipped
		logger.Info("external_calendar_skipped", ownerFields(req.CalendarOwner)...)
	case externalErr != nil:
		cause := degradationCause(externalErr)
		result.External = models.ExternalCalendarDegraded
		result.ExternalCause = cause
		external = nil
		logger.Warn("external_calendar_degraded",
			append(ownerFields(req.CalendarOwner), zap.String("cause", cause), zap.Error(externalErr))...)
	}

	result.Blocked = make([]models.BlockedInterval, 0, len(internal)+len(external))
	result.Blocked = append(result.Blocked, internal...)
	result.Blocked = append(result.Blocked, external...)

	span.SetAttributes(
		attribute.Int("occupancy.internal", len(internal)),
		attribute.Int("occupancy.external", len(external)),
		attribute.String("occupancy.external_status", string(result.External)),
	)
	return result, nil
}

func (a *OccupancyAggregator) internalIntervals(date civil.Date, appts []models.InternalAppointment) []models.BlockedInterval {
	intervals := make([]models.BlockedInterval, 0, len(appts))
	for _, appt := range appts {
		if !appt.Status.Occupying() {
			continue
		}
		duration := a.defaultDuration
		if appt.DurationMinutes != nil && *appt.DurationMinutes > 0 {
			duration = time.Duration(*appt.DurationMinutes) * time.Minute
		}
		start := a.normalizer.ToInstant(date, appt.StartTime)
		end := start.Add(duration)
		intervals = append(intervals, models.BlockedInterval{
			Start:      start,
			End:        end,
			Source:     models.SourceInternal,
			Ref:        appt.ID,
			StartLabel: a.normalizer.ToLocalTime(start),
			EndLabel:   a.normalizer.ToLocalTime(end),
		})
	}
	return intervals
}

func (a *OccupancyAggregator) externalIntervals(ctx context.Context, creds models.CalendarCredentials, start, end time.Time) ([]models.BlockedInterval, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	began := time.Now()
	busy, err := a.gateway.GetBusyIntervals(ctx, creds, start, end)
	if err != nil {
		a.metrics.ObserveExternalCalendar(degradationCause(err), time.Since(began))
		return nil, err
	}
	a.metrics.ObserveExternalCalendar("ok", time.Since(began))

	intervals := make([]models.BlockedInterval, 0, len(busy))
	for _, b := range busy {
		intervals = append(intervals, models.BlockedInterval{
			Start:      b.Start,
			End:        b.End,
			Source:     models.SourceExternal,
			Ref:        creds.CalendarID,
			StartLabel: a.normalizer.ToLocalTime(b.Start),
			EndLabel:   a.normalizer.ToLocalTime(b.End),
		})
	}
	return intervals, nil
}

func degradationCause(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return CauseTimeout
	case errors.Is(err, appErrors.ErrCalendarAuthExpired):
		return CauseAuthExpired
	case errors.Is(err, appErrors.ErrCalendarRateLimited):
		return CauseRateLimited
	default:
		return CauseUnavailable
	}
}

func ownerFields(owner *models.ScheduleOwner) []zap.Field {
	if owner == nil {
		return nil
	}
	return []zap.Field{zap.String("owner_kind", string(owner.Kind)), zap.String("owner_id", owner.ID)}
}
