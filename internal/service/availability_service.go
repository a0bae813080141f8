package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/noah-isme/workshop-availability-api/internal/dto"
	"github.com/noah-isme/workshop-availability-api/internal/models"
	"github.com/noah-isme/workshop-availability-api/pkg/civiltime"
	appErrors "github.com/noah-isme/workshop-availability-api/pkg/errors"
)

var tracer = otel.Tracer("github.com/noah-isme/workshop-availability-api/internal/service")

// AvailabilityService computes the bookable slot grid for a provider and date.
// It never writes; repeated calls over unchanged data return identical results.
type AvailabilityService struct {
	resolver   *ScheduleResolver
	generator  *SlotGenerator
	aggregator *OccupancyAggregator
	evaluator  *AvailabilityEvaluator
	cache      *CacheService
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewAvailabilityService wires the engine components together. cache and metrics may be nil.
func NewAvailabilityService(resolver *ScheduleResolver, generator *SlotGenerator, aggregator *OccupancyAggregator, evaluator *AvailabilityEvaluator, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AvailabilityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{
		resolver:   resolver,
		generator:  generator,
		aggregator: aggregator,
		evaluator:  evaluator,
		cache:      cache,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
	}
}

// Compute validates req and returns the availability grid. The bool reports a cache hit.
func (s *AvailabilityService) Compute(ctx context.Context, req dto.AvailabilityRequest) (*models.Availability, bool, error) {
	req.ProviderID = strings.TrimSpace(req.ProviderID)
	req.StaffID = strings.TrimSpace(req.StaffID)
	req.Date = strings.TrimSpace(req.Date)
	if err := s.validator.Struct(req); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability query")
	}
	date, err := civiltime.ParseDate(req.Date)
	if err != nil {
		return nil, false, err
	}

	ctx, span := tracer.Start(ctx, "availability.compute")
	defer span.End()
	span.SetAttributes(
		attribute.String("availability.provider_id", req.ProviderID),
		attribute.String("availability.date", req.Date),
		attribute.Int("availability.duration_minutes", req.DurationMinutes),
	)

	started := time.Now()
	key := cacheKey(req)
	var cached models.Availability
	if s.cache.Get(ctx, key, &cached) {
		span.SetAttributes(attribute.Bool("availability.cache_hit", true))
		return &cached, true, nil
	}

	result, err := s.compute(ctx, req, date)
	if err != nil {
		s.metrics.ObserveAvailability("error", time.Since(started))
		if appErrors.IsCode(err, appErrors.ErrUpstreamStore.Code) {
			s.logger.Error("availability_failed", zap.String("provider_id", req.ProviderID), zap.String("date", req.Date), zap.Error(err))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "availability failed")
		return nil, false, err
	}

	outcome := "ok"
	if len(result.Slots) == 0 {
		outcome = "empty"
	}
	s.metrics.ObserveAvailability(outcome, time.Since(started))
	span.SetAttributes(
		attribute.Int("availability.slots", len(result.Slots)),
		attribute.String("availability.external_calendar", string(result.ExternalCalendar)),
	)

	if result.ExternalCalendar != models.ExternalCalendarDegraded {
		s.cache.Set(ctx, key, result, 0)
	}
	return result, false, nil
}

func (s *AvailabilityService) compute(ctx context.Context, req dto.AvailabilityRequest, date civil.Date) (*models.Availability, error) {
	result := &models.Availability{
		ProviderID:       req.ProviderID,
		Date:             date,
		DurationMinutes:  req.DurationMinutes,
		ExternalCalendar: models.ExternalCalendarSkipped,
		Slots:            []models.SlotAvailability{},
	}

	resolved, err := s.resolver.Resolve(ctx, req.ProviderID, date, req.StaffID)
	if err != nil {
		return nil, err
	}
	if !resolved.HasWindow() {
		result.WindowReason = resolved.Reason
		return result, nil
	}
	result.CalendarOwner = resolved.CalendarOwner

	candidates := s.generator.Generate(resolved.Day)

	occupancy, err := s.aggregator.Aggregate(ctx, OccupancyRequest{
		ProviderID:    resolved.Provider.ID,
		Date:          date,
		CalendarOwner: resolved.CalendarOwner,
		Calendar:      resolved.Calendar,
	})
	if err != nil {
		return nil, err
	}
	result.ExternalCalendar = occupancy.External

	duration := time.Duration(req.DurationMinutes) * time.Minute
	evaluated := s.evaluator.Evaluate(date, candidates, duration, *resolved.Day, occupancy.Blocked)

	result.Slots = make([]models.SlotAvailability, 0, len(evaluated))
	for _, slot := range evaluated {
		result.Slots = append(result.Slots, models.SlotAvailability{Time: slot.Label, Available: slot.Available})
	}
	return result, nil
}

// cacheKey covers every input of the computation; the entry TTL bounds external feed staleness.
func cacheKey(req dto.AvailabilityRequest) string {
	staff := req.StaffID
	if staff == "" {
		staff = "auto"
	}
	return fmt.Sprintf("availability:%s:%s:%s:%d", req.ProviderID, staff, req.Date, req.DurationMinutes)
}
