package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/workshop-availability-api/internal/dto"
	"github.com/noah-isme/workshop-availability-api/internal/middleware"
	"github.com/noah-isme/workshop-availability-api/internal/models"
	appErrors "github.com/noah-isme/workshop-availability-api/pkg/errors"
	"github.com/noah-isme/workshop-availability-api/pkg/response"
)

type availabilityService interface {
	Compute(ctx context.Context, req dto.AvailabilityRequest) (*models.Availability, bool, error)
}

// AvailabilityHandler exposes slot availability endpoints.
type AvailabilityHandler struct {
	service         availabilityService
	defaultDuration int
}

// NewAvailabilityHandler constructs the handler. defaultDuration applies when the query omits duration.
func NewAvailabilityHandler(service availabilityService, defaultDuration time.Duration) *AvailabilityHandler {
	minutes := int(defaultDuration / time.Minute)
	if minutes <= 0 {
		minutes = 60
	}
	return &AvailabilityHandler{service: service, defaultDuration: minutes}
}

// Get godoc
// @Summary List bookable slots of a provider
// @Description Returns every slot of the working window with an availability flag. An empty list means the provider is not operating on that date.
// @Tags Availability
// @Produce json
// @Param providerId query string true "Provider ID (aliases: provider_id, workshopId)"
// @Param date query string true "Calendar date (YYYY-MM-DD)"
// @Param duration query int false "Service duration in minutes" default(60)
// @Param staffId query string false "Staff member ID (aliases: staff_id, employeeId)"
// @Success 200 {object} response.Envelope{data=[]models.SlotAvailability}
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /availability [get]
func (h *AvailabilityHandler) Get(c *gin.Context) {
	h.respond(c, pickQuery(c, "providerId", "provider_id", "workshopId"))
}

// GetForProvider godoc
// @Summary List bookable slots of a provider
// @Tags Availability
// @Produce json
// @Param providerId path string true "Provider ID"
// @Param date query string true "Calendar date (YYYY-MM-DD)"
// @Param duration query int false "Service duration in minutes" default(60)
// @Param staffId query string false "Staff member ID"
// @Success 200 {object} response.Envelope{data=[]models.SlotAvailability}
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /providers/{providerId}/availability [get]
func (h *AvailabilityHandler) GetForProvider(c *gin.Context) {
	h.respond(c, c.Param("providerId"))
}

func (h *AvailabilityHandler) respond(c *gin.Context, providerID string) {
	duration, err := h.parseDuration(pickQuery(c, "duration", "durationMinutes", "duration_minutes"))
	if err != nil {
		response.Error(c, err)
		return
	}

	req := dto.AvailabilityRequest{
		ProviderID:      strings.TrimSpace(providerID),
		StaffID:         pickQuery(c, "staffId", "staff_id", "employeeId"),
		Date:            pickQuery(c, "date"),
		DurationMinutes: duration,
	}

	result, cacheHit, err := h.service.Compute(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	middleware.SetCacheHit(c, cacheHit)
	middleware.SetMeta(c, "provider_id", result.ProviderID)
	middleware.SetMeta(c, "date", result.Date.String())
	middleware.SetMeta(c, "duration_minutes", result.DurationMinutes)
	middleware.SetMeta(c, "external_calendar", string(result.ExternalCalendar))
	if result.CalendarOwner != nil {
		middleware.SetMeta(c, "calendar_owner", string(result.CalendarOwner.Kind)+":"+result.CalendarOwner.ID)
	}
	if result.WindowReason != models.WindowOpen {
		middleware.SetMeta(c, "window_reason", string(result.WindowReason))
	}

	response.JSON(c, http.StatusOK, result.Slots, middleware.ExtractMeta(c))
}

func (h *AvailabilityHandler) parseDuration(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return h.defaultDuration, nil
	}
	minutes, err := strconv.Atoi(raw)
	if err != nil {
		return 0, appErrors.Clone(appErrors.ErrValidation, "duration must be a whole number of minutes")
	}
	return minutes, nil
}

func pickQuery(c *gin.Context, keys ...string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(c.Query(key)); value != "" {
			return value
		}
	}
	return ""
}
