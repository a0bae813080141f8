package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/time/rate"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/noah-isme/workshop-availability-api/internal/models"
	"github.com/noah-isme/workshop-availability-api/pkg/config"
	appErrors "github.com/noah-isme/workshop-availability-api/pkg/errors"
)

// GoogleCalendarGateway reads busy intervals through the Google Calendar FreeBusy API.
// Expired access tokens are refreshed in-flight and never written back.
type GoogleCalendarGateway struct {
	oauth     *oauth2.Config
	endpoint  string
	limiter   *rate.Limiter
	transport http.RoundTripper
	logger    *zap.Logger
}

// NewGoogleCalendarGateway constructs the gateway.
func NewGoogleCalendarGateway(cfg config.GoogleCalendarConfig, logger *zap.Logger) *GoogleCalendarGateway {
	if logger == nil {
		logger = zap.NewNop()
	}

	endpoint := google.Endpoint
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &GoogleCalendarGateway{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     endpoint,
			Scopes:       []string{calendar.CalendarReadonlyScope},
		},
		endpoint:  cfg.Endpoint,
		limiter:   rate.NewLimiter(limit, burst),
		transport: otelhttp.NewTransport(http.DefaultTransport),
		logger:    logger,
	}
}

// GetBusyIntervals returns the busy spans of a calendar within [start, end).
func (g *GoogleCalendarGateway) GetBusyIntervals(ctx context.Context, creds models.CalendarCredentials, start, end time.Time) ([]models.BusyInterval, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", appErrors.ErrCalendarUnavailable, ctx.Err())
		}
		return nil, fmt.Errorf("%w: %w", appErrors.ErrCalendarRateLimited, err)
	}

	token := &oauth2.Token{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		TokenType:    "Bearer",
	}
	if creds.TokenExpiry != nil {
		token.Expiry = *creds.TokenExpiry
	}

	httpCtx := context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Transport: g.transport})
	opts := []option.ClientOption{option.WithHTTPClient(g.oauth.Client(httpCtx, token))}
	if g.endpoint != "" {
		opts = append(opts, option.WithEndpoint(g.endpoint))
	}
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: build calendar client: %w", appErrors.ErrCalendarUnavailable, err)
	}

	resp, err := svc.Freebusy.Query(&calendar.FreeBusyRequest{
		TimeMin: start.UTC().Format(time.RFC3339),
		TimeMax: end.UTC().Format(time.RFC3339),
		Items:   []*calendar.FreeBusyRequestItem{{Id: creds.CalendarID}},
	}).Context(ctx).Do()
	if err != nil {
		return nil, classify(err)
	}

	busy, ok := resp.Calendars[creds.CalendarID]
	if !ok {
		return nil, fmt.Errorf("%w: calendar %s missing from response", appErrors.ErrCalendarUnavailable, creds.CalendarID)
	}
	if len(busy.Errors) > 0 {
		return nil, fmt.Errorf("%w: calendar %s: %s", appErrors.ErrCalendarUnavailable, creds.CalendarID, busy.Errors[0].Reason)
	}

	intervals := make([]models.BusyInterval, 0, len(busy.Busy))
	for _, period := range busy.Busy {
		if period == nil {
			continue
		}
		from, errStart := time.Parse(time.RFC3339, period.Start)
		to, errEnd := time.Parse(time.RFC3339, period.End)
		if errStart != nil || errEnd != nil || !to.After(from) {
			g.logger.Warn("external_busy_period_skipped",
				zap.String("calendar_id", creds.CalendarID),
				zap.String("start", period.Start),
				zap.String("end", period.End),
			)
			continue
		}
		intervals = append(intervals, models.BusyInterval{Start: from, End: to})
	}
	return intervals, nil
}

// classify maps transport and API failures onto the gateway's sentinel errors.
func classify(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return fmt.Errorf("%w: %w", appErrors.ErrCalendarAuthExpired, err)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusUnauthorized:
			return fmt.Errorf("%w: %w", appErrors.ErrCalendarAuthExpired, err)
		case apiErr.Code == http.StatusTooManyRequests:
			return fmt.Errorf("%w: %w", appErrors.ErrCalendarRateLimited, err)
		case apiErr.Code == http.StatusForbidden && hasReason(apiErr, "rateLimitExceeded", "userRateLimitExceeded"):
			return fmt.Errorf("%w: %w", appErrors.ErrCalendarRateLimited, err)
		}
	}

	return fmt.Errorf("%w: %w", appErrors.ErrCalendarUnavailable, err)
}

func hasReason(apiErr *googleapi.Error, reasons ...string) bool {
	for _, item := range apiErr.Errors {
		for _, reason := range reasons {
			if item.Reason == reason {
				return true
			}
		}
	}
	return false
}
