package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	_ "github.com/noah-isme/workshop-availability-api/api/swagger"
	"github.com/noah-isme/workshop-availability-api/internal/gateway"
	"github.com/noah-isme/workshop-availability-api/internal/handler"
	internalmiddleware "github.com/noah-isme/workshop-availability-api/internal/middleware"
	"github.com/noah-isme/workshop-availability-api/internal/repository"
	"github.com/noah-isme/workshop-availability-api/internal/service"
	"github.com/noah-isme/workshop-availability-api/pkg/cache"
	"github.com/noah-isme/workshop-availability-api/pkg/civiltime"
	"github.com/noah-isme/workshop-availability-api/pkg/config"
	"github.com/noah-isme/workshop-availability-api/pkg/database"
	"github.com/noah-isme/workshop-availability-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/workshop-availability-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/workshop-availability-api/pkg/middleware/requestid"
	"github.com/noah-isme/workshop-availability-api/pkg/tracing"
)

// @title Workshop Availability API
// @version 1.0.0
// @description Computes bookable appointment slots for service providers.
// @BasePath /api/v1
// @schemes http https

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logr.Warn("tracing shutdown failed", zap.Error(err))
		}
	}()

	normalizer, err := civiltime.NewNormalizer(cfg.Availability.Timezone)
	if err != nil {
		return fmt.Errorf("load timezone: %w", err)
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	readyChecks := map[string]handler.ReadyCheck{"postgres": database.ReadyCheck(db)}

	var cacheRepo service.CacheRepository
	if cfg.Availability.CacheEnabled {
		redisClient, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer redisClient.Close()
		cacheRepo = repository.NewCacheRepository(redisClient, "")
		readyChecks["redis"] = cache.ReadyCheck(redisClient)
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	parser := repository.NewScheduleParser(validate, logr)
	providers := repository.NewProviderRepository(db)
	schedules := repository.NewScheduleRepository(db, parser)
	absences := repository.NewAbsenceRepository(db)
	appointments := repository.NewAppointmentRepository(db)
	calendar := gateway.NewGoogleCalendarGateway(cfg.GoogleCalendar, logr)

	availabilitySvc := service.NewAvailabilityService(
		service.NewScheduleResolver(providers, schedules, absences, logr),
		service.NewSlotGenerator(cfg.Availability.SlotIncrement),
		service.NewOccupancyAggregator(appointments, calendar, normalizer, cfg.Availability.DefaultAppointmentDuration, cfg.Availability.ExternalTimeout, metrics, logr),
		service.NewAvailabilityEvaluator(normalizer, metrics, logr),
		service.NewCacheService(cacheRepo, metrics, cfg.Availability.CacheTTL, logr, cfg.Availability.CacheEnabled),
		metrics,
		validate,
		logr,
	)

	availabilityHandler := handler.NewAvailabilityHandler(availabilitySvc, cfg.Availability.DefaultServiceDuration)
	healthHandler := handler.NewHealthHandler(metrics, readyChecks)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(internalmiddleware.Metrics(metrics))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.WithResponseMeta())

	r.GET("/health", healthHandler.Health)
	r.GET("/ready", healthHandler.Ready)
	r.GET("/metrics", healthHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.GET("/availability", availabilityHandler.Get)
	api.GET("/providers/:providerId/availability", availabilityHandler.GetForProvider)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           otelhttp.NewHandler(r, "availability-api"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "timezone", cfg.Availability.Timezone)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
