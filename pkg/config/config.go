package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database       DatabaseConfig
	Redis          RedisConfig
	CORS           CORSConfig
	Log            LogConfig
	Availability   AvailabilityConfig
	GoogleCalendar GoogleCalendarConfig
	Tracing        TracingConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// AvailabilityConfig tunes the slot computation engine.
type AvailabilityConfig struct {
	Timezone                   string
	SlotIncrement              time.Duration
	DefaultAppointmentDuration time.Duration
	DefaultServiceDuration     time.Duration
	ExternalTimeout            time.Duration
	CacheEnabled               bool
	CacheTTL                   time.Duration
}

// GoogleCalendarConfig configures the external busy-time gateway.
type GoogleCalendarConfig struct {
	ClientID          string
	ClientSecret      string
	TokenURL          string
	Endpoint          string
	RequestsPerSecond float64
	Burst             int
}

// TracingConfig configures the OTLP trace exporter.
type TracingConfig struct {
	Enabled      bool
	ServiceName  string
	OTLPEndpoint string
	SampleRatio  float64
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Availability = AvailabilityConfig{
		Timezone:                   v.GetString("AVAILABILITY_TIMEZONE"),
		SlotIncrement:              parseDuration(v.GetString("AVAILABILITY_SLOT_INCREMENT"), 30*time.Minute),
		DefaultAppointmentDuration: parseDuration(v.GetString("AVAILABILITY_DEFAULT_APPOINTMENT_DURATION"), 60*time.Minute),
		DefaultServiceDuration:     parseDuration(v.GetString("AVAILABILITY_DEFAULT_SERVICE_DURATION"), 60*time.Minute),
		ExternalTimeout:            parseDuration(v.GetString("AVAILABILITY_EXTERNAL_TIMEOUT"), 5*time.Second),
		CacheEnabled:               v.GetBool("AVAILABILITY_CACHE_ENABLED"),
		CacheTTL:                   parseDuration(v.GetString("AVAILABILITY_CACHE_TTL"), time.Minute),
	}

	cfg.GoogleCalendar = GoogleCalendarConfig{
		ClientID:          v.GetString("GOOGLE_OAUTH_CLIENT_ID"),
		ClientSecret:      v.GetString("GOOGLE_OAUTH_CLIENT_SECRET"),
		TokenURL:          v.GetString("GOOGLE_OAUTH_TOKEN_URL"),
		Endpoint:          v.GetString("GOOGLE_CALENDAR_ENDPOINT"),
		RequestsPerSecond: v.GetFloat64("GOOGLE_CALENDAR_RPS"),
		Burst:             v.GetInt("GOOGLE_CALENDAR_BURST"),
	}

	sampleRatio := v.GetFloat64("OTEL_SAMPLING_RATIO")
	if sampleRatio < 0 || sampleRatio > 1 {
		sampleRatio = 1
	}
	cfg.Tracing = TracingConfig{
		Enabled:      v.GetBool("OTEL_ENABLED"),
		ServiceName:  v.GetString("OTEL_SERVICE_NAME"),
		OTLPEndpoint: v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
		SampleRatio:  sampleRatio,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Availability.Timezone) == "" {
		return errors.New("AVAILABILITY_TIMEZONE must not be empty")
	}
	if c.Availability.SlotIncrement < time.Minute || c.Availability.SlotIncrement%time.Minute != 0 {
		return fmt.Errorf("AVAILABILITY_SLOT_INCREMENT must be a positive whole number of minutes, got %s", c.Availability.SlotIncrement)
	}
	if c.Availability.DefaultAppointmentDuration <= 0 {
		return errors.New("AVAILABILITY_DEFAULT_APPOINTMENT_DURATION must be positive")
	}
	if c.Availability.DefaultServiceDuration <= 0 {
		return errors.New("AVAILABILITY_DEFAULT_SERVICE_DURATION must be positive")
	}
	if c.Availability.ExternalTimeout <= 0 {
		return errors.New("AVAILABILITY_EXTERNAL_TIMEOUT must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "workshop_booking")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("AVAILABILITY_TIMEZONE", "Europe/Berlin")
	v.SetDefault("AVAILABILITY_SLOT_INCREMENT", "30m")
	v.SetDefault("AVAILABILITY_DEFAULT_APPOINTMENT_DURATION", "60m")
	v.SetDefault("AVAILABILITY_DEFAULT_SERVICE_DURATION", "60m")
	v.SetDefault("AVAILABILITY_EXTERNAL_TIMEOUT", "5s")
	v.SetDefault("AVAILABILITY_CACHE_ENABLED", false)
	v.SetDefault("AVAILABILITY_CACHE_TTL", "60s")

	v.SetDefault("GOOGLE_OAUTH_CLIENT_ID", "")
	v.SetDefault("GOOGLE_OAUTH_CLIENT_SECRET", "")
	v.SetDefault("GOOGLE_OAUTH_TOKEN_URL", "")
	v.SetDefault("GOOGLE_CALENDAR_ENDPOINT", "")
	v.SetDefault("GOOGLE_CALENDAR_RPS", 5)
	v.SetDefault("GOOGLE_CALENDAR_BURST", 10)

	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_SERVICE_NAME", "workshop-availability-api")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	v.SetDefault("OTEL_SAMPLING_RATIO", 1)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
