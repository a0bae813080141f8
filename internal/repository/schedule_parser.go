package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/workshop-availability-api/internal/models"
	"github.com/noah-isme/workshop-availability-api/pkg/civiltime"
)

var weekdayKeys = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// dayEntry is the stored object form of one weekday.
type dayEntry struct {
	From       string `json:"from" validate:"omitempty,clock"`
	To         string `json:"to" validate:"omitempty,clock"`
	Open       string `json:"open" validate:"omitempty,clock"`
	Close      string `json:"close" validate:"omitempty,clock"`
	Working    *bool  `json:"working"`
	Closed     *bool  `json:"closed"`
	BreakStart string `json:"breakStart" validate:"omitempty,clock,required_with=BreakEnd"`
	BreakEnd   string `json:"breakEnd" validate:"omitempty,clock,required_with=BreakStart"`
}

// ScheduleParser turns stored opening-hours JSON into a typed weekly schedule.
// Entries that fail validation are dropped and logged; their weekday then has no entry.
type ScheduleParser struct {
	validate *validator.Validate
	logger   *zap.Logger
}

// NewScheduleParser constructs a parser. The "clock" validation tag is registered on validate;
// registration failure panics since the tag is static.
func NewScheduleParser(validate *validator.Validate, logger *zap.Logger) *ScheduleParser {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := validate.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, err := civiltime.ParseClock(fl.Field().String())
		return err == nil
	}); err != nil {
		panic(fmt.Sprintf("register clock validation: %v", err))
	}
	return &ScheduleParser{validate: validate, logger: logger}
}

// Parse decodes raw into a WeeklySchedule for owner.
// Double-encoded JSON strings are unwrapped once. An empty payload yields an empty schedule.
func (p *ScheduleParser) Parse(owner models.ScheduleOwner, raw types.JSONText) (models.WeeklySchedule, error) {
	schedule := models.WeeklySchedule{}
	if len(strings.TrimSpace(string(raw))) == 0 || string(raw) == "null" {
		return schedule, nil
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		var inner string
		if json.Unmarshal(raw, &inner) != nil {
			return nil, fmt.Errorf("decode schedule of %s %s: %w", owner.Kind, owner.ID, err)
		}
		if err := json.Unmarshal([]byte(inner), &entries); err != nil {
			return nil, fmt.Errorf("decode schedule of %s %s: %w", owner.Kind, owner.ID, err)
		}
	}

	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	byWeekday := make(map[time.Weekday][]string, len(keys))
	for _, key := range keys {
		weekday, ok := weekdayKeys[strings.ToLower(strings.TrimSpace(key))]
		if !ok {
			p.reject(owner, key, errors.New("unknown weekday"))
			continue
		}
		byWeekday[weekday] = append(byWeekday[weekday], key)
	}

	for weekday, dayKeys := range byWeekday {
		if len(dayKeys) > 1 {
			for _, key := range dayKeys {
				p.reject(owner, key, fmt.Errorf("weekday given more than once (%s)", strings.Join(dayKeys, ", ")))
			}
			continue
		}
		day, present, err := p.parseDay(entries[dayKeys[0]])
		if err != nil {
			p.reject(owner, dayKeys[0], err)
			continue
		}
		if present {
			schedule[weekday] = day
		}
	}
	return schedule, nil
}

func (p *ScheduleParser) reject(owner models.ScheduleOwner, weekday string, err error) {
	p.logger.Warn("schedule_entry_rejected",
		zap.String("owner_kind", string(owner.Kind)),
		zap.String("owner_id", owner.ID),
		zap.String("weekday", weekday),
		zap.Error(err),
	)
}

// parseDay returns present=false for null entries, which count as having no entry.
func (p *ScheduleParser) parseDay(value json.RawMessage) (models.DaySchedule, bool, error) {
	trimmed := strings.TrimSpace(string(value))
	if trimmed == "" || trimmed == "null" || trimmed == "false" {
		return models.DaySchedule{}, false, nil
	}

	var legacy string
	if err := json.Unmarshal(value, &legacy); err == nil {
		return parseLegacyDay(legacy)
	}

	var entry dayEntry
	if err := json.Unmarshal(value, &entry); err != nil {
		return models.DaySchedule{}, false, fmt.Errorf("decode entry: %w", err)
	}
	if err := p.validate.Struct(entry); err != nil {
		return models.DaySchedule{}, false, err
	}

	day := models.DaySchedule{Working: entry.Working, Closed: entry.Closed}
	if !day.IsOpen() {
		return day, true, nil
	}

	openRaw := firstNonEmpty(entry.From, entry.Open)
	closeRaw := firstNonEmpty(entry.To, entry.Close)
	if openRaw == "" || closeRaw == "" {
		return models.DaySchedule{}, false, errors.New("open day without from/to times")
	}
	day.Open = civiltime.MustParseClock(openRaw)
	day.Close = civiltime.MustParseClock(closeRaw)
	if entry.BreakStart != "" {
		day.Break = &models.BreakWindow{
			Start: civiltime.MustParseClock(entry.BreakStart),
			End:   civiltime.MustParseClock(entry.BreakEnd),
		}
	}
	if err := day.Validate(); err != nil {
		return models.DaySchedule{}, false, err
	}
	return day, true, nil
}

// parseLegacyDay accepts the "HH:MM-HH:MM" form, which is always open.
func parseLegacyDay(raw string) (models.DaySchedule, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "closed") {
		closed := true
		return models.DaySchedule{Closed: &closed}, true, nil
	}
	openRaw, closeRaw, ok := strings.Cut(raw, "-")
	if !ok {
		return models.DaySchedule{}, false, fmt.Errorf("invalid hours %q, expected HH:MM-HH:MM", raw)
	}
	open, err := civiltime.ParseClock(openRaw)
	if err != nil {
		return models.DaySchedule{}, false, err
	}
	closeAt, err := civiltime.ParseClock(closeRaw)
	if err != nil {
		return models.DaySchedule{}, false, err
	}
	working := true
	day := models.DaySchedule{Working: &working, Open: open, Close: closeAt}
	if err := day.Validate(); err != nil {
		return models.DaySchedule{}, false, err
	}
	return day, true, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
