package repository

import (
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/workshop-availability-api/internal/models"
	"github.com/noah-isme/workshop-availability-api/pkg/civiltime"
)

var providerOwner = models.ScheduleOwner{Kind: models.OwnerProvider, ID: "ws-1"}

func TestScheduleParserObjectFormat(t *testing.T) {
	parser := NewScheduleParser(nil, zap.NewNop())

	schedule, err := parser.Parse(providerOwner, types.JSONText(`{
		"monday": {"from": "08:00", "to": "17:00", "working": true, "breakStart": "12:00", "breakEnd": "12:30"},
		"tuesday": {"open": "9:00", "close": "18:00", "closed": false},
		"sunday": {"closed": true}
	}`))
	require.NoError(t, err)

	monday, ok := schedule.Day(time.Monday)
	require.True(t, ok)
	assert.True(t, monday.IsOpen())
	assert.Equal(t, civiltime.MustParseClock("08:00"), monday.Open)
	assert.Equal(t, civiltime.MustParseClock("17:00"), monday.Close)
	require.NotNil(t, monday.Break)
	assert.Equal(t, "12:00", monday.Break.Start.String())
	assert.Equal(t, "12:30", monday.Break.End.String())

	tuesday, ok := schedule.Day(time.Tuesday)
	require.True(t, ok)
	assert.True(t, tuesday.IsOpen())
	assert.Equal(t, "09:00", tuesday.Open.String())

	sunday, ok := schedule.Day(time.Sunday)
	require.True(t, ok)
	assert.False(t, sunday.IsOpen())

	_, ok = schedule.Day(time.Wednesday)
	assert.False(t, ok)
}

func TestScheduleParserLegacyStringFormat(t *testing.T) {
	parser := NewScheduleParser(nil, zap.NewNop())

	schedule, err := parser.Parse(providerOwner, types.JSONText(`{"friday": "08:00-18:00", "saturday": "closed"}`))
	require.NoError(t, err)

	friday, ok := schedule.Day(time.Friday)
	require.True(t, ok)
	assert.True(t, friday.IsOpen())
	assert.Equal(t, "18:00", friday.Close.String())

	saturday, ok := schedule.Day(time.Saturday)
	require.True(t, ok)
	assert.False(t, saturday.IsOpen())
}

func TestScheduleParserDoubleEncoded(t *testing.T) {
	parser := NewScheduleParser(nil, zap.NewNop())

	schedule, err := parser.Parse(providerOwner, types.JSONText(`"{\"monday\":{\"from\":\"08:00\",\"to\":\"12:00\",\"working\":true}}"`))
	require.NoError(t, err)
	monday, ok := schedule.Day(time.Monday)
	require.True(t, ok)
	assert.Equal(t, "12:00", monday.Close.String())
}

func TestScheduleParserFlagsWithoutOpenMarkerMeanClosed(t *testing.T) {
	parser := NewScheduleParser(nil, zap.NewNop())

	schedule, err := parser.Parse(providerOwner, types.JSONText(`{
		"monday": {"from": "08:00", "to": "17:00"},
		"tuesday": {"from": "08:00", "to": "17:00", "working": false}
	}`))
	require.NoError(t, err)

	monday, ok := schedule.Day(time.Monday)
	require.True(t, ok)
	assert.False(t, monday.IsOpen())
	tuesday, ok := schedule.Day(time.Tuesday)
	require.True(t, ok)
	assert.False(t, tuesday.IsOpen())
}

func TestScheduleParserRejectsMalformedEntries(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	parser := NewScheduleParser(nil, zap.New(core))

	schedule, err := parser.Parse(providerOwner, types.JSONText(`{
		"monday": {"from": "25:00", "to": "17:00", "working": true},
		"tuesday": {"from": "17:00", "to": "08:00", "working": true},
		"wednesday": {"from": "08:00", "to": "17:00", "working": true, "breakStart": "07:00", "breakEnd": "07:30"},
		"thursday": {"working": true},
		"friday": "8-17",
		"funday": {"from": "08:00", "to": "17:00", "working": true},
		"saturday": {"from": "08:00", "to": "12:00", "working": true}
	}`))
	require.NoError(t, err)

	assert.Len(t, schedule, 1)
	_, ok := schedule.Day(time.Saturday)
	assert.True(t, ok)
	assert.Equal(t, 6, logs.FilterMessage("schedule_entry_rejected").Len())
}

func TestScheduleParserEmptyAndInvalidPayload(t *testing.T) {
	parser := NewScheduleParser(nil, zap.NewNop())

	schedule, err := parser.Parse(providerOwner, types.JSONText(""))
	require.NoError(t, err)
	assert.Empty(t, schedule)

	_, err = parser.Parse(providerOwner, types.JSONText(`[1,2,3]`))
	assert.Error(t, err)
}

func TestScheduleParserRejectsCaseVariantDuplicates(t *testing.T) {
	payload := types.JSONText(`{
		"monday": {"from": "08:00", "to": "12:00", "working": true},
		"Monday": {"closed": true},
		"tuesday": {"from": "09:00", "to": "17:00", "working": true}
	}`)

	for i := 0; i < 50; i++ {
		core, logs := observer.New(zap.WarnLevel)
		parser := NewScheduleParser(nil, zap.New(core))

		schedule, err := parser.Parse(providerOwner, payload)
		require.NoError(t, err)

		_, ok := schedule.Day(time.Monday)
		require.False(t, ok, "iteration %d kept a monday entry", i)
		tuesday, ok := schedule.Day(time.Tuesday)
		require.True(t, ok)
		assert.Equal(t, "09:00", tuesday.Open.String())
		assert.Equal(t, 2, logs.FilterMessage("schedule_entry_rejected").Len())
	}
}

func TestNewScheduleParserRegistersClockTag(t *testing.T) {
	validate := validator.New()
	assert.NotPanics(t, func() { NewScheduleParser(validate, nil) })

	assert.NoError(t, validate.Var("09:30", "clock"))
	assert.Error(t, validate.Var("25:00", "clock"))
}
