package service

import (
	"time"

	"github.com/noah-isme/workshop-availability-api/internal/models"
)

// DefaultSlotIncrement is the spacing of candidate start times.
const DefaultSlotIncrement = 30 * time.Minute

// SlotGenerator lays out candidate start times across a working day.
type SlotGenerator struct {
	increment time.Duration
}

// NewSlotGenerator constructs a generator. Non-positive increments fall back to DefaultSlotIncrement.
func NewSlotGenerator(increment time.Duration) *SlotGenerator {
	if increment < time.Minute {
		increment = DefaultSlotIncrement
	}
	return &SlotGenerator{increment: increment}
}

// Increment returns the configured step.
func (g *SlotGenerator) Increment() time.Duration {
	return g.increment
}

// Generate returns labels from open up to but excluding close.
// Only slot starts are bounded here; whether the service fits before close is decided by the evaluator.
func (g *SlotGenerator) Generate(day *models.DaySchedule) []models.CandidateSlot {
	if day == nil || day.Open >= day.Close {
		return []models.CandidateSlot{}
	}
	step := int(g.increment / time.Minute)
	slots := make([]models.CandidateSlot, 0, int(day.Close-day.Open)/step+1)
	for clock := day.Open; clock < day.Close; clock = clock.Add(g.increment) {
		slots = append(slots, models.CandidateSlot{Clock: clock, Label: clock.String()})
	}
	return slots
}
