package service

import (
	"time"

	"cloud.google.com/go/civil"
	"go.uber.org/zap"

	"github.com/noah-isme/workshop-availability-api/internal/models"
	"github.com/noah-isme/workshop-availability-api/pkg/civiltime"
)

// AvailabilityEvaluator flags each candidate slot as bookable or blocked.
type AvailabilityEvaluator struct {
	normalizer *civiltime.Normalizer
	metrics    *MetricsService
	logger     *zap.Logger
}

// NewAvailabilityEvaluator constructs the evaluator.
func NewAvailabilityEvaluator(normalizer *civiltime.Normalizer, metrics *MetricsService, logger *zap.Logger) *AvailabilityEvaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityEvaluator{normalizer: normalizer, metrics: metrics, logger: logger}
}

// Evaluate returns a copy of slots with start, end and availability filled in.
// A slot is blocked when its label does not exist on date (spring-forward gap),
// when [start, start+duration) runs past close, overlaps the break, or overlaps any
// blocked interval. Touching boundaries do not overlap.
func (e *AvailabilityEvaluator) Evaluate(date civil.Date, slots []models.CandidateSlot, duration time.Duration, day models.DaySchedule, blocked []models.BlockedInterval) []models.CandidateSlot {
	closeAt := e.normalizer.ToInstant(date, day.Close)
	var breakStart, breakEnd time.Time
	if day.Break != nil {
		breakStart = e.normalizer.ToInstant(date, day.Break.Start)
		breakEnd = e.normalizer.ToInstant(date, day.Break.End)
	}

	result := make([]models.CandidateSlot, len(slots))
	for i, slot := range slots {
		slot.Start = e.normalizer.ToInstant(date, slot.Clock)
		slot.End = slot.Start.Add(duration)
		slot.Available = true
		slot.BlockedBy = models.BlockNone

		switch {
		case e.normalizer.ToLocalTime(slot.Start) != slot.Label:
			e.block(&slot, models.BlockNonexistent, nil)
		case slot.End.After(closeAt):
			e.block(&slot, models.BlockPastClose, nil)
		case day.Break != nil && models.Overlaps(slot.Start, slot.End, breakStart, breakEnd):
			e.block(&slot, models.BlockBreak, nil)
		default:
			for j := range blocked {
				if models.Overlaps(slot.Start, slot.End, blocked[j].Start, blocked[j].End) {
					reason := models.BlockInternal
					if blocked[j].Source == models.SourceExternal {
						reason = models.BlockExternal
					}
					e.block(&slot, reason, &blocked[j])
					break
				}
			}
		}
		result[i] = slot
	}
	return result
}

func (e *AvailabilityEvaluator) block(slot *models.CandidateSlot, reason models.BlockReason, by *models.BlockedInterval) {
	slot.Available = false
	slot.BlockedBy = reason
	e.metrics.RecordBlockedSlot(string(reason))

	if ce := e.logger.Check(zap.DebugLevel, "slot_blocked"); ce != nil {
		fields := []zap.Field{zap.String("slot", slot.Label), zap.String("reason", string(reason))}
		if by != nil {
			fields = append(fields,
				zap.String("source", string(by.Source)),
				zap.String("ref", by.Ref),
				zap.String("blocked_start", by.StartLabel),
				zap.String("blocked_end", by.EndLabel),
			)
		}
		ce.Write(fields...)
	}
}
