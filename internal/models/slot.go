package models

import (
	"time"

	"github.com/noah-isme/workshop-availability-api/pkg/civiltime"
)

// BlockReason explains why a candidate slot is unavailable.
type BlockReason string

const (
	BlockNone      BlockReason = ""
	BlockPastClose BlockReason = "past_close"
	BlockBreak     BlockReason = "break"
	BlockInternal  BlockReason = "internal"
	BlockExternal  BlockReason = "external"

	// BlockNonexistent marks a wall time skipped by a spring-forward transition.
	BlockNonexistent BlockReason = "nonexistent_time"
)

// CandidateSlot is one entry of the day's slot grid.
type CandidateSlot struct {
	Clock     civiltime.Clock
	Label     string
	Start     time.Time
	End       time.Time
	Available bool
	BlockedBy BlockReason
}
