package civiltime

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// Normalizer converts between wall-clock times of one civil timezone and absolute instants.
type Normalizer struct {
	loc *time.Location
}

// NewNormalizer loads the named IANA zone.
func NewNormalizer(name string) (*Normalizer, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return &Normalizer{loc: loc}, nil
}

// NewNormalizerIn wraps an already loaded location.
func NewNormalizerIn(loc *time.Location) *Normalizer {
	if loc == nil {
		loc = time.UTC
	}
	return &Normalizer{loc: loc}
}

// Location returns the target zone.
func (n *Normalizer) Location() *time.Location {
	return n.loc
}

// ToInstant resolves the wall-clock time on date to an absolute instant.
// Ambiguous fall-back times resolve to their first occurrence; times inside a
// spring-forward gap keep the pre-transition offset and so land after the gap.
func (n *Normalizer) ToInstant(date civil.Date, clock Clock) time.Time {
	wall := time.Date(date.Year, date.Month, date.Day, clock.Hour(), clock.Minute(), 0, 0, time.UTC)

	candidates := []time.Time{
		n.withOffsetAt(wall, wall.Add(-24*time.Hour)),
		n.withOffsetAt(wall, wall.Add(24*time.Hour)),
		time.Date(date.Year, date.Month, date.Day, clock.Hour(), clock.Minute(), 0, 0, n.loc),
	}

	var best time.Time
	found := false
	for _, candidate := range candidates {
		if !sameWall(candidate.In(n.loc), wall) {
			continue
		}
		if !found || candidate.Before(best) {
			best = candidate
			found = true
		}
	}
	if found {
		return best.In(n.loc)
	}
	return candidates[0].In(n.loc)
}

// ParseInstant is ToInstant for a "HH:MM" label.
func (n *Normalizer) ParseInstant(date civil.Date, label string) (time.Time, error) {
	clock, err := ParseClock(label)
	if err != nil {
		return time.Time{}, err
	}
	return n.ToInstant(date, clock), nil
}

// ToLocalTime renders the wall-clock "HH:MM" of an instant in the target zone.
func (n *Normalizer) ToLocalTime(t time.Time) string {
	return t.In(n.loc).Format("15:04")
}

// DayRange returns the half-open absolute range [midnight, next midnight) of date.
func (n *Normalizer) DayRange(date civil.Date) (time.Time, time.Time) {
	return n.ToInstant(date, 0), n.ToInstant(date.AddDays(1), 0)
}

// withOffsetAt interprets wall using the UTC offset the zone has at probe.
func (n *Normalizer) withOffsetAt(wall, probe time.Time) time.Time {
	_, offset := probe.In(n.loc).Zone()
	return wall.Add(-time.Duration(offset) * time.Second)
}

func sameWall(local, wall time.Time) bool {
	return local.Year() == wall.Year() &&
		local.Month() == wall.Month() &&
		local.Day() == wall.Day() &&
		local.Hour() == wall.Hour() &&
		local.Minute() == wall.Minute()
}
