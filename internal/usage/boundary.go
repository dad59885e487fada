package usage

import (
	"math"
	"time"
)

// All users share a single reset boundary: the next midnight in IST
// (UTC+5:30), strictly after "now".
const istOffset = 5*time.Hour + 30*time.Minute

// NextResetUTC computes the UTC instant of the next IST midnight strictly
// after now. The conversion is done with fixed-offset arithmetic: shift into
// IST wall-clock time, take the calendar date, build midnight of the next day
// as a UTC-labeled instant, then shift back. Locale-aware formatting must not
// be used here; it is not deterministic across platforms.
func NextResetUTC(now time.Time) time.Time {
	shifted := now.UTC().Add(istOffset)
	y, m, d := shifted.Date()
	localMidnight := time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC)
	return localMidnight.Add(-istOffset)
}

// HoursUntilReset returns the hours from now until resetAt, rounded to one
// decimal for display and never negative.
func HoursUntilReset(now, resetAt time.Time) float64 {
	ms := resetAt.Sub(now).Milliseconds()
	if ms < 0 {
		ms = 0
	}
	return math.Round(float64(ms)/3600000*10) / 10
}
