package engine

import (
	"time"

	"album-pulse/internal/models"
)

const secondsPerDay = 86400

// windowMetrics holds everything derived from one candidate's snapshot
// history. The zero value is the empty-history case: all nil.
type windowMetrics struct {
	FirstCapturedAt *time.Time
	LastCapturedAt  *time.Time
	WindowDays      *int64

	// As-of counters from the latest snapshot.
	Views    *int64
	Likes    *int64
	Comments *int64

	// Signed deltas (latest minus earliest). Nil for empty or
	// single-snapshot histories.
	ViewsDelta    *int64
	LikesDelta    *int64
	CommentsDelta *int64
}

// aggregateWindow scans a candidate's snapshots once, tracking the
// earliest and latest capture, and derives the observation window.
// Counters are not assumed monotonic: a later snapshot reporting a
// lower value produces a negative delta, not an error.
func aggregateWindow(snaps []models.StatsSnapshot) windowMetrics {
	if len(snaps) == 0 {
		return windowMetrics{}
	}

	first, last := snaps[0], snaps[0]
	for _, s := range snaps[1:] {
		if s.CapturedAt.Before(first.CapturedAt) {
			first = s
		}
		if s.CapturedAt.After(last.CapturedAt) {
			last = s
		}
	}

	firstAt, lastAt := first.CapturedAt, last.CapturedAt
	m := windowMetrics{
		FirstCapturedAt: &firstAt,
		LastCapturedAt:  &lastAt,
		WindowDays:      int64Ptr(floorDays(lastAt.Sub(firstAt))),
		Views:           int64Ptr(last.Views),
		Likes:           last.Likes,
		Comments:        last.Comments,
	}

	// A single snapshot has no window to difference over; the span
	// collapses to the 1-day floor and the delta fields stay nil.
	if !lastAt.After(firstAt) {
		return m
	}

	m.ViewsDelta = int64Ptr(last.Views - first.Views)
	m.LikesDelta = subInts(last.Likes, first.Likes)
	m.CommentsDelta = subInts(last.Comments, first.Comments)
	return m
}

// floorDays converts an elapsed duration to whole days, floored at 1 so
// same-day and degenerate windows never become a zero denominator.
func floorDays(d time.Duration) int64 {
	days := int64(d/time.Second) / secondsPerDay
	if days < 1 {
		days = 1
	}
	return days
}

// daysSincePublish computes the as-of age of a candidate: publish to the
// last snapshot, or to the evaluation time when no snapshot exists.
func daysSincePublish(publishedAt *time.Time, lastCapturedAt *time.Time, now time.Time) *int64 {
	if publishedAt == nil {
		return nil
	}
	end := now
	if lastCapturedAt != nil {
		end = *lastCapturedAt
	}
	return int64Ptr(floorDays(end.Sub(*publishedAt)))
}
