package engine

import (
	"testing"
	"time"

	"album-pulse/internal/models"
)

var t0 = time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC)

func snap(at time.Time, views int64, likes, comments *int64) models.StatsSnapshot {
	return models.StatsSnapshot{VideoID: "v1", CapturedAt: at, Views: views, Likes: likes, Comments: comments}
}

func TestAggregateWindowDeltaArithmetic(t *testing.T) {
	snaps := []models.StatsSnapshot{
		snap(t0, 1000, int64Ptr(50), int64Ptr(5)),
		snap(t0.Add(48*time.Hour), 3000, int64Ptr(90), int64Ptr(15)),
	}

	w := aggregateWindow(snaps)

	if w.WindowDays == nil || *w.WindowDays != 2 {
		t.Errorf("WindowDays = %v, want 2", w.WindowDays)
	}
	if w.ViewsDelta == nil || *w.ViewsDelta != 2000 {
		t.Errorf("ViewsDelta = %v, want 2000", w.ViewsDelta)
	}
	if w.LikesDelta == nil || *w.LikesDelta != 40 {
		t.Errorf("LikesDelta = %v, want 40", w.LikesDelta)
	}
	if w.Views == nil || *w.Views != 3000 {
		t.Errorf("as-of Views = %v, want 3000", w.Views)
	}
	if w.FirstCapturedAt == nil || !w.FirstCapturedAt.Equal(t0) {
		t.Errorf("FirstCapturedAt = %v, want %v", w.FirstCapturedAt, t0)
	}

	if vpd := perDay(w.ViewsDelta, w.WindowDays); vpd == nil || *vpd != 1000 {
		t.Errorf("views per day = %v, want 1000", vpd)
	}
}

func TestAggregateWindowUnorderedInput(t *testing.T) {
	// The scan must find the window bounds regardless of input order.
	snaps := []models.StatsSnapshot{
		snap(t0.Add(24*time.Hour), 2000, nil, nil),
		snap(t0.Add(72*time.Hour), 4000, nil, nil),
		snap(t0, 1000, nil, nil),
	}

	w := aggregateWindow(snaps)

	if w.WindowDays == nil || *w.WindowDays != 3 {
		t.Errorf("WindowDays = %v, want 3", w.WindowDays)
	}
	if w.ViewsDelta == nil || *w.ViewsDelta != 3000 {
		t.Errorf("ViewsDelta = %v, want 3000", w.ViewsDelta)
	}
	if w.Views == nil || *w.Views != 4000 {
		t.Errorf("as-of Views = %v, want 4000", w.Views)
	}
}

func TestAggregateWindowDegenerateCases(t *testing.T) {
	t.Run("EmptyHistory", func(t *testing.T) {
		w := aggregateWindow(nil)
		if w.FirstCapturedAt != nil || w.WindowDays != nil || w.Views != nil || w.ViewsDelta != nil {
			t.Errorf("empty history produced non-nil outputs: %+v", w)
		}
	})

	t.Run("SingleSnapshot", func(t *testing.T) {
		w := aggregateWindow([]models.StatsSnapshot{snap(t0, 1000, int64Ptr(10), nil)})
		if w.WindowDays == nil || *w.WindowDays != 1 {
			t.Errorf("WindowDays = %v, want 1-day floor", w.WindowDays)
		}
		if w.ViewsDelta != nil || w.LikesDelta != nil || w.CommentsDelta != nil {
			t.Errorf("single snapshot produced deltas: %+v", w)
		}
		if w.Views == nil || *w.Views != 1000 {
			t.Errorf("as-of Views = %v, want 1000", w.Views)
		}
		if vpd := perDay(w.ViewsDelta, w.WindowDays); vpd != nil {
			t.Errorf("per-day over nil delta = %v, want nil", vpd)
		}
	})

	t.Run("SameDayWindowFloorsToOneDay", func(t *testing.T) {
		w := aggregateWindow([]models.StatsSnapshot{
			snap(t0, 1000, nil, nil),
			snap(t0.Add(3*time.Hour), 1500, nil, nil),
		})
		if w.WindowDays == nil || *w.WindowDays != 1 {
			t.Errorf("WindowDays = %v, want 1", w.WindowDays)
		}
		if w.ViewsDelta == nil || *w.ViewsDelta != 500 {
			t.Errorf("ViewsDelta = %v, want 500", w.ViewsDelta)
		}
	})

	t.Run("DecreasingCounterIsAValidNegativeDelta", func(t *testing.T) {
		w := aggregateWindow([]models.StatsSnapshot{
			snap(t0, 3000, int64Ptr(100), nil),
			snap(t0.Add(48*time.Hour), 2500, int64Ptr(80), nil),
		})
		if w.ViewsDelta == nil || *w.ViewsDelta != -500 {
			t.Errorf("ViewsDelta = %v, want -500", w.ViewsDelta)
		}
		if w.LikesDelta == nil || *w.LikesDelta != -20 {
			t.Errorf("LikesDelta = %v, want -20", w.LikesDelta)
		}
	})

	t.Run("WithheldCounterNullsItsDelta", func(t *testing.T) {
		w := aggregateWindow([]models.StatsSnapshot{
			snap(t0, 1000, nil, int64Ptr(5)),
			snap(t0.Add(48*time.Hour), 3000, int64Ptr(90), int64Ptr(15)),
		})
		if w.LikesDelta != nil {
			t.Errorf("LikesDelta = %v, want nil when an endpoint withheld likes", w.LikesDelta)
		}
		if w.CommentsDelta == nil || *w.CommentsDelta != 10 {
			t.Errorf("CommentsDelta = %v, want 10", w.CommentsDelta)
		}
	})
}

func TestFloorDays(t *testing.T) {
	tests := []struct {
		name string
		d    time.Duration
		want int64
	}{
		{"Zero floors to one", 0, 1},
		{"Under a day floors to one", 23 * time.Hour, 1},
		{"Exactly two days", 48 * time.Hour, 2},
		{"Partial days truncate", 49 * time.Hour, 2},
		{"Just under two days", 47 * time.Hour, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := floorDays(tt.d); got != tt.want {
				t.Errorf("floorDays(%v) = %d, want %d", tt.d, got, tt.want)
			}
		})
	}
}

func TestDaysSincePublish(t *testing.T) {
	published := t0.Add(-10 * 24 * time.Hour)
	now := t0.Add(30 * 24 * time.Hour)

	t.Run("AgainstLastSnapshot", func(t *testing.T) {
		last := t0
		got := daysSincePublish(&published, &last, now)
		if got == nil || *got != 10 {
			t.Errorf("daysSincePublish = %v, want 10", got)
		}
	})

	t.Run("AgainstNowWithoutSnapshots", func(t *testing.T) {
		got := daysSincePublish(&published, nil, now)
		if got == nil || *got != 40 {
			t.Errorf("daysSincePublish = %v, want 40", got)
		}
	})

	t.Run("NilPublish", func(t *testing.T) {
		if got := daysSincePublish(nil, nil, now); got != nil {
			t.Errorf("daysSincePublish = %v, want nil", got)
		}
	})
}
