package albumanalytics

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"album-pulse/internal/models"
	"album-pulse/shared/config"
	"album-pulse/shared/scheduler"
	"album-pulse/shared/storage"
)

func testAgent(t *testing.T) *AnalyticsAgent {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	cfg := &config.Config{}
	cfg.Album.Title = "Test Album"
	cfg.Album.Artist = "Test Artist"

	return &AnalyticsAgent{config: cfg, store: store}
}

func seedFacts(t *testing.T, a *AnalyticsAgent) {
	t.Helper()
	ctx := context.Background()
	published := time.Date(2026, 2, 20, 16, 0, 0, 0, time.UTC)
	likes := int64(120)
	comments := int64(30)

	err := a.store.UpsertTracks(ctx, []models.Track{
		{ID: "album_01", Number: 1, Name: "Opener"},
		{ID: "album_02", Number: 2, Name: "Deep Cut"},
	})
	if err != nil {
		t.Fatalf("seed tracks: %v", err)
	}
	err = a.store.UpsertVideos(ctx, []models.Video{
		{ID: "vidA", TrackID: "album_01", Title: "Opener (Official Video)", PublishedAt: &published, IsOfficial: true, MatchConfidence: models.ConfidenceHigh},
	})
	if err != nil {
		t.Fatalf("seed videos: %v", err)
	}
	_, err = a.store.AppendSnapshots(ctx, []models.StatsSnapshot{
		{VideoID: "vidA", CapturedAt: published.AddDate(0, 0, 1), Views: 1000, Likes: &likes, Comments: &comments},
	})
	if err != nil {
		t.Fatalf("seed snapshots: %v", err)
	}
	err = a.store.UpsertLyrics(ctx, []models.Lyrics{
		{TrackID: "album_01", Text: "hello hello world"},
	})
	if err != nil {
		t.Fatalf("seed lyrics: %v", err)
	}
}

func TestRunOnceRebuildsAnalytics(t *testing.T) {
	ctx := context.Background()
	a := testAgent(t)
	seedFacts(t, a)

	var got Metrics
	events := &scheduler.AgentEvents{
		OnSuccess: func(m scheduler.Metrics, _ time.Duration) {
			got = m.(Metrics)
		},
		OnPartialFailure: func(err error, _ time.Duration) {
			t.Errorf("unexpected partial failure: %v", err)
		},
	}

	if err := a.RunOnce(ctx, events); err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}

	if got.Tracks != 2 || got.Matched != 1 || got.WithLyrics != 1 {
		t.Errorf("metrics: %+v", got)
	}

	rows, err := a.store.Analytics(ctx)
	if err != nil {
		t.Fatalf("Analytics failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 analytics rows, got %d", len(rows))
	}
	if rows[0].TrackID != "album_01" || rows[0].VideoID == nil {
		t.Errorf("matched row wrong: %+v", rows[0])
	}
	if rows[1].VideoID != nil {
		t.Errorf("unmatched track should carry a null video: %+v", rows[1])
	}
}

func TestRunOnceReplacesPriorRun(t *testing.T) {
	ctx := context.Background()
	a := testAgent(t)
	seedFacts(t, a)

	if err := a.RunOnce(ctx, nil); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if err := a.RunOnce(ctx, nil); err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	rows, err := a.store.Analytics(ctx)
	if err != nil {
		t.Fatalf("Analytics failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("second run accumulated rows: got %d, want 2", len(rows))
	}
}

func TestRunOnceExportsCSV(t *testing.T) {
	ctx := context.Background()
	a := testAgent(t)
	seedFacts(t, a)

	path := filepath.Join(t.TempDir(), "analytics.csv")
	a.SetExportPath(path)

	if err := a.RunOnce(ctx, nil); err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}

	body, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("export not written: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(body), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[1], "album_01,1,Opener,vidA") {
		t.Errorf("unexpected first row: %s", lines[1])
	}
}

func TestRunOnceEmptyStore(t *testing.T) {
	ctx := context.Background()
	a := testAgent(t)

	if err := a.RunOnce(ctx, nil); err != nil {
		t.Fatalf("RunOnce on empty store failed: %v", err)
	}

	rows, err := a.store.Analytics(ctx)
	if err != nil {
		t.Fatalf("Analytics failed: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(rows))
	}
}
