package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"album-pulse/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestFactRoundtrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	published := time.Date(2026, 2, 20, 16, 0, 0, 0, time.UTC)
	likes := int64(120)

	tracks := []models.Track{
		{ID: "album_02", Number: 2, Name: "Second", RawName: "Second (feat. Someone)"},
		{ID: "album_01", Number: 1, Name: "First"},
	}
	videos := []models.Video{
		{ID: "vidA", TrackID: "album_01", Title: "First (Official Video)", ChannelTitle: "Label", PublishedAt: &published, DurationSeconds: 212, IsOfficial: true, MatchConfidence: models.ConfidenceHigh},
	}
	snaps := []models.StatsSnapshot{
		{VideoID: "vidA", CapturedAt: published.AddDate(0, 0, 1), Views: 1000, Likes: &likes},
	}
	lyrics := []models.Lyrics{
		{TrackID: "album_01", Text: "hello hello world", SourceURL: "https://example.com/first"},
	}

	if err := s.UpsertTracks(ctx, tracks); err != nil {
		t.Fatalf("UpsertTracks failed: %v", err)
	}
	if err := s.UpsertVideos(ctx, videos); err != nil {
		t.Fatalf("UpsertVideos failed: %v", err)
	}
	if _, err := s.AppendSnapshots(ctx, snaps); err != nil {
		t.Fatalf("AppendSnapshots failed: %v", err)
	}
	if err := s.UpsertLyrics(ctx, lyrics); err != nil {
		t.Fatalf("UpsertLyrics failed: %v", err)
	}

	gotTracks, err := s.Tracks(ctx)
	if err != nil {
		t.Fatalf("Tracks failed: %v", err)
	}
	if len(gotTracks) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(gotTracks))
	}
	if gotTracks[0].ID != "album_01" || gotTracks[1].ID != "album_02" {
		t.Errorf("tracks not ordered by number: %v, %v", gotTracks[0].ID, gotTracks[1].ID)
	}

	gotVideos, err := s.Videos(ctx)
	if err != nil {
		t.Fatalf("Videos failed: %v", err)
	}
	if len(gotVideos) != 1 {
		t.Fatalf("expected 1 video, got %d", len(gotVideos))
	}
	v := gotVideos[0]
	if v.PublishedAt == nil || !v.PublishedAt.Equal(published) {
		t.Errorf("published_at roundtrip: got %v, want %v", v.PublishedAt, published)
	}
	if !v.IsOfficial || v.MatchConfidence != models.ConfidenceHigh || v.DurationSeconds != 212 {
		t.Errorf("video fields lost: %+v", v)
	}

	gotSnaps, err := s.Snapshots(ctx)
	if err != nil {
		t.Fatalf("Snapshots failed: %v", err)
	}
	if len(gotSnaps) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(gotSnaps))
	}
	sn := gotSnaps[0]
	if sn.Views != 1000 {
		t.Errorf("views: got %d, want 1000", sn.Views)
	}
	if sn.Likes == nil || *sn.Likes != 120 {
		t.Errorf("likes: got %v, want 120", sn.Likes)
	}
	if sn.Comments != nil {
		t.Errorf("comments should stay null, got %v", *sn.Comments)
	}

	gotLyrics, err := s.Lyrics(ctx)
	if err != nil {
		t.Fatalf("Lyrics failed: %v", err)
	}
	if len(gotLyrics) != 1 || gotLyrics[0].Text != "hello hello world" {
		t.Fatalf("lyrics roundtrip failed: %+v", gotLyrics)
	}
	if gotLyrics[0].WordCount != nil {
		t.Errorf("word_count should stay null, got %v", *gotLyrics[0].WordCount)
	}
}

func TestUpsertTrackRefreshes(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if err := s.UpsertTracks(ctx, []models.Track{{ID: "album_01", Number: 1, Name: "Old"}}); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}
	if err := s.UpsertTracks(ctx, []models.Track{{ID: "album_01", Number: 1, Name: "New"}}); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	tracks, err := s.Tracks(ctx)
	if err != nil {
		t.Fatalf("Tracks failed: %v", err)
	}
	if len(tracks) != 1 || tracks[0].Name != "New" {
		t.Fatalf("upsert did not refresh: %+v", tracks)
	}
}

func TestAppendSnapshotsSkipsDuplicates(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	seedTrackAndVideo(t, s)
	at := time.Date(2026, 3, 1, 19, 30, 0, 0, time.UTC)
	snap := models.StatsSnapshot{VideoID: "vidA", CapturedAt: at, Views: 500}

	n, err := s.AppendSnapshots(ctx, []models.StatsSnapshot{snap})
	if err != nil {
		t.Fatalf("first append failed: %v", err)
	}
	if n != 1 {
		t.Errorf("first append: got %d inserted, want 1", n)
	}

	n, err = s.AppendSnapshots(ctx, []models.StatsSnapshot{snap})
	if err != nil {
		t.Fatalf("second append failed: %v", err)
	}
	if n != 0 {
		t.Errorf("duplicate append: got %d inserted, want 0", n)
	}

	snaps, err := s.Snapshots(ctx)
	if err != nil {
		t.Fatalf("Snapshots failed: %v", err)
	}
	if len(snaps) != 1 {
		t.Fatalf("expected 1 snapshot after duplicate append, got %d", len(snaps))
	}
}

func TestReplaceAnalytics(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	vid := "vidA"
	views := int64(1000)
	rate := 0.06
	row := &models.TrackAnalytics{
		TrackID:        "album_01",
		TrackNumber:    1,
		TrackName:      "First",
		VideoID:        &vid,
		Views:          &views,
		EngagementRate: &rate,
	}
	now := time.Date(2026, 4, 1, 18, 0, 0, 0, time.UTC)

	if err := s.ReplaceAnalytics(ctx, []*models.TrackAnalytics{row}, now); err != nil {
		t.Fatalf("first replace failed: %v", err)
	}

	// A second run replaces, never accumulates.
	row2 := &models.TrackAnalytics{TrackID: "album_02", TrackNumber: 2, TrackName: "Second"}
	if err := s.ReplaceAnalytics(ctx, []*models.TrackAnalytics{row, row2}, now.AddDate(0, 0, 1)); err != nil {
		t.Fatalf("second replace failed: %v", err)
	}

	got, err := s.Analytics(ctx)
	if err != nil {
		t.Fatalf("Analytics failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	first := got[0]
	if first.TrackID != "album_01" {
		t.Fatalf("rows not ordered by track number: %s first", first.TrackID)
	}
	if first.VideoID == nil || *first.VideoID != "vidA" {
		t.Errorf("video_id roundtrip: got %v", first.VideoID)
	}
	if first.EngagementRate == nil || *first.EngagementRate != 0.06 {
		t.Errorf("engagement_rate roundtrip: got %v", first.EngagementRate)
	}
	second := got[1]
	if second.VideoID != nil || second.Views != nil {
		t.Errorf("null columns should stay null: %+v", second)
	}
}

func TestImportCSVDir(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	dir := t.TempDir()

	writeFile(t, dir, "tracks.csv",
		"track_id,track_number,track_name,track_name_raw\n"+
			"album_01,1,First,First\n"+
			"album_02,2,Second,Second (feat. Someone)\n")
	// An unmatched track carries an empty youtube_video_id.
	writeFile(t, dir, "youtube_videos.csv",
		"track_id,youtube_video_id,youtube_title,channel_title,published_at,is_official,match_confidence\n"+
			"album_01,vidA,First (Official),Label,2026-02-20T16:00:00+00:00,True,high\n"+
			"album_02,,,Label,,True,none\n")
	// Pandas renders nullable counters as floats.
	writeFile(t, dir, "youtube_stats_snapshots.csv",
		"youtube_video_id,captured_at,view_count,like_count,comment_count\n"+
			"vidA,2026-03-01T19:30:00+00:00,1000,120.0,\n")
	writeFile(t, dir, "lyrics.csv",
		"track_id,lyrics_text,word_count,unique_word_count,repeat_ratio,genius_url\n"+
			"album_01,hello hello world,3,2,0.3333333333333333,https://example.com/first\n"+
			"album_02,,,,,\n")

	counts, err := s.ImportCSVDir(ctx, dir)
	if err != nil {
		t.Fatalf("ImportCSVDir failed: %v", err)
	}
	if counts.Tracks != 2 || counts.Videos != 1 || counts.Snapshots != 1 || counts.Lyrics != 1 {
		t.Fatalf("unexpected counts: %+v", counts)
	}

	videos, err := s.Videos(ctx)
	if err != nil {
		t.Fatalf("Videos failed: %v", err)
	}
	if len(videos) != 1 || videos[0].ID != "vidA" || !videos[0].IsOfficial {
		t.Fatalf("video import: %+v", videos)
	}
	if videos[0].PublishedAt == nil || !videos[0].PublishedAt.Equal(time.Date(2026, 2, 20, 16, 0, 0, 0, time.UTC)) {
		t.Errorf("published_at parse: got %v", videos[0].PublishedAt)
	}

	snaps, err := s.Snapshots(ctx)
	if err != nil {
		t.Fatalf("Snapshots failed: %v", err)
	}
	if len(snaps) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(snaps))
	}
	if snaps[0].Likes == nil || *snaps[0].Likes != 120 {
		t.Errorf("float-rendered like_count: got %v", snaps[0].Likes)
	}
	if snaps[0].Comments != nil {
		t.Errorf("empty comment_count should be null, got %v", *snaps[0].Comments)
	}

	lyrics, err := s.Lyrics(ctx)
	if err != nil {
		t.Fatalf("Lyrics failed: %v", err)
	}
	if len(lyrics) != 1 || lyrics[0].TrackID != "album_01" {
		t.Fatalf("empty lyric rows should be dropped: %+v", lyrics)
	}
	if lyrics[0].RepeatRatio == nil || *lyrics[0].RepeatRatio != 1.0/3.0 {
		t.Errorf("repeat_ratio parse: got %v", lyrics[0].RepeatRatio)
	}

	// Re-import replaces rather than accumulates.
	if _, err := s.ImportCSVDir(ctx, dir); err != nil {
		t.Fatalf("second import failed: %v", err)
	}
	tracks, err := s.Tracks(ctx)
	if err != nil {
		t.Fatalf("Tracks failed: %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("re-import accumulated tracks: got %d", len(tracks))
	}
}

func TestImportCSVDirErrors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		files map[string]string
	}{
		{
			name:  "missing tracks file",
			files: map[string]string{},
		},
		{
			name: "malformed track number",
			files: map[string]string{
				"tracks.csv": "track_id,track_number,track_name\nalbum_01,one,First\n",
			},
		},
		{
			name: "malformed timestamp",
			files: map[string]string{
				"tracks.csv":         "track_id,track_number,track_name\nalbum_01,1,First\n",
				"youtube_videos.csv": "track_id,youtube_video_id,published_at,is_official\nalbum_01,vidA,yesterday,True\n",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := openTestStore(t)
			dir := t.TempDir()
			for name, body := range tt.files {
				writeFile(t, dir, name, body)
			}
			if _, err := s.ImportCSVDir(ctx, dir); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestWriteAnalyticsCSV(t *testing.T) {
	vid := "vidA"
	views := int64(1000)
	rate := 0.06
	rows := []*models.TrackAnalytics{
		{TrackID: "album_01", TrackNumber: 1, TrackName: "First", VideoID: &vid, Views: &views, EngagementRate: &rate},
		{TrackID: "album_02", TrackNumber: 2, TrackName: "Second"},
	}

	var buf bytes.Buffer
	if err := WriteAnalyticsCSV(&buf, rows); err != nil {
		t.Fatalf("WriteAnalyticsCSV failed: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "track_id,track_number,track_name,video_id") {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if !strings.Contains(lines[1], "vidA") || !strings.Contains(lines[1], "0.06") {
		t.Errorf("first row missing values: %s", lines[1])
	}
	// Null columns render as empty cells.
	if !strings.Contains(lines[2], "album_02,2,Second,,") {
		t.Errorf("second row should have empty cells: %s", lines[2])
	}
}

func seedTrackAndVideo(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	if err := s.UpsertTracks(ctx, []models.Track{{ID: "album_01", Number: 1, Name: "First"}}); err != nil {
		t.Fatalf("seed tracks failed: %v", err)
	}
	if err := s.UpsertVideos(ctx, []models.Video{{ID: "vidA", TrackID: "album_01", MatchConfidence: models.ConfidenceHigh}}); err != nil {
		t.Fatalf("seed videos failed: %v", err)
	}
}

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}
