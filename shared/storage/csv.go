package storage

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"album-pulse/internal/models"
)

// Seed CSV file names. The importer consumes the flat files the
// collection scripts historically produced, so an existing dataset can
// be loaded into the store in one shot.
const (
	tracksCSV    = "tracks.csv"
	lyricsCSV    = "lyrics.csv"
	videosCSV    = "youtube_videos.csv"
	snapshotsCSV = "youtube_stats_snapshots.csv"
)

// ImportCounts reports how many rows each seed file contributed.
type ImportCounts struct {
	Tracks    int
	Lyrics    int
	Videos    int
	Snapshots int
}

// ImportCSVDir replaces the fact tables with the contents of the seed
// CSV files found in dir. Missing files are skipped; a malformed row in
// a present file aborts the whole import.
func (s *Store) ImportCSVDir(ctx context.Context, dir string) (ImportCounts, error) {
	var counts ImportCounts

	tracks, ok, err := readCSVFile(filepath.Join(dir, tracksCSV), parseTrackRow)
	if err != nil {
		return counts, err
	}
	if !ok {
		return counts, fmt.Errorf("%s not found in %s", tracksCSV, dir)
	}

	lyrics, _, err := readCSVFile(filepath.Join(dir, lyricsCSV), parseLyricsRow)
	if err != nil {
		return counts, err
	}
	videos, _, err := readCSVFile(filepath.Join(dir, videosCSV), parseVideoRow)
	if err != nil {
		return counts, err
	}
	snaps, _, err := readCSVFile(filepath.Join(dir, snapshotsCSV), parseSnapshotRow)
	if err != nil {
		return counts, err
	}

	// Unmatched tracks appear in the videos file with an empty id.
	videos = filterVideos(videos)
	lyrics = filterLyrics(lyrics)

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"youtube_stats_snapshots", "youtube_videos", "lyrics", "tracks"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
		return nil
	})
	if err != nil {
		return counts, err
	}

	if err := s.UpsertTracks(ctx, tracks); err != nil {
		return counts, err
	}
	if err := s.UpsertLyrics(ctx, lyrics); err != nil {
		return counts, err
	}
	if err := s.UpsertVideos(ctx, videos); err != nil {
		return counts, err
	}
	inserted, err := s.AppendSnapshots(ctx, snaps)
	if err != nil {
		return counts, err
	}

	counts = ImportCounts{
		Tracks:    len(tracks),
		Lyrics:    len(lyrics),
		Videos:    len(videos),
		Snapshots: inserted,
	}
	return counts, nil
}

// csvRow exposes a record by header name.
type csvRow struct {
	header map[string]int
	fields []string
}

func (r csvRow) get(name string) string {
	idx, ok := r.header[name]
	if !ok || idx >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[idx])
}

func readCSVFile[T any](path string, parse func(csvRow) (T, error)) ([]T, bool, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	head, err := reader.Read()
	if err == io.EOF {
		return nil, true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read header of %s: %w", path, err)
	}
	header := make(map[string]int, len(head))
	for i, name := range head {
		header[strings.TrimSpace(name)] = i
	}

	var out []T
	line := 1
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false, fmt.Errorf("failed to read %s: %w", path, err)
		}
		line++
		v, err := parse(csvRow{header: header, fields: fields})
		if err != nil {
			return nil, false, fmt.Errorf("%s line %d: %w", filepath.Base(path), line, err)
		}
		out = append(out, v)
	}
	return out, true, nil
}

func parseTrackRow(r csvRow) (models.Track, error) {
	num, err := parseCSVInt(r.get("track_number"))
	if err != nil {
		return models.Track{}, fmt.Errorf("bad track_number: %w", err)
	}
	t := models.Track{
		ID:      r.get("track_id"),
		Number:  int(num),
		Name:    r.get("track_name"),
		RawName: r.get("track_name_raw"),
	}
	if t.ID == "" {
		return models.Track{}, fmt.Errorf("missing track_id")
	}
	return t, nil
}

func parseLyricsRow(r csvRow) (models.Lyrics, error) {
	l := models.Lyrics{
		TrackID:   r.get("track_id"),
		Text:      r.get("lyrics_text"),
		SourceURL: r.get("genius_url"),
	}
	if l.TrackID == "" {
		return models.Lyrics{}, fmt.Errorf("missing track_id")
	}
	var err error
	if l.WordCount, err = parseCSVNullInt(r.get("word_count")); err != nil {
		return models.Lyrics{}, fmt.Errorf("bad word_count: %w", err)
	}
	if l.UniqueWordCount, err = parseCSVNullInt(r.get("unique_word_count")); err != nil {
		return models.Lyrics{}, fmt.Errorf("bad unique_word_count: %w", err)
	}
	if l.RepeatRatio, err = parseCSVNullFloat(r.get("repeat_ratio")); err != nil {
		return models.Lyrics{}, fmt.Errorf("bad repeat_ratio: %w", err)
	}
	return l, nil
}

func parseVideoRow(r csvRow) (models.Video, error) {
	v := models.Video{
		ID:              r.get("youtube_video_id"),
		TrackID:         r.get("track_id"),
		Title:           r.get("youtube_title"),
		ChannelTitle:    r.get("channel_title"),
		MatchConfidence: r.get("match_confidence"),
	}
	if v.TrackID == "" {
		return models.Video{}, fmt.Errorf("missing track_id")
	}
	var err error
	if v.PublishedAt, err = parseCSVNullTime(r.get("published_at")); err != nil {
		return models.Video{}, fmt.Errorf("bad published_at: %w", err)
	}
	if v.IsOfficial, err = parseCSVBool(r.get("is_official")); err != nil {
		return models.Video{}, fmt.Errorf("bad is_official: %w", err)
	}
	if raw := r.get("duration_seconds"); raw != "" {
		dur, err := parseCSVInt(raw)
		if err != nil {
			return models.Video{}, fmt.Errorf("bad duration_seconds: %w", err)
		}
		v.DurationSeconds = int(dur)
	}
	if v.MatchConfidence == "" {
		v.MatchConfidence = models.ConfidenceUnknown
	}
	return v, nil
}

func parseSnapshotRow(r csvRow) (models.StatsSnapshot, error) {
	sn := models.StatsSnapshot{VideoID: r.get("youtube_video_id")}
	if sn.VideoID == "" {
		return models.StatsSnapshot{}, fmt.Errorf("missing youtube_video_id")
	}
	captured, err := parseCSVNullTime(r.get("captured_at"))
	if err != nil || captured == nil {
		return models.StatsSnapshot{}, fmt.Errorf("bad captured_at: %v", err)
	}
	sn.CapturedAt = *captured
	views, err := parseCSVNullInt(r.get("view_count"))
	if err != nil || views == nil {
		return models.StatsSnapshot{}, fmt.Errorf("bad view_count: %v", err)
	}
	sn.Views = *views
	if sn.Likes, err = parseCSVNullInt(r.get("like_count")); err != nil {
		return models.StatsSnapshot{}, fmt.Errorf("bad like_count: %w", err)
	}
	if sn.Comments, err = parseCSVNullInt(r.get("comment_count")); err != nil {
		return models.StatsSnapshot{}, fmt.Errorf("bad comment_count: %w", err)
	}
	return sn, nil
}

func filterVideos(videos []models.Video) []models.Video {
	out := videos[:0]
	for _, v := range videos {
		if v.ID != "" {
			out = append(out, v)
		}
	}
	return out
}

func filterLyrics(lyrics []models.Lyrics) []models.Lyrics {
	out := lyrics[:0]
	for _, l := range lyrics {
		if l.Text != "" || l.WordCount != nil {
			out = append(out, l)
		}
	}
	return out
}

func parseCSVInt(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	// Pandas renders nullable integer columns as floats ("123.0").
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not an integer: %q", s)
	}
	return int64(f), nil
}

func parseCSVNullInt(s string) (*int64, error) {
	if s == "" {
		return nil, nil
	}
	n, err := parseCSVInt(s)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func parseCSVNullFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("not a number: %q", s)
	}
	return &f, nil
}

var csvTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999-07:00",
	"2006-01-02 15:04:05-07:00",
	"2006-01-02",
}

func parseCSVNullTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range csvTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("not a timestamp: %q", s)
}

func parseCSVBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "", "false", "0":
		return false, nil
	case "true", "1":
		return true, nil
	}
	return false, fmt.Errorf("not a boolean: %q", s)
}

// WriteAnalyticsCSV writes the analytics rows as a flat CSV, one row
// per track, nulls rendered as empty cells.
func WriteAnalyticsCSV(w io.Writer, rows []*models.TrackAnalytics) error {
	cw := csv.NewWriter(w)
	header := []string{
		"track_id", "track_number", "track_name",
		"video_id", "video_title", "channel_title", "published_at", "is_official", "match_confidence",
		"first_captured_at", "last_captured_at", "window_days", "days_since_publish",
		"views", "likes", "comments",
		"views_delta", "likes_delta", "comments_delta",
		"views_delta_per_day", "likes_delta_per_day", "comments_delta_per_day",
		"engagement_rate", "engagement_score", "window_engagement_rate", "window_engagement_score",
		"word_count", "unique_word_count", "repeat_ratio", "lexical_diversity", "engagement_per_100_words",
		"repeat_ratio_bucket", "word_count_bucket",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, r := range rows {
		record := []string{
			r.TrackID, strconv.Itoa(r.TrackNumber), r.TrackName,
			cellString(r.VideoID), cellString(r.VideoTitle), cellString(r.ChannelTitle),
			cellTime(r.PublishedAt), cellBool(r.IsOfficial), cellString(r.MatchConfidence),
			cellTime(r.FirstCapturedAt), cellTime(r.LastCapturedAt),
			cellInt(r.WindowDays), cellInt(r.DaysSincePublish),
			cellInt(r.Views), cellInt(r.Likes), cellInt(r.Comments),
			cellInt(r.ViewsDelta), cellInt(r.LikesDelta), cellInt(r.CommentsDelta),
			cellFloat(r.ViewsPerDay), cellFloat(r.LikesPerDay), cellFloat(r.CommentsPerDay),
			cellFloat(r.EngagementRate), cellFloat(r.EngagementScore),
			cellFloat(r.WindowEngagementRate), cellFloat(r.WindowEngagementScore),
			cellInt(r.WordCount), cellInt(r.UniqueWordCount),
			cellFloat(r.RepeatRatio), cellFloat(r.LexicalDiversity), cellFloat(r.EngagementPer100Words),
			cellString(r.RepeatRatioBucket), cellString(r.WordCountBucket),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row for %s: %w", r.TrackID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func cellString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func cellInt(p *int64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatInt(*p, 10)
}

func cellFloat(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}

func cellBool(p *bool) string {
	if p == nil {
		return ""
	}
	return strconv.FormatBool(*p)
}

func cellTime(p *time.Time) string {
	if p == nil {
		return ""
	}
	return p.UTC().Format(time.RFC3339)
}
