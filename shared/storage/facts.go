package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"album-pulse/internal/models"
)

func millis(t time.Time) int64 { return t.UTC().UnixMilli() }

func millisPtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return millis(*t)
}

func timeFromMillis(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.UnixMilli(v.Int64).UTC()
	return &t
}

// UpsertTracks inserts or refreshes track facts.
func (s *Store) UpsertTracks(ctx context.Context, tracks []models.Track) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO tracks (track_id, track_number, track_name, track_name_raw)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(track_id) DO UPDATE SET
				track_number = excluded.track_number,
				track_name = excluded.track_name,
				track_name_raw = excluded.track_name_raw`)
		if err != nil {
			return fmt.Errorf("failed to prepare track upsert: %w", err)
		}
		defer stmt.Close()

		for _, t := range tracks {
			if t.ID == "" {
				return fmt.Errorf("track %q has an empty id", t.Name)
			}
			if _, err := stmt.ExecContext(ctx, t.ID, t.Number, t.Name, t.RawName); err != nil {
				return fmt.Errorf("failed to upsert track %s: %w", t.ID, err)
			}
		}
		return nil
	})
}

// UpsertLyrics inserts or refreshes lyric records.
func (s *Store) UpsertLyrics(ctx context.Context, lyrics []models.Lyrics) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO lyrics (track_id, lyrics_text, word_count, unique_word_count, repeat_ratio, source_url)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(track_id) DO UPDATE SET
				lyrics_text = excluded.lyrics_text,
				word_count = excluded.word_count,
				unique_word_count = excluded.unique_word_count,
				repeat_ratio = excluded.repeat_ratio,
				source_url = excluded.source_url`)
		if err != nil {
			return fmt.Errorf("failed to prepare lyrics upsert: %w", err)
		}
		defer stmt.Close()

		for _, l := range lyrics {
			if _, err := stmt.ExecContext(ctx, l.TrackID, l.Text, l.WordCount, l.UniqueWordCount, l.RepeatRatio, l.SourceURL); err != nil {
				return fmt.Errorf("failed to upsert lyrics for %s: %w", l.TrackID, err)
			}
		}
		return nil
	})
}

// UpsertVideos inserts or refreshes candidate videos.
func (s *Store) UpsertVideos(ctx context.Context, videos []models.Video) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO youtube_videos (video_id, track_id, title, channel_title, published_at, duration_seconds, is_official, match_confidence)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(video_id) DO UPDATE SET
				track_id = excluded.track_id,
				title = excluded.title,
				channel_title = excluded.channel_title,
				published_at = excluded.published_at,
				duration_seconds = excluded.duration_seconds,
				is_official = excluded.is_official,
				match_confidence = excluded.match_confidence`)
		if err != nil {
			return fmt.Errorf("failed to prepare video upsert: %w", err)
		}
		defer stmt.Close()

		for _, v := range videos {
			if _, err := stmt.ExecContext(ctx, v.ID, v.TrackID, v.Title, v.ChannelTitle, millisPtr(v.PublishedAt), v.DurationSeconds, v.IsOfficial, v.MatchConfidence); err != nil {
				return fmt.Errorf("failed to upsert video %s: %w", v.ID, err)
			}
		}
		return nil
	})
}

// AppendSnapshots appends stats snapshots, silently skipping captures
// already recorded for the same video and timestamp. Returns how many
// rows were actually inserted.
func (s *Store) AppendSnapshots(ctx context.Context, snaps []models.StatsSnapshot) (int, error) {
	inserted := 0
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO youtube_stats_snapshots (video_id, captured_at, view_count, like_count, comment_count)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(video_id, captured_at) DO NOTHING`)
		if err != nil {
			return fmt.Errorf("failed to prepare snapshot insert: %w", err)
		}
		defer stmt.Close()

		for _, sn := range snaps {
			res, err := stmt.ExecContext(ctx, sn.VideoID, millis(sn.CapturedAt), sn.Views, sn.Likes, sn.Comments)
			if err != nil {
				return fmt.Errorf("failed to insert snapshot for %s: %w", sn.VideoID, err)
			}
			if n, err := res.RowsAffected(); err == nil {
				inserted += int(n)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// Tracks returns all tracks ordered by track number.
func (s *Store) Tracks(ctx context.Context) ([]models.Track, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT track_id, track_number, track_name, track_name_raw
		FROM tracks ORDER BY track_number, track_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []models.Track
	for rows.Next() {
		var t models.Track
		if err := rows.Scan(&t.ID, &t.Number, &t.Name, &t.RawName); err != nil {
			return nil, fmt.Errorf("failed to scan track: %w", err)
		}
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}

// Lyrics returns all lyric records.
func (s *Store) Lyrics(ctx context.Context) ([]models.Lyrics, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT track_id, lyrics_text, word_count, unique_word_count, repeat_ratio, source_url
		FROM lyrics ORDER BY track_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query lyrics: %w", err)
	}
	defer rows.Close()

	var lyrics []models.Lyrics
	for rows.Next() {
		var l models.Lyrics
		if err := rows.Scan(&l.TrackID, &l.Text, &l.WordCount, &l.UniqueWordCount, &l.RepeatRatio, &l.SourceURL); err != nil {
			return nil, fmt.Errorf("failed to scan lyrics: %w", err)
		}
		lyrics = append(lyrics, l)
	}
	return lyrics, rows.Err()
}

// Videos returns all candidate videos.
func (s *Store) Videos(ctx context.Context) ([]models.Video, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT video_id, track_id, title, channel_title, published_at, duration_seconds, is_official, match_confidence
		FROM youtube_videos ORDER BY video_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query videos: %w", err)
	}
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		var v models.Video
		var published sql.NullInt64
		if err := rows.Scan(&v.ID, &v.TrackID, &v.Title, &v.ChannelTitle, &published, &v.DurationSeconds, &v.IsOfficial, &v.MatchConfidence); err != nil {
			return nil, fmt.Errorf("failed to scan video: %w", err)
		}
		v.PublishedAt = timeFromMillis(published)
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

// Snapshots returns the full snapshot history ordered by capture time.
func (s *Store) Snapshots(ctx context.Context) ([]models.StatsSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT video_id, captured_at, view_count, like_count, comment_count
		FROM youtube_stats_snapshots ORDER BY video_id, captured_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []models.StatsSnapshot
	for rows.Next() {
		var sn models.StatsSnapshot
		var captured int64
		if err := rows.Scan(&sn.VideoID, &captured, &sn.Views, &sn.Likes, &sn.Comments); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		sn.CapturedAt = time.UnixMilli(captured).UTC()
		snaps = append(snaps, sn)
	}
	return snaps, rows.Err()
}
