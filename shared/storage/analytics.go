package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"album-pulse/internal/models"
)

// ReplaceAnalytics swaps in a freshly computed analytics table. The old
// rows are dropped and the new set written in a single transaction so
// readers never observe a partial run.
func (s *Store) ReplaceAnalytics(ctx context.Context, rows []*models.TrackAnalytics, computedAt time.Time) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM track_analytics`); err != nil {
			return fmt.Errorf("failed to clear analytics: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO track_analytics (
				track_id, track_number, track_name,
				video_id, video_title, channel_title, published_at, is_official, match_confidence,
				first_captured_at, last_captured_at, window_days, days_since_publish,
				views, likes, comments,
				views_delta, likes_delta, comments_delta,
				views_delta_per_day, likes_delta_per_day, comments_delta_per_day,
				engagement_rate, engagement_score, window_engagement_rate, window_engagement_score,
				word_count, unique_word_count, repeat_ratio, lexical_diversity, engagement_per_100_words,
				repeat_ratio_bucket, word_count_bucket, computed_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare analytics insert: %w", err)
		}
		defer stmt.Close()

		stamp := millis(computedAt)
		for _, r := range rows {
			_, err := stmt.ExecContext(ctx,
				r.TrackID, r.TrackNumber, r.TrackName,
				r.VideoID, r.VideoTitle, r.ChannelTitle, millisPtr(r.PublishedAt), r.IsOfficial, r.MatchConfidence,
				millisPtr(r.FirstCapturedAt), millisPtr(r.LastCapturedAt), r.WindowDays, r.DaysSincePublish,
				r.Views, r.Likes, r.Comments,
				r.ViewsDelta, r.LikesDelta, r.CommentsDelta,
				r.ViewsPerDay, r.LikesPerDay, r.CommentsPerDay,
				r.EngagementRate, r.EngagementScore, r.WindowEngagementRate, r.WindowEngagementScore,
				r.WordCount, r.UniqueWordCount, r.RepeatRatio, r.LexicalDiversity, r.EngagementPer100Words,
				r.RepeatRatioBucket, r.WordCountBucket, stamp,
			)
			if err != nil {
				return fmt.Errorf("failed to insert analytics for %s: %w", r.TrackID, err)
			}
		}
		return nil
	})
}

// Analytics reads the current analytics table ordered by track number.
func (s *Store) Analytics(ctx context.Context) ([]*models.TrackAnalytics, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT track_id, track_number, track_name,
			video_id, video_title, channel_title, published_at, is_official, match_confidence,
			first_captured_at, last_captured_at, window_days, days_since_publish,
			views, likes, comments,
			views_delta, likes_delta, comments_delta,
			views_delta_per_day, likes_delta_per_day, comments_delta_per_day,
			engagement_rate, engagement_score, window_engagement_rate, window_engagement_score,
			word_count, unique_word_count, repeat_ratio, lexical_diversity, engagement_per_100_words,
			repeat_ratio_bucket, word_count_bucket
		FROM track_analytics ORDER BY track_number, track_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query analytics: %w", err)
	}
	defer rows.Close()

	var out []*models.TrackAnalytics
	for rows.Next() {
		var r models.TrackAnalytics
		var published, firstCap, lastCap sql.NullInt64
		err := rows.Scan(
			&r.TrackID, &r.TrackNumber, &r.TrackName,
			&r.VideoID, &r.VideoTitle, &r.ChannelTitle, &published, &r.IsOfficial, &r.MatchConfidence,
			&firstCap, &lastCap, &r.WindowDays, &r.DaysSincePublish,
			&r.Views, &r.Likes, &r.Comments,
			&r.ViewsDelta, &r.LikesDelta, &r.CommentsDelta,
			&r.ViewsPerDay, &r.LikesPerDay, &r.CommentsPerDay,
			&r.EngagementRate, &r.EngagementScore, &r.WindowEngagementRate, &r.WindowEngagementScore,
			&r.WordCount, &r.UniqueWordCount, &r.RepeatRatio, &r.LexicalDiversity, &r.EngagementPer100Words,
			&r.RepeatRatioBucket, &r.WordCountBucket,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analytics row: %w", err)
		}
		r.PublishedAt = timeFromMillis(published)
		r.FirstCapturedAt = timeFromMillis(firstCap)
		r.LastCapturedAt = timeFromMillis(lastCap)
		out = append(out, &r)
	}
	return out, rows.Err()
}
