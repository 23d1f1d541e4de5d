package models

import "time"

// TrackAnalytics is the derived analytics row, exactly one per track.
// Pointer fields carry SQL-style nulls: a track without a matched video,
// without snapshots, or without lyrics keeps its identity columns and
// nulls everywhere downstream of the missing fact.
type TrackAnalytics struct {
	TrackID     string `json:"track_id"`
	TrackNumber int    `json:"track_number"`
	TrackName   string `json:"track_name"`

	// Selected primary candidate.
	VideoID         *string    `json:"video_id"`
	VideoTitle      *string    `json:"video_title"`
	ChannelTitle    *string    `json:"channel_title"`
	PublishedAt     *time.Time `json:"published_at"`
	IsOfficial      *bool      `json:"is_official"`
	MatchConfidence *string    `json:"match_confidence"`

	// Observation window.
	FirstCapturedAt  *time.Time `json:"first_captured_at"`
	LastCapturedAt   *time.Time `json:"last_captured_at"`
	WindowDays       *int64     `json:"window_days"`
	DaysSincePublish *int64     `json:"days_since_publish"`

	// As-of counters (latest snapshot).
	Views    *int64 `json:"views"`
	Likes    *int64 `json:"likes"`
	Comments *int64 `json:"comments"`

	// Window deltas and per-day rates.
	ViewsDelta     *int64   `json:"views_delta"`
	LikesDelta     *int64   `json:"likes_delta"`
	CommentsDelta  *int64   `json:"comments_delta"`
	ViewsPerDay    *float64 `json:"views_delta_per_day"`
	LikesPerDay    *float64 `json:"likes_delta_per_day"`
	CommentsPerDay *float64 `json:"comments_delta_per_day"`

	// Composite scores.
	EngagementRate        *float64 `json:"engagement_rate"`
	EngagementScore       *float64 `json:"engagement_score"`
	WindowEngagementRate  *float64 `json:"window_engagement_rate"`
	WindowEngagementScore *float64 `json:"window_engagement_score"`

	// Lyric metrics and cross-domain ratio.
	WordCount             *int64   `json:"word_count"`
	UniqueWordCount       *int64   `json:"unique_word_count"`
	RepeatRatio           *float64 `json:"repeat_ratio"`
	LexicalDiversity      *float64 `json:"lexical_diversity"`
	EngagementPer100Words *float64 `json:"engagement_per_100_words"`

	// Buckets.
	RepeatRatioBucket *string `json:"repeat_ratio_bucket"`
	WordCountBucket   *string `json:"word_count_bucket"`
}

// DigestReport is the payload for the post-run email digest.
type DigestReport struct {
	Date       time.Time         `json:"date"`
	AlbumTitle string            `json:"album_title"`
	Artist     string            `json:"artist"`
	Rows       []*TrackAnalytics `json:"rows"`
	Matched    int               `json:"matched"`
	Commentary string            `json:"commentary,omitempty"`
}
