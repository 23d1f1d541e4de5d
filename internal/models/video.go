package models

import "time"

// Match confidence labels, ordered high > medium > low > unknown.
const (
	ConfidenceHigh    = "high"
	ConfidenceMedium  = "medium"
	ConfidenceLow     = "low"
	ConfidenceUnknown = "unknown"
)

// Video is a candidate YouTube video for a track. Several videos may
// point at the same track; the engine picks exactly one per track.
type Video struct {
	ID              string     `json:"video_id"`
	TrackID         string     `json:"track_id"`
	Title           string     `json:"title"`
	ChannelTitle    string     `json:"channel_title"`
	PublishedAt     *time.Time `json:"published_at,omitempty"`
	DurationSeconds int        `json:"duration_seconds,omitempty"`
	IsOfficial      bool       `json:"is_official"`
	MatchConfidence string     `json:"match_confidence"`
}

// StatsSnapshot is one point-in-time capture of a video's cumulative
// counters. Append-only; (VideoID, CapturedAt) is unique. Likes and
// comments are nil when the platform withholds them.
type StatsSnapshot struct {
	VideoID    string    `json:"video_id"`
	CapturedAt time.Time `json:"captured_at"`
	Views      int64     `json:"view_count"`
	Likes      *int64    `json:"like_count,omitempty"`
	Comments   *int64    `json:"comment_count,omitempty"`
}
