package models

// Track is one album track. Immutable after ingestion; track IDs are
// slug-prefixed ordinals like "dont_be_dumb_03".
type Track struct {
	ID      string `json:"track_id"`
	Number  int    `json:"track_number"`
	Name    string `json:"track_name"`
	RawName string `json:"track_name_raw,omitempty"`
}

// Lyrics is the lyric record for a track (at most one per track).
// WordCount, UniqueWordCount and RepeatRatio may be precomputed by the
// ingestion side; when absent they are rederived from Text.
type Lyrics struct {
	TrackID         string   `json:"track_id"`
	Text            string   `json:"lyrics_text"`
	WordCount       *int64   `json:"word_count,omitempty"`
	UniqueWordCount *int64   `json:"unique_word_count,omitempty"`
	RepeatRatio     *float64 `json:"repeat_ratio,omitempty"`
	SourceURL       string   `json:"source_url,omitempty"`
}
