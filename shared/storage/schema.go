package storage

// Timestamps are stored as integer unix milliseconds (UTC). Nullable
// columns mirror the nullable pointer fields on the models.
const schema = `
-- Album tracks (immutable once loaded)
CREATE TABLE IF NOT EXISTS tracks (
    track_id        TEXT PRIMARY KEY,
    track_number    INTEGER NOT NULL,
    track_name      TEXT NOT NULL,
    track_name_raw  TEXT NOT NULL DEFAULT ''
);

-- Lyric record, at most one per track
CREATE TABLE IF NOT EXISTS lyrics (
    track_id          TEXT PRIMARY KEY REFERENCES tracks(track_id) ON DELETE CASCADE,
    lyrics_text       TEXT NOT NULL DEFAULT '',
    word_count        INTEGER,
    unique_word_count INTEGER,
    repeat_ratio      REAL,
    source_url        TEXT NOT NULL DEFAULT ''
);

-- Candidate videos, several may point at one track
CREATE TABLE IF NOT EXISTS youtube_videos (
    video_id         TEXT PRIMARY KEY,
    track_id         TEXT NOT NULL REFERENCES tracks(track_id) ON DELETE CASCADE,
    title            TEXT NOT NULL DEFAULT '',
    channel_title    TEXT NOT NULL DEFAULT '',
    published_at     INTEGER,
    duration_seconds INTEGER NOT NULL DEFAULT 0,
    is_official      INTEGER NOT NULL DEFAULT 0,
    match_confidence TEXT NOT NULL DEFAULT 'unknown'
);
CREATE INDEX IF NOT EXISTS idx_videos_track ON youtube_videos(track_id);

-- Append-only stats snapshot history
CREATE TABLE IF NOT EXISTS youtube_stats_snapshots (
    video_id      TEXT NOT NULL REFERENCES youtube_videos(video_id) ON DELETE CASCADE,
    captured_at   INTEGER NOT NULL,
    view_count    INTEGER NOT NULL,
    like_count    INTEGER,
    comment_count INTEGER,
    UNIQUE(video_id, captured_at)
);
CREATE INDEX IF NOT EXISTS idx_snapshots_video ON youtube_stats_snapshots(video_id, captured_at);

-- Derived analytics, replaced wholesale each run
CREATE TABLE IF NOT EXISTS track_analytics (
    track_id                 TEXT PRIMARY KEY,
    track_number             INTEGER NOT NULL,
    track_name               TEXT NOT NULL,
    video_id                 TEXT,
    video_title              TEXT,
    channel_title            TEXT,
    published_at             INTEGER,
    is_official              INTEGER,
    match_confidence         TEXT,
    first_captured_at        INTEGER,
    last_captured_at         INTEGER,
    window_days              INTEGER,
    days_since_publish       INTEGER,
    views                    INTEGER,
    likes                    INTEGER,
    comments                 INTEGER,
    views_delta              INTEGER,
    likes_delta              INTEGER,
    comments_delta           INTEGER,
    views_delta_per_day      REAL,
    likes_delta_per_day      REAL,
    comments_delta_per_day   REAL,
    engagement_rate          REAL,
    engagement_score         REAL,
    window_engagement_rate   REAL,
    window_engagement_score  REAL,
    word_count               INTEGER,
    unique_word_count        INTEGER,
    repeat_ratio             REAL,
    lexical_diversity        REAL,
    engagement_per_100_words REAL,
    repeat_ratio_bucket      TEXT,
    word_count_bucket        TEXT,
    computed_at              INTEGER NOT NULL
);
`
