// Package engine computes the per-track analytics rows. It is a pure
// batch transformation: given an immutable snapshot of the fact
// collections it derives exactly one row per track, with outer-join
// null propagation for every missing fact. It performs no I/O and is
// safe to rerun; the same facts always produce the same rows.
package engine

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"time"

	"album-pulse/internal/models"

	"golang.org/x/sync/errgroup"
)

// Facts is a point-in-time read of the fact store.
type Facts struct {
	Tracks    []models.Track
	Videos    []models.Video
	Snapshots []models.StatsSnapshot
	Lyrics    []models.Lyrics
}

// Build derives the analytics rows for all tracks as of now. Rows come
// back ordered by track number, then track id. Missing candidates,
// snapshots or lyrics are never errors; only malformed identities are.
// The result is all-or-nothing: any error discards the whole batch.
func Build(ctx context.Context, facts Facts, now time.Time) ([]*models.TrackAnalytics, error) {
	videosByTrack, snapsByVideo, lyricsByTrack, err := index(facts)
	if err != nil {
		return nil, err
	}

	tracks := make([]models.Track, len(facts.Tracks))
	copy(tracks, facts.Tracks)
	sort.Slice(tracks, func(i, j int) bool {
		if tracks[i].Number != tracks[j].Number {
			return tracks[i].Number < tracks[j].Number
		}
		return tracks[i].ID < tracks[j].ID
	})

	// Each track is an independent unit of work; rows land in their
	// slot by index so the pool has no effect on output order.
	rows := make([]*models.TrackAnalytics, len(tracks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, track := range tracks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rows[i] = buildRow(track, videosByTrack[track.ID], snapsByVideo, lyricsByTrack[track.ID], now)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

// index groups the flat fact collections by their parent keys and
// rejects malformed identities. Identity collisions are precondition
// violations, not data gaps, so they fail the run.
func index(facts Facts) (map[string][]models.Video, map[string][]models.StatsSnapshot, map[string]*models.Lyrics, error) {
	seenTracks := make(map[string]struct{}, len(facts.Tracks))
	for _, t := range facts.Tracks {
		if t.ID == "" {
			return nil, nil, nil, fmt.Errorf("track %q has an empty id", t.Name)
		}
		if _, dup := seenTracks[t.ID]; dup {
			return nil, nil, nil, fmt.Errorf("duplicate track id %q", t.ID)
		}
		seenTracks[t.ID] = struct{}{}
	}

	videosByTrack := make(map[string][]models.Video)
	for _, v := range facts.Videos {
		if v.ID == "" || v.TrackID == "" {
			return nil, nil, nil, fmt.Errorf("video %q/%q is missing an identity field", v.ID, v.TrackID)
		}
		videosByTrack[v.TrackID] = append(videosByTrack[v.TrackID], v)
	}

	snapsByVideo := make(map[string][]models.StatsSnapshot)
	seenCaptures := make(map[string]struct{}, len(facts.Snapshots))
	for _, s := range facts.Snapshots {
		if s.VideoID == "" {
			return nil, nil, nil, fmt.Errorf("snapshot at %s has an empty video id", s.CapturedAt)
		}
		key := s.VideoID + "\x00" + s.CapturedAt.UTC().Format(time.RFC3339Nano)
		if _, dup := seenCaptures[key]; dup {
			return nil, nil, nil, fmt.Errorf("duplicate snapshot for video %q at %s", s.VideoID, s.CapturedAt)
		}
		seenCaptures[key] = struct{}{}
		snapsByVideo[s.VideoID] = append(snapsByVideo[s.VideoID], s)
	}

	lyricsByTrack := make(map[string]*models.Lyrics, len(facts.Lyrics))
	for _, l := range facts.Lyrics {
		if l.TrackID == "" {
			return nil, nil, nil, fmt.Errorf("lyrics record has an empty track id")
		}
		if _, dup := lyricsByTrack[l.TrackID]; dup {
			return nil, nil, nil, fmt.Errorf("track %q has more than one lyrics record", l.TrackID)
		}
		lyricsByTrack[l.TrackID] = &l
	}

	return videosByTrack, snapsByVideo, lyricsByTrack, nil
}

// buildRow runs the full chain for one track: aggregate windows per
// candidate, select the primary, derive lyric metrics, then score.
func buildRow(track models.Track, videos []models.Video, snapsByVideo map[string][]models.StatsSnapshot, lyr *models.Lyrics, now time.Time) *models.TrackAnalytics {
	row := &models.TrackAnalytics{
		TrackID:     track.ID,
		TrackNumber: track.Number,
		TrackName:   track.Name,
	}

	cands := make([]candidate, 0, len(videos))
	for _, v := range videos {
		cands = append(cands, candidate{video: v, window: aggregateWindow(snapsByVideo[v.ID])})
	}

	if idx := selectPrimary(cands); idx >= 0 {
		primary := cands[idx]
		v := primary.video
		w := primary.window

		row.VideoID = stringPtr(v.ID)
		row.VideoTitle = stringPtr(v.Title)
		row.ChannelTitle = stringPtr(v.ChannelTitle)
		row.PublishedAt = v.PublishedAt
		row.IsOfficial = boolPtr(v.IsOfficial)
		row.MatchConfidence = stringPtr(v.MatchConfidence)

		row.FirstCapturedAt = w.FirstCapturedAt
		row.LastCapturedAt = w.LastCapturedAt
		row.WindowDays = w.WindowDays
		row.DaysSincePublish = daysSincePublish(v.PublishedAt, w.LastCapturedAt, now)

		row.Views = w.Views
		row.Likes = w.Likes
		row.Comments = w.Comments

		row.ViewsDelta = w.ViewsDelta
		row.LikesDelta = w.LikesDelta
		row.CommentsDelta = w.CommentsDelta
		row.ViewsPerDay = perDay(w.ViewsDelta, w.WindowDays)
		row.LikesPerDay = perDay(w.LikesDelta, w.WindowDays)
		row.CommentsPerDay = perDay(w.CommentsDelta, w.WindowDays)

		row.EngagementRate = engagementRate(w.Views, w.Likes, w.Comments)
		row.EngagementScore = engagementScore(w.Views, w.Likes, w.Comments)
		row.WindowEngagementRate = engagementRate(w.ViewsDelta, w.LikesDelta, w.CommentsDelta)
		row.WindowEngagementScore = engagementScore(w.ViewsDelta, w.LikesDelta, w.CommentsDelta)
	}

	lm := deriveLyricMetrics(lyr)
	row.WordCount = lm.WordCount
	row.UniqueWordCount = lm.UniqueWordCount
	row.RepeatRatio = lm.RepeatRatio
	row.LexicalDiversity = lm.LexicalDiversity
	row.RepeatRatioBucket = repeatRatioBucket(lm.RepeatRatio)
	row.WordCountBucket = wordCountBucket(lm.WordCount)

	row.EngagementPer100Words = engagementPer100Words(row.EngagementScore, row.WordCount)

	return row
}
