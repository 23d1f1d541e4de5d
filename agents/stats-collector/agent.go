package statscollector

import (
	"context"
	"fmt"
	"log"
	"time"

	"album-pulse/agents/stats-collector/youtube"
	"album-pulse/internal/models"
	"album-pulse/shared/config"
	"album-pulse/shared/scheduler"
	"album-pulse/shared/storage"
)

// Metrics summarizes one collection run for the health endpoint.
type Metrics struct {
	Skipped    bool
	NewMatches int
	Snapshots  int
	Tracked    int
}

func (m Metrics) GetSummary() string {
	if m.Skipped {
		return "outside snapshot window, nothing captured"
	}
	return fmt.Sprintf("%d videos tracked, %d new matches, %d snapshots captured",
		m.Tracked, m.NewMatches, m.Snapshots)
}

// CollectorAgent implements the scheduler.Agent interface. Each run it
// matches still-unmatched tracks against the album playlist and appends
// a stats snapshot for every tracked video.
type CollectorAgent struct {
	config        *config.Config
	store         *storage.Store
	youtubeClient *youtube.Client
	forceRun      bool
}

func NewCollectorAgent(cfg *config.Config) *CollectorAgent {
	return &CollectorAgent{config: cfg}
}

func (c *CollectorAgent) Name() string {
	return "Stats Collector"
}

// SetForceRun captures a snapshot even outside the UTC evening window.
// Off-window snapshots make day-over-day deltas noisier, so this is for
// catch-up runs only.
func (c *CollectorAgent) SetForceRun(force bool) {
	c.forceRun = force
}

func (c *CollectorAgent) Initialize() error {
	log.Printf("Initializing %s...", c.Name())

	if c.store == nil {
		store, err := storage.Open(c.config.Storage.Path)
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		c.store = store
		log.Printf("Store opened at %s", c.config.Storage.Path)
	}

	if c.youtubeClient == nil {
		client, err := youtube.NewClient(&c.config.YouTube)
		if err != nil {
			return fmt.Errorf("failed to create YouTube client: %w", err)
		}
		c.youtubeClient = client
		log.Println("YouTube client initialized")
	}

	return nil
}

func (c *CollectorAgent) RunOnce(ctx context.Context, events *scheduler.AgentEvents) error {
	startTime := time.Now()
	now := time.Now().UTC()

	if !c.forceRun && !inSnapshotWindow(now.Hour(), c.config.YouTube.SnapshotStartHourUTC, c.config.YouTube.SnapshotEndHourUTC) {
		log.Printf("Current UTC hour is %d, snapshots only captured between %d:00 and %d:00 UTC, skipping",
			now.Hour(), c.config.YouTube.SnapshotStartHourUTC, c.config.YouTube.SnapshotEndHourUTC)
		if events != nil {
			events.OnSuccess(Metrics{Skipped: true}, time.Since(startTime))
		}
		return nil
	}

	tracks, err := c.store.Tracks(ctx)
	if err != nil {
		return fmt.Errorf("failed to load tracks: %w", err)
	}
	videos, err := c.store.Videos(ctx)
	if err != nil {
		return fmt.Errorf("failed to load videos: %w", err)
	}

	// Matching is best-effort; snapshots of already matched videos
	// still have value.
	newMatches, matchErr := c.matchUnmatchedTracks(ctx, tracks, videos)
	if matchErr != nil {
		log.Printf("Warning: matching failed: %v", matchErr)
	} else if newMatches > 0 {
		videos, err = c.store.Videos(ctx)
		if err != nil {
			return fmt.Errorf("failed to reload videos: %w", err)
		}
	}

	captured, err := c.captureSnapshots(ctx, videos, now)
	if err != nil {
		return err
	}

	duration := time.Since(startTime)
	if events != nil {
		if matchErr != nil {
			events.OnPartialFailure(fmt.Errorf("matching failed: %w", matchErr), duration)
		} else {
			events.OnSuccess(Metrics{
				Tracked:    len(videos),
				NewMatches: newMatches,
				Snapshots:  captured,
			}, duration)
		}
	}
	log.Printf("Run complete in %s: %d videos tracked, %d new matches, %d snapshots",
		duration.Round(time.Millisecond), len(videos), newMatches, captured)
	return nil
}

// matchUnmatchedTracks walks the album playlist looking for videos for
// tracks that have none yet. Returns how many new matches were stored.
func (c *CollectorAgent) matchUnmatchedTracks(ctx context.Context, tracks []models.Track, videos []models.Video) (int, error) {
	matched := make(map[string]bool, len(videos))
	for _, v := range videos {
		matched[v.TrackID] = true
	}

	var unmatched []models.Track
	for _, t := range tracks {
		if !matched[t.ID] {
			unmatched = append(unmatched, t)
		}
	}
	if len(unmatched) == 0 {
		return 0, nil
	}

	playlistID := c.config.Album.PlaylistID
	if playlistID == "" {
		if c.config.Album.ChannelID == "" {
			log.Println("No playlist or channel configured, skipping matching")
			return 0, nil
		}
		pid, err := c.youtubeClient.FindAlbumPlaylist(ctx, c.config.Album.ChannelID, c.config.Album.Title)
		if err != nil {
			return 0, err
		}
		log.Printf("Resolved album playlist: %s", pid)
		playlistID = pid
		c.config.Album.PlaylistID = pid
	}

	entries, err := c.youtubeClient.PlaylistEntries(ctx, playlistID)
	if err != nil {
		return 0, err
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.VideoID)
	}
	details, err := c.youtubeClient.VideoDetailsByID(ctx, ids)
	if err != nil {
		return 0, err
	}
	durations := make(map[string]int, len(details))
	for id, d := range details {
		durations[id] = d.DurationSeconds
	}

	var newVideos []models.Video
	for _, t := range unmatched {
		entry := chooseVideo(t.Name, entries, durations, c.config.YouTube.MinMatchSeconds)
		if entry == nil {
			log.Printf("%02d %s -> NO MATCH", t.Number, t.Name)
			continue
		}

		d := details[entry.VideoID]
		v := models.Video{
			ID:              entry.VideoID,
			TrackID:         t.ID,
			Title:           entry.Title,
			ChannelTitle:    d.ChannelTitle,
			PublishedAt:     d.PublishedAt,
			DurationSeconds: d.DurationSeconds,
			IsOfficial:      true,
			MatchConfidence: models.ConfidenceHigh,
		}
		if v.PublishedAt == nil {
			v.PublishedAt = entry.PublishedAt
		}
		newVideos = append(newVideos, v)
		log.Printf("%02d %s -> %s", t.Number, t.Name, entry.VideoID)
	}

	if len(newVideos) == 0 {
		return 0, nil
	}
	if err := c.store.UpsertVideos(ctx, newVideos); err != nil {
		return 0, fmt.Errorf("failed to store matches: %w", err)
	}
	return len(newVideos), nil
}

// captureSnapshots reads current counters for every tracked video and
// appends one snapshot per video, all stamped with the same instant.
func (c *CollectorAgent) captureSnapshots(ctx context.Context, videos []models.Video, now time.Time) (int, error) {
	if len(videos) == 0 {
		log.Println("No tracked videos, nothing to capture")
		return 0, nil
	}

	ids := make([]string, 0, len(videos))
	for _, v := range videos {
		ids = append(ids, v.ID)
	}

	details, err := c.youtubeClient.VideoDetailsByID(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch video stats: %w", err)
	}

	snaps := make([]models.StatsSnapshot, 0, len(details))
	for _, id := range ids {
		d, ok := details[id]
		if !ok {
			log.Printf("Warning: no stats returned for video %s", id)
			continue
		}
		snaps = append(snaps, models.StatsSnapshot{
			VideoID:    id,
			CapturedAt: now,
			Views:      d.Views,
			Likes:      d.Likes,
			Comments:   d.Comments,
		})
	}

	inserted, err := c.store.AppendSnapshots(ctx, snaps)
	if err != nil {
		return 0, fmt.Errorf("failed to store snapshots: %w", err)
	}
	return inserted, nil
}

// Close releases the store. Safe to call before Initialize.
func (c *CollectorAgent) Close() error {
	if c.store == nil {
		return nil
	}
	return c.store.Close()
}
