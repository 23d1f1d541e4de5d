package statscollector

import (
	"strings"

	"album-pulse/agents/stats-collector/youtube"
)

// chooseVideo picks the first playlist entry whose normalized title
// contains the normalized track name and that runs at least minSeconds.
// Playlist order is the album order, so the first hit is the album cut
// rather than a later remix or visualizer. Returns nil when nothing
// qualifies.
func chooseVideo(trackName string, entries []youtube.PlaylistEntry, durations map[string]int, minSeconds int) *youtube.PlaylistEntry {
	trackNorm := youtube.NormalizeTitle(trackName)
	if trackNorm == "" {
		return nil
	}

	for i := range entries {
		if !strings.Contains(youtube.NormalizeTitle(entries[i].Title), trackNorm) {
			continue
		}
		if durations[entries[i].VideoID] < minSeconds {
			continue
		}
		return &entries[i]
	}
	return nil
}

// inSnapshotWindow reports whether the UTC hour of now falls inside the
// half-open [start, end) capture window.
func inSnapshotWindow(hour, start, end int) bool {
	return hour >= start && hour < end
}
