package engine

import "album-pulse/internal/models"

// candidate pairs a video with its window metrics. Ranking needs the
// as-of view count, so windows are aggregated before selection.
type candidate struct {
	video  models.Video
	window windowMetrics
}

func confidenceRank(label string) int {
	switch label {
	case models.ConfidenceHigh:
		return 3
	case models.ConfidenceMedium:
		return 2
	case models.ConfidenceLow:
		return 1
	default:
		// "unknown" and any unrecognized label rank last
		return 0
	}
}

// selectPrimary returns the index of the winning candidate, or -1 when
// there are none. The ranking applies each key in sequence and is a
// strict total order, so the same fact set always selects the same
// candidate:
//
//  1. official flag, true first
//  2. match confidence, high > medium > low > unknown
//  3. as-of view count, higher first (nil counts as zero)
//  4. publish timestamp, earlier first (nil ranks last)
//  5. video id, ascending (backstop for fully tied candidates)
func selectPrimary(cands []candidate) int {
	best := -1
	for i := range cands {
		if best == -1 || ranksBefore(cands[i], cands[best]) {
			best = i
		}
	}
	return best
}

func ranksBefore(a, b candidate) bool {
	if a.video.IsOfficial != b.video.IsOfficial {
		return a.video.IsOfficial
	}

	ar, br := confidenceRank(a.video.MatchConfidence), confidenceRank(b.video.MatchConfidence)
	if ar != br {
		return ar > br
	}

	av, bv := asOfViews(a), asOfViews(b)
	if av != bv {
		return av > bv
	}

	ap, bp := a.video.PublishedAt, b.video.PublishedAt
	switch {
	case ap != nil && bp == nil:
		return true
	case ap == nil && bp != nil:
		return false
	case ap != nil && bp != nil && !ap.Equal(*bp):
		return ap.Before(*bp)
	}

	return a.video.ID < b.video.ID
}

func asOfViews(c candidate) int64 {
	if c.window.Views == nil {
		return 0
	}
	return *c.window.Views
}
