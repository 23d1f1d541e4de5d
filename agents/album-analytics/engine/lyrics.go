package engine

import (
	"regexp"
	"strings"

	"album-pulse/internal/models"
)

// The tokenizer matches the ingestion side word for word so that a
// recomputed metric reproduces a stored one bit for bit: lowercase,
// strip everything outside [a-z0-9 '], then take alphanumeric runs with
// an optional apostrophe segment (contractions count as one word).
var (
	nonWordRe = regexp.MustCompile(`[^a-z0-9\s']`)
	spaceRe   = regexp.MustCompile(`\s+`)
	tokenRe   = regexp.MustCompile(`[a-z0-9]+(?:'[a-z0-9]+)?`)
)

func tokenizeWords(text string) []string {
	t := strings.ToLower(strings.TrimSpace(text))
	t = strings.ReplaceAll(t, "’", "'")
	t = nonWordRe.ReplaceAllString(t, " ")
	t = spaceRe.ReplaceAllString(t, " ")
	return tokenRe.FindAllString(t, -1)
}

// lyricMetrics holds the structural metrics for one lyric record. The
// zero value is the missing-lyrics case: all nil.
type lyricMetrics struct {
	WordCount        *int64
	UniqueWordCount  *int64
	RepeatRatio      *float64
	LexicalDiversity *float64
}

// deriveLyricMetrics prefers stored counts and falls back to
// recomputing each absent field from the body. The repeat ratio
// fallback is 1 - unique/total, nil when the body has no words.
func deriveLyricMetrics(l *models.Lyrics) lyricMetrics {
	if l == nil {
		return lyricMetrics{}
	}

	var words []string
	tokenized := false
	tokenize := func() []string {
		if !tokenized {
			words = tokenizeWords(l.Text)
			tokenized = true
		}
		return words
	}

	wc := l.WordCount
	if wc == nil {
		wc = int64Ptr(int64(len(tokenize())))
	}

	uwc := l.UniqueWordCount
	if uwc == nil {
		seen := make(map[string]struct{})
		for _, w := range tokenize() {
			seen[w] = struct{}{}
		}
		uwc = int64Ptr(int64(len(seen)))
	}

	diversity := ratio(intToFloat(uwc), intToFloat(wc))

	rr := l.RepeatRatio
	if rr == nil && diversity != nil {
		rr = float64Ptr(1 - *diversity)
	}

	return lyricMetrics{
		WordCount:        wc,
		UniqueWordCount:  uwc,
		RepeatRatio:      rr,
		LexicalDiversity: diversity,
	}
}
