package engine

// Bucket thresholds and score weights are fixed policy constants carried
// over from the source reporting layer. They are named here rather than
// derived; changing them is a reporting decision, not a statistics one.
const (
	RepeatRatioLowMax = 0.55
	RepeatRatioMedMax = 0.70

	WordCountShortMax  = 200
	WordCountMediumMax = 400

	// Comments weigh double in the engagement score, which is expressed
	// per thousand views.
	commentWeight   = 2
	scoreMultiplier = 1000
)

// Bucket labels.
const (
	BucketRepeatLow  = "Low"
	BucketRepeatMed  = "Med"
	BucketRepeatHigh = "High"

	BucketWordsShort  = "0–200"
	BucketWordsMedium = "201–400"
	BucketWordsLong   = "401+"
)

// engagementRate is (likes + comments) / views.
func engagementRate(views, likes, comments *int64) *float64 {
	return ratio(intToFloat(addInts(likes, comments)), intToFloat(views))
}

// engagementScore is (likes + 2*comments) * 1000 / views.
func engagementScore(views, likes, comments *int64) *float64 {
	weighted := addInts(likes, mulInt(comments, commentWeight))
	return ratio(intToFloat(mulInt(weighted, scoreMultiplier)), intToFloat(views))
}

// perDay normalizes a window delta by the window span.
func perDay(delta, windowDays *int64) *float64 {
	return ratio(intToFloat(delta), intToFloat(windowDays))
}

// engagementPer100Words is the cross-domain ratio of engagement score to
// lyric length in hundreds of words.
func engagementPer100Words(score *float64, wordCount *int64) *float64 {
	words := intToFloat(wordCount)
	if words == nil {
		return nil
	}
	hundreds := *words / 100
	return ratio(score, &hundreds)
}

// repeatRatioBucket maps a repetition ratio onto its reporting bucket.
// Boundaries are inclusive on the upper side: exactly 0.70 is "High".
func repeatRatioBucket(rr *float64) *string {
	if rr == nil {
		return nil
	}
	switch {
	case *rr < RepeatRatioLowMax:
		return stringPtr(BucketRepeatLow)
	case *rr < RepeatRatioMedMax:
		return stringPtr(BucketRepeatMed)
	default:
		return stringPtr(BucketRepeatHigh)
	}
}

func wordCountBucket(wc *int64) *string {
	if wc == nil {
		return nil
	}
	switch {
	case *wc <= WordCountShortMax:
		return stringPtr(BucketWordsShort)
	case *wc <= WordCountMediumMax:
		return stringPtr(BucketWordsMedium)
	default:
		return stringPtr(BucketWordsLong)
	}
}
