package engine

// SQL-style null arithmetic. Every ratio in the engine goes through
// ratio() so the null-propagation invariant cannot be violated by an
// inline division: a nil operand or a zero denominator yields nil,
// never a fault and never a fabricated zero.

func ratio(num, den *float64) *float64 {
	if num == nil || den == nil || *den == 0 {
		return nil
	}
	v := *num / *den
	return &v
}

// addInts follows SQL addition: nil if either operand is nil.
func addInts(a, b *int64) *int64 {
	if a == nil || b == nil {
		return nil
	}
	v := *a + *b
	return &v
}

func subInts(a, b *int64) *int64 {
	if a == nil || b == nil {
		return nil
	}
	v := *a - *b
	return &v
}

func mulInt(a *int64, factor int64) *int64 {
	if a == nil {
		return nil
	}
	v := *a * factor
	return &v
}

func intToFloat(a *int64) *float64 {
	if a == nil {
		return nil
	}
	v := float64(*a)
	return &v
}

func int64Ptr(v int64) *int64 { return &v }

func float64Ptr(v float64) *float64 { return &v }

func stringPtr(v string) *string { return &v }

func boolPtr(v bool) *bool { return &v }
