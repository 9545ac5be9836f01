package index

// defaultBetweenSelectivity and defaultLikePrefixSelectivity are the
// conservative fallbacks Cost uses when a predicate carries no Selectivity
// estimate of its own.
const (
	defaultBetweenSelectivity    = 0.25
	defaultLikePrefixSelectivity = 0.10
)

// Cost implements spec §4.5's table: given any Descriptor (so a storage
// layer's own implementation can reuse it directly, or score against it for
// comparison) and a Predicate, it returns the estimated cost and whether
// the predicate is indexable at all under this index. Only a non-prefix
// LIKE pattern is rejected outright; every other shape always returns an
// estimate, however expensive (matching "NotEqual | full scan" rather than
// "reject").
func Cost(desc Descriptor, p Predicate) (cost int, indexable bool) {
	n := desc.KeyCount()

	switch p.Kind {
	case KindEqual:
		if desc.Unique() {
			return 1, true
		}
		return log2Ceil(n) + desc.EstimatedDuplicates(), true

	case KindIn:
		if p.KeyCount <= 0 {
			return 0, true
		}
		per := 1
		if !desc.Unique() {
			per = log2Ceil(n) + desc.EstimatedDuplicates()
		}
		return per * p.KeyCount, true

	case KindBetween:
		sel := selectivityOrDefault(p.Selectivity, defaultBetweenSelectivity)
		return int(float64(n)*sel) + 1, true

	case KindGreaterThan, KindGreaterThanOrEqual, KindLessThan, KindLessThanOrEqual:
		return n/2 + 1, true

	case KindLike:
		if !p.LikePrefix {
			return 0, false
		}
		sel := selectivityOrDefault(p.Selectivity, defaultLikePrefixSelectivity)
		return int(float64(n)*sel) + 1, true

	case KindNotEqual:
		return n, true

	default:
		return 0, false
	}
}

func selectivityOrDefault(s, def float64) float64 {
	if s <= 0 || s > 1 {
		return def
	}
	return s
}

// log2Ceil estimates the O(log N) term of the non-unique Equal/In cost
// basis; n <= 1 is treated as a single comparison.
func log2Ceil(n int) int {
	if n <= 1 {
		return 1
	}
	bits := 0
	for (1 << bits) < n {
		bits++
	}
	return bits
}
