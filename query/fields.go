package query

import "strings"

// mergeFieldSets unions two field-name sets with the same case-insensitive,
// first-form-seen dedup rule the compiler applies to a single expression's
// own field set (spec §4.3 point 2); the optimizer re-applies it across
// multiple expressions' field sets (spec §4.6 step 3).
func mergeFieldSets(a, b []string) []string {
	if len(b) == 0 {
		return a
	}
	seen := make(map[string]bool, len(a))
	for _, f := range a {
		seen[strings.ToUpper(f)] = true
	}
	out := a
	for _, f := range b {
		u := strings.ToUpper(f)
		if seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, f)
	}
	return out
}

func containsFieldCI(fields []string, field string) bool {
	for _, f := range fields {
		if strings.EqualFold(f, field) {
			return true
		}
	}
	return false
}
