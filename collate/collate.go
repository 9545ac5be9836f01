// Package collate provides the injected string-comparison capability
// consumed by the value ordering and the evaluator's string/LIKE
// semantics (spec §9 design notes: "Collation is an injected capability...
// do not bake it into global state").
package collate

import (
	"strings"

	gocollate "golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Collation compares and matches strings under a locale and case
// sensitivity policy.
type Collation interface {
	// Compare returns -1, 0 or 1 as a is less than, equal to, or greater
	// than b.
	Compare(a, b string) int
	// Equal reports whether a and b are equal under the collation.
	Equal(a, b string) bool
	// Like reports whether s matches pattern, where '%' matches any run
	// (including empty) and '_' matches exactly one character (spec §4.3).
	Like(s, pattern string) bool
}

type textCollation struct {
	col        *gocollate.Collator
	ignoreCase bool
}

// New builds a Collation for the given BCP-47 culture id (e.g. "en-US",
// "en"). If caseInsensitive is true, string comparisons and LIKE matching
// ignore case, mirroring a culture-insensitive-ignorecase LiteDB-style
// collation.
func New(cultureID string, caseInsensitive bool) Collation {
	lang, err := language.Parse(cultureID)
	if err != nil {
		lang = language.Und
	}
	opts := []gocollate.Option{}
	if caseInsensitive {
		opts = append(opts, gocollate.IgnoreCase)
	}
	return &textCollation{
		col:        gocollate.New(lang, opts...),
		ignoreCase: caseInsensitive,
	}
}

// Invariant is the deterministic, culture-invariant, case-sensitive
// collation used by default and by tests (spec §9: "Tests inject a
// deterministic invariant collation").
var Invariant = New("und", false)

// InvariantIgnoreCase is the case-insensitive counterpart, used by indexes
// declared case-insensitive.
var InvariantIgnoreCase = New("und", true)

func (c *textCollation) Compare(a, b string) int {
	return c.col.CompareString(a, b)
}

func (c *textCollation) Equal(a, b string) bool {
	return c.Compare(a, b) == 0
}

func (c *textCollation) Like(s, pattern string) bool {
	if c.ignoreCase {
		s = strings.ToUpper(s)
		pattern = strings.ToUpper(pattern)
	}
	return likeMatch(s, pattern)
}

// likeMatch implements SQL-style LIKE matching with '%' (any run, incl.
// empty) and '_' (exactly one character) via a classic DP table; inputs
// are small (field values and patterns), so the O(n*m) table is not a
// concern.
func likeMatch(s, pattern string) bool {
	rs, rp := []rune(s), []rune(pattern)
	n, m := len(rs), len(rp)
	dp := make([][]bool, n+1)
	for i := range dp {
		dp[i] = make([]bool, m+1)
	}
	dp[0][0] = true
	for j := 1; j <= m; j++ {
		if rp[j-1] == '%' {
			dp[0][j] = dp[0][j-1]
		}
	}
	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			switch rp[j-1] {
			case '%':
				dp[i][j] = dp[i-1][j] || dp[i][j-1]
			case '_':
				dp[i][j] = dp[i-1][j-1]
			default:
				dp[i][j] = dp[i-1][j-1] && rs[i-1] == rp[j-1]
			}
		}
	}
	return dp[n][m]
}

// LikePrefix reports whether pattern is a simple prefix pattern "prefix%"
// with no other wildcards, and returns the literal prefix. Used by the
// index-cost model (spec §4.5: "Like 'prefix%' | prefix range scan").
func LikePrefix(pattern string) (prefix string, ok bool) {
	if pattern == "" {
		return "", false
	}
	if pattern[len(pattern)-1] != '%' {
		return "", false
	}
	body := pattern[:len(pattern)-1]
	if strings.ContainsAny(body, "%_") {
		return "", false
	}
	return body, true
}
