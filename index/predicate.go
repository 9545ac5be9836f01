package index

// Kind tags the predicate shape the cost model scores, mirroring the rows
// of spec §4.5's table one-for-one.
type Kind int

const (
	KindEqual Kind = iota
	KindNotEqual
	KindGreaterThan
	KindGreaterThanOrEqual
	KindLessThan
	KindLessThanOrEqual
	KindBetween
	KindIn
	KindLike
)

// Predicate is the minimal shape a candidate's cost depends on beyond the
// index's own statistics: how many right-hand keys an IN term carries,
// whether a LIKE pattern anchors on a literal prefix, and (for BETWEEN and
// prefix LIKE) an optional selectivity estimate in (0,1] — the fraction of
// the index's keys expected to fall in range. A zero Selectivity means
// "unknown", and the cost model substitutes a conservative default.
type Predicate struct {
	Kind        Kind
	KeyCount    int
	LikePrefix  bool
	Selectivity float64
}
