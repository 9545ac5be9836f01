// Package index defines the planner-facing view onto a collection's indexes
// (spec §3.4) and the cost model used to score a candidate (index,
// predicate) pair (spec §4.5, component G). The B-tree mechanics behind a
// Descriptor are an external collaborator (spec §6.4); this package only
// defines the contract the optimizer consumes and a reference cost formula
// any concrete implementation can delegate to.
package index

// PrimaryKeyExpression is the normalized source of the always-present
// unique `_id` index (spec §3.4: "_id always exists as a unique index with
// expression $._id").
const PrimaryKeyExpression = "$._id"

// Descriptor is the planner's read-only view onto one collection index
// (spec §3.4). HeadNode is opaque to the planner — it is whatever the
// storage layer's B-tree implementation needs to begin a scan, passed
// through untouched.
type Descriptor interface {
	Name() string
	Expression() string
	Unique() bool
	KeyCount() int
	HeadNode() any

	// EstimatedDuplicates reports the average number of entries sharing a
	// single key under this index, used by the Equal/In cost basis for
	// non-unique indexes (spec §4.5: "estimated duplicates for the key").
	EstimatedDuplicates() int

	// Cost scores a candidate (this index, p) pair per spec §4.5, returning
	// false when the predicate shape cannot be served by this index at all
	// (only a non-prefix LIKE pattern rejects outright).
	Cost(p Predicate) (cost int, indexable bool)
}

// Snapshot is the optimizer's read-only view onto a collection's index list
// (spec §6.4): the list observed during planning is guaranteed stable by
// the storage layer's own locking, outside this package's concern.
type Snapshot interface {
	CollectionName() string
	GetIndexes() []Descriptor
}
