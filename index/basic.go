package index

// BasicDescriptor is a concrete, in-memory Descriptor, usable directly by
// tests and by any caller that does not need a live B-tree behind it (the
// real storage layer's descriptor is out of scope per spec §6.4 — see
// DESIGN.md). It delegates its Cost to the package-level formula so a
// storage-backed Descriptor can reuse the identical cost model by
// embedding BasicDescriptor or calling index.Cost directly.
type BasicDescriptor struct {
	IndexName       string
	IndexExpression string
	IsUnique        bool
	Count           int
	Duplicates      int
	Head            any
}

func (d *BasicDescriptor) Name() string       { return d.IndexName }
func (d *BasicDescriptor) Expression() string { return d.IndexExpression }
func (d *BasicDescriptor) Unique() bool       { return d.IsUnique }
func (d *BasicDescriptor) KeyCount() int      { return d.Count }
func (d *BasicDescriptor) HeadNode() any      { return d.Head }

func (d *BasicDescriptor) EstimatedDuplicates() int {
	if d.Duplicates > 0 {
		return d.Duplicates
	}
	return 1
}

func (d *BasicDescriptor) Cost(p Predicate) (int, bool) {
	return Cost(d, p)
}

// PrimaryKeyIndex builds the always-present unique `_id` index descriptor
// (spec §3.4), given the collection's current document count.
func PrimaryKeyIndex(keyCount int) *BasicDescriptor {
	return &BasicDescriptor{
		IndexName:       "_id",
		IndexExpression: PrimaryKeyExpression,
		IsUnique:        true,
		Count:           keyCount,
	}
}

// BasicSnapshot is a concrete, in-memory Snapshot over a fixed index list —
// the shape tests and the optimizer build against directly.
type BasicSnapshot struct {
	Collection string
	Indexes    []Descriptor
}

func (s *BasicSnapshot) CollectionName() string  { return s.Collection }
func (s *BasicSnapshot) GetIndexes() []Descriptor { return s.Indexes }
