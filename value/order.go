package value

import (
	"bytes"

	"github.com/docql/docql/collate"
)

// rank places each Kind into the coarse-grained ordering group from spec
// §6.3: Null < MinValue < numeric < DateTime < String < Document < Array <
// Binary < ObjectId < Guid < Boolean < MaxValue.
func rank(k Kind) int {
	switch k {
	case KindNull:
		return 0
	case KindMinValue:
		return 1
	case KindInt32, KindInt64, KindDouble, KindDecimal:
		return 2
	case KindDateTime:
		return 3
	case KindString:
		return 4
	case KindDocument:
		return 5
	case KindArray:
		return 6
	case KindBinary:
		return 7
	case KindObjectID:
		return 8
	case KindGuid:
		return 9
	case KindBoolean:
		return 10
	case KindMaxValue:
		return 11
	default:
		return 11
	}
}

// Compare returns -1, 0 or 1 per the total order of spec §6.3, using coll
// for String comparison and for ordering Document keys and values.
func Compare(a, b Value, coll collate.Collation) int {
	ra, rb := rank(a.kind), rank(b.kind)
	if ra != rb {
		return cmpInt(ra, rb)
	}
	switch a.kind {
	case KindNull, KindMinValue, KindMaxValue:
		return 0
	case KindInt32, KindInt64, KindDouble, KindDecimal:
		return a.Decimal().Cmp(b.Decimal())
	case KindDateTime:
		switch {
		case a.t.Before(b.t):
			return -1
		case a.t.After(b.t):
			return 1
		default:
			return 0
		}
	case KindString:
		return coll.Compare(a.str, b.str)
	case KindDocument:
		return compareDocuments(a.doc, b.doc, coll)
	case KindArray:
		return compareArrays(a.arr, b.arr, coll)
	case KindBinary:
		return bytes.Compare(a.bin, b.bin)
	case KindObjectID:
		return bytes.Compare(a.oid[:], b.oid[:])
	case KindGuid:
		ab, bb := a.guid[:], b.guid[:]
		return bytes.Compare(ab, bb)
	case KindBoolean:
		if a.flag == b.flag {
			return 0
		}
		if !a.flag {
			return -1
		}
		return 1
	default:
		return 0
	}
}

// Equal reports whether a and b compare equal under coll.
func Equal(a, b Value, coll collate.Collation) bool {
	return Compare(a, b, coll) == 0
}

// Less reports whether a orders strictly before b under coll.
func Less(a, b Value, coll collate.Collation) bool {
	return Compare(a, b, coll) < 0
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// compareDocuments orders by key-then-value lexicographic comparison
// (spec §6.3), walking both documents in their own insertion order.
func compareDocuments(a, b *Document, coll collate.Collation) int {
	an, bn := a.Len(), b.Len()
	n := an
	if bn < n {
		n = bn
	}
	for i := 0; i < n; i++ {
		ak, bk := a.keys[i], b.keys[i]
		if c := coll.Compare(ak, bk); c != 0 {
			return c
		}
		if c := Compare(a.vals[i], b.vals[i], coll); c != 0 {
			return c
		}
	}
	return cmpInt(an, bn)
}

// compareArrays orders lexicographically element by element (spec §6.3).
func compareArrays(a, b []Value, coll collate.Collation) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if c := Compare(a[i], b[i], coll); c != 0 {
			return c
		}
	}
	return cmpInt(len(a), len(b))
}
