// Package value implements the tagged value union shared by documents,
// expression results and index keys (spec §3.1).
package value

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindMinValue
	KindInt32
	KindInt64
	KindDouble
	KindDecimal
	KindDateTime
	KindString
	KindDocument
	KindArray
	KindBinary
	KindObjectID
	KindGuid
	KindBoolean
	KindMaxValue
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "Null"
	case KindMinValue:
		return "MinValue"
	case KindInt32:
		return "Int32"
	case KindInt64:
		return "Int64"
	case KindDouble:
		return "Double"
	case KindDecimal:
		return "Decimal"
	case KindDateTime:
		return "DateTime"
	case KindString:
		return "String"
	case KindDocument:
		return "Document"
	case KindArray:
		return "Array"
	case KindBinary:
		return "Binary"
	case KindObjectID:
		return "ObjectId"
	case KindGuid:
		return "Guid"
	case KindBoolean:
		return "Boolean"
	case KindMaxValue:
		return "MaxValue"
	default:
		return "Unknown"
	}
}

// IsNumeric reports whether k is one of the four numeric variants that
// participate in widened arithmetic (spec §4.3).
func (k Kind) IsNumeric() bool {
	switch k {
	case KindInt32, KindInt64, KindDouble, KindDecimal:
		return true
	default:
		return false
	}
}

// Value is an immutable tagged union over the document model's scalar and
// composite variants. The zero Value is Null.
type Value struct {
	kind Kind
	i32  int32
	i64  int64
	f64  float64
	dec  decimal.Decimal
	str  string
	flag bool
	t    time.Time
	oid  primitive.ObjectID
	guid uuid.UUID
	bin  []byte
	arr  []Value
	doc  *Document
}

// Null is the Null value.
var Null = Value{kind: KindNull}

// Min is the MinValue sentinel, less than every other non-Null value.
var Min = Value{kind: KindMinValue}

// Max is the MaxValue sentinel, greater than every other value.
var Max = Value{kind: KindMaxValue}

// True and False are the Boolean values.
var (
	True  = Value{kind: KindBoolean, flag: true}
	False = Value{kind: KindBoolean, flag: false}
)

// Int32 constructs an Int32 value.
func Int32(v int32) Value { return Value{kind: KindInt32, i32: v} }

// Int64 constructs an Int64 value.
func Int64(v int64) Value { return Value{kind: KindInt64, i64: v} }

// Double constructs a Double value.
func Double(v float64) Value { return Value{kind: KindDouble, f64: v} }

// Dec constructs a Decimal value.
func Dec(v decimal.Decimal) Value { return Value{kind: KindDecimal, dec: v} }

// Str constructs a String value.
func Str(s string) Value { return Value{kind: KindString, str: s} }

// Bool constructs a Boolean value.
func Bool(b bool) Value {
	if b {
		return True
	}
	return False
}

// DateTime constructs a DateTime value.
func DateTime(t time.Time) Value { return Value{kind: KindDateTime, t: t} }

// ObjectID constructs an ObjectId value.
func ObjectID(id primitive.ObjectID) Value { return Value{kind: KindObjectID, oid: id} }

// Guid constructs a Guid value.
func Guid(id uuid.UUID) Value { return Value{kind: KindGuid, guid: id} }

// Binary constructs a Binary value. The slice is retained, not copied;
// callers must treat it as immutable afterward.
func Binary(b []byte) Value { return Value{kind: KindBinary, bin: b} }

// NewArray constructs an Array value from an ordered sequence of elements.
func NewArray(elems []Value) Value { return Value{kind: KindArray, arr: elems} }

// NewDocument constructs a Document value wrapping doc.
func NewDocument(doc *Document) Value { return Value{kind: KindDocument, doc: doc} }

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the Null variant.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsString returns the String payload; valid only when Kind() == KindString.
func (v Value) AsString() string { return v.str }

// AsBool returns the Boolean payload; valid only when Kind() == KindBoolean.
func (v Value) AsBool() bool { return v.flag }

// AsArray returns the Array payload; valid only when Kind() == KindArray.
func (v Value) AsArray() []Value { return v.arr }

// AsDocument returns the Document payload; valid only when Kind() ==
// KindDocument.
func (v Value) AsDocument() *Document { return v.doc }

// AsBinary returns the Binary payload; valid only when Kind() == KindBinary.
func (v Value) AsBinary() []byte { return v.bin }

// AsTime returns the DateTime payload; valid only when Kind() == KindDateTime.
func (v Value) AsTime() time.Time { return v.t }

// AsObjectID returns the ObjectId payload; valid only when Kind() ==
// KindObjectID.
func (v Value) AsObjectID() primitive.ObjectID { return v.oid }

// AsGuid returns the Guid payload; valid only when Kind() == KindGuid.
func (v Value) AsGuid() uuid.UUID { return v.guid }

// Decimal widens any numeric variant to a decimal.Decimal for exact
// comparison and arithmetic (spec §4.3: "numeric widening Int32 → Int64 →
// Double → Decimal").
func (v Value) Decimal() decimal.Decimal {
	switch v.kind {
	case KindInt32:
		return decimal.NewFromInt32(v.i32)
	case KindInt64:
		return decimal.NewFromInt(v.i64)
	case KindDouble:
		return decimal.NewFromFloat(v.f64)
	case KindDecimal:
		return v.dec
	default:
		return decimal.Zero
	}
}

// Float64 widens any numeric variant to float64.
func (v Value) Float64() float64 {
	switch v.kind {
	case KindInt32:
		return float64(v.i32)
	case KindInt64:
		return float64(v.i64)
	case KindDouble:
		return v.f64
	case KindDecimal:
		f, _ := v.dec.Float64()
		return f
	default:
		return 0
	}
}

// IsTruthy applies the evaluator's boolean coercion: Boolean values use
// their own flag; Null is false; everything else (spec's execution-error
// policy of "silent Null coercion" extends to truthiness) is false unless
// it is a non-zero numeric or non-empty string, matching how WHERE clauses
// and Map/Filter predicates treat scalar results that are not Boolean.
func (v Value) IsTruthy() bool {
	switch v.kind {
	case KindBoolean:
		return v.flag
	case KindNull:
		return false
	case KindInt32, KindInt64, KindDouble, KindDecimal:
		return !v.Decimal().IsZero()
	case KindString:
		return v.str != ""
	default:
		return false
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindMinValue:
		return "MinValue"
	case KindMaxValue:
		return "MaxValue"
	case KindInt32:
		return fmt.Sprintf("%d", v.i32)
	case KindInt64:
		return fmt.Sprintf("%d", v.i64)
	case KindDouble:
		return fmt.Sprintf("%g", v.f64)
	case KindDecimal:
		return v.dec.String()
	case KindString:
		return v.str
	case KindBoolean:
		return fmt.Sprintf("%t", v.flag)
	case KindDateTime:
		return v.t.Format(time.RFC3339Nano)
	case KindObjectID:
		return v.oid.Hex()
	case KindGuid:
		return v.guid.String()
	case KindBinary:
		return fmt.Sprintf("Binary(%d bytes)", len(v.bin))
	case KindArray:
		return fmt.Sprintf("Array(%d elements)", len(v.arr))
	case KindDocument:
		return fmt.Sprintf("Document(%d keys)", v.doc.Len())
	default:
		return "?"
	}
}
