// Package dbfunc holds the built-in scalar/sequence function table that
// backs Call nodes (spec §4.3 point 3: "the non-immutable set contains
// NOW, TODAY, DATETIME, GUID() with no arguments, OBJECTID(), and any
// function that reads ambient state").
package dbfunc

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/docql/docql/collate"
	"github.com/docql/docql/value"
)

// EvalContext is the ambient state available to a function body: the
// injected collation (spec §9: "do not bake it into global state") and a
// clock seeded for reproducible evaluation of non-immutable functions in
// tests.
type EvalContext struct {
	Collation collate.Collation
	Now       func() time.Time
}

func (c EvalContext) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// Eval is the shape of a built-in function body. args[i] is the full
// sequence produced by evaluating the i-th call argument (every
// expression yields a sequence, per spec §3.3); a scalar argument's
// sequence has exactly one element.
type Eval func(args [][]value.Value, ctx EvalContext) ([]value.Value, error)

// Descriptor describes one built-in function.
type Descriptor struct {
	Name      string
	MinArity  int
	MaxArity  int // -1 means unbounded
	IsScalar  bool
	Immutable func(argc int) bool // called with the actual call arity
	Run       Eval
}

var registry = map[string]*Descriptor{}

func register(d *Descriptor) { registry[d.Name] = d }

// Lookup returns the descriptor for name (case-sensitive; callers must
// already have upper-cased it, per spec §4.4's "function names are
// uppercased") and whether argc is within its accepted arity. An unknown
// name or bad arity both "raise at compile time" per spec §4.3 point 4.
func Lookup(name string, argc int) (*Descriptor, bool) {
	d, ok := registry[name]
	if !ok {
		return nil, false
	}
	if argc < d.MinArity || (d.MaxArity >= 0 && argc > d.MaxArity) {
		return nil, false
	}
	return d, true
}

func arg0(args [][]value.Value) value.Value {
	if len(args) == 0 || len(args[0]) == 0 {
		return value.Null
	}
	return args[0][0]
}

func argAt(args [][]value.Value, i int) (value.Value, bool) {
	if i >= len(args) || len(args[i]) == 0 {
		return value.Null, false
	}
	return args[i][0], true
}

func one(v value.Value) []value.Value { return []value.Value{v} }

func init() {
	register(&Descriptor{
		Name: "UPPER", MinArity: 1, MaxArity: 1, IsScalar: true,
		Immutable: func(int) bool { return true },
		Run: func(args [][]value.Value, ctx EvalContext) ([]value.Value, error) {
			v := arg0(args)
			if v.Kind() != value.KindString {
				return one(value.Null), nil
			}
			return one(value.Str(strings.ToUpper(v.AsString()))), nil
		},
	})

	register(&Descriptor{
		Name: "LOWER", MinArity: 1, MaxArity: 1, IsScalar: true,
		Immutable: func(int) bool { return true },
		Run: func(args [][]value.Value, ctx EvalContext) ([]value.Value, error) {
			v := arg0(args)
			if v.Kind() != value.KindString {
				return one(value.Null), nil
			}
			return one(value.Str(strings.ToLower(v.AsString()))), nil
		},
	})

	register(&Descriptor{
		Name: "LENGTH", MinArity: 1, MaxArity: 1, IsScalar: true,
		Immutable: func(int) bool { return true },
		Run: func(args [][]value.Value, ctx EvalContext) ([]value.Value, error) {
			v := arg0(args)
			switch v.Kind() {
			case value.KindString:
				return one(value.Int64(int64(len(v.AsString())))), nil
			case value.KindArray:
				return one(value.Int64(int64(len(v.AsArray())))), nil
			case value.KindDocument:
				return one(value.Int64(int64(v.AsDocument().Len()))), nil
			case value.KindBinary:
				return one(value.Int64(int64(len(v.AsBinary())))), nil
			default:
				return one(value.Null), nil
			}
		},
	})

	register(&Descriptor{
		Name: "SUBSTRING", MinArity: 2, MaxArity: 3, IsScalar: true,
		Immutable: func(int) bool { return true },
		Run: func(args [][]value.Value, ctx EvalContext) ([]value.Value, error) {
			s := arg0(args)
			if s.Kind() != value.KindString {
				return one(value.Null), nil
			}
			start, ok := argAt(args, 1)
			if !ok || !start.Kind().IsNumeric() {
				return one(value.Null), nil
			}
			runes := []rune(s.AsString())
			from := int(start.Decimal().IntPart())
			if from < 0 {
				from = 0
			}
			if from > len(runes) {
				from = len(runes)
			}
			to := len(runes)
			if l, ok := argAt(args, 2); ok && l.Kind().IsNumeric() {
				n := int(l.Decimal().IntPart())
				if from+n < to {
					to = from + n
				}
			}
			return one(value.Str(string(runes[from:to]))), nil
		},
	})

	register(&Descriptor{
		Name: "CONCAT", MinArity: 2, MaxArity: -1, IsScalar: true,
		Immutable: func(int) bool { return true },
		Run: func(args [][]value.Value, ctx EvalContext) ([]value.Value, error) {
			var b strings.Builder
			for i := range args {
				v, ok := argAt(args, i)
				if !ok || v.Kind() != value.KindString {
					return one(value.Null), nil
				}
				b.WriteString(v.AsString())
			}
			return one(value.Str(b.String())), nil
		},
	})

	register(&Descriptor{
		Name: "ABS", MinArity: 1, MaxArity: 1, IsScalar: true,
		Immutable: func(int) bool { return true },
		Run: func(args [][]value.Value, ctx EvalContext) ([]value.Value, error) {
			v := arg0(args)
			if !v.Kind().IsNumeric() {
				return one(value.Null), nil
			}
			return one(value.Dec(v.Decimal().Abs())), nil
		},
	})

	register(&Descriptor{
		Name: "ROUND", MinArity: 1, MaxArity: 2, IsScalar: true,
		Immutable: func(int) bool { return true },
		Run: func(args [][]value.Value, ctx EvalContext) ([]value.Value, error) {
			v := arg0(args)
			if !v.Kind().IsNumeric() {
				return one(value.Null), nil
			}
			digits := int32(0)
			if d, ok := argAt(args, 1); ok && d.Kind().IsNumeric() {
				digits = int32(d.Decimal().IntPart())
			}
			return one(value.Dec(v.Decimal().Round(digits))), nil
		},
	})

	register(&Descriptor{
		Name: "CEILING", MinArity: 1, MaxArity: 1, IsScalar: true,
		Immutable: func(int) bool { return true },
		Run: func(args [][]value.Value, ctx EvalContext) ([]value.Value, error) {
			v := arg0(args)
			if !v.Kind().IsNumeric() {
				return one(value.Null), nil
			}
			return one(value.Dec(v.Decimal().Ceil())), nil
		},
	})

	register(&Descriptor{
		Name: "FLOOR", MinArity: 1, MaxArity: 1, IsScalar: true,
		Immutable: func(int) bool { return true },
		Run: func(args [][]value.Value, ctx EvalContext) ([]value.Value, error) {
			v := arg0(args)
			if !v.Kind().IsNumeric() {
				return one(value.Null), nil
			}
			return one(value.Dec(v.Decimal().Floor())), nil
		},
	})

	dateField := func(f func(time.Time) int) Eval {
		return func(args [][]value.Value, ctx EvalContext) ([]value.Value, error) {
			v := arg0(args)
			if v.Kind() != value.KindDateTime {
				return one(value.Null), nil
			}
			return one(value.Int64(int64(f(v.AsTime())))), nil
		}
	}
	register(&Descriptor{Name: "YEAR", MinArity: 1, MaxArity: 1, IsScalar: true,
		Immutable: func(int) bool { return true }, Run: dateField(func(t time.Time) int { return t.Year() })})
	register(&Descriptor{Name: "MONTH", MinArity: 1, MaxArity: 1, IsScalar: true,
		Immutable: func(int) bool { return true }, Run: dateField(func(t time.Time) int { return int(t.Month()) })})
	register(&Descriptor{Name: "DAY", MinArity: 1, MaxArity: 1, IsScalar: true,
		Immutable: func(int) bool { return true }, Run: dateField(func(t time.Time) int { return t.Day() })})
	register(&Descriptor{Name: "HOUR", MinArity: 1, MaxArity: 1, IsScalar: true,
		Immutable: func(int) bool { return true }, Run: dateField(func(t time.Time) int { return t.Hour() })})
	register(&Descriptor{Name: "MINUTE", MinArity: 1, MaxArity: 1, IsScalar: true,
		Immutable: func(int) bool { return true }, Run: dateField(func(t time.Time) int { return t.Minute() })})
	register(&Descriptor{Name: "SECOND", MinArity: 1, MaxArity: 1, IsScalar: true,
		Immutable: func(int) bool { return true }, Run: dateField(func(t time.Time) int { return t.Second() })})

	register(&Descriptor{
		Name: "NOW", MinArity: 0, MaxArity: 0, IsScalar: true,
		Immutable: func(int) bool { return false },
		Run: func(args [][]value.Value, ctx EvalContext) ([]value.Value, error) {
			return one(value.DateTime(ctx.now())), nil
		},
	})
	register(&Descriptor{
		Name: "TODAY", MinArity: 0, MaxArity: 0, IsScalar: true,
		Immutable: func(int) bool { return false },
		Run: func(args [][]value.Value, ctx EvalContext) ([]value.Value, error) {
			n := ctx.now()
			return one(value.DateTime(time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, n.Location()))), nil
		},
	})
	register(&Descriptor{
		// DATETIME is listed unconditionally in the non-immutable set by
		// spec §4.3 point 3, with no arity qualifier (unlike GUID/
		// OBJECTID, whose "()" explicitly marks the zero-arg form) — so
		// this stays non-immutable regardless of arity. See DESIGN.md.
		Name: "DATETIME", MinArity: 0, MaxArity: 3, IsScalar: true,
		Immutable: func(int) bool { return false },
		Run: func(args [][]value.Value, ctx EvalContext) ([]value.Value, error) {
			if len(args) == 0 {
				return one(value.DateTime(ctx.now())), nil
			}
			y, ok1 := argAt(args, 0)
			m, ok2 := argAt(args, 1)
			d, ok3 := argAt(args, 2)
			if !ok1 || !ok2 || !ok3 || !y.Kind().IsNumeric() || !m.Kind().IsNumeric() || !d.Kind().IsNumeric() {
				return one(value.Null), nil
			}
			t := time.Date(int(y.Decimal().IntPart()), time.Month(m.Decimal().IntPart()), int(d.Decimal().IntPart()), 0, 0, 0, 0, time.UTC)
			return one(value.DateTime(t)), nil
		},
	})

	register(&Descriptor{
		Name: "GUID", MinArity: 0, MaxArity: 1, IsScalar: true,
		Immutable: func(argc int) bool { return argc == 1 },
		Run: func(args [][]value.Value, ctx EvalContext) ([]value.Value, error) {
			if lit, ok := argAt(args, 0); ok && lit.Kind() == value.KindString {
				if id, err := uuid.Parse(lit.AsString()); err == nil {
					return one(value.Guid(id)), nil
				}
				return one(value.Null), nil
			}
			return one(value.Guid(uuid.New())), nil
		},
	})

	register(&Descriptor{
		Name: "OBJECTID", MinArity: 0, MaxArity: 1, IsScalar: true,
		Immutable: func(argc int) bool { return argc == 1 },
		Run: func(args [][]value.Value, ctx EvalContext) ([]value.Value, error) {
			if lit, ok := argAt(args, 0); ok && lit.Kind() == value.KindString {
				if id, err := primitive.ObjectIDFromHex(lit.AsString()); err == nil {
					return one(value.ObjectID(id)), nil
				}
				return one(value.Null), nil
			}
			return one(value.ObjectID(primitive.NewObjectID())), nil
		},
	})

	register(&Descriptor{
		Name: "ARRAY", MinArity: 1, MaxArity: 1, IsScalar: true,
		Immutable: func(int) bool { return true },
		Run: func(args [][]value.Value, ctx EvalContext) ([]value.Value, error) {
			if len(args) == 0 {
				return one(value.NewArray(nil)), nil
			}
			return one(value.NewArray(append([]value.Value(nil), args[0]...))), nil
		},
	})

	register(&Descriptor{
		Name: "ANY", MinArity: 1, MaxArity: 1, IsScalar: true,
		Immutable: func(int) bool { return true },
		Run: func(args [][]value.Value, ctx EvalContext) ([]value.Value, error) {
			return one(value.Bool(len(arg0Seq(args)) > 0)), nil
		},
	})
	register(&Descriptor{
		Name: "ALL", MinArity: 1, MaxArity: 1, IsScalar: true,
		Immutable: func(int) bool { return true },
		Run: func(args [][]value.Value, ctx EvalContext) ([]value.Value, error) {
			for _, v := range arg0Seq(args) {
				if !v.IsTruthy() {
					return one(value.Bool(false)), nil
				}
			}
			return one(value.Bool(true)), nil
		},
	})

	register(&Descriptor{
		Name: "COUNT", MinArity: 1, MaxArity: 1, IsScalar: true,
		Immutable: func(int) bool { return true },
		Run: func(args [][]value.Value, ctx EvalContext) ([]value.Value, error) {
			return one(value.Int64(int64(len(arg0Seq(args))))), nil
		},
	})
	register(&Descriptor{
		Name: "SUM", MinArity: 1, MaxArity: 1, IsScalar: true,
		Immutable: func(int) bool { return true },
		Run: func(args [][]value.Value, ctx EvalContext) ([]value.Value, error) {
			total := decimal.Zero
			for _, v := range arg0Seq(args) {
				if v.Kind().IsNumeric() {
					total = total.Add(v.Decimal())
				}
			}
			return one(value.Dec(total)), nil
		},
	})
	register(&Descriptor{
		Name: "AVG", MinArity: 1, MaxArity: 1, IsScalar: true,
		Immutable: func(int) bool { return true },
		Run: func(args [][]value.Value, ctx EvalContext) ([]value.Value, error) {
			seq := arg0Seq(args)
			total := decimal.Zero
			n := 0
			for _, v := range seq {
				if v.Kind().IsNumeric() {
					total = total.Add(v.Decimal())
					n++
				}
			}
			if n == 0 {
				return one(value.Null), nil
			}
			return one(value.Dec(total.Div(decimal.NewFromInt(int64(n))))), nil
		},
	})
	register(&Descriptor{
		Name: "MIN", MinArity: 1, MaxArity: 1, IsScalar: true,
		Immutable: func(int) bool { return true },
		Run: reduceMinMax(true),
	})
	register(&Descriptor{
		Name: "MAX", MinArity: 1, MaxArity: 1, IsScalar: true,
		Immutable: func(int) bool { return true },
		Run: reduceMinMax(false),
	})
}

func arg0Seq(args [][]value.Value) []value.Value {
	if len(args) == 0 {
		return nil
	}
	return args[0]
}

func reduceMinMax(wantMin bool) Eval {
	return func(args [][]value.Value, ctx EvalContext) ([]value.Value, error) {
		seq := arg0Seq(args)
		if len(seq) == 0 {
			return one(value.Null), nil
		}
		best := seq[0]
		coll := ctx.Collation
		if coll == nil {
			coll = collate.Invariant
		}
		for _, v := range seq[1:] {
			c := value.Compare(v, best, coll)
			if (wantMin && c < 0) || (!wantMin && c > 0) {
				best = v
			}
		}
		return one(best), nil
	}
}

// Names returns every registered function name; the order is not
// guaranteed.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	return names
}
