// Package types provides the minimal tagged-union value and schema types the
// executor layer needs to run: this is not a general SQL type system, only
// enough to drive scan/join/sort comparisons and expression evaluation.
package types

import "fmt"

// TypeID identifies a Value's underlying representation.
type TypeID int32

const (
	InvalidType TypeID = iota
	Integer
	Varchar
)

func (t TypeID) String() string {
	switch t {
	case Integer:
		return "INTEGER"
	case Varchar:
		return "VARCHAR"
	default:
		return "INVALID"
	}
}

// CmpBool is a tri-state comparison result: SQL comparisons against NULL
// never yield true or false, they yield unknown.
type CmpBool int32

const (
	CmpFalse CmpBool = iota
	CmpTrue
	CmpNull
)

// Value is a tagged union over the handful of types the executors need.
type Value struct {
	typeID TypeID
	isNull bool
	ival   int32
	sval   string
}

// NewInteger constructs a non-null INTEGER value.
func NewInteger(v int32) Value { return Value{typeID: Integer, ival: v} }

// NewVarchar constructs a non-null VARCHAR value.
func NewVarchar(v string) Value { return Value{typeID: Varchar, sval: v} }

// NewNull constructs a null value of the given type.
func NewNull(t TypeID) Value { return Value{typeID: t, isNull: true} }

func (v Value) TypeID() TypeID { return v.typeID }
func (v Value) IsNull() bool   { return v.isNull }

// AsInteger returns the underlying int32; callers must check TypeID first.
func (v Value) AsInteger() int32 { return v.ival }

// AsVarchar returns the underlying string; callers must check TypeID first.
func (v Value) AsVarchar() string { return v.sval }

func (v Value) String() string {
	if v.isNull {
		return "NULL"
	}
	switch v.typeID {
	case Integer:
		return fmt.Sprintf("%d", v.ival)
	case Varchar:
		return v.sval
	default:
		return "<invalid>"
	}
}

// CompareEqual, CompareLessThan and CompareGreaterThan implement three-valued
// SQL comparison logic: any operand being NULL yields CmpNull, mismatched
// types are treated as never equal/ordered (CmpFalse) rather than panicking,
// mirroring how a real type system would reject the comparison at bind time
// but this minimal one just declines to match.
func (v Value) CompareEqual(other Value) CmpBool {
	if v.isNull || other.isNull {
		return CmpNull
	}
	if v.typeID != other.typeID {
		return CmpFalse
	}
	switch v.typeID {
	case Integer:
		return boolToCmp(v.ival == other.ival)
	case Varchar:
		return boolToCmp(v.sval == other.sval)
	default:
		return CmpFalse
	}
}

func (v Value) CompareLessThan(other Value) CmpBool {
	if v.isNull || other.isNull {
		return CmpNull
	}
	if v.typeID != other.typeID {
		return CmpFalse
	}
	switch v.typeID {
	case Integer:
		return boolToCmp(v.ival < other.ival)
	case Varchar:
		return boolToCmp(v.sval < other.sval)
	default:
		return CmpFalse
	}
}

func (v Value) CompareGreaterThan(other Value) CmpBool {
	if v.isNull || other.isNull {
		return CmpNull
	}
	if v.typeID != other.typeID {
		return CmpFalse
	}
	switch v.typeID {
	case Integer:
		return boolToCmp(v.ival > other.ival)
	case Varchar:
		return boolToCmp(v.sval > other.sval)
	default:
		return CmpFalse
	}
}

// CompareNotEqual is the negation of CompareEqual, preserving NULL propagation.
func (v Value) CompareNotEqual(other Value) CmpBool {
	eq := v.CompareEqual(other)
	if eq == CmpNull {
		return CmpNull
	}
	return boolToCmp(eq == CmpFalse)
}

func boolToCmp(b bool) CmpBool {
	if b {
		return CmpTrue
	}
	return CmpFalse
}

// Less reports strict ordering for sort/topn comparators, treating NULL as
// sorting first (matches how the reference sort executor's default collation
// orders unknowns).
func (v Value) Less(other Value) bool {
	if v.isNull != other.isNull {
		return v.isNull
	}
	if v.isNull {
		return false
	}
	return v.CompareLessThan(other) == CmpTrue
}

// Equal reports plain equality of two values, where NULL never equals NULL by
// SQL semantics. The sort comparator uses it; hash-join buckets use HashKey.
func (v Value) Equal(other Value) bool {
	return !v.isNull && !other.isNull && v.CompareEqual(other) == CmpTrue
}

// HashKey returns a value usable as a Go map key for hash-join buckets. NULL
// values must never be probed into the map (callers check IsNull first).
func (v Value) HashKey() any {
	switch v.typeID {
	case Integer:
		return v.ival
	case Varchar:
		return v.sval
	default:
		return nil
	}
}
