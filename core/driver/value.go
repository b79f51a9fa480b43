package driver

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/sqlitex/internal/engine"
)

// Kind identifies the type carried by a Value. KindInvalid is the
// placeholder used for columns whose type cannot be inferred (typeless
// declaration and NULL runtime value).
type Kind int

// Value kinds.
const (
	KindInvalid Kind = iota
	KindNull
	KindInteger
	KindDouble
	KindText
	KindBlob
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInteger:
		return "integer"
	case KindDouble:
		return "double"
	case KindText:
		return "text"
	case KindBlob:
		return "blob"
	default:
		return "invalid"
	}
}

// Value is the closed variant type exchanged with the engine: a type tag
// plus one payload. The zero Value is KindInvalid.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	b    []byte
}

// Null returns a SQL NULL value.
func Null() Value { return Value{kind: KindNull} }

// Integer returns an integer value.
func Integer(v int64) Value { return Value{kind: KindInteger, i: v} }

// Double returns a floating-point value.
func Double(v float64) Value { return Value{kind: KindDouble, f: v} }

// Text returns a string value.
func Text(v string) Value { return Value{kind: KindText, s: v} }

// Blob returns a byte-blob value. The slice is held by reference; it
// must not be mutated while the value is bound to a statement.
func Blob(v []byte) Value { return Value{kind: KindBlob, b: v} }

// Kind returns the value's type tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is SQL NULL or invalid.
func (v Value) IsNull() bool { return v.kind == KindNull || v.kind == KindInvalid }

// Int returns the integer payload, or 0 for other kinds.
func (v Value) Int() int64 { return v.i }

// Float returns the floating-point payload. An integer payload is
// widened; other kinds yield 0.
func (v Value) Float() float64 {
	if v.kind == KindInteger {
		return float64(v.i)
	}
	return v.f
}

// Text returns the string payload, or "" for other kinds.
func (v Value) Text() string { return v.s }

// Bytes returns the blob payload, or nil for other kinds.
func (v Value) Bytes() []byte { return v.b }

// String renders the value for display and for the string-conversion
// bind fallback.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "NULL"
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	case KindDouble:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindText:
		return v.s
	case KindBlob:
		return fmt.Sprintf("x'%x'", v.b)
	default:
		return ""
	}
}

// PrecisionPolicy selects how floating-point storage-class values are
// coerced during fetch. It applies only to values whose runtime storage
// class is float; integer and text columns are unaffected.
type PrecisionPolicy int

// Precision policies.
const (
	// HighPrecision keeps the engine's double unchanged. The default.
	HighPrecision PrecisionPolicy = iota
	// LowPrecisionDouble also keeps the double representation.
	LowPrecisionDouble
	// LowPrecisionInt32 truncates to a 32-bit integer.
	LowPrecisionInt32
	// LowPrecisionInt64 truncates to a 64-bit integer.
	LowPrecisionInt64
)

// classify maps a declared SQL type name to a value kind, matching the
// engine's affinity rules for the handful of names the adapter cares
// about. Empty and unknown names classify as text; callers holding a
// runtime storage class should prefer it when the declaration is empty.
func classify(declaredType string) Kind {
	name := strings.ToLower(declaredType)
	switch {
	case name == "integer" || name == "int":
		return KindInteger
	case name == "double" || name == "float" || name == "real" || strings.HasPrefix(name, "numeric"):
		return KindDouble
	case name == "blob":
		return KindBlob
	default:
		return KindText
	}
}

// kindForClass maps a runtime storage class to a value kind. A NULL
// storage class carries no type information and maps to the invalid
// placeholder.
func kindForClass(class engine.StorageClass) Kind {
	switch class {
	case engine.ClassInteger:
		return KindInteger
	case engine.ClassFloat:
		return KindDouble
	case engine.ClassBlob:
		return KindBlob
	case engine.ClassText:
		return KindText
	default:
		return KindInvalid
	}
}
