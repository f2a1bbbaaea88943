// Package value provides the tagged union type for setting values.
//
// A setting value is exactly one of: boolean, integer, float, string, or
// absent ("use the application default"). Each setting key permits a single
// kind, declared by its descriptor; values are never polymorphic across
// keys. The package also provides the explicit coercion functions used to
// convert loosely-typed store data into the declared kind.
package value

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// Kind identifies the payload type of a Value.
type Kind uint8

const (
	// KindAbsent represents "no override" — the store has no value for
	// the key and the application default applies.
	KindAbsent Kind = iota
	// KindBool represents a boolean value.
	KindBool
	// KindInt represents an integer value.
	KindInt
	// KindFloat represents a floating-point value.
	KindFloat
	// KindString represents a string value.
	KindString
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindBool:
		return "boolean"
	case KindInt:
		return "integer"
	case KindFloat:
		return "number"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

// ErrBadKind indicates a value could not be coerced to the required kind.
var ErrBadKind = errors.New("value kind mismatch")

// CoerceError describes a failed coercion.
type CoerceError struct {
	// Kind is the kind the value was being coerced to.
	Kind Kind
	// Raw is the value that failed to coerce.
	Raw any
}

// Error implements the error interface.
func (e *CoerceError) Error() string {
	return fmt.Sprintf("cannot coerce %T (%v) to %s", e.Raw, e.Raw, e.Kind)
}

// Is implements error matching for CoerceError.
func (e *CoerceError) Is(target error) bool {
	return target == ErrBadKind
}

// Value is an immutable tagged setting value.
//
// The zero Value is Absent.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
}

// Absent is the "no override" value.
var Absent = Value{}

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int returns an integer Value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float returns a floating-point Value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// String returns a string Value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Kind returns the value's kind tag.
func (v Value) Kind() Kind { return v.kind }

// IsAbsent reports whether the value is Absent.
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

// AsBool returns the boolean payload. It is false for non-boolean values.
func (v Value) AsBool() bool { return v.b }

// AsInt returns the integer payload. It is zero for non-integer values.
func (v Value) AsInt() int64 { return v.i }

// AsFloat returns the numeric payload as a float64. Integer values are
// widened; it is zero for non-numeric values.
func (v Value) AsFloat() float64 {
	if v.kind == KindInt {
		return float64(v.i)
	}
	return v.f
}

// AsString returns the string payload. It is empty for non-string values.
func (v Value) AsString() string { return v.s }

// String renders the value for display and debugging. Absent renders as
// an empty string; floats use the shortest representation that round-trips.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindString:
		return v.s
	default:
		return ""
	}
}

// Equal reports structural equality: same kind and same payload.
// Integer and float values never compare equal even when numerically
// identical; coercion normalizes kinds before comparison.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindString:
		return v.s == o.s
	default:
		return true
	}
}

// Interface returns the value as a plain Go value for the store boundary:
// bool, int64, float64, string, or nil for Absent.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	default:
		return nil
	}
}

// Coerce converts a loosely-typed raw value (as read from a store) into a
// Value of the given kind. Coercion is best-effort: numeric strings parse,
// integers widen to floats, whole floats narrow to integers. A nil raw
// value coerces to Absent for any kind. Failure returns a *CoerceError
// matching ErrBadKind.
func Coerce(raw any, kind Kind) (Value, error) {
	if raw == nil {
		return Absent, nil
	}
	if v, ok := raw.(Value); ok {
		return coerceValue(v, kind)
	}

	switch kind {
	case KindBool:
		return coerceBool(raw)
	case KindInt:
		return coerceInt(raw)
	case KindFloat:
		return coerceFloat(raw)
	case KindString:
		return coerceString(raw)
	case KindAbsent:
		return Absent, nil
	default:
		return Absent, &CoerceError{Kind: kind, Raw: raw}
	}
}

// coerceValue re-tags an existing Value to the target kind.
func coerceValue(v Value, kind Kind) (Value, error) {
	if v.kind == kind || v.kind == KindAbsent {
		return v, nil
	}
	switch {
	case kind == KindFloat && v.kind == KindInt:
		return Float(float64(v.i)), nil
	case kind == KindInt && v.kind == KindFloat:
		return coerceInt(v.f)
	case kind == KindString:
		return String(v.String()), nil
	}
	return Absent, &CoerceError{Kind: kind, Raw: v.Interface()}
}

func coerceBool(raw any) (Value, error) {
	switch r := raw.(type) {
	case bool:
		return Bool(r), nil
	case string:
		b, err := strconv.ParseBool(r)
		if err != nil {
			return Absent, &CoerceError{Kind: KindBool, Raw: raw}
		}
		return Bool(b), nil
	}
	return Absent, &CoerceError{Kind: KindBool, Raw: raw}
}

func coerceInt(raw any) (Value, error) {
	switch r := raw.(type) {
	case int:
		return Int(int64(r)), nil
	case int8:
		return Int(int64(r)), nil
	case int16:
		return Int(int64(r)), nil
	case int32:
		return Int(int64(r)), nil
	case int64:
		return Int(r), nil
	case uint:
		return Int(int64(r)), nil
	case uint8:
		return Int(int64(r)), nil
	case uint16:
		return Int(int64(r)), nil
	case uint32:
		return Int(int64(r)), nil
	case uint64:
		return Int(int64(r)), nil
	case float32:
		return floatToInt(float64(r), raw)
	case float64:
		return floatToInt(r, raw)
	case string:
		if i, err := strconv.ParseInt(r, 10, 64); err == nil {
			return Int(i), nil
		}
		if f, err := strconv.ParseFloat(r, 64); err == nil {
			return floatToInt(f, raw)
		}
	}
	return Absent, &CoerceError{Kind: KindInt, Raw: raw}
}

// floatToInt narrows a float to an integer when it is whole.
func floatToInt(f float64, raw any) (Value, error) {
	if math.Trunc(f) != f || math.IsInf(f, 0) || math.IsNaN(f) {
		return Absent, &CoerceError{Kind: KindInt, Raw: raw}
	}
	return Int(int64(f)), nil
}

func coerceFloat(raw any) (Value, error) {
	switch r := raw.(type) {
	case float32:
		return Float(float64(r)), nil
	case float64:
		return Float(r), nil
	case int:
		return Float(float64(r)), nil
	case int32:
		return Float(float64(r)), nil
	case int64:
		return Float(float64(r)), nil
	case uint64:
		return Float(float64(r)), nil
	case string:
		f, err := strconv.ParseFloat(r, 64)
		if err != nil {
			return Absent, &CoerceError{Kind: KindFloat, Raw: raw}
		}
		return Float(f), nil
	}
	return Absent, &CoerceError{Kind: KindFloat, Raw: raw}
}

// coerceString accepts any scalar; the display path is best-effort by
// design, so booleans and numbers format rather than fail.
func coerceString(raw any) (Value, error) {
	switch r := raw.(type) {
	case string:
		return String(r), nil
	case bool:
		return String(strconv.FormatBool(r)), nil
	case int:
		return String(strconv.Itoa(r)), nil
	case int64:
		return String(strconv.FormatInt(r, 10)), nil
	case float64:
		return String(strconv.FormatFloat(r, 'f', -1, 64)), nil
	}
	return Absent, &CoerceError{Kind: KindString, Raw: raw}
}
