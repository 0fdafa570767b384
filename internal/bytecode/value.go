package bytecode

import "fmt"

// ValueType is the tag of a Value's active variant.
type ValueType byte

const (
	ValueNumber ValueType = iota
	ValueString
	ValueArray
)

// ValueTypeNames maps a ValueType to its debug name, used by
// ValueType.String. ArgType pushes the numeric tag, not this name.
var ValueTypeNames = [...]string{
	ValueNumber: "number",
	ValueString: "string",
	ValueArray:  "array",
}

func (vt ValueType) String() string {
	if int(vt) < len(ValueTypeNames) {
		return ValueTypeNames[vt]
	}
	return "unknown"
}

// ArrayHandle names a row of the array heap by slot index and logical
// length. A handle is a plain index, never an owning pointer: lifetime is
// attached to whichever frame (or global) created it, per the heap's
// single-owner contract.
type ArrayHandle struct {
	Slot   int
	Length int
}

// Value is a tagged union of the three runtime variants the language
// supports: Number, String and Array handle. Storage is by value (inlined
// into the cell, no interface boxing) so that copying a Value never
// allocates.
type Value struct {
	Type ValueType
	Num  float64
	Str  string
	Arr  ArrayHandle
}

// NumberValue constructs a Number-tagged Value.
func NumberValue(n float64) Value {
	return Value{Type: ValueNumber, Num: n}
}

// StringValue constructs a String-tagged Value. Callers are responsible for
// respecting MAX_STR; the VM enforces it at the points strings are produced
// (PushS, Concat).
func StringValue(s string) Value {
	return Value{Type: ValueString, Str: s}
}

// ArrayValue constructs an Array-handle-tagged Value.
func ArrayValue(h ArrayHandle) Value {
	return Value{Type: ValueArray, Arr: h}
}

func (v Value) IsNumber() bool { return v.Type == ValueNumber }
func (v Value) IsString() bool { return v.Type == ValueString }
func (v Value) IsArray() bool  { return v.Type == ValueArray }

// Truthy implements the truthiness rule: a Number is truthy iff nonzero;
// strings and arrays are truthy iff non-empty. The original C VM only ever
// tests a value's numeric bits for truthiness, which is undefined for a
// string or array payload; treating non-empty as truthy is the sane
// generalization.
func (v Value) Truthy() bool {
	switch v.Type {
	case ValueNumber:
		return v.Num != 0
	case ValueString:
		return len(v.Str) > 0
	case ValueArray:
		return v.Arr.Length > 0
	default:
		return false
	}
}

// CanonicalString renders a value using the canonical stringification rules
// used by Concat: numbers render with "%f", arrays render as
// "Array<N> with length L".
func (v Value) CanonicalString() string {
	switch v.Type {
	case ValueString:
		return v.Str
	case ValueNumber:
		return fmt.Sprintf("%f", v.Num)
	case ValueArray:
		return fmt.Sprintf("Array<%d> with length %d", v.Arr.Slot, v.Arr.Length)
	default:
		return ""
	}
}
