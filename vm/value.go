package vm

import (
	"math"
)

// Value represents an nlx value using NaN-boxing.
//
// All values are represented as 64-bit IEEE 754 doubles. Non-number values
// are encoded in the NaN (Not-a-Number) space using the quiet NaN prefix
// and tag bits to distinguish types.
//
// Encoding scheme:
//   - Number: Native IEEE 754 double (if not a NaN, it's a number)
//   - String: Quiet NaN + tagString + 32-bit arena handle
//   - Array: Quiet NaN + tagArray + 32-bit arena handle
//   - Function: Quiet NaN + tagFunction + 32-bit arena handle
//   - Range: Quiet NaN + tagRange + 32-bit arena handle
//   - Native: Quiet NaN + tagNative + builtin method id
//   - Special: Quiet NaN + tagSpecial + special value ID (nil/true/false)
type Value uint64

// NaN-boxing constants
const (
	// Quiet NaN prefix: exponent all 1s, quiet bit set, sign bit 0
	// 0x7FF8_0000_0000_0000
	nanBits uint64 = 0x7FF8000000000000

	// Tag mask: 3 bits within the NaN mantissa space
	// 0x0007_0000_0000_0000
	tagMask uint64 = 0x0007000000000000

	// Payload mask: 48 bits for handle/id
	// 0x0000_FFFF_FFFF_FFFF
	payloadMask uint64 = 0x0000FFFFFFFFFFFF

	// Tag values (shifted into position)
	tagString   uint64 = 0x0001000000000000 // Arena string handle
	tagArray    uint64 = 0x0002000000000000 // Arena array handle
	tagFunction uint64 = 0x0003000000000000 // Arena function handle
	tagSpecial  uint64 = 0x0004000000000000 // nil, true, false
	tagNative   uint64 = 0x0005000000000000 // Builtin method id
	tagRange    uint64 = 0x0006000000000000 // Arena range handle
)

// Special value payloads
const (
	specialNil   uint64 = 0
	specialTrue  uint64 = 1
	specialFalse uint64 = 2
)

// Pre-defined special values
const (
	Nil   Value = Value(nanBits | tagSpecial | specialNil)
	True  Value = Value(nanBits | tagSpecial | specialTrue)
	False Value = Value(nanBits | tagSpecial | specialFalse)
)

// Kind classifies a value by its runtime type tag.
type Kind int

const (
	KindNumber Kind = iota
	KindBool
	KindNil
	KindString
	KindArray
	KindFunction
	KindRange
	KindNative
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "Number"
	case KindBool:
		return "Bool"
	case KindNil:
		return "Nil"
	case KindString:
		return "String"
	case KindArray:
		return "Array"
	case KindFunction:
		return "Function"
	case KindRange:
		return "Range"
	case KindNative:
		return "Native"
	}
	return "Unknown"
}

// Handle is an opaque index into the arena.
type Handle = uint32

// ---------------------------------------------------------------------------
// Type checking
// ---------------------------------------------------------------------------

// IsNumber returns true if v represents a float64 number.
// A value is a number if it's not one of our tagged NaN values.
// This includes regular numbers, infinities, and "real" NaN values.
func (v Value) IsNumber() bool {
	bits := uint64(v)

	// Check if it's a NaN or Infinity (exponent all 1s)
	if (bits & 0x7FF0000000000000) != 0x7FF0000000000000 {
		return true
	}

	// Exponent is all 1s. Infinity has mantissa == 0 (ignoring sign bit).
	mantissa := bits & 0x000FFFFFFFFFFFFF
	if mantissa == 0 {
		return true
	}

	// It's a NaN. Our tagged values have the quiet NaN bit set plus a
	// non-zero tag; anything else is a "real" NaN and still a number.
	if (bits & nanBits) != nanBits {
		return true
	}
	tag := bits & tagMask
	if tag == 0 {
		return true
	}

	return false
}

// IsString returns true if v holds an arena string handle.
func (v Value) IsString() bool {
	return (uint64(v) & (nanBits | tagMask)) == (nanBits | tagString)
}

// IsArray returns true if v holds an arena array handle.
func (v Value) IsArray() bool {
	return (uint64(v) & (nanBits | tagMask)) == (nanBits | tagArray)
}

// IsFunction returns true if v holds an arena function handle.
func (v Value) IsFunction() bool {
	return (uint64(v) & (nanBits | tagMask)) == (nanBits | tagFunction)
}

// IsRange returns true if v holds an arena range handle.
func (v Value) IsRange() bool {
	return (uint64(v) & (nanBits | tagMask)) == (nanBits | tagRange)
}

// IsNative returns true if v identifies a builtin method.
func (v Value) IsNative() bool {
	return (uint64(v) & (nanBits | tagMask)) == (nanBits | tagNative)
}

// IsNil returns true if v is the nil value.
func (v Value) IsNil() bool {
	return v == Nil
}

// IsBool returns true if v is true or false.
func (v Value) IsBool() bool {
	return v == True || v == False
}

// Kind returns the runtime type tag of v.
func (v Value) Kind() Kind {
	switch {
	case v.IsNumber():
		return KindNumber
	case v == True, v == False:
		return KindBool
	case v == Nil:
		return KindNil
	case v.IsString():
		return KindString
	case v.IsArray():
		return KindArray
	case v.IsFunction():
		return KindFunction
	case v.IsRange():
		return KindRange
	case v.IsNative():
		return KindNative
	}
	return KindNil
}

// TypeName returns the user-facing type name for diagnostics.
func (v Value) TypeName() string {
	return v.Kind().String()
}

// ---------------------------------------------------------------------------
// Number operations
// ---------------------------------------------------------------------------

// Float64 returns v as a float64.
// Panics if v is not a number.
func (v Value) Float64() float64 {
	if !v.IsNumber() {
		panic("Value.Float64: not a number")
	}
	return math.Float64frombits(uint64(v))
}

// FromFloat64 creates a Value from a float64.
func FromFloat64(f float64) Value {
	return Value(math.Float64bits(f))
}

// ---------------------------------------------------------------------------
// Handle operations
// ---------------------------------------------------------------------------

// StringHandle returns the arena handle of a string value.
// Panics if v is not a string.
func (v Value) StringHandle() Handle {
	if !v.IsString() {
		panic("Value.StringHandle: not a string")
	}
	return Handle(uint64(v) & payloadMask)
}

// FromStringHandle creates a string value from an arena handle.
func FromStringHandle(h Handle) Value {
	return Value(nanBits | tagString | uint64(h))
}

// ArrayHandle returns the arena handle of an array value.
// Panics if v is not an array.
func (v Value) ArrayHandle() Handle {
	if !v.IsArray() {
		panic("Value.ArrayHandle: not an array")
	}
	return Handle(uint64(v) & payloadMask)
}

// FromArrayHandle creates an array value from an arena handle.
func FromArrayHandle(h Handle) Value {
	return Value(nanBits | tagArray | uint64(h))
}

// FunctionHandle returns the arena handle of a function value.
// Panics if v is not a function.
func (v Value) FunctionHandle() Handle {
	if !v.IsFunction() {
		panic("Value.FunctionHandle: not a function")
	}
	return Handle(uint64(v) & payloadMask)
}

// FromFunctionHandle creates a function value from an arena handle.
func FromFunctionHandle(h Handle) Value {
	return Value(nanBits | tagFunction | uint64(h))
}

// RangeHandle returns the arena handle of a range value.
// Panics if v is not a range.
func (v Value) RangeHandle() Handle {
	if !v.IsRange() {
		panic("Value.RangeHandle: not a range")
	}
	return Handle(uint64(v) & payloadMask)
}

// FromRangeHandle creates a range value from an arena handle.
func FromRangeHandle(h Handle) Value {
	return Value(nanBits | tagRange | uint64(h))
}

// NativeID returns the builtin method id of a native value.
// Panics if v is not a native.
func (v Value) NativeID() uint32 {
	if !v.IsNative() {
		panic("Value.NativeID: not a native")
	}
	return uint32(uint64(v) & payloadMask)
}

// FromNativeID creates a native value from a builtin method id.
func FromNativeID(id uint32) Value {
	return Value(nanBits | tagNative | uint64(id))
}

// ---------------------------------------------------------------------------
// Boolean operations
// ---------------------------------------------------------------------------

// Bool returns v as a bool.
// Panics if v is not true or false.
func (v Value) Bool() bool {
	switch v {
	case True:
		return true
	case False:
		return false
	default:
		panic("Value.Bool: not a boolean")
	}
}

// FromBool creates a Value from a bool.
func FromBool(b bool) Value {
	if b {
		return True
	}
	return False
}

// ---------------------------------------------------------------------------
// Truthiness
// ---------------------------------------------------------------------------

// IsTruthy returns true if v is considered "truthy" in conditionals.
// Only false and nil are falsy; everything else is truthy.
func (v Value) IsTruthy() bool {
	return v != False && v != Nil
}

// IsFalsy returns true if v is considered "falsy" in conditionals.
func (v Value) IsFalsy() bool {
	return v == False || v == Nil
}

// Equals compares two values. Numbers compare by numeric value; strings
// compare by content (interning makes handle equality content equality);
// arrays and functions compare by handle identity.
func (v Value) Equals(other Value) bool {
	if v.IsNumber() && other.IsNumber() {
		return v.Float64() == other.Float64()
	}
	return v == other
}
