// Package decimal provides arbitrary-precision decimal arithmetic behind a
// swappable engine contract. Ledger and calculator code depends only on the
// Value and Engine interfaces, never on a concrete backend.
package decimal

import "errors"

// RoundingMode enumerates the supported rounding rules.
type RoundingMode int

const (
	// RoundHalfEven resolves exact halfway ties toward the nearest even
	// digit. Default for all GAAP-sensitive operations.
	RoundHalfEven RoundingMode = iota
	// RoundHalfUp resolves ties away from zero.
	RoundHalfUp
	// RoundUp always rounds away from zero.
	RoundUp
	// RoundDown always rounds toward zero.
	RoundDown
	// RoundCeiling rounds toward positive infinity.
	RoundCeiling
	// RoundFloor rounds toward negative infinity.
	RoundFloor
)

var (
	// ErrInvalidInput indicates empty, malformed, or non-finite numeric input.
	ErrInvalidInput = errors.New("decimal: invalid numeric input")
	// ErrDivisionByZero indicates a division by zero.
	ErrDivisionByZero = errors.New("decimal: division by zero")
	// ErrEngineNotReady indicates the provider was used before Init.
	ErrEngineNotReady = errors.New("decimal: engine not initialized")
)

// Value is an immutable arbitrary-precision decimal. Every operation returns
// a new Value; receivers are never mutated. Binary operations accept values
// from any engine and coerce through the canonical string form when needed.
type Value interface {
	Add(other Value) Value
	Sub(other Value) Value
	Mul(other Value) Value
	// Div returns the quotient rounded to places decimal places with the
	// given mode. It fails with ErrDivisionByZero when other is zero.
	Div(other Value, places int32, mode RoundingMode) (Value, error)
	Abs() Value
	Neg() Value
	IsZero() bool
	IsPositive() bool
	IsNegative() bool
	// Cmp returns -1, 0, or 1.
	Cmp(other Value) int
	Round(places int32, mode RoundingMode) Value
	// FixedString rounds to places decimal places and formats with exactly
	// that many fractional digits.
	FixedString(places int32, mode RoundingMode) string
	// String returns the canonical form: plain decimal notation, trailing
	// zeros trimmed, no exponent. Values constructed from the same canonical
	// string compare equal regardless of construction path or backend.
	String() string
	// Float64 is a lossy conversion for display only.
	Float64() float64
}

// Engine constructs Values for one arithmetic backend.
type Engine interface {
	Name() string
	// Parse fails with ErrInvalidInput on empty or malformed text.
	Parse(s string) (Value, error)
	// FromFloat fails with ErrInvalidInput on NaN or infinities.
	FromFloat(f float64) (Value, error)
	Zero() Value
}
