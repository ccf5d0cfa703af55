package decimal

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// shopEngine is the portable backend built on shopspring/decimal. It is the
// fallback engine and must produce results identical to the apd backend.
type shopEngine struct{}

func newShopEngine() Engine { return shopEngine{} }

func (shopEngine) Name() string { return BackendShopspring }

func (shopEngine) Parse(s string) (Value, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, ErrInvalidInput
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return nil, ErrInvalidInput
	}
	return shopValue{d: d}, nil
}

func (shopEngine) FromFloat(f float64) (Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, ErrInvalidInput
	}
	return shopValue{d: decimal.NewFromFloat(f)}, nil
}

func (shopEngine) Zero() Value { return shopValue{d: decimal.Zero} }

type shopValue struct {
	d decimal.Decimal
}

// coerceShop converts any Value to a shopspring decimal, going through the
// canonical string when the value belongs to another backend.
func coerceShop(v Value) decimal.Decimal {
	if sv, ok := v.(shopValue); ok {
		return sv.d
	}
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (v shopValue) Add(other Value) Value { return shopValue{d: v.d.Add(coerceShop(other))} }
func (v shopValue) Sub(other Value) Value { return shopValue{d: v.d.Sub(coerceShop(other))} }
func (v shopValue) Mul(other Value) Value { return shopValue{d: v.d.Mul(coerceShop(other))} }

func (v shopValue) Div(other Value, places int32, mode RoundingMode) (Value, error) {
	o := coerceShop(other)
	if o.IsZero() {
		return nil, ErrDivisionByZero
	}
	// Compute with guard digits, then apply the requested mode at the
	// requested position. DivRound's own rounding happens below the guard
	// digits and cannot disturb the retained portion.
	q := v.d.DivRound(o, places+4)
	return shopValue{d: roundShop(q, places, mode)}, nil
}

func (v shopValue) Abs() Value { return shopValue{d: v.d.Abs()} }
func (v shopValue) Neg() Value { return shopValue{d: decimal.Zero.Sub(v.d)} }

func (v shopValue) IsZero() bool     { return v.d.IsZero() }
func (v shopValue) IsPositive() bool { return v.d.IsPositive() }
func (v shopValue) IsNegative() bool { return v.d.IsNegative() }

func (v shopValue) Cmp(other Value) int { return v.d.Cmp(coerceShop(other)) }

func (v shopValue) Round(places int32, mode RoundingMode) Value {
	return shopValue{d: roundShop(v.d, places, mode)}
}

func (v shopValue) FixedString(places int32, mode RoundingMode) string {
	return roundShop(v.d, places, mode).StringFixed(places)
}

func (v shopValue) String() string { return v.d.String() }

func (v shopValue) Float64() float64 {
	f, _ := v.d.Float64()
	return f
}

func roundShop(d decimal.Decimal, places int32, mode RoundingMode) decimal.Decimal {
	switch mode {
	case RoundHalfUp:
		return d.Round(places)
	case RoundUp:
		return d.RoundUp(places)
	case RoundDown:
		return d.RoundDown(places)
	case RoundCeiling:
		return d.RoundCeil(places)
	case RoundFloor:
		return d.RoundFloor(places)
	default:
		return d.RoundBank(places)
	}
}
