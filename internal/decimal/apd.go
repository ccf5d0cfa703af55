package decimal

import (
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// apdPrecision is the working precision, in significant digits, for the apd
// backend. Bookkeeping magnitudes never approach it.
const apdPrecision = 50

// apdEngine is the contexted backend built on cockroachdb/apd.
type apdEngine struct {
	ctx *apd.Context
}

func newAPDEngine() (Engine, error) {
	ctx := apd.BaseContext.WithPrecision(apdPrecision)
	ctx.Rounding = apd.RoundHalfEven
	return &apdEngine{ctx: ctx}, nil
}

func (e *apdEngine) Name() string { return BackendAPD }

func (e *apdEngine) Parse(s string) (Value, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, ErrInvalidInput
	}
	d, _, err := apd.NewFromString(trimmed)
	if err != nil || d.Form != apd.Finite {
		return nil, ErrInvalidInput
	}
	return apdValue{eng: e, d: d}, nil
}

func (e *apdEngine) FromFloat(f float64) (Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, ErrInvalidInput
	}
	return e.Parse(strconv.FormatFloat(f, 'f', -1, 64))
}

func (e *apdEngine) Zero() Value {
	return apdValue{eng: e, d: apd.New(0, 0)}
}

type apdValue struct {
	eng *apdEngine
	d   *apd.Decimal
}

func (v apdValue) coerce(other Value) *apd.Decimal {
	if av, ok := other.(apdValue); ok {
		return av.d
	}
	d, _, err := apd.NewFromString(other.String())
	if err != nil {
		return apd.New(0, 0)
	}
	return d
}

func (v apdValue) Add(other Value) Value {
	res := new(apd.Decimal)
	_, _ = v.eng.ctx.Add(res, v.d, v.coerce(other))
	return apdValue{eng: v.eng, d: res}
}

func (v apdValue) Sub(other Value) Value {
	res := new(apd.Decimal)
	_, _ = v.eng.ctx.Sub(res, v.d, v.coerce(other))
	return apdValue{eng: v.eng, d: res}
}

func (v apdValue) Mul(other Value) Value {
	res := new(apd.Decimal)
	_, _ = v.eng.ctx.Mul(res, v.d, v.coerce(other))
	return apdValue{eng: v.eng, d: res}
}

func (v apdValue) Div(other Value, places int32, mode RoundingMode) (Value, error) {
	o := v.coerce(other)
	if o.IsZero() {
		return nil, ErrDivisionByZero
	}
	quo := new(apd.Decimal)
	if _, err := v.eng.ctx.Quo(quo, v.d, o); err != nil {
		return nil, ErrInvalidInput
	}
	return apdValue{eng: v.eng, d: quo}.Round(places, mode), nil
}

func (v apdValue) Abs() Value {
	res := new(apd.Decimal)
	res.Abs(v.d)
	return apdValue{eng: v.eng, d: res}
}

func (v apdValue) Neg() Value {
	res := new(apd.Decimal)
	res.Neg(v.d)
	return apdValue{eng: v.eng, d: res}
}

func (v apdValue) IsZero() bool     { return v.d.IsZero() }
func (v apdValue) IsPositive() bool { return v.d.Sign() > 0 }
func (v apdValue) IsNegative() bool { return v.d.Sign() < 0 }

func (v apdValue) Cmp(other Value) int { return v.d.Cmp(v.coerce(other)) }

func (v apdValue) Round(places int32, mode RoundingMode) Value {
	ctx := v.eng.ctx.WithPrecision(apdPrecision)
	ctx.Rounding = apdRounder(mode)
	res := new(apd.Decimal)
	_, _ = ctx.Quantize(res, v.d, -places)
	return apdValue{eng: v.eng, d: res}
}

func (v apdValue) FixedString(places int32, mode RoundingMode) string {
	rounded := v.Round(places, mode).(apdValue)
	// Quantize pins the exponent at -places, so plain formatting keeps
	// exactly that many fractional digits.
	if rounded.d.IsZero() && rounded.d.Negative {
		rounded.d.Negative = false
	}
	return rounded.d.Text('f')
}

func (v apdValue) String() string {
	if v.d.IsZero() {
		return "0"
	}
	reduced := new(apd.Decimal)
	reduced.Reduce(v.d)
	return reduced.Text('f')
}

func (v apdValue) Float64() float64 {
	f, err := v.d.Float64()
	if err != nil {
		return 0
	}
	return f
}

func apdRounder(mode RoundingMode) apd.Rounder {
	switch mode {
	case RoundHalfUp:
		return apd.RoundHalfUp
	case RoundUp:
		return apd.RoundUp
	case RoundDown:
		return apd.RoundDown
	case RoundCeiling:
		return apd.RoundCeiling
	case RoundFloor:
		return apd.RoundFloor
	default:
		return apd.RoundHalfEven
	}
}
