// Package calc provides loan-amortization and tax-depreciation math on top
// of the decimal provider. It never touches ledger state.
package calc

import (
	"errors"
	"fmt"

	dec "github.com/ledgerline/ledgerline/internal/decimal"
)

// ErrInvalidTerm indicates a non-positive period or year count.
var ErrInvalidTerm = errors.New("calc: term must be positive")

// moneyPlaces is the rounding position for currency results.
const moneyPlaces = 2

// ratePlaces carries intermediate rate math with enough headroom that the
// final rounding to cents is exact.
const ratePlaces = 10

// AmortizationRow is one period of a loan schedule.
type AmortizationRow struct {
	Period    int
	Payment   dec.Value
	Interest  dec.Value
	Principal dec.Value
	Balance   dec.Value
}

// LoanInput describes an annuity loan.
type LoanInput struct {
	// Principal is the amount borrowed, e.g. "250000".
	Principal string
	// AnnualRate is the nominal yearly rate as a decimal fraction, e.g.
	// "0.06" for 6%.
	AnnualRate string
	// PeriodsPerYear is the payment frequency, typically 12.
	PeriodsPerYear int
	// Years is the loan term.
	Years int
}

// Amortize computes the fixed payment and full schedule for an annuity
// loan. All arithmetic is decimal; the final period absorbs the residual so
// the schedule sums exactly to the principal.
func Amortize(prov *dec.Provider, in LoanInput) (dec.Value, []AmortizationRow, error) {
	eng, err := prov.Engine()
	if err != nil {
		return nil, nil, err
	}
	if in.PeriodsPerYear <= 0 || in.Years <= 0 {
		return nil, nil, ErrInvalidTerm
	}
	principal, err := eng.Parse(in.Principal)
	if err != nil {
		return nil, nil, fmt.Errorf("calc: principal: %w", err)
	}
	annualRate, err := eng.Parse(in.AnnualRate)
	if err != nil {
		return nil, nil, fmt.Errorf("calc: annual rate: %w", err)
	}
	periodsPerYear, err := eng.FromFloat(float64(in.PeriodsPerYear))
	if err != nil {
		return nil, nil, err
	}
	n := in.PeriodsPerYear * in.Years

	rate, err := annualRate.Div(periodsPerYear, ratePlaces, dec.RoundHalfEven)
	if err != nil {
		return nil, nil, err
	}

	var payment dec.Value
	if rate.IsZero() {
		count, err := eng.FromFloat(float64(n))
		if err != nil {
			return nil, nil, err
		}
		payment, err = principal.Div(count, moneyPlaces, dec.RoundHalfEven)
		if err != nil {
			return nil, nil, err
		}
	} else {
		one, err := eng.Parse("1")
		if err != nil {
			return nil, nil, err
		}
		// payment = P * r * (1+r)^n / ((1+r)^n - 1)
		growth := one
		base := one.Add(rate)
		for i := 0; i < n; i++ {
			growth = growth.Mul(base)
		}
		numerator := principal.Mul(rate).Mul(growth)
		denominator := growth.Sub(one)
		payment, err = numerator.Div(denominator, moneyPlaces, dec.RoundHalfEven)
		if err != nil {
			return nil, nil, err
		}
	}

	rows := make([]AmortizationRow, 0, n)
	balance := principal
	for period := 1; period <= n; period++ {
		interest := balance.Mul(rate).Round(moneyPlaces, dec.RoundHalfEven)
		principalPart := payment.Sub(interest)
		rowPayment := payment
		if period == n {
			// Final period clears the exact remaining balance.
			principalPart = balance
			rowPayment = balance.Add(interest)
		}
		balance = balance.Sub(principalPart)
		rows = append(rows, AmortizationRow{
			Period:    period,
			Payment:   rowPayment,
			Interest:  interest,
			Principal: principalPart,
			Balance:   balance,
		})
	}
	return payment, rows, nil
}
