package calc

import (
	"fmt"

	dec "github.com/ledgerline/ledgerline/internal/decimal"
)

// DepreciationRow is one year of a depreciation schedule.
type DepreciationRow struct {
	Year      int
	Expense   dec.Value
	BookValue dec.Value
}

// AssetInput describes a depreciable asset.
type AssetInput struct {
	Cost    string
	Salvage string
	Years   int
}

// StraightLine depreciates (cost - salvage) evenly over the asset's life.
// The final year absorbs any rounding residual so the ending book value
// equals salvage exactly.
func StraightLine(prov *dec.Provider, in AssetInput) ([]DepreciationRow, error) {
	eng, cost, salvage, err := parseAsset(prov, in)
	if err != nil {
		return nil, err
	}
	years, err := eng.FromFloat(float64(in.Years))
	if err != nil {
		return nil, err
	}
	annual, err := cost.Sub(salvage).Div(years, moneyPlaces, dec.RoundHalfEven)
	if err != nil {
		return nil, err
	}

	rows := make([]DepreciationRow, 0, in.Years)
	book := cost
	for year := 1; year <= in.Years; year++ {
		expense := annual
		if year == in.Years {
			expense = book.Sub(salvage)
		}
		book = book.Sub(expense)
		rows = append(rows, DepreciationRow{Year: year, Expense: expense, BookValue: book})
	}
	return rows, nil
}

// DecliningBalance applies a fixed rate of factor/years to the opening book
// value each year, never depreciating below salvage. The last year writes the
// book value down to salvage.
func DecliningBalance(prov *dec.Provider, in AssetInput, factor string) ([]DepreciationRow, error) {
	eng, cost, salvage, err := parseAsset(prov, in)
	if err != nil {
		return nil, err
	}
	f, err := eng.Parse(factor)
	if err != nil {
		return nil, fmt.Errorf("calc: factor: %w", err)
	}
	years, err := eng.FromFloat(float64(in.Years))
	if err != nil {
		return nil, err
	}
	rate, err := f.Div(years, ratePlaces, dec.RoundHalfEven)
	if err != nil {
		return nil, err
	}

	rows := make([]DepreciationRow, 0, in.Years)
	book := cost
	for year := 1; year <= in.Years; year++ {
		expense := book.Mul(rate).Round(moneyPlaces, dec.RoundHalfEven)
		remaining := book.Sub(salvage)
		if year == in.Years || expense.Cmp(remaining) > 0 {
			expense = remaining
		}
		book = book.Sub(expense)
		rows = append(rows, DepreciationRow{Year: year, Expense: expense, BookValue: book})
	}
	return rows, nil
}

func parseAsset(prov *dec.Provider, in AssetInput) (dec.Engine, dec.Value, dec.Value, error) {
	eng, err := prov.Engine()
	if err != nil {
		return nil, nil, nil, err
	}
	if in.Years <= 0 {
		return nil, nil, nil, ErrInvalidTerm
	}
	cost, err := eng.Parse(in.Cost)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("calc: cost: %w", err)
	}
	salvage, err := eng.Parse(in.Salvage)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("calc: salvage: %w", err)
	}
	if cost.Cmp(salvage) < 0 {
		return nil, nil, nil, fmt.Errorf("calc: salvage exceeds cost")
	}
	return eng, cost, salvage, nil
}
