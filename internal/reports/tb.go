// Package reports derives presentation structures from account balances.
// All aggregation is decimal; floats appear nowhere.
package reports

import (
	"sort"
	"strings"

	dec "github.com/ledgerline/ledgerline/internal/decimal"
)

// AccountBalance models a ledger account with its balance split into the
// debit/credit column it reports under.
type AccountBalance struct {
	Code   string
	Name   string
	Type   string
	Debit  dec.Value
	Credit dec.Value
}

// GroupKey returns a key used for grouping trial balance rows.
func (a AccountBalance) GroupKey() string {
	if idx := strings.Index(a.Code, "."); idx > 0 {
		return a.Code[:idx]
	}
	if len(a.Code) >= 2 {
		return a.Code[:2]
	}
	return a.Code
}

// TrialBalanceRow represents a row inside a trial balance group.
type TrialBalanceRow struct {
	Code   string
	Name   string
	Type   string
	Debit  dec.Value
	Credit dec.Value
}

// TrialBalanceGroup aggregates rows for presentation.
type TrialBalanceGroup struct {
	Key    string
	Rows   []TrialBalanceRow
	Debit  dec.Value
	Credit dec.Value
}

// TrialBalance is the final structure handed to the reporting layer.
type TrialBalance struct {
	Groups      []TrialBalanceGroup
	TotalDebit  dec.Value
	TotalCredit dec.Value
}

// Balanced reports whether the debit and credit columns agree.
func (tb TrialBalance) Balanced() bool {
	return tb.TotalDebit.Cmp(tb.TotalCredit) == 0
}

// BuildTrialBalance converts account balances into grouped trial balance data.
func BuildTrialBalance(eng dec.Engine, accounts []AccountBalance) TrialBalance {
	groups := make(map[string]*TrialBalanceGroup)
	keys := make([]string, 0)
	for _, acc := range accounts {
		key := acc.GroupKey()
		grp, ok := groups[key]
		if !ok {
			grp = &TrialBalanceGroup{Key: key, Debit: eng.Zero(), Credit: eng.Zero()}
			groups[key] = grp
			keys = append(keys, key)
		}
		row := TrialBalanceRow{
			Code:   acc.Code,
			Name:   acc.Name,
			Type:   acc.Type,
			Debit:  acc.Debit,
			Credit: acc.Credit,
		}
		grp.Rows = append(grp.Rows, row)
		grp.Debit = grp.Debit.Add(row.Debit)
		grp.Credit = grp.Credit.Add(row.Credit)
	}

	sort.Strings(keys)
	result := TrialBalance{TotalDebit: eng.Zero(), TotalCredit: eng.Zero()}
	for _, key := range keys {
		grp := groups[key]
		sort.Slice(grp.Rows, func(i, j int) bool {
			return grp.Rows[i].Code < grp.Rows[j].Code
		})
		result.Groups = append(result.Groups, *grp)
		result.TotalDebit = result.TotalDebit.Add(grp.Debit)
		result.TotalCredit = result.TotalCredit.Add(grp.Credit)
	}
	return result
}
