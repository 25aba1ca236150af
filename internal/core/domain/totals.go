package domain

import "github.com/shopspring/decimal"

// MovementTotals holds the summed amounts of a set of movements, keyed by type.
type MovementTotals map[MovementType]decimal.Decimal

// Of returns the total for t, or zero.
func (t MovementTotals) Of(mt MovementType) decimal.Decimal {
	if v, ok := t[mt]; ok {
		return v
	}
	return decimal.Zero
}

// Add accumulates amount under mt.
func (t MovementTotals) Add(mt MovementType, amount decimal.Decimal) {
	t[mt] = t.Of(mt).Add(amount)
}

// Income is SALE + PAYMENT + MANUAL_ENTRY.
func (t MovementTotals) Income() decimal.Decimal {
	sum := decimal.Zero
	for mt, v := range t {
		if mt.IsIncome() {
			sum = sum.Add(v)
		}
	}
	return sum
}

// Expenses is MANUAL_EXIT.
func (t MovementTotals) Expenses() decimal.Decimal {
	sum := decimal.Zero
	for mt, v := range t {
		if mt.IsExpense() {
			sum = sum.Add(v)
		}
	}
	return sum
}

// Balance applies the fixed type-to-sign mapping: OPENING + income - expenses.
// CLOSING movements record the act of closing and contribute nothing.
func (t MovementTotals) Balance() decimal.Decimal {
	sum := decimal.Zero
	for mt, v := range t {
		sum = sum.Add(v.Mul(decimal.NewFromInt(mt.Sign())))
	}
	return sum
}

// TotalsOf sums a slice of movements by type.
func TotalsOf(movements []CashMovement) MovementTotals {
	totals := MovementTotals{}
	for _, m := range movements {
		totals.Add(m.Type, m.Amount)
	}
	return totals
}
