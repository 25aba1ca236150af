package services

import (
	"github.com/SscSPs/cashdesk/internal/core/domain"
	portssvc "github.com/SscSPs/cashdesk/internal/core/ports/services"
	"github.com/shopspring/decimal"
)

type reconciler struct{}

// NewReconciler returns the reconciliation engine.
func NewReconciler() portssvc.ReconcilerSvc {
	return reconciler{}
}

var _ portssvc.ReconcilerSvc = reconciler{}

// Reconcile computes the expected drawer from the movement totals and the difference
// against what the operator counted. A negative difference is a shortage.
func (reconciler) Reconcile(session domain.CashSession, totals domain.MovementTotals, countedAmount decimal.Decimal) domain.Reconciliation {
	if totals == nil {
		totals = domain.MovementTotals{}
	}
	expected := totals.Balance()
	if _, ok := totals[domain.MovementOpening]; !ok {
		expected = expected.Add(session.InitialAmount)
	}
	return domain.Reconciliation{
		ExpectedBalance: expected,
		CountedAmount:   countedAmount,
		Difference:      countedAmount.Sub(expected),
	}
}
