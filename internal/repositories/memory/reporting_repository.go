package memory

import (
	"context"
	"time"

	"github.com/SscSPs/cashdesk/internal/core/domain"
	portsrepo "github.com/SscSPs/cashdesk/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
)

// ReportingRepository answers aggregate queries over the in-memory store.
type ReportingRepository struct {
	store *Store
}

var _ portsrepo.CashReportingRepository = (*ReportingRepository)(nil)

func (r *ReportingRepository) GetDailyTotals(ctx context.Context, branchID *string, from, to time.Time) (domain.DailyTotals, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	inWindow := func(t time.Time) bool {
		return !t.Before(from) && t.Before(to)
	}

	totals := domain.DailyTotals{
		ByType:       domain.MovementTotals{},
		OpeningTotal: decimal.Zero,
		ClosingTotal: decimal.Zero,
	}
	for _, m := range s.movements {
		if !inWindow(m.MovementDate) {
			continue
		}
		if branchID != nil && s.sessions[m.SessionID].BranchID != *branchID {
			continue
		}
		totals.ByType.Add(m.Type, m.Amount)
	}
	for _, session := range s.sessions {
		if branchID != nil && session.BranchID != *branchID {
			continue
		}
		if inWindow(session.OpenedAt) {
			totals.OpeningTotal = totals.OpeningTotal.Add(session.InitialAmount)
		}
		if session.ClosedAt != nil && session.CountedAmount != nil && inWindow(*session.ClosedAt) {
			totals.ClosingTotal = totals.ClosingTotal.Add(*session.CountedAmount)
		}
	}
	return totals, nil
}
