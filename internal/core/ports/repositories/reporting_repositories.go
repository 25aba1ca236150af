package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/cashdesk/internal/core/domain"
)

// CashReportingRepository defines read-only aggregate queries for reporting.
type CashReportingRepository interface {
	// GetDailyTotals sums movements dated in [from, to) by type, the initial amounts of
	// sessions opened in the window and the counted amounts of sessions closed in it.
	GetDailyTotals(ctx context.Context, branchID *string, from, to time.Time) (domain.DailyTotals, error)
}
