package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/cashdesk/internal/core/domain"
	portsrepo "github.com/SscSPs/cashdesk/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// reportingRepository implements the CashReportingRepository interface
type reportingRepository struct {
	BaseRepository
}

func newReportingRepository(db *pgxpool.Pool) portsrepo.CashReportingRepository {
	return &reportingRepository{
		BaseRepository: BaseRepository{Pool: db},
	}
}

// GetDailyTotals retrieves the movement totals by type for [from, to) together with the
// opening and closing totals of the sessions that started or ended in the window.
func (r *reportingRepository) GetDailyTotals(ctx context.Context, branchID *string, from, to time.Time) (domain.DailyTotals, error) {
	totals := domain.DailyTotals{
		ByType:       domain.MovementTotals{},
		OpeningTotal: decimal.Zero,
		ClosingTotal: decimal.Zero,
	}

	movementQuery := `
		SELECT m.movement_type, SUM(m.amount)
		FROM cash_movements m
		JOIN cash_sessions s ON s.session_id = m.session_id
		WHERE m.movement_date >= $1
			AND m.movement_date < $2
			AND ($3::text IS NULL OR s.branch_id = $3)
		GROUP BY m.movement_type
	`
	rows, err := r.Pool.Query(ctx, movementQuery, from, to, branchID)
	if err != nil {
		return totals, fmt.Errorf("error querying daily movement totals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			mt    domain.MovementType
			total decimal.Decimal
		)
		if err := rows.Scan(&mt, &total); err != nil {
			return totals, fmt.Errorf("error scanning daily movement totals: %w", err)
		}
		totals.ByType.Add(mt, total)
	}
	if err := rows.Err(); err != nil {
		return totals, fmt.Errorf("error iterating daily movement totals: %w", err)
	}

	sessionQuery := `
		SELECT
			COALESCE(SUM(CASE WHEN s.opened_at >= $1 AND s.opened_at < $2 THEN s.initial_amount END), 0),
			COALESCE(SUM(CASE WHEN s.closed_at >= $1 AND s.closed_at < $2 THEN s.counted_amount END), 0)
		FROM cash_sessions s
		WHERE ($3::text IS NULL OR s.branch_id = $3)
			AND ((s.opened_at >= $1 AND s.opened_at < $2) OR (s.closed_at >= $1 AND s.closed_at < $2))
	`
	if err := r.Pool.QueryRow(ctx, sessionQuery, from, to, branchID).Scan(&totals.OpeningTotal, &totals.ClosingTotal); err != nil {
		return totals, fmt.Errorf("error querying daily session totals: %w", err)
	}
	return totals, nil
}
