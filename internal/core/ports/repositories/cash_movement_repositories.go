package repositories

import (
	"context"

	"github.com/SscSPs/cashdesk/internal/core/domain"
)

// CashMovementReader defines read operations over the movement ledger.
type CashMovementReader interface {
	// FindMovementByID retrieves a single movement.
	FindMovementByID(ctx context.Context, movementID string) (*domain.CashMovement, error)

	// ListMovements returns up to limit movements of a session ordered by (movement_date, seq),
	// starting strictly after the given cursor when one is supplied.
	ListMovements(ctx context.Context, sessionID string, filter domain.MovementFilter, after *domain.MovementCursor, limit int) ([]domain.CashMovement, error)

	// SumMovementsBySession returns per-type totals for every requested session in one pass.
	// Sessions without movements are absent from the result.
	SumMovementsBySession(ctx context.Context, sessionIDs []string) (map[string]domain.MovementTotals, error)
}

// CashMovementWriter defines the only mutation the ledger allows: append.
type CashMovementWriter interface {
	// AppendMovement inserts a movement after re-checking, inside the same unit of work,
	// that its session is OPEN. It returns the stored movement with its sequence assigned.
	AppendMovement(ctx context.Context, movement domain.CashMovement) (*domain.CashMovement, error)
}

// CashMovementRepositoryFacade combines all movement repository interfaces.
type CashMovementRepositoryFacade interface {
	CashMovementReader
	CashMovementWriter
}
