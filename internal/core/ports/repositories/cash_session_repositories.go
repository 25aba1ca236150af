package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/cashdesk/internal/core/domain"
)

// ReconcileFunc computes the reconciliation for a session from the movement totals
// observed inside the closing unit of work.
type ReconcileFunc func(session domain.CashSession, totals domain.MovementTotals) domain.Reconciliation

// CashSessionReader defines read operations for cash sessions.
type CashSessionReader interface {
	// FindSessionByID retrieves a session; apperrors.ErrNotFound when unknown.
	FindSessionByID(ctx context.Context, sessionID string) (*domain.CashSession, error)

	// ListSessions returns sessions matching filter ordered by opened_at DESC, session_id DESC,
	// together with the total number of matches. limit <= 0 returns every match.
	ListSessions(ctx context.Context, filter domain.SessionFilter, limit, offset int) ([]domain.CashSession, int, error)

	// ListSessionsOverlapping returns sessions whose lifetime overlaps [from, to):
	// opened in the window, closed in the window, or opened before it and still open or closed after it.
	ListSessionsOverlapping(ctx context.Context, branchID *string, from, to time.Time) ([]domain.CashSession, error)
}

// CashSessionWriter defines the lifecycle mutations of a cash session. Each method is one
// atomic unit of work.
type CashSessionWriter interface {
	// CreateSession persists an OPEN session and its OPENING movement. A second OPEN session
	// for the same (opened_by, branch_id) fails with apperrors.ErrConflict.
	CreateSession(ctx context.Context, session domain.CashSession, opening domain.CashMovement) (*domain.CashSession, error)

	// CloseSession locks the session, sums its committed movements, applies reconcile,
	// flips it to CLOSED and appends the CLOSING movement. A session that is not OPEN
	// fails with apperrors.ErrInvalidState.
	CloseSession(ctx context.Context, closure domain.SessionClosure, reconcile ReconcileFunc) (*domain.CashSession, error)

	// UpdateObservations replaces the observations of an OPEN session.
	UpdateObservations(ctx context.Context, sessionID string, observations *string, at time.Time) (*domain.CashSession, error)
}

// CashSessionRepositoryFacade combines all session repository interfaces.
type CashSessionRepositoryFacade interface {
	CashSessionReader
	CashSessionWriter
}
