package pgsql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/cashdesk/internal/apperrors"
	"github.com/SscSPs/cashdesk/internal/core/domain"
	portsrepo "github.com/SscSPs/cashdesk/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueOpenSessionIndex is the partial unique index on (opened_by, branch_id) WHERE status = 'OPEN'.
const uniqueOpenSessionIndex = "uq_cash_sessions_one_open"

type PgxCashSessionRepository struct {
	BaseRepository
}

func newPgxCashSessionRepository(pool *pgxpool.Pool) portsrepo.CashSessionRepositoryFacade {
	return &PgxCashSessionRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.CashSessionRepositoryFacade = (*PgxCashSessionRepository)(nil)

const sessionSelectQuery = `
SELECT
	s.session_id, s.branch_id, s.opened_by, s.opened_at, s.initial_amount, s.status,
	s.closed_by, s.closed_at, s.counted_amount, s.expected_balance, s.difference,
	s.observations, s.last_updated_at
FROM cash_sessions s
`

func (r *PgxCashSessionRepository) getSessions(ctx context.Context, q querier, filterQuery string, args ...any) ([]domain.CashSession, error) {
	rows, err := q.Query(ctx, sessionSelectQuery+filterQuery, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query cash sessions", err)
	}
	sessions, err := pgx.CollectRows(rows, pgx.RowToStructByName[domain.CashSession])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to collect cash session rows", err)
	}
	return sessions, nil
}

func (r *PgxCashSessionRepository) CreateSession(ctx context.Context, session domain.CashSession, opening domain.CashMovement) (*domain.CashSession, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	query := `
		INSERT INTO cash_sessions (
			session_id, branch_id, opened_by, opened_at, initial_amount, status,
			observations, last_updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	_, err = tx.Exec(ctx, query,
		session.SessionID,
		session.BranchID,
		session.OpenedBy,
		session.OpenedAt,
		session.InitialAmount,
		session.Status,
		session.Observations,
		session.LastUpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, uniqueOpenSessionIndex) {
			existingID := r.findOpenSessionID(ctx, session.OpenedBy, session.BranchID)
			return nil, apperrors.NewConflict("open session", existingID, string(domain.SessionOpen), "session already open for this user/branch")
		}
		if isUniqueViolation(err, "") {
			return nil, apperrors.ErrDuplicate
		}
		if isForeignKeyViolation(err, "fk_cash_sessions_branch") {
			return nil, apperrors.NewValidationFailedError("branch " + session.BranchID + " does not exist")
		}
		return nil, apperrors.NewAppError(500, "failed to insert cash session "+session.SessionID, err)
	}

	if _, err := insertMovement(ctx, tx, opening); err != nil {
		return nil, err
	}
	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return &session, nil
}

// findOpenSessionID is best effort; it only enriches the conflict error.
func (r *PgxCashSessionRepository) findOpenSessionID(ctx context.Context, userID, branchID string) string {
	var id string
	err := r.Pool.QueryRow(ctx,
		`SELECT session_id FROM cash_sessions WHERE opened_by = $1 AND branch_id = $2 AND status = 'OPEN'`,
		userID, branchID,
	).Scan(&id)
	if err != nil {
		return ""
	}
	return id
}

func (r *PgxCashSessionRepository) FindSessionByID(ctx context.Context, sessionID string) (*domain.CashSession, error) {
	sessions, err := r.getSessions(ctx, r.Pool, `WHERE s.session_id = $1`, sessionID)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, apperrors.NewNotFoundError("cash session " + sessionID)
	}
	return &sessions[0], nil
}

// CloseSession holds an exclusive row lock while it sums the ledger, so no movement can
// slip in between the reconciliation and the status flip.
func (r *PgxCashSessionRepository) CloseSession(ctx context.Context, closure domain.SessionClosure, reconcile portsrepo.ReconcileFunc) (*domain.CashSession, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	sessions, err := r.getSessions(ctx, tx, `WHERE s.session_id = $1 FOR UPDATE`, closure.SessionID)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, apperrors.NewNotFoundError("cash session " + closure.SessionID)
	}
	session := sessions[0]
	if !session.IsOpen() {
		return nil, apperrors.NewInvalidState("close session", session.SessionID, string(session.Status))
	}

	totals, err := sumMovements(ctx, tx, []string{session.SessionID})
	if err != nil {
		return nil, err
	}
	lastAt, err := lastMovementAt(ctx, tx, session.SessionID)
	if err != nil {
		return nil, err
	}
	closure = closure.NotBefore(lastAt)
	closed, closing, err := session.Close(closure, reconcile(session, totals[session.SessionID]))
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE cash_sessions
		SET status = $2, closed_by = $3, closed_at = $4, counted_amount = $5,
			expected_balance = $6, difference = $7, observations = $8, last_updated_at = $9
		WHERE session_id = $1;
	`
	_, err = tx.Exec(ctx, query,
		closed.SessionID,
		closed.Status,
		closed.ClosedBy,
		closed.ClosedAt,
		closed.CountedAmount,
		closed.ExpectedBalance,
		closed.Difference,
		closed.Observations,
		closed.LastUpdatedAt,
	)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to close cash session "+closed.SessionID, err)
	}
	if _, err := insertMovement(ctx, tx, closing); err != nil {
		return nil, err
	}
	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return &closed, nil
}

func (r *PgxCashSessionRepository) UpdateObservations(ctx context.Context, sessionID string, observations *string, at time.Time) (*domain.CashSession, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	sessions, err := r.getSessions(ctx, tx, `WHERE s.session_id = $1 FOR UPDATE`, sessionID)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, apperrors.NewNotFoundError("cash session " + sessionID)
	}
	session := sessions[0]
	if !session.IsOpen() {
		return nil, apperrors.NewInvalidState("update session", sessionID, string(session.Status))
	}

	_, err = tx.Exec(ctx,
		`UPDATE cash_sessions SET observations = $2, last_updated_at = $3 WHERE session_id = $1`,
		sessionID, observations, at,
	)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to update cash session "+sessionID, err)
	}
	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}

	session.Observations = observations
	session.LastUpdatedAt = at
	return &session, nil
}

// sessionWhere renders filter as a WHERE clause with positional arguments.
func sessionWhere(filter domain.SessionFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.UserID != nil {
		add("s.opened_by = $%d", *filter.UserID)
	}
	if filter.BranchID != nil {
		add("s.branch_id = $%d", *filter.BranchID)
	}
	if filter.Status != nil {
		add("s.status = $%d", string(*filter.Status))
	}
	if filter.OpenedFrom != nil {
		add("s.opened_at >= $%d", *filter.OpenedFrom)
	}
	if filter.OpenedTo != nil {
		add("s.opened_at < $%d", *filter.OpenedTo)
	}
	if len(conds) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conds, " AND ") + "\n", args
}

func (r *PgxCashSessionRepository) ListSessions(ctx context.Context, filter domain.SessionFilter, limit, offset int) ([]domain.CashSession, int, error) {
	where, args := sessionWhere(filter)

	var total int
	if err := r.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM cash_sessions s `+where, args...).Scan(&total); err != nil {
		return nil, 0, apperrors.NewAppError(500, "failed to count cash sessions", err)
	}

	query := where + `ORDER BY s.opened_at DESC, s.session_id DESC`
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	if offset > 0 {
		args = append(args, offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}
	sessions, err := r.getSessions(ctx, r.Pool, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return sessions, total, nil
}

func (r *PgxCashSessionRepository) ListSessionsOverlapping(ctx context.Context, branchID *string, from, to time.Time) ([]domain.CashSession, error) {
	query := `
		WHERE s.opened_at < $2
			AND (s.closed_at IS NULL OR s.closed_at >= $1)
			AND ($3::text IS NULL OR s.branch_id = $3)
		ORDER BY s.opened_at DESC, s.session_id DESC
	`
	sessions, err := r.getSessions(ctx, r.Pool, query, from, to, branchID)
	if err != nil {
		return nil, err
	}
	return sessions, nil
}
