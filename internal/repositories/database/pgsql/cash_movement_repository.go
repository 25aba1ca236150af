package pgsql

import (
	"context"
	"errors"
	"time"

	"github.com/SscSPs/cashdesk/internal/apperrors"
	"github.com/SscSPs/cashdesk/internal/core/domain"
	portsrepo "github.com/SscSPs/cashdesk/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PgxCashMovementRepository struct {
	BaseRepository
}

func newPgxCashMovementRepository(pool *pgxpool.Pool) portsrepo.CashMovementRepositoryFacade {
	return &PgxCashMovementRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.CashMovementRepositoryFacade = (*PgxCashMovementRepository)(nil)

const movementSelectQuery = `
SELECT
	m.movement_id, m.session_id, m.user_id, m.movement_type, m.amount, m.payment_method,
	m.concept, m.reference_id, m.observations, m.movement_date, m.seq
FROM cash_movements m
`

// insertMovement appends m using q and returns it with the sequence assigned by the database.
func insertMovement(ctx context.Context, q querier, m domain.CashMovement) (*domain.CashMovement, error) {
	query := `
		INSERT INTO cash_movements (
			movement_id, session_id, user_id, movement_type, amount, payment_method,
			concept, reference_id, observations, movement_date
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING seq;
	`
	err := q.QueryRow(ctx, query,
		m.MovementID,
		m.SessionID,
		m.UserID,
		m.Type,
		m.Amount,
		m.Method,
		m.Concept,
		m.ReferenceID,
		m.Observations,
		m.MovementDate,
	).Scan(&m.Seq)
	if err != nil {
		if isUniqueViolation(err, "cash_movements_pkey") {
			return nil, apperrors.ErrDuplicate
		}
		return nil, apperrors.NewAppError(500, "failed to insert cash movement "+m.MovementID, err)
	}
	return &m, nil
}

// sumMovements returns per-type totals for the given sessions.
// lastMovementAt returns the latest committed movement date of a session, or the zero
// time when it has none.
func lastMovementAt(ctx context.Context, q querier, sessionID string) (time.Time, error) {
	var last *time.Time
	err := q.QueryRow(ctx, `SELECT MAX(movement_date) FROM cash_movements WHERE session_id = $1`, sessionID).Scan(&last)
	if err != nil {
		return time.Time{}, apperrors.NewAppError(500, "failed to read last movement date", err)
	}
	if last == nil {
		return time.Time{}, nil
	}
	return *last, nil
}

func sumMovements(ctx context.Context, q querier, sessionIDs []string) (map[string]domain.MovementTotals, error) {
	query := `
		SELECT session_id, movement_type, SUM(amount)
		FROM cash_movements
		WHERE session_id = ANY($1)
		GROUP BY session_id, movement_type
	`
	rows, err := q.Query(ctx, query, sessionIDs)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to sum cash movements", err)
	}
	defer rows.Close()

	result := make(map[string]domain.MovementTotals, len(sessionIDs))
	for rows.Next() {
		var (
			sessionID string
			mt        domain.MovementType
			total     decimal.Decimal
		)
		if err := rows.Scan(&sessionID, &mt, &total); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan movement totals", err)
		}
		totals, ok := result[sessionID]
		if !ok {
			totals = domain.MovementTotals{}
			result[sessionID] = totals
		}
		totals.Add(mt, total)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed to iterate movement totals", err)
	}
	return result, nil
}

// AppendMovement takes a share lock on the session row so a concurrent close, which
// needs an exclusive lock, either sees this movement or makes it fail.
func (r *PgxCashMovementRepository) AppendMovement(ctx context.Context, movement domain.CashMovement) (*domain.CashMovement, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	var status domain.SessionStatus
	err = tx.QueryRow(ctx, `SELECT status FROM cash_sessions WHERE session_id = $1 FOR SHARE`, movement.SessionID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("cash session " + movement.SessionID)
		}
		return nil, apperrors.NewAppError(500, "failed to lock cash session "+movement.SessionID, err)
	}
	if status != domain.SessionOpen {
		return nil, apperrors.NewInvalidState("record movement", movement.SessionID, string(status))
	}

	stored, err := insertMovement(ctx, tx, movement)
	if err != nil {
		return nil, err
	}
	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return stored, nil
}

func (r *PgxCashMovementRepository) FindMovementByID(ctx context.Context, movementID string) (*domain.CashMovement, error) {
	rows, err := r.Pool.Query(ctx, movementSelectQuery+`WHERE m.movement_id = $1`, movementID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query cash movement", err)
	}
	m, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[domain.CashMovement])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("cash movement " + movementID)
		}
		return nil, apperrors.NewAppError(500, "failed to collect cash movement", err)
	}
	return &m, nil
}

func (r *PgxCashMovementRepository) ListMovements(ctx context.Context, sessionID string, filter domain.MovementFilter, after *domain.MovementCursor, limit int) ([]domain.CashMovement, error) {
	query := movementSelectQuery + `
		WHERE m.session_id = $1
			AND ($2::text IS NULL OR m.movement_type = $2)
			AND ($3::timestamptz IS NULL OR (m.movement_date, m.seq) > ($3, $4))
		ORDER BY m.movement_date, m.seq
	`
	var (
		typeArg *string
		dateArg any
		seqArg  int64
	)
	if filter.Type != nil {
		t := string(*filter.Type)
		typeArg = &t
	}
	if after != nil {
		dateArg = after.MovementDate
		seqArg = after.Seq
	}
	args := []any{sessionID, typeArg, dateArg, seqArg}
	if limit > 0 {
		query += ` LIMIT $5`
		args = append(args, limit)
	}

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query cash movements", err)
	}
	movements, err := pgx.CollectRows(rows, pgx.RowToStructByName[domain.CashMovement])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to collect cash movement rows", err)
	}
	return movements, nil
}

func (r *PgxCashMovementRepository) SumMovementsBySession(ctx context.Context, sessionIDs []string) (map[string]domain.MovementTotals, error) {
	if len(sessionIDs) == 0 {
		return map[string]domain.MovementTotals{}, nil
	}
	return sumMovements(ctx, r.Pool, sessionIDs)
}
