package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/cashdesk/internal/apperrors"
	"github.com/SscSPs/cashdesk/internal/core/domain"
	portsrepo "github.com/SscSPs/cashdesk/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/cashdesk/internal/core/ports/services"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// cashSessionService owns the OPEN -> CLOSED state machine of cash drawers.
type cashSessionService struct {
	BaseService
	sessionRepo  portsrepo.CashSessionRepositoryFacade
	movementRepo portsrepo.CashMovementReader
	branches     portssvc.BranchValidatorSvc
	reconciler   portssvc.ReconcilerSvc
}

// CashSessionServiceOption is a functional option for configuring the session service
type CashSessionServiceOption func(*cashSessionService)

// WithSessionClock overrides the time source used for openedAt/closedAt.
func WithSessionClock(clock func() time.Time) CashSessionServiceOption {
	return func(s *cashSessionService) {
		s.Clock = clock
	}
}

// WithReconciler replaces the default reconciliation engine.
func WithReconciler(r portssvc.ReconcilerSvc) CashSessionServiceOption {
	return func(s *cashSessionService) {
		s.reconciler = r
	}
}

// NewCashSessionService creates the session manager.
func NewCashSessionService(
	sessionRepo portsrepo.CashSessionRepositoryFacade,
	movementRepo portsrepo.CashMovementReader,
	branches portssvc.BranchValidatorSvc,
	options ...CashSessionServiceOption,
) portssvc.CashSessionSvcFacade {
	svc := &cashSessionService{
		sessionRepo:  sessionRepo,
		movementRepo: movementRepo,
		branches:     branches,
		reconciler:   NewReconciler(),
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.CashSessionSvcFacade = (*cashSessionService)(nil)

// OpenSession opens a drawer. The one-open-session-per-(user, branch) rule is enforced
// by storage so that concurrent opens cannot both succeed.
func (s *cashSessionService) OpenSession(ctx context.Context, userID, branchID string, initialAmount decimal.Decimal, observations *string) (*domain.CashSession, error) {
	logAttrs := []any{slog.String("user_id", userID), slog.String("branch_id", branchID)}

	if err := validateDrawerAmount(userID, initialAmount, "initial amount"); err != nil {
		s.LogRejection(ctx, err, "Open session rejected", logAttrs...)
		return nil, err
	}
	if _, err := s.branches.ValidateBranch(ctx, branchID); err != nil {
		s.LogRejection(ctx, err, "Open session rejected", logAttrs...)
		return nil, err
	}

	now := s.Now()
	session := domain.CashSession{
		SessionID:     uuid.NewString(),
		BranchID:      branchID,
		OpenedBy:      userID,
		OpenedAt:      now,
		InitialAmount: initialAmount,
		Status:        domain.SessionOpen,
		Observations:  normalizeText(observations),
		LastUpdatedAt: now,
	}

	created, err := s.sessionRepo.CreateSession(ctx, session, session.OpeningMovement(uuid.NewString()))
	if err != nil {
		s.LogRejection(ctx, err, "Open session failed", logAttrs...)
		return nil, fmt.Errorf("failed to open session: %w", err)
	}

	s.LogInfo(ctx, "Cash session opened",
		slog.String("session_id", created.SessionID),
		slog.String("user_id", userID),
		slog.String("branch_id", branchID),
		slog.String("initial_amount", initialAmount.StringFixed(domain.MoneyScale)))
	return created, nil
}

// GetSession retrieves a session by ID.
func (s *cashSessionService) GetSession(ctx context.Context, sessionID string) (*domain.CashSession, error) {
	session, err := s.sessionRepo.FindSessionByID(ctx, sessionID)
	if err != nil {
		s.LogRejection(ctx, err, "Get session failed", slog.String("session_id", sessionID))
		return nil, fmt.Errorf("failed to get session %s: %w", sessionID, err)
	}
	return session, nil
}

// GetOpenSessions lists OPEN sessions with their live balance, computed in one grouped read.
func (s *cashSessionService) GetOpenSessions(ctx context.Context, filter domain.SessionFilter) ([]domain.SessionWithBalance, error) {
	open := domain.SessionOpen
	filter.Status = &open

	sessions, _, err := s.sessionRepo.ListSessions(ctx, filter, 0, 0)
	if err != nil {
		s.LogError(ctx, err, "Failed to list open sessions")
		return nil, fmt.Errorf("failed to list open sessions: %w", err)
	}
	if len(sessions) == 0 {
		return []domain.SessionWithBalance{}, nil
	}

	ids := make([]string, len(sessions))
	for i, sess := range sessions {
		ids[i] = sess.SessionID
	}
	totals, err := s.movementRepo.SumMovementsBySession(ctx, ids)
	if err != nil {
		s.LogError(ctx, err, "Failed to sum movements for open sessions", slog.Int("session_count", len(ids)))
		return nil, fmt.Errorf("failed to compute open session balances: %w", err)
	}

	result := make([]domain.SessionWithBalance, len(sessions))
	for i, sess := range sessions {
		result[i] = domain.SessionWithBalance{
			CashSession:    sess,
			CurrentBalance: s.reconciler.Reconcile(sess, totals[sess.SessionID], decimal.Zero).ExpectedBalance,
		}
	}
	return result, nil
}

// UpdateObservations edits the observations of an OPEN session.
func (s *cashSessionService) UpdateObservations(ctx context.Context, sessionID string, observations *string, userID string) (*domain.CashSession, error) {
	updated, err := s.sessionRepo.UpdateObservations(ctx, sessionID, normalizeText(observations), s.Now())
	if err != nil {
		s.LogRejection(ctx, err, "Update session observations failed",
			slog.String("session_id", sessionID), slog.String("user_id", userID))
		return nil, fmt.Errorf("failed to update session %s: %w", sessionID, err)
	}
	s.LogInfo(ctx, "Cash session observations updated", slog.String("session_id", sessionID), slog.String("user_id", userID))
	return updated, nil
}

// CloseSession reconciles the drawer against the ledger and closes it. Storage runs the
// status check, the ledger read and both writes in one unit of work, so a racing append
// either lands before the expected balance is computed or is rejected.
func (s *cashSessionService) CloseSession(ctx context.Context, sessionID string, countedAmount decimal.Decimal, observations *string, closedBy string) (*domain.CashSession, error) {
	logAttrs := []any{slog.String("session_id", sessionID), slog.String("user_id", closedBy)}

	if err := validateDrawerAmount(closedBy, countedAmount, "counted amount"); err != nil {
		s.LogRejection(ctx, err, "Close session rejected", logAttrs...)
		return nil, err
	}

	closure := domain.SessionClosure{
		SessionID:         sessionID,
		ClosedBy:          closedBy,
		CountedAmount:     countedAmount,
		Observations:      normalizeText(observations),
		ClosedAt:          s.Now(),
		ClosingMovementID: uuid.NewString(),
	}
	reconcile := func(session domain.CashSession, totals domain.MovementTotals) domain.Reconciliation {
		return s.reconciler.Reconcile(session, totals, countedAmount)
	}

	closed, err := s.sessionRepo.CloseSession(ctx, closure, reconcile)
	if err != nil {
		s.LogRejection(ctx, err, "Close session failed", logAttrs...)
		return nil, fmt.Errorf("failed to close session %s: %w", sessionID, err)
	}

	s.LogInfo(ctx, "Cash session closed",
		slog.String("session_id", sessionID),
		slog.String("user_id", closedBy),
		slog.String("expected_balance", closed.ExpectedBalance.StringFixed(domain.MoneyScale)),
		slog.String("counted_amount", countedAmount.StringFixed(domain.MoneyScale)),
		slog.String("difference", closed.Difference.StringFixed(domain.MoneyScale)))
	return closed, nil
}

// validateDrawerAmount checks the operator and a non-negative cash amount in money scale.
func validateDrawerAmount(userID string, amount decimal.Decimal, label string) error {
	if strings.TrimSpace(userID) == "" {
		return apperrors.NewValidationFailedError("user id is required")
	}
	if amount.IsNegative() {
		return apperrors.NewValidationFailedError(label + " must be greater than or equal to 0")
	}
	if !domain.HasMoneyScale(amount) {
		return apperrors.NewValidationFailedError(label + " supports at most 2 decimal places")
	}
	return nil
}

// normalizeText trims free text and maps blank input to nil.
func normalizeText(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
