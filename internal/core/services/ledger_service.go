package services

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/cashdesk/internal/apperrors"
	"github.com/SscSPs/cashdesk/internal/core/domain"
	portsrepo "github.com/SscSPs/cashdesk/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/cashdesk/internal/core/ports/services"
	"github.com/SscSPs/cashdesk/internal/dto"
	"github.com/SscSPs/cashdesk/internal/utils/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	defaultLedgerPageSize = 200
	defaultIdempotencyTTL = 24 * time.Hour
	idempotencyKeyPrefix  = "cashdesk:idem:"
	maxIdempotencyKeyLen  = 128
)

// ledgerService appends to and reads the movement ledger.
type ledgerService struct {
	BaseService
	sessionRepo    portsrepo.CashSessionReader
	movementRepo   portsrepo.CashMovementRepositoryFacade
	idempotency    portsrepo.IdempotencyStore
	idempotencyTTL time.Duration
	pageSize       int
}

// LedgerServiceOption is a functional option for configuring the ledger service
type LedgerServiceOption func(*ledgerService)

// WithLedgerClock overrides the time source used for movement dates.
func WithLedgerClock(clock func() time.Time) LedgerServiceOption {
	return func(s *ledgerService) {
		s.Clock = clock
	}
}

// WithIdempotencyStore enables Idempotency-Key handling for movement posting.
func WithIdempotencyStore(store portsrepo.IdempotencyStore, ttl time.Duration) LedgerServiceOption {
	return func(s *ledgerService) {
		s.idempotency = store
		if ttl > 0 {
			s.idempotencyTTL = ttl
		}
	}
}

// WithLedgerPageSize sets how many movements the lazy iterator fetches per round trip.
func WithLedgerPageSize(size int) LedgerServiceOption {
	return func(s *ledgerService) {
		if size > 0 {
			s.pageSize = size
		}
	}
}

// NewLedgerService creates the movement ledger service.
func NewLedgerService(sessionRepo portsrepo.CashSessionReader, movementRepo portsrepo.CashMovementRepositoryFacade, options ...LedgerServiceOption) portssvc.LedgerSvcFacade {
	svc := &ledgerService{
		sessionRepo:    sessionRepo,
		movementRepo:   movementRepo,
		idempotencyTTL: defaultIdempotencyTTL,
		pageSize:       defaultLedgerPageSize,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// RecordMovement validates and appends a caller movement. Storage re-checks that the
// session is OPEN inside the inserting unit of work.
func (s *ledgerService) RecordMovement(ctx context.Context, in domain.MovementInput) (*domain.CashMovement, error) {
	logAttrs := []any{
		slog.String("session_id", in.SessionID),
		slog.String("user_id", in.UserID),
		slog.String("movement_type", string(in.Type)),
	}

	movement, err := s.buildMovement(in)
	if err != nil {
		s.LogRejection(ctx, err, "Record movement rejected", logAttrs...)
		return nil, err
	}

	if in.IdempotencyKey == "" || s.idempotency == nil {
		return s.append(ctx, movement, logAttrs)
	}

	key, err := idempotencyKey(in.UserID, in.IdempotencyKey)
	if err != nil {
		s.LogRejection(ctx, err, "Record movement rejected", logAttrs...)
		return nil, err
	}
	existing, reserved, err := s.idempotency.Reserve(ctx, key, s.idempotencyTTL)
	if err != nil {
		s.LogError(ctx, err, "Failed to reserve idempotency key", logAttrs...)
		return nil, fmt.Errorf("failed to reserve idempotency key: %w", err)
	}
	if !reserved {
		return s.replay(ctx, existing, movement, logAttrs)
	}

	stored, err := s.append(ctx, movement, logAttrs)
	if err != nil {
		if rerr := s.idempotency.Release(ctx, key); rerr != nil {
			s.LogError(ctx, rerr, "Failed to release idempotency key", logAttrs...)
		}
		return nil, err
	}
	if err := s.idempotency.Complete(ctx, key, stored.MovementID, s.idempotencyTTL); err != nil {
		// The movement is committed; a later replay with this key may be recorded twice.
		s.LogError(ctx, err, "Failed to complete idempotency key", append(logAttrs, slog.String("movement_id", stored.MovementID))...)
	}
	return stored, nil
}

func (s *ledgerService) append(ctx context.Context, movement domain.CashMovement, logAttrs []any) (*domain.CashMovement, error) {
	stored, err := s.movementRepo.AppendMovement(ctx, movement)
	if err != nil {
		s.LogRejection(ctx, err, "Record movement failed", logAttrs...)
		return nil, fmt.Errorf("failed to record movement: %w", err)
	}
	s.LogInfo(ctx, "Cash movement recorded",
		append(logAttrs,
			slog.String("movement_id", stored.MovementID),
			slog.String("amount", stored.Amount.StringFixed(domain.MoneyScale)))...)
	return stored, nil
}

// replay resolves a request whose idempotency key was already used.
func (s *ledgerService) replay(ctx context.Context, existing string, requested domain.CashMovement, logAttrs []any) (*domain.CashMovement, error) {
	if existing == portsrepo.IdempotencyPending || existing == "" {
		err := apperrors.NewConflictError("a request with this idempotency key is still in progress")
		s.LogRejection(ctx, err, "Duplicate in-flight movement request", logAttrs...)
		return nil, err
	}

	original, err := s.movementRepo.FindMovementByID(ctx, existing)
	if err != nil {
		s.LogError(ctx, err, "Failed to load movement for idempotent replay", append(logAttrs, slog.String("movement_id", existing))...)
		return nil, fmt.Errorf("failed to load original movement: %w", err)
	}
	if original.SessionID != requested.SessionID || original.Type != requested.Type || !original.Amount.Equal(requested.Amount) {
		err := apperrors.NewConflictError("idempotency key was already used for a different movement")
		s.LogRejection(ctx, err, "Idempotency key reused with a different payload", logAttrs...)
		return nil, err
	}

	s.LogInfo(ctx, "Idempotent replay of cash movement", append(logAttrs, slog.String("movement_id", original.MovementID))...)
	return original, nil
}

// buildMovement applies the caller-facing validation rules.
func (s *ledgerService) buildMovement(in domain.MovementInput) (domain.CashMovement, error) {
	if strings.TrimSpace(in.SessionID) == "" {
		return domain.CashMovement{}, apperrors.NewValidationFailedError("session id is required")
	}
	if strings.TrimSpace(in.UserID) == "" {
		return domain.CashMovement{}, apperrors.NewValidationFailedError("user id is required")
	}
	if !in.Type.IsValid() {
		return domain.CashMovement{}, apperrors.NewValidationFailedError("unknown movement type " + string(in.Type))
	}
	if in.Type.IsReserved() {
		return domain.CashMovement{}, apperrors.NewValidationFailedError("movement type " + string(in.Type) + " is recorded by the session lifecycle only")
	}
	if !in.Amount.IsPositive() {
		return domain.CashMovement{}, apperrors.NewValidationFailedError("amount must be greater than 0")
	}
	if !domain.HasMoneyScale(in.Amount) {
		return domain.CashMovement{}, apperrors.NewValidationFailedError("amount supports at most 2 decimal places")
	}

	method := in.Method
	if method == "" {
		method = domain.MethodCash
	}
	if !method.IsValid() {
		return domain.CashMovement{}, apperrors.NewValidationFailedError("unknown payment method " + string(method))
	}

	concept := strings.TrimSpace(in.Concept)
	if in.Type.RequiresConcept() && concept == "" {
		return domain.CashMovement{}, apperrors.NewValidationFailedError("concept is required for " + string(in.Type))
	}

	return domain.CashMovement{
		MovementID:   uuid.NewString(),
		SessionID:    in.SessionID,
		UserID:       in.UserID,
		Type:         in.Type,
		Amount:       in.Amount,
		Method:       method,
		Concept:      concept,
		ReferenceID:  normalizeText(in.ReferenceID),
		Observations: normalizeText(in.Observations),
		MovementDate: s.Now(),
	}, nil
}

// RecordForOpenSession posts on the caller's OPEN session at branchID.
func (s *ledgerService) RecordForOpenSession(ctx context.Context, branchID string, in domain.MovementInput) (*domain.CashMovement, error) {
	open := domain.SessionOpen
	userID := in.UserID
	sessions, _, err := s.sessionRepo.ListSessions(ctx, domain.SessionFilter{
		UserID:   &userID,
		BranchID: &branchID,
		Status:   &open,
	}, 1, 0)
	if err != nil {
		s.LogError(ctx, err, "Failed to resolve open session", slog.String("user_id", userID), slog.String("branch_id", branchID))
		return nil, fmt.Errorf("failed to resolve open session: %w", err)
	}
	if len(sessions) == 0 {
		err := &apperrors.SessionStateError{
			Op:     "record movement",
			Kind:   apperrors.ErrInvalidState,
			Reason: "no open cash register for this user at branch " + branchID,
		}
		s.LogRejection(ctx, err, "Record movement rejected", slog.String("user_id", userID), slog.String("branch_id", branchID))
		return nil, err
	}

	in.SessionID = sessions[0].SessionID
	return s.RecordMovement(ctx, in)
}

// RecordSale posts an invoice total on the seller's open drawer.
func (s *ledgerService) RecordSale(ctx context.Context, userID, branchID, invoiceNumber string, invoiceID *string, amount decimal.Decimal, method domain.PaymentMethod) (*domain.CashMovement, error) {
	invoiceNumber = strings.TrimSpace(invoiceNumber)
	if invoiceNumber == "" {
		err := apperrors.NewValidationFailedError("invoice number is required")
		s.LogRejection(ctx, err, "Record sale rejected", slog.String("user_id", userID), slog.String("branch_id", branchID))
		return nil, err
	}
	return s.RecordForOpenSession(ctx, branchID, domain.MovementInput{
		UserID:      userID,
		Type:        domain.MovementSale,
		Amount:      amount,
		Method:      method,
		Concept:     domain.SaleConcept(invoiceNumber),
		ReferenceID: invoiceID,
	})
}

// RecordPayment posts a receivable payment on the collector's open drawer.
func (s *ledgerService) RecordPayment(ctx context.Context, userID, branchID, reference string, paymentID *string, amount decimal.Decimal, method domain.PaymentMethod) (*domain.CashMovement, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		err := apperrors.NewValidationFailedError("payment reference is required")
		s.LogRejection(ctx, err, "Record payment rejected", slog.String("user_id", userID), slog.String("branch_id", branchID))
		return nil, err
	}
	return s.RecordForOpenSession(ctx, branchID, domain.MovementInput{
		UserID:      userID,
		Type:        domain.MovementPayment,
		Amount:      amount,
		Method:      method,
		Concept:     domain.PaymentConcept(reference),
		ReferenceID: paymentID,
	})
}

// ComputeBalance derives OPENING + income - expenses from the committed ledger.
func (s *ledgerService) ComputeBalance(ctx context.Context, sessionID string) (decimal.Decimal, error) {
	if _, err := s.sessionRepo.FindSessionByID(ctx, sessionID); err != nil {
		s.LogRejection(ctx, err, "Compute balance failed", slog.String("session_id", sessionID))
		return decimal.Zero, fmt.Errorf("failed to compute balance for session %s: %w", sessionID, err)
	}
	totals, err := s.movementRepo.SumMovementsBySession(ctx, []string{sessionID})
	if err != nil {
		s.LogError(ctx, err, "Failed to sum session movements", slog.String("session_id", sessionID))
		return decimal.Zero, fmt.Errorf("failed to compute balance for session %s: %w", sessionID, err)
	}
	return totals[sessionID].Balance(), nil
}

// Movements yields the session's movements page by page.
func (s *ledgerService) Movements(ctx context.Context, sessionID string, filter domain.MovementFilter) iter.Seq2[domain.CashMovement, error] {
	return func(yield func(domain.CashMovement, error) bool) {
		if _, err := s.sessionRepo.FindSessionByID(ctx, sessionID); err != nil {
			yield(domain.CashMovement{}, fmt.Errorf("failed to list movements for session %s: %w", sessionID, err))
			return
		}

		var after *domain.MovementCursor
		for {
			page, err := s.movementRepo.ListMovements(ctx, sessionID, filter, after, s.pageSize)
			if err != nil {
				yield(domain.CashMovement{}, fmt.Errorf("failed to list movements for session %s: %w", sessionID, err))
				return
			}
			for _, m := range page {
				if !yield(m, nil) {
					return
				}
			}
			if len(page) < s.pageSize {
				return
			}
			cursor := page[len(page)-1].Cursor()
			after = &cursor
		}
	}
}

// ListMovements returns one keyset page for the HTTP listing.
func (s *ledgerService) ListMovements(ctx context.Context, sessionID string, params dto.ListMovementsParams) (*dto.ListMovementsResponse, error) {
	if params.Limit <= 0 {
		params.Limit = 50
	}

	var after *domain.MovementCursor
	if params.NextToken != nil && *params.NextToken != "" {
		movementDate, seq, err := pagination.DecodeMovementToken(*params.NextToken)
		if err != nil {
			verr := apperrors.NewValidationFailedError(err.Error())
			s.LogRejection(ctx, verr, "List movements rejected", slog.String("session_id", sessionID))
			return nil, verr
		}
		after = &domain.MovementCursor{MovementDate: movementDate, Seq: seq}
	}

	if _, err := s.sessionRepo.FindSessionByID(ctx, sessionID); err != nil {
		s.LogRejection(ctx, err, "List movements failed", slog.String("session_id", sessionID))
		return nil, fmt.Errorf("failed to list movements for session %s: %w", sessionID, err)
	}

	page, err := s.movementRepo.ListMovements(ctx, sessionID, domain.MovementFilter{Type: params.Type}, after, params.Limit+1)
	if err != nil {
		s.LogError(ctx, err, "Failed to list movements", slog.String("session_id", sessionID))
		return nil, fmt.Errorf("failed to list movements for session %s: %w", sessionID, err)
	}

	resp := &dto.ListMovementsResponse{}
	if len(page) > params.Limit {
		page = page[:params.Limit]
		last := page[len(page)-1]
		token := pagination.EncodeMovementToken(last.MovementDate, last.Seq)
		resp.NextToken = &token
	}
	resp.Movements = dto.ToListCashMovementResponse(page)
	return resp, nil
}

func idempotencyKey(userID, clientKey string) (string, error) {
	clientKey = strings.TrimSpace(clientKey)
	if len(clientKey) > maxIdempotencyKeyLen {
		return "", apperrors.NewValidationFailedError("idempotency key is too long")
	}
	return idempotencyKeyPrefix + userID + ":" + clientKey, nil
}
