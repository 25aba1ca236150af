package services

import (
	"context"
	"iter"

	"github.com/SscSPs/cashdesk/internal/core/domain"
	"github.com/SscSPs/cashdesk/internal/dto"
	"github.com/shopspring/decimal"
)

// CashSessionReaderSvc defines read operations for cash sessions.
type CashSessionReaderSvc interface {
	// GetSession retrieves a session by ID.
	GetSession(ctx context.Context, sessionID string) (*domain.CashSession, error)

	// GetOpenSessions lists OPEN sessions matching the filter with their live balance.
	// The filter's Status field is ignored.
	GetOpenSessions(ctx context.Context, filter domain.SessionFilter) ([]domain.SessionWithBalance, error)
}

// CashSessionWriterSvc defines the session lifecycle: open, edit observations, close.
type CashSessionWriterSvc interface {
	// OpenSession opens a drawer for userID at branchID with the given float.
	OpenSession(ctx context.Context, userID, branchID string, initialAmount decimal.Decimal, observations *string) (*domain.CashSession, error)

	// UpdateObservations edits the observations of an OPEN session.
	UpdateObservations(ctx context.Context, sessionID string, observations *string, userID string) (*domain.CashSession, error)

	// CloseSession reconciles and closes an OPEN session.
	CloseSession(ctx context.Context, sessionID string, countedAmount decimal.Decimal, observations *string, closedBy string) (*domain.CashSession, error)
}

// CashSessionSvcFacade combines all session service interfaces.
type CashSessionSvcFacade interface {
	CashSessionReaderSvc
	CashSessionWriterSvc
}

// MovementRecorderSvc appends movements to the ledger.
type MovementRecorderSvc interface {
	// RecordMovement appends a caller movement to an OPEN session.
	RecordMovement(ctx context.Context, in domain.MovementInput) (*domain.CashMovement, error)

	// RecordForOpenSession appends a movement to the caller's OPEN session at branchID.
	// in.SessionID is ignored.
	RecordForOpenSession(ctx context.Context, branchID string, in domain.MovementInput) (*domain.CashMovement, error)

	// RecordSale posts an invoice total as a SALE with concept "Venta <invoiceNumber>".
	RecordSale(ctx context.Context, userID, branchID, invoiceNumber string, invoiceID *string, amount decimal.Decimal, method domain.PaymentMethod) (*domain.CashMovement, error)

	// RecordPayment posts a receivable payment as a PAYMENT with concept "Pago <reference>".
	RecordPayment(ctx context.Context, userID, branchID, reference string, paymentID *string, amount decimal.Decimal, method domain.PaymentMethod) (*domain.CashMovement, error)
}

// LedgerReaderSvc reads the movement ledger.
type LedgerReaderSvc interface {
	// ComputeBalance derives the session balance from every committed movement.
	ComputeBalance(ctx context.Context, sessionID string) (decimal.Decimal, error)

	// Movements yields a session's movements ordered by (movementDate, seq), fetching
	// them lazily in pages. Ranging over it again restarts from the beginning.
	Movements(ctx context.Context, sessionID string, filter domain.MovementFilter) iter.Seq2[domain.CashMovement, error]

	// ListMovements returns one keyset page of a session's movements.
	ListMovements(ctx context.Context, sessionID string, params dto.ListMovementsParams) (*dto.ListMovementsResponse, error)
}

// LedgerSvcFacade combines all ledger service interfaces.
type LedgerSvcFacade interface {
	MovementRecorderSvc
	LedgerReaderSvc
}

// ReconcilerSvc compares a counted drawer against the ledger.
type ReconcilerSvc interface {
	// Reconcile is pure: expected balance from totals, difference = counted - expected.
	Reconcile(session domain.CashSession, totals domain.MovementTotals, countedAmount decimal.Decimal) domain.Reconciliation
}

// CashReportingSvc provides read-only projections. It never mutates state.
type CashReportingSvc interface {
	// DailySummary aggregates movements dated on the given day (YYYY-MM-DD, operating timezone).
	DailySummary(ctx context.Context, date string, branchID *string) (*domain.DailySummary, error)

	// History pages through sessions, most recently opened first.
	History(ctx context.Context, params dto.HistoryParams) (*domain.HistoryPage, error)

	// CashReport lists sessions overlapping a date range with summary totals.
	CashReport(ctx context.Context, params dto.CashReportParams) (*domain.CashReport, error)
}
