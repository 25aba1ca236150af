package domain

import (
	"time"

	"github.com/SscSPs/cashdesk/internal/apperrors"
	"github.com/shopspring/decimal"
)

// SessionStatus is the lifecycle state of a cash session. OPEN -> CLOSED, CLOSED is terminal.
type SessionStatus string

const (
	SessionOpen   SessionStatus = "OPEN"
	SessionClosed SessionStatus = "CLOSED"
)

// IsValid reports whether s is a known status.
func (s SessionStatus) IsValid() bool {
	return s == SessionOpen || s == SessionClosed
}

// Opening and closing concepts written on the synthetic lifecycle movements.
const (
	OpeningConcept = "Apertura de caja"
	ClosingConcept = "Cierre de caja"
)

// CashSession is one operator's custody of a physical drawer at a branch.
type CashSession struct {
	SessionID       string           `json:"sessionID" db:"session_id"`
	BranchID        string           `json:"branchID" db:"branch_id"`
	OpenedBy        string           `json:"openedBy" db:"opened_by"` // UserID Reference
	OpenedAt        time.Time        `json:"openedAt" db:"opened_at"`
	InitialAmount   decimal.Decimal  `json:"initialAmount" db:"initial_amount"`
	Status          SessionStatus    `json:"status" db:"status"`
	ClosedBy        *string          `json:"closedBy,omitempty" db:"closed_by"`
	ClosedAt        *time.Time       `json:"closedAt,omitempty" db:"closed_at"`
	CountedAmount   *decimal.Decimal `json:"countedAmount,omitempty" db:"counted_amount"`
	ExpectedBalance *decimal.Decimal `json:"expectedBalance,omitempty" db:"expected_balance"` // frozen at close
	Difference      *decimal.Decimal `json:"difference,omitempty" db:"difference"`            // counted - expected
	Observations    *string          `json:"observations,omitempty" db:"observations"`
	LastUpdatedAt   time.Time        `json:"lastUpdatedAt" db:"last_updated_at"`
}

// IsOpen reports whether movements may still be appended.
func (s CashSession) IsOpen() bool {
	return s.Status == SessionOpen
}

// OpeningMovement builds the synthetic OPENING movement carrying the initial float.
func (s CashSession) OpeningMovement(movementID string) CashMovement {
	return CashMovement{
		MovementID:   movementID,
		SessionID:    s.SessionID,
		UserID:       s.OpenedBy,
		Type:         MovementOpening,
		Amount:       s.InitialAmount,
		Method:       MethodCash,
		Concept:      OpeningConcept,
		Observations: s.Observations,
		MovementDate: s.OpenedAt,
	}
}

// SessionClosure carries what the operator supplies when closing a drawer.
type SessionClosure struct {
	SessionID         string
	ClosedBy          string
	CountedAmount     decimal.Decimal
	Observations      *string
	ClosedAt          time.Time
	ClosingMovementID string
}

// NotBefore moves the close instant up to t when the ledger already holds a later
// movement, so the CLOSING entry sorts after every movement it reconciled.
func (c SessionClosure) NotBefore(t time.Time) SessionClosure {
	if t.After(c.ClosedAt) {
		c.ClosedAt = t
	}
	return c
}

// Reconciliation is the outcome of comparing the counted drawer against the ledger.
type Reconciliation struct {
	ExpectedBalance decimal.Decimal `json:"expectedBalance"`
	CountedAmount   decimal.Decimal `json:"countedAmount"`
	Difference      decimal.Decimal `json:"difference"` // positive = overage, negative = shortage
}

// Close applies the OPEN -> CLOSED transition and returns the closed session together
// with the synthetic CLOSING movement. The receiver is left untouched.
func (s CashSession) Close(c SessionClosure, r Reconciliation) (CashSession, CashMovement, error) {
	if !s.IsOpen() {
		return CashSession{}, CashMovement{}, apperrors.NewInvalidState("close session", s.SessionID, string(s.Status))
	}

	closed := s
	closed.Status = SessionClosed
	closed.ClosedBy = &c.ClosedBy
	closedAt := c.ClosedAt
	closed.ClosedAt = &closedAt
	counted := r.CountedAmount
	closed.CountedAmount = &counted
	expected := r.ExpectedBalance
	closed.ExpectedBalance = &expected
	diff := r.Difference
	closed.Difference = &diff
	if c.Observations != nil {
		closed.Observations = c.Observations
	}
	closed.LastUpdatedAt = c.ClosedAt

	closing := CashMovement{
		MovementID:   c.ClosingMovementID,
		SessionID:    s.SessionID,
		UserID:       c.ClosedBy,
		Type:         MovementClosing,
		Amount:       r.CountedAmount,
		Method:       MethodCash,
		Concept:      ClosingConcept,
		Observations: c.Observations,
		MovementDate: c.ClosedAt,
	}
	return closed, closing, nil
}

// SessionWithBalance is an open session enriched with its live ledger balance.
type SessionWithBalance struct {
	CashSession
	CurrentBalance decimal.Decimal `json:"currentBalance"`
}

// SessionFilter narrows session listings. Nil fields are not applied.
// OpenedFrom is inclusive, OpenedTo exclusive.
type SessionFilter struct {
	UserID     *string
	BranchID   *string
	Status     *SessionStatus
	OpenedFrom *time.Time
	OpenedTo   *time.Time
}
