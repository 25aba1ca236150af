package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType classifies a cash movement. The direction of a movement is derived
// from its type, never from the sign of its amount.
type MovementType string

const (
	MovementOpening     MovementType = "OPENING"
	MovementSale        MovementType = "SALE"
	MovementPayment     MovementType = "PAYMENT"
	MovementManualEntry MovementType = "MANUAL_ENTRY"
	MovementManualExit  MovementType = "MANUAL_EXIT"
	MovementClosing     MovementType = "CLOSING"
)

// AllMovementTypes lists every movement type in display order.
var AllMovementTypes = []MovementType{
	MovementOpening,
	MovementSale,
	MovementPayment,
	MovementManualEntry,
	MovementManualExit,
	MovementClosing,
}

// IsValid reports whether t is a known movement type.
func (t MovementType) IsValid() bool {
	switch t {
	case MovementOpening, MovementSale, MovementPayment, MovementManualEntry, MovementManualExit, MovementClosing:
		return true
	}
	return false
}

// IsReserved reports whether the type is only ever written by the session lifecycle.
func (t MovementType) IsReserved() bool {
	return t == MovementOpening || t == MovementClosing
}

// RequiresConcept reports whether a non-empty concept is mandatory for the type.
func (t MovementType) RequiresConcept() bool {
	return t == MovementManualEntry || t == MovementManualExit
}

// IsIncome reports whether the type adds cash to the drawer during the session.
// OPENING is the starting float, not income.
func (t MovementType) IsIncome() bool {
	return t == MovementSale || t == MovementPayment || t == MovementManualEntry
}

// IsExpense reports whether the type removes cash from the drawer.
func (t MovementType) IsExpense() bool {
	return t == MovementManualExit
}

// Sign returns the multiplier applied to a movement's amount when computing a
// running balance: +1 for OPENING and income, -1 for exits, 0 for CLOSING.
func (t MovementType) Sign() int64 {
	switch {
	case t == MovementOpening, t.IsIncome():
		return 1
	case t.IsExpense():
		return -1
	}
	return 0
}

// PaymentMethod is how the money moved.
type PaymentMethod string

const (
	MethodCash     PaymentMethod = "CASH"
	MethodTransfer PaymentMethod = "TRANSFER"
)

// IsValid reports whether m is a supported payment method.
func (m PaymentMethod) IsValid() bool {
	return m == MethodCash || m == MethodTransfer
}

// CashMovement is one append-only monetary event in a session's ledger.
type CashMovement struct {
	MovementID   string          `json:"movementID" db:"movement_id"`
	SessionID    string          `json:"sessionID" db:"session_id"`
	UserID       string          `json:"userID" db:"user_id"`
	Type         MovementType    `json:"type" db:"movement_type"`
	Amount       decimal.Decimal `json:"amount" db:"amount"` // always >= 0; direction comes from Type
	Method       PaymentMethod   `json:"method" db:"payment_method"`
	Concept      string          `json:"concept" db:"concept"`
	ReferenceID  *string         `json:"referenceID,omitempty" db:"reference_id"` // invoice or payment id from the posting module
	Observations *string         `json:"observations,omitempty" db:"observations"`
	MovementDate time.Time       `json:"movementDate" db:"movement_date"`
	Seq          int64           `json:"seq" db:"seq"` // insertion sequence, tie-break for equal movement dates
}

// SignedAmount returns the amount with the sign implied by the movement type.
func (m CashMovement) SignedAmount() decimal.Decimal {
	return m.Amount.Mul(decimal.NewFromInt(m.Type.Sign()))
}

// MovementInput is what a caller supplies to record a movement.
type MovementInput struct {
	SessionID      string
	UserID         string
	Type           MovementType
	Amount         decimal.Decimal
	Method         PaymentMethod
	Concept        string
	ReferenceID    *string
	Observations   *string
	IdempotencyKey string // optional; replays return the movement first produced for the key
}

// MovementFilter narrows a movement listing.
type MovementFilter struct {
	Type *MovementType
}

// MovementCursor is the keyset position after which a listing continues.
type MovementCursor struct {
	MovementDate time.Time
	Seq          int64
}

// Cursor returns the keyset position of m.
func (m CashMovement) Cursor() MovementCursor {
	return MovementCursor{MovementDate: m.MovementDate, Seq: m.Seq}
}

// MoneyScale is the number of decimal places stored for amounts.
const MoneyScale = 2

// HasMoneyScale reports whether amount can be stored without rounding.
func HasMoneyScale(amount decimal.Decimal) bool {
	return amount.Equal(amount.Round(MoneyScale))
}

// SaleConcept is the concept written for a SALE posted from an invoice.
func SaleConcept(invoiceNumber string) string { return "Venta " + invoiceNumber }

// PaymentConcept is the concept written for a PAYMENT posted from a receivable.
func PaymentConcept(reference string) string { return "Pago " + reference }
