package dto

import (
	"time"

	"github.com/SscSPs/cashdesk/internal/core/domain"
	"github.com/shopspring/decimal"
)

// RecordMovementRequest defines the data needed to append a movement to a session.
// Only SALE, PAYMENT, MANUAL_ENTRY and MANUAL_EXIT may be recorded by callers.
type RecordMovementRequest struct {
	Type         domain.MovementType  `json:"type" binding:"required,oneof=SALE PAYMENT MANUAL_ENTRY MANUAL_EXIT"`
	Amount       *decimal.Decimal     `json:"amount" binding:"required,gt=0"`
	Method       domain.PaymentMethod `json:"method" binding:"omitempty,oneof=CASH TRANSFER"` // defaults to CASH
	Concept      string               `json:"concept" binding:"max=255"`
	ReferenceID  *string              `json:"referenceID" binding:"omitempty,max=100"`
	Observations *string              `json:"observations" binding:"omitempty,max=500"`
}

// PostBranchMovementRequest is used by the invoicing and receivables modules to post a sale
// or payment on the caller's open drawer at a branch.
type PostBranchMovementRequest struct {
	Type        domain.MovementType  `json:"type" binding:"required,oneof=SALE PAYMENT"`
	Amount      *decimal.Decimal     `json:"amount" binding:"required,gt=0"`
	Method      domain.PaymentMethod `json:"method" binding:"omitempty,oneof=CASH TRANSFER"`
	Reference   string               `json:"reference" binding:"required,max=100"` // invoice number or payment reference
	ReferenceID *string              `json:"referenceID" binding:"omitempty,max=100"`
}

// CashMovementResponse defines the data returned for a movement.
type CashMovementResponse struct {
	MovementID   string               `json:"movementID"`
	SessionID    string               `json:"sessionID"`
	UserID       string               `json:"userID"`
	Type         domain.MovementType  `json:"type"`
	Amount       decimal.Decimal      `json:"amount"`
	Method       domain.PaymentMethod `json:"method"`
	Concept      string               `json:"concept"`
	ReferenceID  *string              `json:"referenceID,omitempty"`
	Observations *string              `json:"observations,omitempty"`
	MovementDate time.Time            `json:"movementDate"`
}

// ToCashMovementResponse converts a domain.CashMovement to its response DTO.
func ToCashMovementResponse(m *domain.CashMovement) CashMovementResponse {
	return CashMovementResponse{
		MovementID:   m.MovementID,
		SessionID:    m.SessionID,
		UserID:       m.UserID,
		Type:         m.Type,
		Amount:       m.Amount,
		Method:       m.Method,
		Concept:      m.Concept,
		ReferenceID:  m.ReferenceID,
		Observations: m.Observations,
		MovementDate: m.MovementDate,
	}
}

// ToListCashMovementResponse converts a slice of movements.
func ToListCashMovementResponse(movements []domain.CashMovement) []CashMovementResponse {
	res := make([]CashMovementResponse, len(movements))
	for i := range movements {
		res[i] = ToCashMovementResponse(&movements[i])
	}
	return res
}

// ListMovementsParams defines query parameters for listing a session's movements.
type ListMovementsParams struct {
	Type      *domain.MovementType `form:"type" binding:"omitempty,oneof=OPENING SALE PAYMENT MANUAL_ENTRY MANUAL_EXIT CLOSING"`
	Limit     int                  `form:"limit,default=50" binding:"min=1,max=500"`
	NextToken *string              `form:"nextToken"`
}

// ListMovementsResponse is one keyset page of movements.
type ListMovementsResponse struct {
	Movements []CashMovementResponse `json:"movements"`
	NextToken *string                `json:"nextToken,omitempty"`
}
