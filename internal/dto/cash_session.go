package dto

import (
	"time"

	"github.com/SscSPs/cashdesk/internal/core/domain"
	"github.com/shopspring/decimal"
)

// OpenSessionRequest defines the data needed to open a cash drawer.
type OpenSessionRequest struct {
	BranchID      string           `json:"branchID" binding:"required"`
	InitialAmount *decimal.Decimal `json:"initialAmount" binding:"required,gte=0"`
	Observations  *string          `json:"observations" binding:"omitempty,max=500"`
}

// CloseSessionRequest defines the data supplied when closing a drawer.
type CloseSessionRequest struct {
	CountedAmount *decimal.Decimal `json:"countedAmount" binding:"required,gte=0"`
	Observations  *string          `json:"observations" binding:"omitempty,max=500"`
}

// UpdateSessionRequest defines the fields editable while a session is open.
type UpdateSessionRequest struct {
	Observations *string `json:"observations" binding:"omitempty,max=500"`
}

// ListOpenSessionsParams defines query parameters for listing open sessions.
type ListOpenSessionsParams struct {
	BranchID *string `form:"branchId"`
	UserID   *string `form:"userId"`
	Mine     bool    `form:"mine"` // restrict to the caller's own sessions
}

// CashSessionResponse defines the data returned for a cash session.
type CashSessionResponse struct {
	SessionID       string               `json:"sessionID"`
	BranchID        string               `json:"branchID"`
	OpenedBy        string               `json:"openedBy"`
	OpenedAt        time.Time            `json:"openedAt"`
	InitialAmount   decimal.Decimal      `json:"initialAmount"`
	Status          domain.SessionStatus `json:"status"`
	ClosedBy        *string              `json:"closedBy,omitempty"`
	ClosedAt        *time.Time           `json:"closedAt,omitempty"`
	CountedAmount   *decimal.Decimal     `json:"countedAmount,omitempty"`
	ExpectedBalance *decimal.Decimal     `json:"expectedBalance,omitempty"`
	Difference      *decimal.Decimal     `json:"difference,omitempty"`
	Observations    *string              `json:"observations,omitempty"`
	CurrentBalance  *decimal.Decimal     `json:"currentBalance,omitempty"`
}

// ToCashSessionResponse converts a domain.CashSession to its response DTO.
func ToCashSessionResponse(s *domain.CashSession) CashSessionResponse {
	return CashSessionResponse{
		SessionID:       s.SessionID,
		BranchID:        s.BranchID,
		OpenedBy:        s.OpenedBy,
		OpenedAt:        s.OpenedAt,
		InitialAmount:   s.InitialAmount,
		Status:          s.Status,
		ClosedBy:        s.ClosedBy,
		ClosedAt:        s.ClosedAt,
		CountedAmount:   s.CountedAmount,
		ExpectedBalance: s.ExpectedBalance,
		Difference:      s.Difference,
		Observations:    s.Observations,
	}
}

// ToOpenSessionsResponse converts open sessions with their live balance.
func ToOpenSessionsResponse(sessions []domain.SessionWithBalance) []CashSessionResponse {
	res := make([]CashSessionResponse, len(sessions))
	for i := range sessions {
		r := ToCashSessionResponse(&sessions[i].CashSession)
		bal := sessions[i].CurrentBalance
		r.CurrentBalance = &bal
		res[i] = r
	}
	return res
}

// SessionBalanceResponse defines the data returned for a balance query.
type SessionBalanceResponse struct {
	SessionID string               `json:"sessionID"`
	Status    domain.SessionStatus `json:"status"`
	Balance   decimal.Decimal      `json:"balance"`
}
