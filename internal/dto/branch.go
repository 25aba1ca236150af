package dto

import (
	"time"

	"github.com/SscSPs/cashdesk/internal/core/domain"
)

// CreateBranchRequest defines the data needed to register a branch.
type CreateBranchRequest struct {
	BranchID *string `json:"branchID" binding:"omitempty,max=64"` // optional caller-chosen id
	Name     string  `json:"name" binding:"required,max=120"`
	Address  string  `json:"address" binding:"max=255"`
}

// BranchResponse defines the data returned for a branch.
type BranchResponse struct {
	BranchID      string    `json:"branchID"`
	Name          string    `json:"name"`
	Address       string    `json:"address"`
	IsActive      bool      `json:"isActive"`
	CreatedAt     time.Time `json:"createdAt"`
	CreatedBy     string    `json:"createdBy"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy string    `json:"lastUpdatedBy"`
}

// ToBranchResponse converts a domain.Branch to BranchResponse DTO
func ToBranchResponse(b *domain.Branch) BranchResponse {
	return BranchResponse{
		BranchID:      b.BranchID,
		Name:          b.Name,
		Address:       b.Address,
		IsActive:      b.IsActive,
		CreatedAt:     b.CreatedAt,
		CreatedBy:     b.CreatedBy,
		LastUpdatedAt: b.LastUpdatedAt,
		LastUpdatedBy: b.LastUpdatedBy,
	}
}

// ToListBranchResponse converts a slice of domain.Branch
func ToListBranchResponse(branches []domain.Branch) []BranchResponse {
	res := make([]BranchResponse, len(branches))
	for i := range branches {
		res[i] = ToBranchResponse(&branches[i])
	}
	return res
}
