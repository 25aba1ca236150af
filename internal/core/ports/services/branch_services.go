package services

import (
	"context"

	"github.com/SscSPs/cashdesk/internal/core/domain"
)

// BranchReaderSvc defines read operations for the branch directory.
type BranchReaderSvc interface {
	// GetBranch retrieves a specific branch by its ID.
	GetBranch(ctx context.Context, branchID string) (*domain.Branch, error)

	// ListBranches retrieves every registered branch.
	ListBranches(ctx context.Context) ([]domain.Branch, error)
}

// BranchValidatorSvc checks that a branch id belongs to the directory.
type BranchValidatorSvc interface {
	// ValidateBranch returns the branch when it exists and is active.
	ValidateBranch(ctx context.Context, branchID string) (*domain.Branch, error)
}

// BranchWriterSvc defines write operations for the branch directory.
type BranchWriterSvc interface {
	// CreateBranch registers a branch. branchID may be nil to have one generated.
	CreateBranch(ctx context.Context, branchID *string, name, address, creatorUserID string) (*domain.Branch, error)
}

// BranchSvcFacade combines all branch service interfaces.
type BranchSvcFacade interface {
	BranchReaderSvc
	BranchValidatorSvc
	BranchWriterSvc
}
