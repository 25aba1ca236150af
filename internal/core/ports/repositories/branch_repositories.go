package repositories

import (
	"context"

	"github.com/SscSPs/cashdesk/internal/core/domain"
)

// BranchReader defines read operations for the branch directory.
type BranchReader interface {
	// FindBranchByID retrieves a specific branch by its ID.
	FindBranchByID(ctx context.Context, branchID string) (*domain.Branch, error)

	// ListBranches retrieves every branch ordered by name.
	ListBranches(ctx context.Context) ([]domain.Branch, error)

	// FindBranchesByIDs retrieves the branches with the given IDs, keyed by ID.
	FindBranchesByIDs(ctx context.Context, branchIDs []string) (map[string]domain.Branch, error)
}

// BranchWriter defines write operations for the branch directory.
type BranchWriter interface {
	// SaveBranch persists a new branch.
	SaveBranch(ctx context.Context, branch domain.Branch) error
}

// BranchRepositoryFacade combines all branch repository interfaces.
type BranchRepositoryFacade interface {
	BranchReader
	BranchWriter
}
