package memory

import (
	"context"
	"sort"

	"github.com/SscSPs/cashdesk/internal/apperrors"
	"github.com/SscSPs/cashdesk/internal/core/domain"
	portsrepo "github.com/SscSPs/cashdesk/internal/core/ports/repositories"
)

// BranchRepository is the in-memory branch directory.
type BranchRepository struct {
	store *Store
}

var _ portsrepo.BranchRepositoryFacade = (*BranchRepository)(nil)

func (r *BranchRepository) SaveBranch(ctx context.Context, branch domain.Branch) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.branches[branch.BranchID]; exists {
		return apperrors.NewConflictError("branch ID " + branch.BranchID + " already exists")
	}
	s.branches[branch.BranchID] = branch
	return nil
}

func (r *BranchRepository) FindBranchByID(ctx context.Context, branchID string) (*domain.Branch, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	branch, ok := s.branches[branchID]
	if !ok {
		return nil, apperrors.NewNotFoundError("branch " + branchID)
	}
	return &branch, nil
}

func (r *BranchRepository) ListBranches(ctx context.Context) ([]domain.Branch, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	branches := make([]domain.Branch, 0, len(s.branches))
	for _, b := range s.branches {
		branches = append(branches, b)
	}
	sort.Slice(branches, func(i, j int) bool { return branches[i].Name < branches[j].Name })
	return branches, nil
}

func (r *BranchRepository) FindBranchesByIDs(ctx context.Context, branchIDs []string) (map[string]domain.Branch, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]domain.Branch, len(branchIDs))
	for _, id := range branchIDs {
		if b, ok := s.branches[id]; ok {
			result[id] = b
		}
	}
	return result, nil
}
