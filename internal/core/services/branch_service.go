package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SscSPs/cashdesk/internal/apperrors"
	"github.com/SscSPs/cashdesk/internal/core/domain"
	portsrepo "github.com/SscSPs/cashdesk/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/cashdesk/internal/core/ports/services"
	"github.com/google/uuid"
)

// branchService handles the branch directory.
type branchService struct {
	BaseService
	branchRepo portsrepo.BranchRepositoryFacade
}

// NewBranchService creates a new branch service.
func NewBranchService(repo portsrepo.BranchRepositoryFacade) portssvc.BranchSvcFacade {
	return &branchService{branchRepo: repo}
}

var _ portssvc.BranchSvcFacade = (*branchService)(nil)

// CreateBranch registers a new active branch.
func (s *branchService) CreateBranch(ctx context.Context, branchID *string, name, address, creatorUserID string) (*domain.Branch, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationFailedError("branch name is required")
	}

	id := uuid.NewString()
	if branchID != nil && strings.TrimSpace(*branchID) != "" {
		id = strings.TrimSpace(*branchID)
	}

	now := s.Now()
	branch := domain.Branch{
		BranchID: id,
		Name:     name,
		Address:  strings.TrimSpace(address),
		IsActive: true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.branchRepo.SaveBranch(ctx, branch); err != nil {
		s.LogRejection(ctx, err, "Failed to save branch", slog.String("branch_id", id))
		return nil, fmt.Errorf("failed to create branch: %w", err)
	}

	s.LogInfo(ctx, "Branch created", slog.String("branch_id", id), slog.String("creator_user_id", creatorUserID))
	return &branch, nil
}

// GetBranch retrieves a branch by ID.
func (s *branchService) GetBranch(ctx context.Context, branchID string) (*domain.Branch, error) {
	branch, err := s.branchRepo.FindBranchByID(ctx, branchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get branch %s: %w", branchID, err)
	}
	return branch, nil
}

// ListBranches retrieves every branch.
func (s *branchService) ListBranches(ctx context.Context) ([]domain.Branch, error) {
	branches, err := s.branchRepo.ListBranches(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to list branches")
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}
	return branches, nil
}

// ValidateBranch checks directory membership. Unknown ids are reported as validation
// failures because the caller supplied them as input, not as a resource path.
func (s *branchService) ValidateBranch(ctx context.Context, branchID string) (*domain.Branch, error) {
	if strings.TrimSpace(branchID) == "" {
		return nil, apperrors.NewValidationFailedError("branch id is required")
	}
	branch, err := s.branchRepo.FindBranchByID(ctx, branchID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.NewValidationFailedError("unknown branch " + branchID)
		}
		return nil, fmt.Errorf("failed to validate branch %s: %w", branchID, err)
	}
	if !branch.IsActive {
		return nil, apperrors.NewValidationFailedError("branch " + branchID + " is inactive")
	}
	return branch, nil
}
