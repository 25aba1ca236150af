package pgsql

import (
	"context"

	"github.com/SscSPs/cashdesk/internal/apperrors"
	"github.com/SscSPs/cashdesk/internal/core/domain"
	portsrepo "github.com/SscSPs/cashdesk/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxBranchRepository struct {
	BaseRepository
}

func newPgxBranchRepository(pool *pgxpool.Pool) portsrepo.BranchRepositoryFacade {
	return &PgxBranchRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.BranchRepositoryFacade = (*PgxBranchRepository)(nil)

const branchSelectQuery = `
SELECT
	b.branch_id, b.name, b.address, b.is_active,
	b.created_at, b.created_by, b.last_updated_at, b.last_updated_by
FROM branches b
`

func (r *PgxBranchRepository) getBranches(ctx context.Context, filterQuery string, args ...any) ([]domain.Branch, error) {
	rows, err := r.Pool.Query(ctx, branchSelectQuery+filterQuery, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query branches", err)
	}
	branches, err := pgx.CollectRows(rows, pgx.RowToStructByName[domain.Branch])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to collect branch rows", err)
	}
	return branches, nil
}

func (r *PgxBranchRepository) SaveBranch(ctx context.Context, branch domain.Branch) error {
	query := `
		INSERT INTO branches (
			branch_id, name, address, is_active,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	_, err := r.Pool.Exec(ctx, query,
		branch.BranchID,
		branch.Name,
		branch.Address,
		branch.IsActive,
		branch.CreatedAt,
		branch.CreatedBy,
		branch.LastUpdatedAt,
		branch.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err, "") {
			return apperrors.NewConflictError("branch ID " + branch.BranchID + " already exists")
		}
		return apperrors.NewAppError(500, "failed to save branch "+branch.BranchID, err)
	}
	return nil
}

func (r *PgxBranchRepository) FindBranchByID(ctx context.Context, branchID string) (*domain.Branch, error) {
	branches, err := r.getBranches(ctx, `WHERE b.branch_id = $1`, branchID)
	if err != nil {
		return nil, err
	}
	if len(branches) == 0 {
		return nil, apperrors.NewNotFoundError("branch " + branchID)
	}
	return &branches[0], nil
}

func (r *PgxBranchRepository) ListBranches(ctx context.Context) ([]domain.Branch, error) {
	return r.getBranches(ctx, `ORDER BY b.name, b.branch_id`)
}

func (r *PgxBranchRepository) FindBranchesByIDs(ctx context.Context, branchIDs []string) (map[string]domain.Branch, error) {
	result := make(map[string]domain.Branch, len(branchIDs))
	if len(branchIDs) == 0 {
		return result, nil
	}
	branches, err := r.getBranches(ctx, `WHERE b.branch_id = ANY($1)`, branchIDs)
	if err != nil {
		return nil, err
	}
	for _, b := range branches {
		result[b.BranchID] = b
	}
	return result, nil
}
