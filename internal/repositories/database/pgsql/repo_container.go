package pgsql

import (
	portsrepo "github.com/SscSPs/cashdesk/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool, idempotency portsrepo.IdempotencyStore) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		SessionRepo:     newPgxCashSessionRepository(dbPool),
		MovementRepo:    newPgxCashMovementRepository(dbPool),
		ReportingRepo:   newReportingRepository(dbPool),
		BranchRepo:      newPgxBranchRepository(dbPool),
		IdempotencyRepo: idempotency,
	}
}
