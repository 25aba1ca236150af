package services

import (
	portsrepo "github.com/SscSPs/cashdesk/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/cashdesk/internal/core/ports/services"
	"github.com/SscSPs/cashdesk/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	// Branch directory first since the session manager validates against it
	container.Branch = NewBranchService(repos.BranchRepo)
	container.Reconciler = NewReconciler()

	container.Session = NewCashSessionService(
		repos.SessionRepo,
		repos.MovementRepo,
		container.Branch,
		WithReconciler(container.Reconciler),
	)

	ledgerOpts := []LedgerServiceOption{}
	if repos.IdempotencyRepo != nil {
		ledgerOpts = append(ledgerOpts, WithIdempotencyStore(repos.IdempotencyRepo, cfg.IdempotencyTTL))
	}
	container.Ledger = NewLedgerService(repos.SessionRepo, repos.MovementRepo, ledgerOpts...)

	container.Reporting = NewReportingService(
		repos.ReportingRepo,
		repos.SessionRepo,
		repos.MovementRepo,
		repos.BranchRepo,
		WithOperatingLocation(cfg.OperatingLocation),
		WithHistoryMaxLimit(cfg.HistoryMaxLimit),
	)

	return container
}
