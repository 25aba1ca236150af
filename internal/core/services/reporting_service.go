package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/cashdesk/internal/apperrors"
	"github.com/SscSPs/cashdesk/internal/core/domain"
	portsrepo "github.com/SscSPs/cashdesk/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/cashdesk/internal/core/ports/services"
	"github.com/SscSPs/cashdesk/internal/dto"
	"github.com/SscSPs/cashdesk/internal/utils/pagination"
)

const (
	dateLayout             = "2006-01-02"
	defaultHistoryLimit    = 20
	defaultHistoryMaxLimit = 100
)

// reportingService implements the read-only cash projections.
type reportingService struct {
	BaseService
	reportingRepo portsrepo.CashReportingRepository
	sessionRepo   portsrepo.CashSessionReader
	movementRepo  portsrepo.CashMovementReader
	branchRepo    portsrepo.BranchReader
	location      *time.Location
	maxLimit      int
}

// ReportingServiceOption is a functional option for configuring the reporting service
type ReportingServiceOption func(*reportingService)

// WithOperatingLocation sets the timezone that defines a calendar day.
func WithOperatingLocation(loc *time.Location) ReportingServiceOption {
	return func(s *reportingService) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithHistoryMaxLimit caps the page size accepted by History.
func WithHistoryMaxLimit(limit int) ReportingServiceOption {
	return func(s *reportingService) {
		if limit > 0 {
			s.maxLimit = limit
		}
	}
}

// WithReportingClock overrides the time source used to resolve "today".
func WithReportingClock(clock func() time.Time) ReportingServiceOption {
	return func(s *reportingService) {
		s.Clock = clock
	}
}

// NewReportingService creates a new reporting service with the provided options
func NewReportingService(
	reportingRepo portsrepo.CashReportingRepository,
	sessionRepo portsrepo.CashSessionReader,
	movementRepo portsrepo.CashMovementReader,
	branchRepo portsrepo.BranchReader,
	options ...ReportingServiceOption,
) portssvc.CashReportingSvc {
	svc := &reportingService{
		reportingRepo: reportingRepo,
		sessionRepo:   sessionRepo,
		movementRepo:  movementRepo,
		branchRepo:    branchRepo,
		location:      time.UTC,
		maxLimit:      defaultHistoryMaxLimit,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.CashReportingSvc = (*reportingService)(nil)

// DailySummary aggregates the movements dated on one operating day.
func (s *reportingService) DailySummary(ctx context.Context, date string, branchID *string) (*domain.DailySummary, error) {
	if date == "" {
		date = s.Now().In(s.location).Format(dateLayout)
	}
	from, err := s.parseDay(date)
	if err != nil {
		return nil, err
	}
	to := from.AddDate(0, 0, 1)

	totals, err := s.reportingRepo.GetDailyTotals(ctx, branchID, from.UTC(), to.UTC())
	if err != nil {
		s.LogError(ctx, err, "Failed to retrieve daily totals", slog.String("date", date))
		return nil, fmt.Errorf("failed to retrieve daily totals: %w", err)
	}

	summary := domain.NewDailySummary(date, branchID, totals)
	s.LogDebug(ctx, "Daily summary generated", slog.String("date", date))
	return &summary, nil
}

// History pages through sessions opened in the requested range, most recent first.
func (s *reportingService) History(ctx context.Context, params dto.HistoryParams) (*domain.HistoryPage, error) {
	page := params.Page
	if page < 1 {
		page = 1
	}
	limit := params.Limit
	if limit < 1 {
		limit = defaultHistoryLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}

	filter := domain.SessionFilter{BranchID: params.BranchID}
	if params.Status != nil && *params.Status != "" {
		status := domain.SessionStatus(*params.Status)
		if !status.IsValid() {
			return nil, apperrors.NewValidationFailedError("unknown session status " + *params.Status)
		}
		filter.Status = &status
	}
	if params.StartDate != nil && *params.StartDate != "" {
		from, err := s.parseDay(*params.StartDate)
		if err != nil {
			return nil, err
		}
		fromUTC := from.UTC()
		filter.OpenedFrom = &fromUTC
	}
	if params.EndDate != nil && *params.EndDate != "" {
		end, err := s.parseDay(*params.EndDate)
		if err != nil {
			return nil, err
		}
		toUTC := end.AddDate(0, 0, 1).UTC()
		filter.OpenedTo = &toUTC
	}
	if filter.OpenedFrom != nil && filter.OpenedTo != nil && !filter.OpenedFrom.Before(*filter.OpenedTo) {
		return nil, apperrors.NewValidationFailedError("startDate must not be after endDate")
	}

	sessions, total, err := s.sessionRepo.ListSessions(ctx, filter, limit, (page-1)*limit)
	if err != nil {
		s.LogError(ctx, err, "Failed to list session history")
		return nil, fmt.Errorf("failed to list session history: %w", err)
	}

	records, err := s.buildRecords(ctx, sessions)
	if err != nil {
		return nil, err
	}

	return &domain.HistoryPage{
		Records:    records,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: pagination.TotalPages(total, limit),
	}, nil
}

// CashReport lists every session overlapping [startDate, endDate] with summary totals.
func (s *reportingService) CashReport(ctx context.Context, params dto.CashReportParams) (*domain.CashReport, error) {
	from, err := s.parseDay(params.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := s.parseDay(params.EndDate)
	if err != nil {
		return nil, err
	}
	if end.Before(from) {
		return nil, apperrors.NewValidationFailedError("startDate must not be after endDate")
	}
	to := end.AddDate(0, 0, 1)

	sessions, err := s.sessionRepo.ListSessionsOverlapping(ctx, params.BranchID, from.UTC(), to.UTC())
	if err != nil {
		s.LogError(ctx, err, "Failed to list sessions for cash report",
			slog.String("start_date", params.StartDate), slog.String("end_date", params.EndDate))
		return nil, fmt.Errorf("failed to build cash report: %w", err)
	}

	rows, err := s.buildRecords(ctx, sessions)
	if err != nil {
		return nil, err
	}

	s.LogInfo(ctx, "Cash report generated",
		slog.String("start_date", params.StartDate),
		slog.String("end_date", params.EndDate),
		slog.Int("row_count", len(rows)))
	return &domain.CashReport{
		StartDate: params.StartDate,
		EndDate:   params.EndDate,
		BranchID:  params.BranchID,
		Rows:      rows,
		Summary:   domain.SummarizeRows(rows),
	}, nil
}

// buildRecords enriches sessions with movement totals and branch names using one
// grouped query each.
func (s *reportingService) buildRecords(ctx context.Context, sessions []domain.CashSession) ([]domain.SessionHistoryRecord, error) {
	records := make([]domain.SessionHistoryRecord, 0, len(sessions))
	if len(sessions) == 0 {
		return records, nil
	}

	ids := make([]string, len(sessions))
	branchSet := make(map[string]struct{})
	branchIDs := make([]string, 0)
	for i, sess := range sessions {
		ids[i] = sess.SessionID
		if _, seen := branchSet[sess.BranchID]; !seen {
			branchSet[sess.BranchID] = struct{}{}
			branchIDs = append(branchIDs, sess.BranchID)
		}
	}

	totals, err := s.movementRepo.SumMovementsBySession(ctx, ids)
	if err != nil {
		s.LogError(ctx, err, "Failed to sum movements for report", slog.Int("session_count", len(ids)))
		return nil, fmt.Errorf("failed to sum session movements: %w", err)
	}
	branches, err := s.branchRepo.FindBranchesByIDs(ctx, branchIDs)
	if err != nil {
		s.LogError(ctx, err, "Failed to load branches for report")
		return nil, fmt.Errorf("failed to load branches: %w", err)
	}

	for _, sess := range sessions {
		records = append(records, domain.NewSessionHistoryRecord(sess, totals[sess.SessionID], branches[sess.BranchID].Name))
	}
	return records, nil
}

// parseDay resolves a YYYY-MM-DD string to local midnight in the operating timezone.
func (s *reportingService) parseDay(date string) (time.Time, error) {
	day, err := time.ParseInLocation(dateLayout, date, s.location)
	if err != nil {
		return time.Time{}, apperrors.NewValidationFailedError(fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", date))
	}
	return day, nil
}
