package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/SscSPs/cashdesk/internal/apperrors"
	"github.com/SscSPs/cashdesk/internal/core/domain"
	portsrepo "github.com/SscSPs/cashdesk/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/cashdesk/internal/core/ports/services"
	"github.com/SscSPs/cashdesk/internal/core/services"
	"github.com/SscSPs/cashdesk/internal/dto"
	"github.com/SscSPs/cashdesk/internal/repositories/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

// reportingSuite runs the projections over sessions spread across operating days in
// a UTC-4 timezone, so that a local day is [04:00Z, 04:00Z next day).
type reportingSuite struct {
	suite.Suite
	ctx       context.Context
	clock     *testClock
	repos     portsrepo.RepositoryProvider
	sessions  portssvc.CashSessionSvcFacade
	ledger    portssvc.LedgerSvcFacade
	reporting portssvc.CashReportingSvc
}

func (s *reportingSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = newTestClock(time.Date(2024, 3, 15, 13, 0, 0, 0, time.UTC))
	s.repos = memory.NewRepositoryProvider(memory.NewStore(), nil)

	loc := time.FixedZone("AST", -4*60*60)

	branches := services.NewBranchService(s.repos.BranchRepo)
	s.sessions = services.NewCashSessionService(s.repos.SessionRepo, s.repos.MovementRepo, branches,
		services.WithSessionClock(s.clock.Now))
	s.ledger = services.NewLedgerService(s.repos.SessionRepo, s.repos.MovementRepo,
		services.WithLedgerClock(s.clock.Now))
	s.reporting = services.NewReportingService(s.repos.ReportingRepo, s.repos.SessionRepo, s.repos.MovementRepo, s.repos.BranchRepo,
		services.WithOperatingLocation(loc),
		services.WithHistoryMaxLimit(3),
		services.WithReportingClock(s.clock.Now))

	_, err := branches.CreateBranch(s.ctx, strPtr(testBranch), "Centro", "", "admin")
	s.Require().NoError(err)
	_, err = branches.CreateBranch(s.ctx, strPtr("branch-norte"), "Norte", "", "admin")
	s.Require().NoError(err)
}

func TestReportingSuite(t *testing.T) {
	suite.Run(t, new(reportingSuite))
}

func (s *reportingSuite) at(ts string) {
	t, err := time.Parse(time.RFC3339, ts)
	s.Require().NoError(err)
	s.clock.Set(t)
}

func (s *reportingSuite) openAt(ts, userID, branchID, initial string) string {
	s.at(ts)
	session, err := s.sessions.OpenSession(s.ctx, userID, branchID, dec(initial), nil)
	s.Require().NoError(err)
	return session.SessionID
}

func (s *reportingSuite) recordAt(ts, sessionID string, t domain.MovementType, amount string) {
	s.at(ts)
	_, err := s.ledger.RecordMovement(s.ctx, domain.MovementInput{
		SessionID: sessionID,
		UserID:    testUser,
		Type:      t,
		Amount:    dec(amount),
		Concept:   "ajuste",
	})
	s.Require().NoError(err)
}

func (s *reportingSuite) closeAt(ts, sessionID, counted string) *domain.CashSession {
	s.at(ts)
	closed, err := s.sessions.CloseSession(s.ctx, sessionID, dec(counted), nil, testUser)
	s.Require().NoError(err)
	return closed
}

func (s *reportingSuite) TestDailySummary() {
	a := s.openAt("2024-03-15T13:00:00Z", testUser, testBranch, "5000")
	s.recordAt("2024-03-15T13:01:00Z", a, domain.MovementSale, "41300")
	s.recordAt("2024-03-15T13:02:00Z", a, domain.MovementManualExit, "500")
	s.closeAt("2024-03-15T14:02:00Z", a, "45000")

	b := s.openAt("2024-03-15T14:03:00Z", "cashier-2", testBranch, "100")
	s.recordAt("2024-03-15T15:00:00Z", b, domain.MovementPayment, "40")
	s.recordAt("2024-03-15T15:01:00Z", b, domain.MovementManualEntry, "10")
	// 01:00 local on the 16th.
	s.recordAt("2024-03-16T05:00:00Z", b, domain.MovementSale, "7")
	// 23:30 local on the 14th.
	s.recordAt("2024-03-15T03:30:00Z", b, domain.MovementSale, "3")

	summary, err := s.reporting.DailySummary(s.ctx, "2024-03-15", nil)
	s.Require().NoError(err)

	s.Equal("2024-03-15", summary.Date)
	s.True(dec("41300").Equal(summary.SalesTotal), "sales %s", summary.SalesTotal)
	s.True(dec("40").Equal(summary.PaymentsTotal))
	s.True(dec("10").Equal(summary.ManualEntriesTotal))
	s.True(dec("500").Equal(summary.ManualExitsTotal))
	s.True(dec("40850").Equal(summary.NetTotal), "net %s", summary.NetTotal)
	s.True(dec("5100").Equal(summary.OpeningTotal))
	s.True(dec("45000").Equal(summary.ClosingTotal))

	next, err := s.reporting.DailySummary(s.ctx, "2024-03-16", nil)
	s.Require().NoError(err)
	s.True(dec("7").Equal(next.SalesTotal))
	s.True(decimal.Zero.Equal(next.OpeningTotal))
}

func (s *reportingSuite) TestDailySummary_BranchFilterAndDefaultDate() {
	a := s.openAt("2024-03-15T13:00:00Z", testUser, testBranch, "10")
	s.recordAt("2024-03-15T13:01:00Z", a, domain.MovementSale, "100")
	n := s.openAt("2024-03-15T13:05:00Z", testUser, "branch-norte", "20")
	s.recordAt("2024-03-15T13:06:00Z", n, domain.MovementSale, "5")

	norte := "branch-norte"
	summary, err := s.reporting.DailySummary(s.ctx, "", &norte)
	s.Require().NoError(err)
	s.Equal("2024-03-15", summary.Date)
	s.Require().NotNil(summary.BranchID)
	s.True(dec("5").Equal(summary.SalesTotal))
	s.True(dec("20").Equal(summary.OpeningTotal))
}

func (s *reportingSuite) TestDailySummary_EmptyDayAndBadDate() {
	summary, err := s.reporting.DailySummary(s.ctx, "2020-01-01", nil)
	s.Require().NoError(err)
	s.True(decimal.Zero.Equal(summary.NetTotal))
	s.True(decimal.Zero.Equal(summary.SalesTotal))

	_, err = s.reporting.DailySummary(s.ctx, "15/03/2024", nil)
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *reportingSuite) TestHistory_PaginatesMostRecentFirst() {
	first := s.openAt("2024-03-13T13:00:00Z", testUser, testBranch, "100")
	s.recordAt("2024-03-13T14:00:00Z", first, domain.MovementSale, "50")
	firstClosed := s.closeAt("2024-03-13T20:00:00Z", first, "140")
	second := s.openAt("2024-03-14T13:00:00Z", testUser, testBranch, "100")
	s.closeAt("2024-03-14T20:00:00Z", second, "100")
	third := s.openAt("2024-03-15T13:00:00Z", testUser, testBranch, "100")
	s.recordAt("2024-03-15T14:00:00Z", third, domain.MovementManualExit, "30")

	page, err := s.reporting.History(s.ctx, dto.HistoryParams{Page: 1, Limit: 2})
	s.Require().NoError(err)
	s.Equal(3, page.Total)
	s.Equal(2, page.TotalPages)
	s.Require().Len(page.Records, 2)
	s.Equal(third, page.Records[0].SessionID)
	s.Equal(second, page.Records[1].SessionID)

	open := page.Records[0]
	s.Equal("Centro", open.BranchName)
	s.Equal(domain.SessionOpen, open.Status)
	s.Nil(open.Difference)
	s.True(dec("70").Equal(open.Balance), "live balance %s", open.Balance)
	s.True(dec("30").Equal(open.TotalExpenses))

	page, err = s.reporting.History(s.ctx, dto.HistoryParams{Page: 2, Limit: 2})
	s.Require().NoError(err)
	s.Require().Len(page.Records, 1)
	closed := page.Records[0]
	s.Equal(first, closed.SessionID)
	s.True(dec("150").Equal(closed.Balance), "frozen balance %s", closed.Balance)
	s.Require().NotNil(closed.Difference)
	s.True(dec("-10").Equal(*closed.Difference))
	// The history row repeats what the close returned.
	s.True(firstClosed.ExpectedBalance.Equal(closed.Balance))
	s.True(firstClosed.Difference.Equal(*closed.Difference))
	s.Require().NotNil(closed.CountedAmount)
	s.True(firstClosed.CountedAmount.Equal(*closed.CountedAmount))
	s.Require().NotNil(closed.ClosedAt)
	s.True(firstClosed.ClosedAt.Equal(*closed.ClosedAt))

	page, err = s.reporting.History(s.ctx, dto.HistoryParams{Page: 5, Limit: 2})
	s.Require().NoError(err)
	s.Empty(page.Records)
	s.Equal(3, page.Total)
}

func (s *reportingSuite) TestHistory_FiltersAndLimits() {
	a := s.openAt("2024-03-13T13:00:00Z", testUser, testBranch, "1")
	s.closeAt("2024-03-13T14:00:00Z", a, "1")
	s.openAt("2024-03-14T13:00:00Z", testUser, testBranch, "1")
	s.openAt("2024-03-14T13:00:00Z", testUser, "branch-norte", "1")

	status := "CLOSED"
	page, err := s.reporting.History(s.ctx, dto.HistoryParams{Status: &status})
	s.Require().NoError(err)
	s.Require().Len(page.Records, 1)
	s.Equal(a, page.Records[0].SessionID)
	s.Equal(1, page.Page)

	norte := "branch-norte"
	page, err = s.reporting.History(s.ctx, dto.HistoryParams{BranchID: &norte, Page: 1, Limit: 500})
	s.Require().NoError(err)
	s.Len(page.Records, 1)
	s.Equal(3, page.Limit, "limit is clamped to the configured maximum")

	start, end := "2024-03-14", "2024-03-14"
	page, err = s.reporting.History(s.ctx, dto.HistoryParams{StartDate: &start, EndDate: &end})
	s.Require().NoError(err)
	s.Equal(2, page.Total)

	bad := "BROKEN"
	_, err = s.reporting.History(s.ctx, dto.HistoryParams{Status: &bad})
	s.ErrorIs(err, apperrors.ErrValidation)

	late, early := "2024-03-15", "2024-03-14"
	_, err = s.reporting.History(s.ctx, dto.HistoryParams{StartDate: &late, EndDate: &early})
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *reportingSuite) TestCashReport_IncludesOverlappingSessions() {
	spanning := s.openAt("2024-03-14T15:00:00Z", testUser, testBranch, "100")
	s.recordAt("2024-03-15T15:00:00Z", spanning, domain.MovementSale, "20")
	s.closeAt("2024-03-16T15:00:00Z", spanning, "110")

	before := s.openAt("2024-03-12T15:00:00Z", "cashier-2", testBranch, "50")
	s.closeAt("2024-03-13T15:00:00Z", before, "50")

	s.openAt("2024-03-17T15:00:00Z", "cashier-3", testBranch, "70")
	// 22:00 local on the 15th.
	lateOpen := s.openAt("2024-03-16T02:00:00Z", "cashier-4", testBranch, "20")

	report, err := s.reporting.CashReport(s.ctx, dto.CashReportParams{StartDate: "2024-03-15", EndDate: "2024-03-15"})
	s.Require().NoError(err)

	s.Require().Len(report.Rows, 2)
	s.Equal(lateOpen, report.Rows[0].SessionID)
	s.Equal(spanning, report.Rows[1].SessionID)

	s.Equal(2, report.Summary.SessionCount)
	s.True(dec("120").Equal(report.Summary.TotalInitial))
	s.True(dec("20").Equal(report.Summary.TotalIncome))
	s.True(dec("-10").Equal(report.Summary.TotalDifference), "difference %s", report.Summary.TotalDifference)
}

func (s *reportingSuite) TestCashReport_InvalidRange() {
	_, err := s.reporting.CashReport(s.ctx, dto.CashReportParams{StartDate: "2024-03-16", EndDate: "2024-03-15"})
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.reporting.CashReport(s.ctx, dto.CashReportParams{StartDate: "yesterday", EndDate: "2024-03-15"})
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *reportingSuite) TestListMovements_KeysetPages() {
	session := s.openAt("2024-03-15T13:00:00Z", testUser, testBranch, "0")
	for i := 1; i <= 4; i++ {
		s.recordAt(fmt.Sprintf("2024-03-15T13:%02d:00Z", i), session, domain.MovementSale, "1")
	}

	first, err := s.ledger.ListMovements(s.ctx, session, dto.ListMovementsParams{Limit: 3})
	s.Require().NoError(err)
	s.Require().Len(first.Movements, 3)
	s.Require().NotNil(first.NextToken)
	s.Equal(domain.MovementOpening, first.Movements[0].Type)

	second, err := s.ledger.ListMovements(s.ctx, session, dto.ListMovementsParams{Limit: 3, NextToken: first.NextToken})
	s.Require().NoError(err)
	s.Len(second.Movements, 2)
	s.Nil(second.NextToken)
	s.NotEqual(first.Movements[2].MovementID, second.Movements[0].MovementID)

	saleType := domain.MovementSale
	sales, err := s.ledger.ListMovements(s.ctx, session, dto.ListMovementsParams{Limit: 10, Type: &saleType})
	s.Require().NoError(err)
	s.Len(sales.Movements, 4)

	garbage := "%%%"
	_, err = s.ledger.ListMovements(s.ctx, session, dto.ListMovementsParams{Limit: 3, NextToken: &garbage})
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.ledger.ListMovements(s.ctx, "missing", dto.ListMovementsParams{})
	s.ErrorIs(err, apperrors.ErrNotFound)
}
