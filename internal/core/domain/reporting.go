package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyTotals is what storage returns for a single operating day.
type DailyTotals struct {
	ByType       MovementTotals
	OpeningTotal decimal.Decimal // Σ initial amount of sessions opened in the window
	ClosingTotal decimal.Decimal // Σ counted amount of sessions closed in the window
}

// DailySummary aggregates a day's movements across all sessions, open or closed.
type DailySummary struct {
	Date               string          `json:"date"` // YYYY-MM-DD in the operating timezone
	BranchID           *string         `json:"branchID,omitempty"`
	SalesTotal         decimal.Decimal `json:"salesTotal"`
	PaymentsTotal      decimal.Decimal `json:"paymentsTotal"`
	ManualEntriesTotal decimal.Decimal `json:"manualEntriesTotal"`
	ManualExitsTotal   decimal.Decimal `json:"manualExitsTotal"`
	NetTotal           decimal.Decimal `json:"netTotal"` // sales + payments + entries - exits
	OpeningTotal       decimal.Decimal `json:"openingTotal"`
	ClosingTotal       decimal.Decimal `json:"closingTotal"`
}

// NewDailySummary shapes storage totals into the summary projection.
func NewDailySummary(date string, branchID *string, t DailyTotals) DailySummary {
	byType := t.ByType
	if byType == nil {
		byType = MovementTotals{}
	}
	return DailySummary{
		Date:               date,
		BranchID:           branchID,
		SalesTotal:         byType.Of(MovementSale),
		PaymentsTotal:      byType.Of(MovementPayment),
		ManualEntriesTotal: byType.Of(MovementManualEntry),
		ManualExitsTotal:   byType.Of(MovementManualExit),
		NetTotal:           byType.Income().Sub(byType.Expenses()),
		OpeningTotal:       t.OpeningTotal,
		ClosingTotal:       t.ClosingTotal,
	}
}

// SessionHistoryRecord is one row of the session history and cash report.
type SessionHistoryRecord struct {
	SessionID     string           `json:"sessionID"`
	BranchID      string           `json:"branchID"`
	BranchName    string           `json:"branchName"`
	OpenedBy      string           `json:"openedBy"`
	ClosedBy      *string          `json:"closedBy,omitempty"`
	Status        SessionStatus    `json:"status"`
	OpenedAt      time.Time        `json:"openedAt"`
	ClosedAt      *time.Time       `json:"closedAt,omitempty"`
	InitialAmount decimal.Decimal  `json:"initialAmount"`
	TotalIncome   decimal.Decimal  `json:"totalIncome"`
	TotalExpenses decimal.Decimal  `json:"totalExpenses"`
	Balance       decimal.Decimal  `json:"balance"` // live while open, frozen once closed
	CountedAmount *decimal.Decimal `json:"countedAmount,omitempty"`
	Difference    *decimal.Decimal `json:"difference"` // null while open
}

// NewSessionHistoryRecord derives a history row from a session and its movement totals.
func NewSessionHistoryRecord(s CashSession, totals MovementTotals, branchName string) SessionHistoryRecord {
	if totals == nil {
		totals = MovementTotals{}
	}
	income := totals.Income()
	expenses := totals.Expenses()
	balance := s.InitialAmount.Add(income).Sub(expenses)
	if s.Status == SessionClosed && s.ExpectedBalance != nil {
		balance = *s.ExpectedBalance
	}

	rec := SessionHistoryRecord{
		SessionID:     s.SessionID,
		BranchID:      s.BranchID,
		BranchName:    branchName,
		OpenedBy:      s.OpenedBy,
		ClosedBy:      s.ClosedBy,
		Status:        s.Status,
		OpenedAt:      s.OpenedAt,
		ClosedAt:      s.ClosedAt,
		InitialAmount: s.InitialAmount,
		TotalIncome:   income,
		TotalExpenses: expenses,
		Balance:       balance,
	}
	if s.Status == SessionClosed {
		rec.CountedAmount = s.CountedAmount
		rec.Difference = s.Difference
	}
	return rec
}

// HistoryPage is a page of session history with offset pagination metadata.
type HistoryPage struct {
	Records    []SessionHistoryRecord `json:"records"`
	Page       int                    `json:"page"`
	Limit      int                    `json:"limit"`
	Total      int                    `json:"total"`
	TotalPages int                    `json:"totalPages"`
}

// CashReportSummary totals a cash report.
type CashReportSummary struct {
	SessionCount    int             `json:"sessionCount"`
	TotalInitial    decimal.Decimal `json:"totalInitial"`
	TotalIncome     decimal.Decimal `json:"totalIncome"`
	TotalExpenses   decimal.Decimal `json:"totalExpenses"`
	TotalDifference decimal.Decimal `json:"totalDifference"` // closed sessions only
}

// CashReport is the export-shaped projection over a date range.
type CashReport struct {
	StartDate string                 `json:"startDate"`
	EndDate   string                 `json:"endDate"`
	BranchID  *string                `json:"branchID,omitempty"`
	Rows      []SessionHistoryRecord `json:"rows"`
	Summary   CashReportSummary      `json:"summary"`
}

// SummarizeRows computes the report summary from its rows.
func SummarizeRows(rows []SessionHistoryRecord) CashReportSummary {
	sum := CashReportSummary{
		SessionCount:    len(rows),
		TotalInitial:    decimal.Zero,
		TotalIncome:     decimal.Zero,
		TotalExpenses:   decimal.Zero,
		TotalDifference: decimal.Zero,
	}
	for _, r := range rows {
		sum.TotalInitial = sum.TotalInitial.Add(r.InitialAmount)
		sum.TotalIncome = sum.TotalIncome.Add(r.TotalIncome)
		sum.TotalExpenses = sum.TotalExpenses.Add(r.TotalExpenses)
		if r.Difference != nil {
			sum.TotalDifference = sum.TotalDifference.Add(*r.Difference)
		}
	}
	return sum
}
