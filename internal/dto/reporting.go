package dto

// DailySummaryParams defines query parameters for the daily summary.
type DailySummaryParams struct {
	Date     string  `form:"date" binding:"omitempty,datetime=2006-01-02"` // defaults to today in the operating timezone
	BranchID *string `form:"branchId"`
}

// HistoryParams defines query parameters for the session history.
// StartDate and EndDate are calendar days in the operating timezone, both inclusive.
type HistoryParams struct {
	BranchID  *string `form:"branchId"`
	Status    *string `form:"status" binding:"omitempty,oneof=OPEN CLOSED"`
	StartDate *string `form:"startDate" binding:"omitempty,datetime=2006-01-02"`
	EndDate   *string `form:"endDate" binding:"omitempty,datetime=2006-01-02"`
	Page      int     `form:"page,default=1" binding:"min=1"`
	Limit     int     `form:"limit,default=20" binding:"min=1"`
}

// CashReportParams defines query parameters for the date-range cash report.
type CashReportParams struct {
	BranchID  *string `form:"branchId"`
	StartDate string  `form:"startDate" binding:"required,datetime=2006-01-02"`
	EndDate   string  `form:"endDate" binding:"required,datetime=2006-01-02"`
}
