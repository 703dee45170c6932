package dto

type MonthSummary struct {
	Month       int    `json:"month"`
	Collected   string `json:"collected"`
	Outstanding string `json:"outstanding"`
	Pending     string `json:"pending"`
}

type DashboardSummary struct {
	Year            int            `json:"year"`
	Collected       string         `json:"collected"`
	Outstanding     string         `json:"outstanding"`
	PendingAmount   string         `json:"pending_amount"`
	PendingPayments int64          `json:"pending_payments"`
	AccountHolders  int64          `json:"account_holders"`
	HoldersWithDues int            `json:"holders_with_dues"`
	Months          []MonthSummary `json:"months"`
}
