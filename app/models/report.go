package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentFilters narrows the admin transaction listing. Zero values
// disable a filter.
type PaymentFilters struct {
	Search string
	Status PaymentStatus
	Since  time.Time
}

// PaymentPage is one page of the filtered transaction listing.
type PaymentPage struct {
	Items      []PaymentView `json:"transactions"`
	Page       int           `json:"page"`
	PageSize   int           `json:"limit"`
	TotalCount int           `json:"total"`
	PageCount  int           `json:"pages"`
}

// DashboardSummary aggregates collections across every obligation,
// general fees included.
type DashboardSummary struct {
	TotalCollected decimal.Decimal `json:"totalCollected"`
	CompletedCount int             `json:"completedPayments"`
	PendingCount   int             `json:"pendingPayments"`
	OverdueCount   int             `json:"overduePayments"`
	RecentPayments []PaymentView   `json:"recentPayments"`
}

// GuardianSummary is one row of the full report. PendingCount only counts
// targeted assignments.
type GuardianSummary struct {
	GuardianID      string          `json:"userId"`
	GuardianName    string          `json:"userName"`
	GuardianEmail   string          `json:"userEmail"`
	PaymentsMade    int             `json:"totalPaymentsMade"`
	AmountPaid      decimal.Decimal `json:"totalAmountPaid"`
	PendingPayments int             `json:"pendingPaymentsCount"`
}

// UnpaidFee is a targeted assignment with no completed payment.
type UnpaidFee struct {
	GuardianID   string          `json:"userId"`
	GuardianName string          `json:"userName"`
	FeeID        string          `json:"feeId"`
	FeeKind      FeeKind         `json:"feeType"`
	Amount       decimal.Decimal `json:"amount"`
	Description  *string         `json:"description"`
	DueDate      Date            `json:"dueDate"`
}

// FullReport is the admin payment report.
type FullReport struct {
	UserSummary    []GuardianSummary `json:"userSummary"`
	PaymentDetails []PaymentView     `json:"paymentDetails"`
	UnpaidFees     []UnpaidFee       `json:"unpaidFees"`
}

// GuardianBalance is a per-guardian roll-up of unpaid targeted fees.
type GuardianBalance struct {
	GuardianID  string          `json:"id"`
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	FeeCount    int             `json:"feeCount"`
	Amount      decimal.Decimal `json:"amount"`
	DaysOverdue int             `json:"daysOverdue,omitempty"`
}
