package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Fee is a fee definition. A fee with no assignments applies to every guardian.
type Fee struct {
	ID          string          `json:"id"`
	Kind        FeeKind         `json:"feeType"`
	Amount      decimal.Decimal `json:"amount"`
	Description *string         `json:"description"`
	DueDate     Date            `json:"dueDate"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// FeeInput carries the admin-editable fields of a fee.
type FeeInput struct {
	Kind        FeeKind         `json:"feeType"`
	Amount      decimal.Decimal `json:"amount"`
	Description *string         `json:"description"`
	DueDate     Date            `json:"dueDate"`
}

// Assignment targets a fee at one guardian.
type Assignment struct {
	GuardianID string    `json:"parentId"`
	FeeID      string    `json:"feeId"`
	AssignedAt time.Time `json:"assignedAt"`
}

// Obligation is a fee together with its derived status for one guardian.
type Obligation struct {
	Fee
	Status ObligationStatus `json:"status"`
}

// DeriveStatus computes the status of an obligation: paid when a completed
// payment exists, otherwise overdue once the due date is before today.
func DeriveStatus(dueDate Date, paid bool, today Date) ObligationStatus {
	if paid {
		return StatusPaid
	}
	if dueDate.Before(today) {
		return StatusOverdue
	}
	return StatusPending
}

// Settlement is one obligation row: a fee that applies to a guardian,
// whether it reached the guardian through an assignment, and whether a
// completed payment covers it.
type Settlement struct {
	GuardianID    string
	GuardianName  string
	GuardianEmail string
	Fee           Fee
	Targeted      bool
	Paid          bool
}
