package models

// Role is the account role carried by the bearer credential.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleGuardian Role = "guardian"
)

// ParseRole normalizes a role tag. The legacy "parent" tag is treated as guardian.
func ParseRole(s string) (Role, bool) {
	switch s {
	case "admin":
		return RoleAdmin, true
	case "guardian", "parent":
		return RoleGuardian, true
	}
	return "", false
}

// FeeKind defines how often a fee recurs.
type FeeKind string

const (
	FeeMonthly FeeKind = "monthly"
	FeeTerm    FeeKind = "term"
)

func (k FeeKind) Valid() bool {
	return k == FeeMonthly || k == FeeTerm
}

// PaymentMethod is the instrument a guardian paid with.
type PaymentMethod string

const (
	MethodCreditCard   PaymentMethod = "credit_card"
	MethodBankTransfer PaymentMethod = "bank_transfer"
)

// PaymentStatus defines the status of a payment
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentCompleted, PaymentFailed:
		return true
	}
	return false
}

// ObligationStatus is the derived state of a (guardian, fee) pair. It is
// never stored.
type ObligationStatus string

const (
	StatusPending ObligationStatus = "pending"
	StatusPaid    ObligationStatus = "paid"
	StatusOverdue ObligationStatus = "overdue"
)
