package services

import (
	"context"
	"errors"
	"time"

	"fee-management-system/app/apperr"
	"fee-management-system/app/database"
	"fee-management-system/app/models"

	"github.com/shopspring/decimal"
)

// UserStore reads and writes accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	ListGuardians(ctx context.Context) ([]models.User, error)
	ExistingGuardians(ctx context.Context, ids []string) (map[string]bool, error)
}

// FeeStore persists fee definitions and their assignments.
type FeeStore interface {
	CreateFee(ctx context.Context, fee *models.Fee) error
	UpdateFee(ctx context.Context, fee *models.Fee) error
	DeleteFee(ctx context.Context, id string) error
	GetFee(ctx context.Context, id string) (*models.Fee, error)
	ListFees(ctx context.Context) ([]models.Fee, error)
	AssignFee(ctx context.Context, guardianID, feeID string) (bool, error)
	CreateFeeWithAssignment(ctx context.Context, fee *models.Fee, guardianID string) error
	GuardianSettlements(ctx context.Context, guardianID string) ([]models.Settlement, error)
	AllSettlements(ctx context.Context) ([]models.Settlement, error)
}

// PaymentStore persists payments and answers payment listings.
type PaymentStore interface {
	HasCompletedPayment(ctx context.Context, guardianID, feeID string) (bool, error)
	InsertCompletedPayment(ctx context.Context, payment *models.Payment) error
	GetPayment(ctx context.Context, id string) (*models.PaymentView, error)
	PaymentsForGuardian(ctx context.Context, guardianID string) ([]models.PaymentView, error)
	ListAllPayments(ctx context.Context) ([]models.PaymentView, error)
	RecentCompletedPayments(ctx context.Context, limit int) ([]models.PaymentView, error)
	CompletedTotals(ctx context.Context) (int, decimal.Decimal, error)
	ListPayments(ctx context.Context, filters models.PaymentFilters, limit, offset int) ([]models.PaymentView, int, error)
}

// NotificationStore persists notifications and per-recipient state.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	AddRecipient(ctx context.Context, notificationID, guardianID string) error
	NotificationsFor(ctx context.Context, guardianID string) ([]models.NotificationView, error)
	MarkRead(ctx context.Context, notificationID, guardianID string, at time.Time) error
	DeleteRecipient(ctx context.Context, notificationID, guardianID string) error
}

// Store is everything the engines need from persistence. Both
// database.Store and database.MemoryStore satisfy it.
type Store interface {
	UserStore
	FeeStore
	PaymentStore
	NotificationStore
	Ping(ctx context.Context) error
}

// Clock returns the current time. Calendar dates are taken in the
// location of the returned time.
type Clock func() time.Time

func today(clock Clock) models.Date {
	return models.DateOf(clock())
}

// internal maps store failures that are not part of the domain contract.
func internal(err error, msg string) error {
	if err == nil {
		return nil
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.Internal(err, "Request timed out")
	}
	return apperr.Internal(err, msg)
}

func isNotFound(err error) bool {
	return errors.Is(err, database.ErrNotFound)
}
