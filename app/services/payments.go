package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"

	"fee-management-system/app/apperr"
	"fee-management-system/app/database"
	"fee-management-system/app/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentRequest is a guardian's payment submission. Only the details
// matching Method are read.
type PaymentRequest struct {
	FeeID  string               `json:"feeId"`
	Amount decimal.Decimal      `json:"amount"`
	Method models.PaymentMethod `json:"method"`
	Card   *models.CardDetails  `json:"cardDetails"`
	Bank   *models.BankDetails  `json:"bankDetails"`
}

// Receipt identifies a committed payment.
type Receipt struct {
	PaymentID            string `json:"paymentId"`
	TransactionReference string `json:"transactionReference"`
}

// PaymentLedger validates and commits payments, at most one completed
// payment per guardian and fee.
type PaymentLedger struct {
	fees      FeeStore
	payments  PaymentStore
	logger    *slog.Logger
	reference func() string
}

func NewPaymentLedger(fees FeeStore, payments PaymentStore, logger *slog.Logger) *PaymentLedger {
	return &PaymentLedger{
		fees:      fees,
		payments:  payments,
		logger:    logger,
		reference: newTransactionReference,
	}
}

// newTransactionReference is informational only and may collide.
func newTransactionReference() string {
	return fmt.Sprintf("TXN-%06d", rand.Intn(1_000_000))
}

func digitsOnly(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func lastFour(s string) string {
	if len(s) <= 4 {
		return s
	}
	return s[len(s)-4:]
}

// paymentDetails checks the method-specific fields and returns the masked
// blob that is stored.
func paymentDetails(req PaymentRequest) (*models.PaymentDetails, error) {
	switch req.Method {
	case models.MethodCreditCard:
		card := req.Card
		if card == nil || card.CardNumber == "" || card.ExpiryDate == "" || card.CVV == "" {
			return nil, apperr.Validation("Card details are incomplete")
		}
		number := strings.ReplaceAll(card.CardNumber, " ", "")
		if len(number) != 16 || !digitsOnly(number) {
			return nil, apperr.Validation("Invalid card number")
		}
		return &models.PaymentDetails{LastFour: lastFour(number), ExpiryDate: card.ExpiryDate}, nil

	case models.MethodBankTransfer:
		bank := req.Bank
		if bank == nil || bank.BankName == "" || bank.AccountNumber == "" || bank.AccountTitle == "" {
			return nil, apperr.Validation("Bank details are incomplete")
		}
		number := strings.ReplaceAll(bank.AccountNumber, " ", "")
		if len(number) < 10 || !digitsOnly(number) {
			return nil, apperr.Validation("Invalid account number")
		}
		return &models.PaymentDetails{
			BankName:              bank.BankName,
			AccountTitle:          bank.AccountTitle,
			AccountNumberLastFour: lastFour(number),
		}, nil
	}
	return nil, apperr.Validation("Invalid payment method")
}

// ProcessPayment settles one fee for a guardian. Checks run in a fixed
// order: fee exists, amount positive, method details valid, not already
// paid. The already-paid check is repeated inside the store transaction.
func (l *PaymentLedger) ProcessPayment(ctx context.Context, guardianID string, req PaymentRequest) (*Receipt, error) {
	if _, err := l.fees.GetFee(ctx, req.FeeID); err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("Fee not found")
		}
		return nil, internal(err, "Error processing payment")
	}

	if !req.Amount.IsPositive() {
		return nil, apperr.Validation("Invalid amount")
	}

	details, err := paymentDetails(req)
	if err != nil {
		return nil, err
	}

	paid, err := l.payments.HasCompletedPayment(ctx, guardianID, req.FeeID)
	if err != nil {
		return nil, internal(err, "Error processing payment")
	}
	if paid {
		return nil, apperr.Conflict("Payment already made for this fee")
	}

	payment := &models.Payment{
		ID:                   uuid.NewString(),
		GuardianID:           guardianID,
		FeeID:                req.FeeID,
		Amount:               req.Amount,
		Method:               req.Method,
		Details:              details,
		TransactionReference: l.reference(),
	}
	err = l.payments.InsertCompletedPayment(ctx, payment)
	switch {
	case errors.Is(err, database.ErrAlreadyPaid):
		return nil, apperr.Conflict("Payment already made for this fee")
	case isNotFound(err):
		return nil, apperr.NotFound("Fee not found")
	case err != nil:
		l.logger.Error("payment failed", "guardian_id", guardianID, "fee_id", req.FeeID, "error", err)
		return nil, internal(err, "Error processing payment")
	}

	l.logger.Info("payment completed",
		"payment_id", payment.ID,
		"guardian_id", guardianID,
		"fee_id", req.FeeID,
		"method", req.Method,
		"reference", payment.TransactionReference,
	)
	return &Receipt{PaymentID: payment.ID, TransactionReference: payment.TransactionReference}, nil
}

// History returns the guardian's payments, newest first.
func (l *PaymentLedger) History(ctx context.Context, guardianID string) ([]models.PaymentView, error) {
	payments, err := l.payments.PaymentsForGuardian(ctx, guardianID)
	if err != nil {
		return nil, internal(err, "Error fetching payment history")
	}
	return payments, nil
}

// GetPayment returns one payment. Guardians only see their own; another
// guardian's payment is reported as missing.
func (l *PaymentLedger) GetPayment(ctx context.Context, id, callerID string, admin bool) (*models.PaymentView, error) {
	payment, err := l.payments.GetPayment(ctx, id)
	if isNotFound(err) || (err == nil && !admin && payment.GuardianID != callerID) {
		return nil, apperr.NotFound("Payment not found")
	}
	if err != nil {
		return nil, internal(err, "Error fetching payment")
	}
	return payment, nil
}
