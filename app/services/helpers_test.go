package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"fee-management-system/app/apperr"
	"fee-management-system/app/database"
	"fee-management-system/app/models"

	"github.com/shopspring/decimal"
)

var (
	_ Store = (*database.Store)(nil)
	_ Store = (*database.MemoryStore)(nil)
)

var fixedNow = time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	store   *database.MemoryStore
	fees    *FeeCatalog
	assign  *AssignmentResolver
	status  *StatusEngine
	ledger  *PaymentLedger
	fanout  *NotificationFanout
	reports *Reports
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := database.NewMemoryStore().WithClock(fixedClock)
	logger := discardLogger()
	return &fixture{
		store:   store,
		fees:    NewFeeCatalog(store, logger),
		assign:  NewAssignmentResolver(store, store, logger),
		status:  NewStatusEngine(store, fixedClock),
		ledger:  NewPaymentLedger(store, store, logger),
		fanout:  NewNotificationFanout(store, store, fixedClock, logger),
		reports: NewReports(store, store, store, fixedClock),
	}
}

func (f *fixture) user(t *testing.T, id, name string, role models.Role) {
	t.Helper()
	err := f.store.CreateUser(context.Background(), &models.User{
		ID: id, Name: name, Email: id + "@example.com", Password: "x", Role: role,
	})
	if err != nil {
		t.Fatalf("create user %s: %v", id, err)
	}
}

func (f *fixture) fee(t *testing.T, kind models.FeeKind, amount int64, due string) *models.Fee {
	t.Helper()
	fee, err := f.fees.CreateFee(context.Background(), models.FeeInput{
		Kind: kind, Amount: decimal.NewFromInt(amount), DueDate: mustDate(t, due),
	})
	if err != nil {
		t.Fatalf("create fee: %v", err)
	}
	return fee
}

func (f *fixture) pay(t *testing.T, guardianID, feeID string, amount int64) *Receipt {
	t.Helper()
	receipt, err := f.ledger.ProcessPayment(context.Background(), guardianID, cardPayment(feeID, amount))
	if err != nil {
		t.Fatalf("pay %s/%s: %v", guardianID, feeID, err)
	}
	return receipt
}

func cardPayment(feeID string, amount int64) PaymentRequest {
	return PaymentRequest{
		FeeID:  feeID,
		Amount: decimal.NewFromInt(amount),
		Method: models.MethodCreditCard,
		Card:   &models.CardDetails{CardNumber: "4242 4242 4242 4242", ExpiryDate: "12/27", CVV: "123"},
	}
}

func mustDate(t *testing.T, s string) models.Date {
	t.Helper()
	d, err := models.ParseDate(s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

func assertKind(t *testing.T, err error, want apperr.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	if got := apperr.KindOf(err); got != want {
		t.Fatalf("error kind = %s (%v), want %s", got, err, want)
	}
}
