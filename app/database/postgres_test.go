package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"sync"
	"testing"
	"time"

	"fee-management-system/app/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// newPostgresStore migrates a fresh schema in the database named by
// TEST_DATABASE_URL and drops it when the test ends.
func newPostgresStore(t *testing.T) *Store {
	t.Helper()
	raw := os.Getenv("TEST_DATABASE_URL")
	if raw == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	admin, err := sql.Open("postgres", raw)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { admin.Close() })

	schema := "fees_test_" + uuid.NewString()[:8]
	if _, err := admin.Exec(`CREATE SCHEMA ` + schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	t.Cleanup(func() { admin.Exec(`DROP SCHEMA ` + schema + ` CASCADE`) })

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("TEST_DATABASE_URL must be a URL: %v", err)
	}
	q := u.Query()
	q.Set("search_path", schema)
	u.RawQuery = q.Encode()

	db, err := sql.Open("postgres", u.String())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	if err := RunMigrations(context.Background(), db, slog.New(slog.NewTextHandler(io.Discard, nil))); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewStore(db)
}

func pgGuardian(t *testing.T, s *Store, id, name string) {
	t.Helper()
	err := s.CreateUser(context.Background(), &models.User{
		ID: id, Name: name, Email: id + "@example.com", Password: "x", Role: models.RoleGuardian,
	})
	if err != nil {
		t.Fatalf("create guardian: %v", err)
	}
}

func pgFee(t *testing.T, s *Store, id, due string) *models.Fee {
	t.Helper()
	d, err := models.ParseDate(due)
	if err != nil {
		t.Fatal(err)
	}
	fee := &models.Fee{ID: id, Kind: models.FeeTerm, Amount: decimal.NewFromInt(500), DueDate: d}
	if err := s.CreateFee(context.Background(), fee); err != nil {
		t.Fatalf("create fee: %v", err)
	}
	return fee
}

func pgPayment(guardianID, feeID string) *models.Payment {
	return &models.Payment{
		ID:                   uuid.NewString(),
		GuardianID:           guardianID,
		FeeID:                feeID,
		Amount:               decimal.NewFromInt(500),
		Method:               models.MethodCreditCard,
		Details:              &models.PaymentDetails{LastFour: "1111", ExpiryDate: "09/28"},
		TransactionReference: "TXN-000001",
	}
}

func TestPostgresSettlements(t *testing.T) {
	ctx := context.Background()
	s := newPostgresStore(t)
	pgGuardian(t, s, "a", "Alice")
	pgGuardian(t, s, "b", "Bob")
	pgFee(t, s, "general", "2025-01-01")
	pgFee(t, s, "targeted", "2025-02-01")

	if created, err := s.AssignFee(ctx, "a", "targeted"); err != nil || !created {
		t.Fatalf("assign = %v, %v", created, err)
	}
	if created, err := s.AssignFee(ctx, "a", "targeted"); err != nil || created {
		t.Fatalf("re-assign = %v, %v", created, err)
	}
	if _, err := s.AssignFee(ctx, "nobody", "targeted"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("assign unknown guardian = %v", err)
	}

	if err := s.InsertCompletedPayment(ctx, pgPayment("b", "general")); err != nil {
		t.Fatal(err)
	}

	forA, err := s.GuardianSettlements(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	if len(forA) != 2 || forA[0].Fee.ID != "general" || forA[0].Targeted || forA[0].Paid ||
		forA[1].Fee.ID != "targeted" || !forA[1].Targeted {
		t.Fatalf("guardian a = %+v", forA)
	}

	forB, err := s.GuardianSettlements(ctx, "b")
	if err != nil {
		t.Fatal(err)
	}
	if len(forB) != 1 || forB[0].Fee.ID != "general" || !forB[0].Paid {
		t.Fatalf("guardian b = %+v", forB)
	}
	if forB[0].Fee.DueDate.String() != "2025-01-01" {
		t.Fatalf("due date round trip = %s", forB[0].Fee.DueDate)
	}

	all, err := s.AllSettlements(ctx)
	if err != nil || len(all) != 3 {
		t.Fatalf("all settlements = %d, %v", len(all), err)
	}
}

func TestPostgresConcurrentPayments(t *testing.T) {
	ctx := context.Background()
	s := newPostgresStore(t)
	pgGuardian(t, s, "a", "Alice")
	pgFee(t, s, "f", "2025-01-01")

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.InsertCompletedPayment(ctx, pgPayment("a", "f"))
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case !errors.Is(err, ErrAlreadyPaid):
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 {
		t.Fatalf("%d payments succeeded, want 1", ok)
	}

	history, err := s.PaymentsForGuardian(ctx, "a")
	if err != nil || len(history) != 1 || history[0].Details == nil || history[0].Details.LastFour != "1111" {
		t.Fatalf("history = %+v, %v", history, err)
	}

	if err := s.InsertCompletedPayment(ctx, pgPayment("a", "missing")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown fee = %v", err)
	}
}

func TestPostgresDeleteFee(t *testing.T) {
	ctx := context.Background()
	s := newPostgresStore(t)
	pgGuardian(t, s, "a", "Alice")
	pgFee(t, s, "unpaid", "2025-01-01")
	pgFee(t, s, "paid", "2025-01-01")

	if _, err := s.AssignFee(ctx, "a", "unpaid"); err != nil {
		t.Fatal(err)
	}
	if err := s.InsertCompletedPayment(ctx, pgPayment("a", "paid")); err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteFee(ctx, "paid"); !errors.Is(err, ErrFeeInUse) {
		t.Fatalf("delete paid fee = %v", err)
	}
	if err := s.DeleteFee(ctx, "unpaid"); err != nil {
		t.Fatalf("delete unpaid fee = %v", err)
	}
	if err := s.DeleteFee(ctx, "unpaid"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("delete twice = %v", err)
	}
}

func TestPostgresDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	s := newPostgresStore(t)
	pgGuardian(t, s, "a", "Alice")

	err := s.CreateUser(ctx, &models.User{ID: "a2", Name: "Alice", Email: "A@EXAMPLE.com", Password: "x", Role: models.RoleGuardian})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("duplicate email = %v", err)
	}
	u, err := s.GetUserByEmail(ctx, "A@example.COM")
	if err != nil || u.ID != "a" {
		t.Fatalf("lookup = %+v, %v", u, err)
	}
}

func TestPostgresListPayments(t *testing.T) {
	ctx := context.Background()
	s := newPostgresStore(t)
	pgGuardian(t, s, "a", "Grace_50%")
	pgGuardian(t, s, "b", "Gerald")

	for i := 0; i < 12; i++ {
		fee := pgFee(t, s, fmt.Sprintf("f%02d", i), "2025-01-01")
		guardian := "a"
		if i%3 == 0 {
			guardian = "b"
		}
		if err := s.InsertCompletedPayment(ctx, pgPayment(guardian, fee.ID)); err != nil {
			t.Fatal(err)
		}
	}

	page, total, err := s.ListPayments(ctx, models.PaymentFilters{}, 5, 10)
	if err != nil || total != 12 || len(page) != 2 {
		t.Fatalf("page 3 = %d items, total %d, %v", len(page), total, err)
	}

	filtered, total, err := s.ListPayments(ctx, models.PaymentFilters{
		Search: "grace_50%",
		Status: models.PaymentCompleted,
		Since:  time.Now().Add(-time.Hour),
	}, 5, 5)
	if err != nil || total != 8 || len(filtered) != 3 {
		t.Fatalf("filtered = %d items, total %d, %v", len(filtered), total, err)
	}

	// An underscore must not act as a single-character wildcard.
	_, total, err = s.ListPayments(ctx, models.PaymentFilters{Search: "ger_ld"}, 5, 0)
	if err != nil || total != 0 {
		t.Fatalf("wildcard search total = %d, %v", total, err)
	}

	count, sum, err := s.CompletedTotals(ctx)
	if err != nil || count != 12 || !sum.Equal(decimal.NewFromInt(6000)) {
		t.Fatalf("totals = %d %s, %v", count, sum, err)
	}
}
