package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"fee-management-system/app/config"
	"fee-management-system/app/database"
	"fee-management-system/app/models"
	"fee-management-system/app/services"

	"github.com/shopspring/decimal"
)

var now = time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC)

func testCLI(store *database.MemoryStore) *cli {
	return &cli{
		cfg: &config.Config{
			Database:  config.DatabaseConfig{Driver: config.DriverMemory},
			Reminders: config.RemindersConfig{AuthorEmail: "bursar@example.com"},
		},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		clock:  func() time.Time { return now },
		openStore: func(context.Context) (services.Store, func(), error) {
			return store, func() {}, nil
		},
	}
}

func run(t *testing.T, c *cli, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(c)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func seedOverdue(t *testing.T, store *database.MemoryStore) {
	t.Helper()
	ctx := context.Background()
	for _, u := range []models.User{
		{ID: "admin", Name: "Bursar", Email: "bursar@example.com", Role: models.RoleAdmin},
		{ID: "g1", Name: "Grace", Email: "grace@example.com", Role: models.RoleGuardian},
		{ID: "g2", Name: "Hassan", Email: "hassan@example.com", Role: models.RoleGuardian},
	} {
		u := u
		if err := store.CreateUser(ctx, &u); err != nil {
			t.Fatal(err)
		}
	}
	due, _ := models.ParseDate("2025-04-30")
	fee := &models.Fee{ID: "f1", Kind: models.FeeMonthly, Amount: decimal.RequireFromString("120000"), DueDate: due}
	if err := store.CreateFeeWithAssignment(ctx, fee, "g1"); err != nil {
		t.Fatal(err)
	}
}

func TestAddUser(t *testing.T) {
	store := database.NewMemoryStore()
	c := testCLI(store)

	out, err := run(t, c, "add-user", "--name", "Bursar", "--email", "bursar@example.com", "--password", "secret1")
	if err != nil {
		t.Fatalf("add-user: %v", err)
	}
	if !strings.Contains(out, "Created admin Bursar <bursar@example.com>") {
		t.Fatalf("output = %q", out)
	}

	user, err := store.GetUserByEmail(context.Background(), "BURSAR@example.com")
	if err != nil || user.Role != models.RoleAdmin || user.Password == "secret1" {
		t.Fatalf("stored user = %+v, %v", user, err)
	}

	if _, err := run(t, c, "add-user", "--name", "B", "--email", "bursar@example.com", "--password", "secret1"); err == nil {
		t.Fatal("expected duplicate email error")
	}
	if _, err := run(t, c, "add-user", "--name", "B", "--email", "x@example.com", "--password", "secret1", "--role", "teacher"); err == nil {
		t.Fatal("expected role error")
	}
	if _, err := run(t, c, "add-user", "--name", "B"); err == nil {
		t.Fatal("expected missing flag error")
	}
}

func TestOverdue(t *testing.T) {
	store := database.NewMemoryStore()
	c := testCLI(store)

	out, err := run(t, c, "overdue")
	if err != nil || !strings.Contains(out, "No overdue parents") {
		t.Fatalf("empty overdue = %q, %v", out, err)
	}

	seedOverdue(t, store)

	out, err = run(t, c, "overdue")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Grace") || !strings.Contains(out, "120000.00") || strings.Contains(out, "Hassan") {
		t.Fatalf("table = %q", out)
	}

	out, err = run(t, c, "overdue", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var rows []models.GuardianBalance
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("json = %q: %v", out, err)
	}
	if len(rows) != 1 || rows[0].DaysOverdue != 10 {
		t.Fatalf("rows = %+v", rows)
	}
}

func TestOverdueRemind(t *testing.T) {
	store := database.NewMemoryStore()
	seedOverdue(t, store)

	out, err := run(t, testCLI(store), "overdue", "--remind")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Reminder sent to 1 parents") {
		t.Fatalf("output = %q", out)
	}

	views, err := store.NotificationsFor(context.Background(), "g1")
	if err != nil || len(views) != 1 || views[0].Subject != "Overdue fee reminder" {
		t.Fatalf("g1 notifications = %+v, %v", views, err)
	}
}

func TestMigrateNeedsPostgres(t *testing.T) {
	_, err := run(t, testCLI(database.NewMemoryStore()), "migrate")
	if err == nil || !strings.Contains(err.Error(), "postgres") {
		t.Fatalf("err = %v", err)
	}
}
