package database

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/pkg/errors"
)

type migration struct {
	name  string
	query string
}

var migrations = []migration{
	{"create users table", `
		CREATE TABLE IF NOT EXISTS users (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			email      TEXT NOT NULL,
			password   TEXT NOT NULL,
			role       TEXT NOT NULL CHECK (role IN ('admin', 'guardian')),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`},
	{"create users email index", `
		CREATE UNIQUE INDEX IF NOT EXISTS users_email_key ON users (LOWER(email))`},
	{"create fees table", `
		CREATE TABLE IF NOT EXISTS fees (
			id          TEXT PRIMARY KEY,
			fee_type    TEXT NOT NULL CHECK (fee_type IN ('monthly', 'term')),
			amount      NUMERIC(12,2) NOT NULL CHECK (amount > 0),
			description TEXT,
			due_date    DATE NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`},
	{"create fee assignments table", `
		CREATE TABLE IF NOT EXISTS fee_assignments (
			guardian_id TEXT NOT NULL REFERENCES users(id),
			fee_id      TEXT NOT NULL REFERENCES fees(id) ON DELETE CASCADE,
			assigned_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (guardian_id, fee_id)
		)`},
	{"create payments table", `
		CREATE TABLE IF NOT EXISTS payments (
			id                    TEXT PRIMARY KEY,
			guardian_id           TEXT NOT NULL REFERENCES users(id),
			fee_id                TEXT NOT NULL REFERENCES fees(id) ON DELETE RESTRICT,
			amount                NUMERIC(12,2) NOT NULL CHECK (amount > 0),
			method                TEXT NOT NULL CHECK (method IN ('credit_card', 'bank_transfer')),
			status                TEXT NOT NULL CHECK (status IN ('pending', 'completed', 'failed')),
			details               JSONB,
			transaction_reference TEXT NOT NULL,
			payment_date          TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`},
	{"create completed payment index", `
		CREATE UNIQUE INDEX IF NOT EXISTS payments_one_completed_per_fee
			ON payments (guardian_id, fee_id) WHERE status = 'completed'`},
	{"create payments date index", `
		CREATE INDEX IF NOT EXISTS payments_payment_date_idx ON payments (payment_date DESC)`},
	{"create notifications table", `
		CREATE TABLE IF NOT EXISTS notifications (
			id        TEXT PRIMARY KEY,
			author_id TEXT NOT NULL REFERENCES users(id),
			subject   TEXT NOT NULL,
			body      TEXT NOT NULL,
			sent_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`},
	{"create notification recipients table", `
		CREATE TABLE IF NOT EXISTS notification_recipients (
			notification_id TEXT NOT NULL REFERENCES notifications(id) ON DELETE CASCADE,
			guardian_id     TEXT NOT NULL REFERENCES users(id),
			is_read         BOOLEAN NOT NULL DEFAULT false,
			read_at         TIMESTAMPTZ,
			PRIMARY KEY (notification_id, guardian_id)
		)`},
	{"migrate legacy parent role", `
		DO $$
		BEGIN
			IF EXISTS (SELECT 1 FROM users WHERE role = 'parent') THEN
				UPDATE users SET role = 'guardian' WHERE role = 'parent';
				RAISE NOTICE 'Renamed parent role to guardian';
			END IF;
		END $$`},
}

// RunMigrations applies the schema. Every step is idempotent so it is safe
// to run on each start and from feesctl migrate.
func RunMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	logger.Info("running database migrations", "steps", len(migrations))

	for _, m := range migrations {
		if _, err := db.ExecContext(ctx, m.query); err != nil {
			logger.Error("migration failed", "step", m.name, "error", err)
			return errors.Wrapf(err, "migration %q", m.name)
		}
		logger.Debug("migration applied", "step", m.name)
	}

	logger.Info("database migrations completed")
	return nil
}
