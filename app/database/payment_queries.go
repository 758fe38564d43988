package database

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"

	"fee-management-system/app/models"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const paymentViewQuery = `
	SELECT p.id, p.guardian_id, p.fee_id, p.amount, p.method, p.status, p.details,
		   p.transaction_reference, p.payment_date,
		   u.name, u.email, f.fee_type, f.description, f.due_date
	FROM payments p
	JOIN users u ON u.id = p.guardian_id
	JOIN fees f ON f.id = p.fee_id`

func scanPaymentView(row rowScanner) (*models.PaymentView, error) {
	v := &models.PaymentView{}
	var method, status, kind string
	var details models.PaymentDetails
	var rawDetails []byte
	err := row.Scan(
		&v.ID, &v.GuardianID, &v.FeeID, &v.Amount, &method, &status, &rawDetails,
		&v.TransactionReference, &v.PaymentDate,
		&v.GuardianName, &v.GuardianEmail, &kind, &v.FeeDescription, &v.DueDate,
	)
	if err != nil {
		return nil, err
	}
	if rawDetails != nil {
		if err := details.Scan(rawDetails); err != nil {
			return nil, err
		}
		v.Details = &details
	}
	v.Method = models.PaymentMethod(method)
	v.Status = models.PaymentStatus(status)
	v.FeeKind = models.FeeKind(kind)
	return v, nil
}

func (s *Store) queryPaymentViews(ctx context.Context, query string, args ...any) ([]models.PaymentView, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query payments")
	}
	defer rows.Close()

	payments := []models.PaymentView{}
	for rows.Next() {
		v, err := scanPaymentView(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan payment")
		}
		payments = append(payments, *v)
	}
	return payments, errors.Wrap(rows.Err(), "iterate payments")
}

// HasCompletedPayment reports whether the guardian already settled the fee.
func (s *Store) HasCompletedPayment(ctx context.Context, guardianID, feeID string) (bool, error) {
	var paid bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM payments
			WHERE guardian_id = $1 AND fee_id = $2 AND status = 'completed'
		)`, guardianID, feeID).Scan(&paid)
	return paid, errors.Wrap(err, "check completed payment")
}

// InsertCompletedPayment records a settled payment. The already-paid check
// is repeated inside the transaction and the partial unique index on
// (guardian_id, fee_id) catches any writer that slips past it.
func (s *Store) InsertCompletedPayment(ctx context.Context, payment *models.Payment) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var paid bool
		err := tx.QueryRowContext(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM payments
				WHERE guardian_id = $1 AND fee_id = $2 AND status = 'completed'
			)`, payment.GuardianID, payment.FeeID).Scan(&paid)
		if err != nil {
			return errors.Wrap(err, "recheck completed payment")
		}
		if paid {
			return ErrAlreadyPaid
		}

		var details any
		if payment.Details != nil {
			details = *payment.Details
		}

		query := `INSERT INTO payments (id, guardian_id, fee_id, amount, method, status, details, transaction_reference)
				  VALUES ($1, $2, $3, $4, $5, 'completed', $6, $7)
				  RETURNING payment_date`
		err = tx.QueryRowContext(ctx, query,
			payment.ID, payment.GuardianID, payment.FeeID, payment.Amount,
			string(payment.Method), details, payment.TransactionReference,
		).Scan(&payment.PaymentDate)
		switch {
		case isUniqueViolation(err):
			return ErrAlreadyPaid
		case isForeignKeyViolation(err):
			return ErrNotFound
		case err != nil:
			return errors.Wrap(err, "insert payment")
		}
		payment.Status = models.PaymentCompleted
		return nil
	})
}

func (s *Store) GetPayment(ctx context.Context, id string) (*models.PaymentView, error) {
	v, err := scanPaymentView(s.db.QueryRowContext(ctx, paymentViewQuery+` WHERE p.id = $1`, id))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return v, errors.Wrap(err, "get payment")
}

// PaymentsForGuardian returns one guardian's payment history, newest first.
func (s *Store) PaymentsForGuardian(ctx context.Context, guardianID string) ([]models.PaymentView, error) {
	return s.queryPaymentViews(ctx, paymentViewQuery+`
		WHERE p.guardian_id = $1
		ORDER BY p.payment_date DESC`, guardianID)
}

func (s *Store) ListAllPayments(ctx context.Context) ([]models.PaymentView, error) {
	return s.queryPaymentViews(ctx, paymentViewQuery+` ORDER BY p.payment_date DESC`)
}

func (s *Store) RecentCompletedPayments(ctx context.Context, limit int) ([]models.PaymentView, error) {
	return s.queryPaymentViews(ctx, paymentViewQuery+`
		WHERE p.status = 'completed'
		ORDER BY p.payment_date DESC
		LIMIT $1`, limit)
}

// CompletedTotals returns the number and sum of completed payments.
func (s *Store) CompletedTotals(ctx context.Context) (int, decimal.Decimal, error) {
	var count int
	var total decimal.Decimal
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(amount), 0)
		FROM payments WHERE status = 'completed'`).Scan(&count, &total)
	return count, total, errors.Wrap(err, "completed totals")
}

// likeEscaper makes search text match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func paymentConditions(filters models.PaymentFilters) (string, []any) {
	var conditions []string
	var args []any
	argIndex := 1

	if filters.Search != "" {
		searchPattern := "%" + likeEscaper.Replace(strings.ToLower(filters.Search)) + "%"
		conditions = append(conditions, fmt.Sprintf(
			`(LOWER(u.name) LIKE $%d ESCAPE '\' OR LOWER(u.email) LIKE $%d ESCAPE '\')`, argIndex, argIndex))
		args = append(args, searchPattern)
		argIndex++
	}

	if filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("p.status = $%d", argIndex))
		args = append(args, string(filters.Status))
		argIndex++
	}

	if !filters.Since.IsZero() {
		conditions = append(conditions, fmt.Sprintf("p.payment_date >= $%d", argIndex))
		args = append(args, filters.Since)
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// paymentPageQueries builds the count and page queries for a filtered
// listing. The page query takes the filter args followed by limit and offset.
func paymentPageQueries(filters models.PaymentFilters, limit, offset int) (countQuery, pageQuery string, countArgs, pageArgs []any) {
	where, args := paymentConditions(filters)

	countQuery = `SELECT COUNT(*) FROM payments p JOIN users u ON u.id = p.guardian_id` + where
	pageQuery = paymentViewQuery + where + fmt.Sprintf(`
		ORDER BY p.payment_date DESC, p.id
		LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)

	pageArgs = append(append([]any{}, args...), limit, offset)
	return countQuery, pageQuery, args, pageArgs
}

// ListPayments returns one page of the filtered listing and the size of the
// whole filtered set.
func (s *Store) ListPayments(ctx context.Context, filters models.PaymentFilters, limit, offset int) ([]models.PaymentView, int, error) {
	countQuery, pageQuery, countArgs, pageArgs := paymentPageQueries(filters, limit, offset)

	var total int
	if err := s.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "count payments")
	}

	payments, err := s.queryPaymentViews(ctx, pageQuery, pageArgs...)
	if err != nil {
		return nil, 0, err
	}
	return payments, total, nil
}
