package database

import (
	"context"
	"database/sql"
	stderrors "errors"

	"fee-management-system/app/models"

	"github.com/pkg/errors"
)

const feeColumns = `f.id, f.fee_type, f.amount, f.description, f.due_date, f.created_at`

func scanFee(row rowScanner) (*models.Fee, error) {
	fee := &models.Fee{}
	var kind string
	if err := row.Scan(&fee.ID, &kind, &fee.Amount, &fee.Description, &fee.DueDate, &fee.CreatedAt); err != nil {
		return nil, err
	}
	fee.Kind = models.FeeKind(kind)
	return fee, nil
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func insertFee(ctx context.Context, q rowQuerier, fee *models.Fee) error {
	query := `INSERT INTO fees (id, fee_type, amount, description, due_date)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING created_at`

	return q.QueryRowContext(ctx, query,
		fee.ID, string(fee.Kind), fee.Amount, fee.Description, fee.DueDate,
	).Scan(&fee.CreatedAt)
}

func (s *Store) CreateFee(ctx context.Context, fee *models.Fee) error {
	return errors.Wrap(insertFee(ctx, s.db, fee), "insert fee")
}

// UpdateFee overwrites the editable fields of an existing fee.
func (s *Store) UpdateFee(ctx context.Context, fee *models.Fee) error {
	query := `UPDATE fees SET fee_type = $1, amount = $2, description = $3, due_date = $4
			  WHERE id = $5
			  RETURNING created_at`

	err := s.db.QueryRowContext(ctx, query,
		string(fee.Kind), fee.Amount, fee.Description, fee.DueDate, fee.ID,
	).Scan(&fee.CreatedAt)
	if stderrors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return errors.Wrap(err, "update fee")
}

// DeleteFee removes a fee and its assignments. Fees referenced by any
// payment are kept and ErrFeeInUse is returned.
func (s *Store) DeleteFee(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var exists, paid bool
		err := tx.QueryRowContext(ctx, `
			SELECT TRUE, EXISTS (SELECT 1 FROM payments WHERE fee_id = $1)
			FROM fees WHERE id = $1
			FOR UPDATE`, id).Scan(&exists, &paid)
		if stderrors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return errors.Wrap(err, "check fee payments")
		}
		if paid {
			return ErrFeeInUse
		}

		_, err = tx.ExecContext(ctx, `DELETE FROM fees WHERE id = $1`, id)
		if isForeignKeyViolation(err) {
			return ErrFeeInUse
		}
		return errors.Wrap(err, "delete fee")
	})
}

func (s *Store) GetFee(ctx context.Context, id string) (*models.Fee, error) {
	query := `SELECT ` + feeColumns + ` FROM fees f WHERE f.id = $1`

	fee, err := scanFee(s.db.QueryRowContext(ctx, query, id))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return fee, errors.Wrap(err, "get fee")
}

// ListFees returns every fee definition, newest first.
func (s *Store) ListFees(ctx context.Context) ([]models.Fee, error) {
	query := `SELECT ` + feeColumns + ` FROM fees f ORDER BY f.created_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "list fees")
	}
	defer rows.Close()

	fees := []models.Fee{}
	for rows.Next() {
		fee, err := scanFee(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan fee")
		}
		fees = append(fees, *fee)
	}
	return fees, errors.Wrap(rows.Err(), "iterate fees")
}

// AssignFee targets an existing fee at a guardian. created is false when
// the pair was already assigned.
func (s *Store) AssignFee(ctx context.Context, guardianID, feeID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO fee_assignments (guardian_id, fee_id)
		VALUES ($1, $2)
		ON CONFLICT (guardian_id, fee_id) DO NOTHING`, guardianID, feeID)
	if isForeignKeyViolation(err) {
		return false, ErrNotFound
	}
	if err != nil {
		return false, errors.Wrap(err, "insert assignment")
	}
	n, err := res.RowsAffected()
	return n > 0, errors.Wrap(err, "assignment rows affected")
}

// CreateFeeWithAssignment creates a fee and assigns it to one guardian in
// a single transaction.
func (s *Store) CreateFeeWithAssignment(ctx context.Context, fee *models.Fee, guardianID string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := insertFee(ctx, tx, fee); err != nil {
			return errors.Wrap(err, "insert fee")
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO fee_assignments (guardian_id, fee_id) VALUES ($1, $2)`, guardianID, fee.ID)
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		return errors.Wrap(err, "insert assignment")
	})
}

// settlementQuery pairs guardians with the fees that apply to them: fees
// assigned to them plus fees with no assignments at all.
const settlementQuery = `
	SELECT u.id, u.name, u.email, ` + feeColumns + `,
		   a.guardian_id IS NOT NULL AS targeted,
		   EXISTS (
			   SELECT 1 FROM payments p
			   WHERE p.guardian_id = u.id AND p.fee_id = f.id AND p.status = 'completed'
		   ) AS paid
	FROM users u
	CROSS JOIN fees f
	LEFT JOIN fee_assignments a ON a.fee_id = f.id AND a.guardian_id = u.id
	WHERE u.role = 'guardian'
	  AND (a.guardian_id IS NOT NULL
		   OR NOT EXISTS (SELECT 1 FROM fee_assignments x WHERE x.fee_id = f.id))`

func (s *Store) querySettlements(ctx context.Context, query string, args ...any) ([]models.Settlement, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query settlements")
	}
	defer rows.Close()

	settlements := []models.Settlement{}
	for rows.Next() {
		var st models.Settlement
		var kind string
		err := rows.Scan(
			&st.GuardianID, &st.GuardianName, &st.GuardianEmail,
			&st.Fee.ID, &kind, &st.Fee.Amount, &st.Fee.Description, &st.Fee.DueDate, &st.Fee.CreatedAt,
			&st.Targeted, &st.Paid,
		)
		if err != nil {
			return nil, errors.Wrap(err, "scan settlement")
		}
		st.Fee.Kind = models.FeeKind(kind)
		settlements = append(settlements, st)
	}
	return settlements, errors.Wrap(rows.Err(), "iterate settlements")
}

// GuardianSettlements returns the obligations of one guardian ordered by
// due date. Unknown or non-guardian ids yield an empty list.
func (s *Store) GuardianSettlements(ctx context.Context, guardianID string) ([]models.Settlement, error) {
	return s.querySettlements(ctx, settlementQuery+`
		AND u.id = $1
		ORDER BY f.due_date, f.created_at`, guardianID)
}

// AllSettlements returns the obligations of every guardian.
func (s *Store) AllSettlements(ctx context.Context) ([]models.Settlement, error) {
	return s.querySettlements(ctx, settlementQuery+`
		ORDER BY f.due_date, u.name, f.id`)
}
