package database

import (
	"context"
	"database/sql"
	stderrors "errors"

	"fee-management-system/app/models"

	"github.com/lib/pq"
	"github.com/pkg/errors"
)

const userColumns = `id, name, email, password, role, created_at`

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	var role string
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.Password, &role, &user.CreatedAt); err != nil {
		return nil, err
	}
	user.Role = models.Role(role)
	return user, nil
}

// CreateUser inserts a new account. The caller sets ID and a hashed password.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (id, name, email, password, role)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING created_at`

	err := s.db.QueryRowContext(ctx, query,
		user.ID, user.Name, user.Email, user.Password, string(user.Role),
	).Scan(&user.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	return errors.Wrap(err, "insert user")
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`

	user, err := scanUser(s.db.QueryRowContext(ctx, query, email))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return user, errors.Wrap(err, "get user by email")
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(s.db.QueryRowContext(ctx, query, id))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return user, errors.Wrap(err, "get user by id")
}

// ListGuardians returns every guardian account, newest first.
func (s *Store) ListGuardians(ctx context.Context) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
			  WHERE role = 'guardian'
			  ORDER BY created_at DESC, name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "list guardians")
	}
	defer rows.Close()

	guardians := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan guardian")
		}
		guardians = append(guardians, *user)
	}
	return guardians, errors.Wrap(rows.Err(), "iterate guardians")
}

// ExistingGuardians reports which of ids belong to guardian accounts.
func (s *Store) ExistingGuardians(ctx context.Context, ids []string) (map[string]bool, error) {
	query := `SELECT id FROM users WHERE role = 'guardian' AND id = ANY($1)`

	rows, err := s.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, errors.Wrap(err, "resolve guardians")
	}
	defer rows.Close()

	found := make(map[string]bool, len(ids))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "scan guardian id")
		}
		found[id] = true
	}
	return found, errors.Wrap(rows.Err(), "iterate guardian ids")
}
