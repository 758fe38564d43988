package database

import (
	stderrors "errors"

	"github.com/lib/pq"
)

var (
	ErrNotFound       = stderrors.New("record not found")
	ErrAlreadyPaid    = stderrors.New("payment already made for this fee")
	ErrDuplicateEmail = stderrors.New("email already registered")
	ErrFeeInUse       = stderrors.New("fee has payments")
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

func pqCode(err error) string {
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pqCode(err) == uniqueViolation
}

func isForeignKeyViolation(err error) bool {
	return pqCode(err) == foreignKeyViolation
}
