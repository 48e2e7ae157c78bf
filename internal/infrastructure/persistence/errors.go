package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/kolnet/backend/internal/domain/shared"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// pqUniqueViolation is the SQLSTATE of a unique constraint violation
const pqUniqueViolation = "23505"

// isDuplicateKey reports whether err is a unique constraint violation on any
// of the supported drivers.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqUniqueViolation
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint failed")
}

// translateError maps storage errors onto the domain taxonomy. Domain errors
// pass through untouched.
func translateError(err error, what string) error {
	if err == nil {
		return nil
	}
	var de *shared.DomainError
	if errors.As(err, &de) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.NewNotFoundError("%s not found", what)
	case isDuplicateKey(err):
		return shared.NewConflictError("%s already exists", what)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return shared.NewInternalError("operation on "+what+" aborted", err)
	default:
		return shared.NewInternalError("storage failure on "+what, err)
	}
}
