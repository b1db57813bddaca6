package database

import (
	"errors"

	"github.com/lib/pq"
)

// ErrDuplicate is returned by repositories when an insert hits a unique constraint.
var ErrDuplicate = errors.New("duplicate key")

const uniqueViolation = "23505"

// IsUniqueViolation reports whether err is a postgres unique_violation.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}

// Translate maps driver errors onto the package sentinels and leaves
// everything else untouched.
func Translate(err error) error {
	if IsUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}
