package repository

import (
	"errors"

	"github.com/lib/pq"
)

// ErrDuplicate is returned when an insert trips a unique constraint. It is
// the storage-level race guard behind the services' own uniqueness
// pre-checks.
var ErrDuplicate = errors.New("duplicate row")

const uniqueViolationCode = "23505"

func translateUnique(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolationCode {
		return ErrDuplicate
	}
	return err
}
