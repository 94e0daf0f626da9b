package repository

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// mysqlErrDupEntry is ER_DUP_ENTRY.
const mysqlErrDupEntry = 1062

// ErrDuplicateKey reports a unique-constraint violation on consent_session_id.
var ErrDuplicateKey = errors.New("duplicate key")

// StorageError wraps any datastore failure that is not a duplicate key:
// connectivity loss, timeouts, pool exhaustion, rejected SQL.
type StorageError struct {
	Op  string
	Err error
}

// Error renders the failure without the vendor error number.
func (e *StorageError) Error() string {
	var mysqlErr *mysql.MySQLError
	if errors.As(e.Err, &mysqlErr) {
		return e.Op + ": " + mysqlErr.Message
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// classifyError maps a driver or GORM error onto ErrDuplicateKey or *StorageError.
func classifyError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%s: %w", op, ErrDuplicateKey)
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrDupEntry {
		return fmt.Errorf("%s: %w", op, ErrDuplicateKey)
	}
	return &StorageError{Op: op, Err: err}
}
