package mysql

import (
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/qj0r9j0vc2/button-bridge/internal/domain/repository"
)

// nullString converts a string to sql.NullString.
// Returns NULL if the string is empty.
func nullString(s string) sql.NullString {
	return sql.NullString{
		String: s,
		Valid:  s != "",
	}
}

// stringValue converts sql.NullString to string.
// Returns empty string if the value is NULL.
func stringValue(ns sql.NullString) string {
	if !ns.Valid {
		return ""
	}
	return ns.String
}

// timeToTimestamp normalizes a time for a DATETIME column.
func timeToTimestamp(t time.Time) time.Time {
	return t.UTC()
}

// mapError maps MySQL errors to domain repository errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 { // ER_DUP_ENTRY
		return repository.ErrAlreadyExists
	}

	return err
}
