package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const uniqueViolationCode = "23505"

// IsUniqueViolation reports whether err is a Postgres unique violation,
// optionally scoped to one constraint. Driver errors are matched by SQLSTATE;
// anything else falls back to the message text, which keeps sqlite-backed
// tests working.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}

	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) && pgxErr.Code == uniqueViolationCode {
		return constraintName == "" || pgxErr.ConstraintName == constraintName
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolationCode {
		return constraintName == "" || pqErr.Constraint == constraintName
	}

	// Drivers outside pgx and pq (sqlite in tests) only expose message
	// text, and wrappers can hide the cause from the top-level message,
	// so every link in the chain is checked.
	for e := err; e != nil; e = errors.Unwrap(e) {
		msg := e.Error()
		if constraintName != "" {
			if strings.Contains(msg, constraintName) {
				return true
			}
			continue
		}
		if strings.Contains(msg, "duplicate key value") ||
			strings.Contains(msg, "UNIQUE constraint failed") {
			return true
		}
	}
	return false
}
