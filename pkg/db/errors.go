package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// uniqueViolationCode is SQLSTATE 23505.
const uniqueViolationCode = "23505"

// IsUniqueViolation reports whether err is a unique constraint violation.
// When a constraint name is given, the violation must reference that
// constraint. Postgres drivers are checked by SQLSTATE; sqlite surfaces no
// typed error through GORM, so its message is matched as a fallback.
func IsUniqueViolation(err error, constraintName ...string) bool {
	if err == nil {
		return false
	}

	name := ""
	if len(constraintName) > 0 {
		name = constraintName[0]
	}

	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		if pgxErr.Code != uniqueViolationCode {
			return false
		}
		return name == "" || pgxErr.ConstraintName == name
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if string(pqErr.Code) != uniqueViolationCode {
			return false
		}
		return name == "" || pqErr.Constraint == name
	}

	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") {
		return false
	}
	return name == "" || strings.Contains(msg, name)
}
