package db

import (
	"strings"

	pkgerrors "github.com/angelmondragon/backoffice-backend/pkg/errors"
)

const (
	pgUniqueViolation     = "23505"
	pgSerializationFailed = "40001"
	pgDeadlockDetected    = "40P01"
	pgLockNotAvailable    = "55P03"
)

// IsUniqueViolation reports whether err is a unique constraint violation from
// Postgres or sqlite. When constraintName is provided, the helper also requires
// the constraint name to appear in the error.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	if state := pkgerrors.SQLState(err); state != "" {
		return state == pgUniqueViolation &&
			(constraintName == "" || pkgerrors.Constraint(err) == constraintName)
	}
	msg := err.Error()
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

// IsLockConflict reports whether err means the statement lost a row-lock race
// (serialization failure, deadlock, NOWAIT miss, or sqlite's busy lock).
// The caller may retry the whole transaction.
func IsLockConflict(err error) bool {
	if err == nil {
		return false
	}
	switch pkgerrors.SQLState(err) {
	case pgSerializationFailed, pgDeadlockDetected, pgLockNotAvailable:
		return true
	case "":
		msg := err.Error()
		return strings.Contains(msg, "database is locked") ||
			strings.Contains(msg, "database table is locked")
	}
	return false
}

// StoreError wraps a failed statement: lock races become conflicts the client
// can retry, everything else is a dependency failure.
func StoreError(err error, message string) *pkgerrors.Error {
	if IsLockConflict(err) {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, message)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}
