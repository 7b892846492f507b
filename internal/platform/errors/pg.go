package errors

import (
	"context"
	stderrs "errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATEs the grid queries can raise
const (
	pgErrNumericOutOfRange      = "22003"
	pgErrInvalidDatetime        = "22007"
	pgErrDatetimeOverflow       = "22008"
	pgErrInvalidTextRep         = "22P02"
	pgErrNotNullViolation       = "23502"
	pgErrSerializationFailure   = "40001"
	pgErrDeadlockDetected       = "40P01"
	pgErrUndefinedTable         = "42P01"
	pgErrUndefinedColumn        = "42703"
	pgErrTooManyConnections     = "53300"
	pgErrQueryCanceled          = "57014"
	pgErrAdminShutdown          = "57P01"
	pgErrCannotConnectNow       = "57P03"
	pgErrReadOnlySQLTransaction = "25006"
	pgErrInsufficientPrivilege  = "42501"
	pgErrOutOfMemory            = "53200"
)

// ExtractPgError returns the server error at the root of err
func ExtractPgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if stderrs.As(Root(err), &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// DBErrorCode classifies a Postgres error; !ok when err carries no PgError
func DBErrorCode(err error) (ErrorCode, bool) {
	var pgErr *pgconn.PgError
	if !stderrs.As(err, &pgErr) {
		return ErrorCodeUnknown, false
	}
	switch pgErr.Code {
	case pgErrNumericOutOfRange, pgErrInvalidDatetime, pgErrDatetimeOverflow, pgErrInvalidTextRep:
		return ErrorCodeInvalidArgument, true
	case pgErrNotNullViolation:
		return ErrorCodeValidation, true
	case pgErrUndefinedTable, pgErrUndefinedColumn, pgErrInsufficientPrivilege:
		// grid tables missing or drifted
		return ErrorCodeUpstream, true
	case pgErrTooManyConnections, pgErrQueryCanceled, pgErrAdminShutdown, pgErrCannotConnectNow,
		pgErrReadOnlySQLTransaction, pgErrOutOfMemory:
		return ErrorCodeUnavailable, true
	}
	return ErrorCodeDB, true
}

// FromPostgresf codes a pgx error under a formatted message; nil stays nil
func FromPostgresf(err error, format string, a ...any) error {
	if err == nil {
		return nil
	}
	msg := fmt.Sprintf(format, a...)
	if stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return Wrap(err, ErrorCodeUnavailable, msg)
	}
	if code, ok := DBErrorCode(err); ok {
		return Wrap(err, code, msg)
	}
	return Wrap(err, ErrorCodeDB, msg)
}

// IsRetryable reports whether a Postgres error is transient contention
func IsRetryable(err error) bool {
	if err == nil || stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return false
	}
	pgErr, ok := ExtractPgError(err)
	if !ok {
		return false
	}
	switch pgErr.Code {
	case pgErrSerializationFailure, pgErrDeadlockDetected, pgErrTooManyConnections, pgErrCannotConnectNow:
		return true
	}
	return false
}
