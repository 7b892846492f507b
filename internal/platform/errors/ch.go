package errors

// ClickHouse-specific helpers for mapping server exceptions to project ErrorCode and retry semantics

import (
	"context"
	stderrs "errors"
	"fmt"
	"net"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// ClickHouse server exception codes we care about
const (
	chErrUnknownIdentifier   int32 = 47
	chErrUnknownTable        int32 = 60
	chErrSyntaxError         int32 = 62
	chErrUnknownDatabase     int32 = 81
	chErrTimeoutExceeded     int32 = 159
	chErrTooManyQueries      int32 = 202
	chErrSocketTimeout       int32 = 209
	chErrNetworkError        int32 = 210
	chErrMemoryLimitExceeded int32 = 241
	chErrAuthFailed          int32 = 516
)

// ExtractCHException returns the server exception if the cause chain carries one
func ExtractCHException(err error) (*clickhouse.Exception, bool) {
	var ex *clickhouse.Exception
	if stderrs.As(err, &ex) {
		return ex, true
	}
	return nil, false
}

// CHErrorCode maps a ClickHouse error to an ErrorCode with an ok flag
// !ok means err wasn't a server exception or a network failure
func CHErrorCode(err error) (ErrorCode, bool) {
	if ex, ok := ExtractCHException(err); ok {
		switch ex.Code {
		case chErrUnknownIdentifier, chErrUnknownTable, chErrUnknownDatabase, chErrSyntaxError:
			// schema drift between the service and the warehouse
			return ErrorCodeUpstream, true
		case chErrTimeoutExceeded, chErrTooManyQueries, chErrSocketTimeout, chErrNetworkError, chErrMemoryLimitExceeded:
			return ErrorCodeUnavailable, true
		case chErrAuthFailed:
			return ErrorCodeUnavailable, true
		}
		return ErrorCodeDB, true
	}
	if stderrs.Is(err, clickhouse.ErrAcquireConnTimeout) {
		return ErrorCodeUnavailable, true
	}
	var nerr net.Error
	if stderrs.As(err, &nerr) {
		return ErrorCodeUnavailable, true
	}
	return ErrorCodeUnknown, false
}

// FromClickHouse wraps a ClickHouse error with a mapped ErrorCode and message
// If err is nil, returns nil
func FromClickHouse(err error, msg string) error {
	if err == nil {
		return nil
	}
	if stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return Wrap(err, ErrorCodeUnavailable, msg)
	}
	if code, ok := CHErrorCode(err); ok {
		return Wrap(err, code, msg)
	}
	return Wrap(err, ErrorCodeDB, msg)
}

// FromClickHousef is the formatted variant of FromClickHouse
func FromClickHousef(err error, format string, a ...any) error {
	return FromClickHouse(err, fmt.Sprintf(format, a...))
}

// IsRetryableCH reports whether a ClickHouse error is transient
func IsRetryableCH(err error) bool {
	if err == nil || stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return false
	}
	if ex, ok := ExtractCHException(err); ok {
		switch ex.Code {
		case chErrTimeoutExceeded, chErrTooManyQueries, chErrSocketTimeout, chErrNetworkError:
			return true
		}
		return false
	}
	return stderrs.Is(err, clickhouse.ErrAcquireConnTimeout)
}
