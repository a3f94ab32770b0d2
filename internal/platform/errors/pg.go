package errors

import (
	"context"
	stderrs "errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE classes the journal can hit
var sqlStates = map[string]ErrorCode{
	"23505": ErrorCodeDuplicateKey,
	"23503": ErrorCodeInvalidArgument, // foreign key
	"23502": ErrorCodeValidation,      // not null
	"23514": ErrorCodeValidation,      // check
	"22001": ErrorCodeInvalidArgument, // value too long
	"22P02": ErrorCodeInvalidArgument,
	"25006": ErrorCodeUnavailable, // read only transaction
	"57P03": ErrorCodeUnavailable, // server starting up
}

var contention = map[string]bool{
	"40001": true, // serialization failure
	"40P01": true, // deadlock
	"55P03": true, // lock not available
}

// pgx surfaces some contention only as text on commit
var contentionText = []string{
	"commit unexpectedly resulted in rollback",
	"deadlock detected",
	"could not serialize access",
	"canceling statement due to lock timeout",
	"canceling statement due to statement timeout",
	"could not obtain lock on row",
	"terminating connection due to administrator command",
}

// DBErrorCode classifies a *pgconn.PgError anywhere in the chain.
// ok is false when err carries no PgError
func DBErrorCode(err error) (code ErrorCode, ok bool) {
	var pgErr *pgconn.PgError
	if !stderrs.As(err, &pgErr) {
		return ErrorCodeUnknown, false
	}
	if c, found := sqlStates[pgErr.Code]; found {
		return c, true
	}
	return ErrorCodeDB, true
}

// FromPostgres wraps err with its classified code. nil stays nil
func FromPostgres(err error, msg string) error {
	if err == nil {
		return nil
	}
	code, ok := DBErrorCode(err)
	if !ok {
		code = ErrorCodeDB
	}
	return Wrap(err, code, msg)
}

// FromPostgresf is FromPostgres with a formatted message
func FromPostgresf(err error, format string, a ...any) error {
	return FromPostgres(err, fmt.Sprintf(format, a...))
}

// IsRetryable reports database contention worth one more attempt.
// Context cancellation is never retryable
func IsRetryable(err error) bool {
	if err == nil || stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return false
	}
	root := Root(err)
	var pgErr *pgconn.PgError
	if stderrs.As(root, &pgErr) {
		return contention[pgErr.Code]
	}
	s := strings.ToLower(root.Error())
	for _, t := range contentionText {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
