package errors

import (
	"context"
	stderrs "errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func sqlstate(code string) error { return &pgconn.PgError{Code: code, TableName: "attempt_outcomes"} }

func TestDBErrorCode(t *testing.T) {
	cases := map[string]ErrorCode{
		"23505": ErrorCodeDuplicateKey,
		"23503": ErrorCodeInvalidArgument,
		"23502": ErrorCodeValidation,
		"22001": ErrorCodeInvalidArgument,
		"25006": ErrorCodeUnavailable,
		"40001": ErrorCodeDB,
		"42P01": ErrorCodeDB, // undefined table
	}
	for state, want := range cases {
		got, ok := DBErrorCode(fmt.Errorf("insert: %w", sqlstate(state)))
		if !ok || got != want {
			t.Errorf("%s: got %v ok=%v want %v", state, got, ok, want)
		}
	}
	if _, ok := DBErrorCode(stderrs.New("no rows")); ok {
		t.Fatal("plain error classified as pg")
	}
}

func TestFromPostgres(t *testing.T) {
	if FromPostgres(nil, "x") != nil || FromPostgresf(nil, "x %s", "y") != nil {
		t.Fatal("nil should stay nil")
	}
	err := FromPostgresf(sqlstate("23505"), "journal record %s", "a-1")
	if !IsCode(err, ErrorCodeDuplicateKey) {
		t.Fatalf("code %v", CodeOf(err))
	}
	if e, _ := As(err); e.Message() != "journal record a-1" {
		t.Fatalf("message %q", e.Message())
	}
	if !IsCode(FromPostgres(stderrs.New("conn closed"), "journal"), ErrorCodeDB) {
		t.Fatal("non pg errors map to db")
	}
}

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{sqlstate("40001"), true},
		{FromPostgres(sqlstate("40P01"), "journal"), true},
		{sqlstate("55P03"), true},
		{sqlstate("23505"), false},
		{stderrs.New("ERROR: commit unexpectedly resulted in rollback"), true},
		{stderrs.New("no rows in result set"), false},
		{context.Canceled, false},
		{fmt.Errorf("deadlock detected: %w", context.DeadlineExceeded), false},
	}
	for i, c := range cases {
		if got := IsRetryable(c.err); got != c.want {
			t.Errorf("case %d (%v): got %v", i, c.err, got)
		}
	}
}
