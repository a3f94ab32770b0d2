package store

import (
	"context"
	"errors"
	"testing"
)

type fakeTag int64

func (t fakeTag) String() string      { return "INSERT 0 1" }
func (t fakeTag) RowsAffected() int64 { return int64(t) }

type fakeRows struct {
	data [][]any
	idx  int
	err  error

	closed bool
}

func (r *fakeRows) Next() bool {
	if r.err != nil {
		return false
	}
	r.idx++
	return r.idx < len(r.data)
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.data[r.idx]
	if len(dest) != len(row) {
		return errors.New("dest len mismatch")
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = row[i].(string)
		case *int:
			*p = row[i].(int)
		default:
			return errors.New("unsupported dest")
		}
	}
	return nil
}

func (r *fakeRows) Err() error { return r.err }
func (r *fakeRows) Close()     { r.closed = true }

type fakeQuerier struct {
	sql  string
	args []any
	rows *fakeRows
	err  error
}

func (f *fakeQuerier) Exec(_ context.Context, sql string, args ...any) (CommandTag, error) {
	f.sql, f.args = sql, args
	return fakeTag(1), f.err
}

func (f *fakeQuerier) Query(_ context.Context, sql string, args ...any) (Rows, error) {
	f.sql, f.args = sql, args
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

func (f *fakeQuerier) QueryRow(context.Context, string, ...any) Row { return nil }

type outcome struct {
	id      string
	actions int
}

func scanOutcome(r Row) (outcome, error) {
	var o outcome
	err := r.Scan(&o.id, &o.actions)
	return o, err
}

func TestExec_PassesThrough(t *testing.T) {
	q := &fakeQuerier{}
	tag, err := Exec(context.Background(), q, "delete from attempt_outcomes where attempt_id = $1", "a1")
	if err != nil || tag.RowsAffected() != 1 {
		t.Fatalf("tag=%v err=%v", tag, err)
	}
	if q.sql == "" || len(q.args) != 1 || q.args[0] != "a1" {
		t.Fatalf("sql %q args %v", q.sql, q.args)
	}
}

func TestMany_ScansAllRows(t *testing.T) {
	rows := &fakeRows{idx: -1, data: [][]any{{"a1", 3}, {"a2", 0}}}
	q := &fakeQuerier{rows: rows}

	got, err := Many(context.Background(), q, scanOutcome, "select attempt_id, actions from attempt_outcomes limit $1", 2)
	if err != nil {
		t.Fatalf("Many: %v", err)
	}
	if len(got) != 2 || got[0] != (outcome{"a1", 3}) || got[1] != (outcome{"a2", 0}) {
		t.Fatalf("rows %+v", got)
	}
	if !rows.closed {
		t.Fatalf("rows not closed")
	}
}

func TestMany_Errors(t *testing.T) {
	boom := errors.New("boom")

	if _, err := Many(context.Background(), &fakeQuerier{err: boom}, scanOutcome, "select 1"); !errors.Is(err, boom) {
		t.Fatalf("query error: %v", err)
	}

	rows := &fakeRows{idx: -1, data: [][]any{{"a1"}}}
	if _, err := Many(context.Background(), &fakeQuerier{rows: rows}, scanOutcome, "select 1"); err == nil {
		t.Fatalf("scan error should surface")
	}

	rows = &fakeRows{idx: -1, err: boom}
	got, err := Many(context.Background(), &fakeQuerier{rows: rows}, scanOutcome, "select 1")
	if !errors.Is(err, boom) || got != nil {
		t.Fatalf("iteration error: %v %v", got, err)
	}
}
