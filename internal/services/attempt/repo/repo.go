// Package repo provides postgres access for the attempt outcome journal
package repo

import (
	"context"
	"time"

	"facegate/internal/modkit/repokit"
	"facegate/internal/platform/store"
	str "facegate/internal/platform/strings"
)

// Repo defines the repository contract for attempt outcomes
type Repo interface {
	EnsureSchema(ctx context.Context) error
	Insert(ctx context.Context, r Row) error
	Recent(ctx context.Context, limit int) ([]Row, error)
}

// Row is one attempt_outcomes row
type Row struct {
	AttemptID  string
	Mode       string
	State      string
	Failure    string
	Message    string
	Identity   string
	Actions    int
	StartedAt  time.Time
	FinishedAt time.Time
}

type (
	// PG implements the Repo interface using Postgres
	PG struct{}

	// queries holds the database query methods
	queries struct{ q repokit.Queryer }
)

// NewPG creates a new Postgres repository binder
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind binds a Postgres queryer to the Repo implementation
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

var schemaSQL = []string{`
create table if not exists attempt_outcomes (
	attempt_id  uuid primary key,
	mode        text not null check (mode in ('register', 'verify')),
	state       text not null,
	failure     text,
	message     text,
	identity    text,
	actions     int not null default 0,
	started_at  timestamptz not null,
	finished_at timestamptz not null
)`,
	`create index if not exists attempt_outcomes_finished_at_idx on attempt_outcomes (finished_at desc)`,
}

func (r *queries) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaSQL {
		if _, err := store.Exec(ctx, r.q, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (r *queries) Insert(ctx context.Context, row Row) error {
	const sql = `
insert into attempt_outcomes (attempt_id, mode, state, failure, message, identity, actions, started_at, finished_at)
values ($1, $2, $3, $4, $5, $6, $7, $8, $9)
on conflict (attempt_id) do nothing
`
	_, err := store.Exec(ctx, r.q, sql,
		row.AttemptID,
		row.Mode,
		row.State,
		str.SQLNull(row.Failure),
		str.SQLNull(row.Message),
		str.SQLNull(row.Identity),
		row.Actions,
		row.StartedAt.UTC(),
		row.FinishedAt.UTC(),
	)
	return err
}

func (r *queries) Recent(ctx context.Context, limit int) ([]Row, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	const sql = `
select attempt_id::text, mode, state, coalesce(failure, ''), coalesce(message, ''), coalesce(identity, ''),
actions, started_at, finished_at
from attempt_outcomes
order by finished_at desc
limit $1
`
	return store.Many(ctx, r.q, scanRow, sql, limit)
}

func scanRow(r store.Row) (Row, error) {
	var out Row
	err := r.Scan(
		&out.AttemptID,
		&out.Mode,
		&out.State,
		&out.Failure,
		&out.Message,
		&out.Identity,
		&out.Actions,
		&out.StartedAt,
		&out.FinishedAt,
	)
	return out, err
}
