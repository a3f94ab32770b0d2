package service

import (
	"context"
	"time"

	"facegate/internal/modkit/repokit"
	perr "facegate/internal/platform/errors"
	"facegate/internal/services/attempt/domain"
	"facegate/internal/services/attempt/repo"
)

const journalStatementTimeout = 2 * time.Second

// Journal records finished attempts in Postgres
type Journal struct {
	db     repokit.TxRunner
	binder repokit.Binder[repo.Repo]
}

// NewJournal binds the outcome repo to db
func NewJournal(db repokit.TxRunner, binder repokit.Binder[repo.Repo]) *Journal {
	if db == nil {
		panic("service.Journal requires a non nil TxRunner")
	}
	if binder == nil {
		panic("service.Journal requires a non nil Repo binder")
	}
	return &Journal{db: db, binder: binder}
}

// EnsureSchema creates the outcome table when missing
func (j *Journal) EnsureSchema(ctx context.Context) error {
	return perr.FromPostgres(j.binder.Bind(j.db).EnsureSchema(ctx), "journal schema")
}

// Record inserts one outcome. Writes run in a short transaction with a statement
// timeout and are retried once on contention
func (j *Journal) Record(ctx context.Context, rec domain.OutcomeRecord) error {
	err := j.insert(ctx, rec)
	if perr.IsRetryable(err) {
		err = j.insert(ctx, rec)
	}
	return perr.FromPostgresf(err, "journal record %s", rec.AttemptID)
}

func (j *Journal) insert(ctx context.Context, rec domain.OutcomeRecord) error {
	tx := repokit.WithBeginHooks(j.db, statementTimeout(journalStatementTimeout))
	return repokit.WithTx(ctx, tx, func(q repokit.Queryer) error {
		return j.binder.Bind(q).Insert(ctx, repo.Row{
			AttemptID:  rec.AttemptID,
			Mode:       string(rec.Mode),
			State:      rec.State,
			Failure:    rec.Failure,
			Message:    rec.Message,
			Identity:   rec.Identity,
			Actions:    rec.Actions,
			StartedAt:  rec.StartedAt,
			FinishedAt: rec.FinishedAt,
		})
	})
}

// Recent lists the newest outcomes first
func (j *Journal) Recent(ctx context.Context, limit int) ([]domain.OutcomeRecord, error) {
	rows, err := j.binder.Bind(j.db).Recent(ctx, limit)
	if err != nil {
		return nil, perr.FromPostgres(err, "journal recent")
	}
	out := make([]domain.OutcomeRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.OutcomeRecord{
			AttemptID:  r.AttemptID,
			Mode:       domain.Mode(r.Mode),
			State:      r.State,
			Failure:    r.Failure,
			Message:    r.Message,
			Identity:   r.Identity,
			Actions:    r.Actions,
			StartedAt:  r.StartedAt,
			FinishedAt: r.FinishedAt,
		})
	}
	return out, nil
}

func statementTimeout(d time.Duration) repokit.BeginHook {
	return func(ctx context.Context, q repokit.Queryer) error {
		_, err := q.Exec(ctx, "select set_config('statement_timeout', $1, true)", d.String())
		return err
	}
}
