// Package repokit holds the small seams repos and services share for sql access
package repokit

import (
	"context"

	"facegate/internal/platform/store"
)

type (
	// Queryer runs statements, on the pool or inside a transaction
	Queryer = store.RowQuerier
	// TxRunner is a Queryer that can also open transactions
	TxRunner   = store.TxRunner
	Rows       = store.Rows
	Row        = store.Row
	CommandTag = store.CommandTag
)

// WithTx runs fn in one transaction on tx
func WithTx(ctx context.Context, tx TxRunner, fn func(q Queryer) error) error {
	return tx.Tx(ctx, fn)
}
