package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// TxRunner executes a function inside one database transaction. The
// function's error aborts the transaction with a rollback; otherwise the
// transaction is committed. Begin and commit failures are wrapped so
// callers can report them as transient storage failures: nothing partial
// is ever persisted, so the whole call is safe to retry.
type TxRunner struct {
	db *sql.DB
}

// NewTxRunner returns a TxRunner bound to the given database.
func NewTxRunner(db *sql.DB) *TxRunner { return &TxRunner{db: db} }

// Run opens a transaction, invokes fn and commits if fn returned nil.
func (r *TxRunner) Run(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	return nil
}
