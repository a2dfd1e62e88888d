package db

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// RunInTx starts a transaction and runs fn. COMMIT when fn returns nil,
// ROLLBACK otherwise. The loan engine relies on this for its
// all-or-nothing writes across elementos/prestamos/historial.
func RunInTx(ctx context.Context, conn *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) error {
	tx, err := conn.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	if err := fn(ctx, tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// ReadOnly runs fn in a read-only transaction. Stale reads are fine for the
// callers that use this (dashboards, the integrity audit).
func ReadOnly(ctx context.Context, conn *sql.DB, fn func(ctx context.Context, tx DBTX) error) error {
	return RunInTx(ctx, conn, &sql.TxOptions{ReadOnly: true}, fn)
}
