package integrity

import (
	"context"
	"database/sql"

	"ortobanco-backend/internal/lending/history"
	"ortobanco-backend/internal/lending/items"
	"ortobanco-backend/internal/lending/loans"
	"ortobanco-backend/internal/platform/db"
)

type itemRef struct {
	ID   int64
	Code string
	Name string
}

type loanRef struct {
	ULID      string
	ItemID    int64
	ItemCode  string
	ItemState string
}

type Store struct{ db *sql.DB }

func NewStore(conn *sql.DB) *Store { return &Store{db: conn} }

// Snapshot reads both sides the audit compares under one read-only
// transaction, so the item table and the ledger are seen at the same
// instant. A snapshot that goes stale before reconcile runs is fine; each
// fix re-verifies under lock anyway.
func (s *Store) Snapshot(ctx context.Context) ([]itemRef, []loanRef, error) {
	var loaned []itemRef
	var active []loanRef
	err := db.ReadOnly(ctx, s.db, func(ctx context.Context, tx db.DBTX) error {
		var err error
		if loaned, err = loanedItems(ctx, tx); err != nil {
			return err
		}
		active, err = activeLoans(ctx, tx)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return loaned, active, nil
}

func loanedItems(ctx context.Context, tx db.DBTX) ([]itemRef, error) {
	const q = `SELECT id, codigo, nombre FROM elementos WHERE estado = ? AND activo = 1`
	rows, err := tx.QueryContext(ctx, q, items.StateLoaned)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []itemRef
	for rows.Next() {
		var r itemRef
		if err := rows.Scan(&r.ID, &r.Code, &r.Name); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func activeLoans(ctx context.Context, tx db.DBTX) ([]loanRef, error) {
	const q = `
	SELECT p.prestamo_ulid, p.elemento_id, e.codigo, e.estado
	FROM prestamos p
	JOIN elementos e ON e.id = p.elemento_id
	WHERE p.estado = ?`
	rows, err := tx.QueryContext(ctx, q, loans.StatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []loanRef
	for rows.Next() {
		var r loanRef
		if err := rows.Scan(&r.ULID, &r.ItemID, &r.ItemCode, &r.ItemState); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// FixOrphan re-verifies the violation under the same row lock the loan
// engine takes, then rewrites estado to disponible. Returns false when the
// violation is gone by the time the lock is held, which is what makes
// reconcile idempotent and safe to run next to live open/close traffic.
func (s *Store) FixOrphan(ctx context.Context, itemID int64, actor string) (bool, error) {
	fixed := false
	err := db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		it, err := items.LockByIDTx(ctx, tx, itemID)
		if err != nil {
			return err
		}
		if it.State != items.StateLoaned {
			return nil
		}

		var n int
		const q = `SELECT COUNT(*) FROM prestamos WHERE elemento_id = ? AND estado = ?`
		if err := tx.QueryRowContext(ctx, q, itemID, loans.StatusActive).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			// a loan was opened between the audit read and this lock
			return nil
		}

		if err := items.SetStateTx(ctx, tx, itemID, items.StateAvailable); err != nil {
			return err
		}
		if err := history.InsertTx(ctx, tx, &history.StateChange{
			ItemID:     itemID,
			PriorState: sql.NullString{String: string(items.StateLoaned), Valid: true},
			NewState:   string(items.StateAvailable),
			Reason:     history.ReasonReconciled,
			Notes:      sql.NullString{String: "marked prestado with no active loan", Valid: true},
			Actor:      sql.NullString{String: actor, Valid: actor != ""},
		}); err != nil {
			return err
		}
		fixed = true
		return nil
	})
	return fixed, err
}

// FixDangling rewrites estado to prestado for an item an active loan says
// is out. The ledger is authoritative, so this is the only legal direction;
// the loan row itself is never touched.
func (s *Store) FixDangling(ctx context.Context, itemID int64, actor string) (bool, error) {
	fixed := false
	err := db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		it, err := items.LockByIDTx(ctx, tx, itemID)
		if err != nil {
			return err
		}
		if it.State == items.StateLoaned {
			return nil
		}

		var n int
		const q = `SELECT COUNT(*) FROM prestamos WHERE elemento_id = ? AND estado = ?`
		if err := tx.QueryRowContext(ctx, q, itemID, loans.StatusActive).Scan(&n); err != nil {
			return err
		}
		if n == 0 {
			// the loan closed between the audit read and this lock
			return nil
		}

		if err := items.SetStateTx(ctx, tx, itemID, items.StateLoaned); err != nil {
			return err
		}
		if err := history.InsertTx(ctx, tx, &history.StateChange{
			ItemID:     itemID,
			PriorState: sql.NullString{String: string(it.State), Valid: true},
			NewState:   string(items.StateLoaned),
			Reason:     history.ReasonReconciled,
			Notes:      sql.NullString{String: "active loan exists but item was not marked prestado", Valid: true},
			Actor:      sql.NullString{String: actor, Valid: actor != ""},
		}); err != nil {
			return err
		}
		fixed = true
		return nil
	})
	return fixed, err
}
