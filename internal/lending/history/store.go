package history

import (
	"context"
	"database/sql"

	"ortobanco-backend/internal/platform/db"
)

type Store struct{ db *sql.DB }

func NewStore(conn *sql.DB) *Store { return &Store{db: conn} }

// InsertTx appends one state change inside the caller's transaction. The
// enforcer and the reconciler call this as part of their atomic writes.
func InsertTx(ctx context.Context, tx db.DBTX, rec *StateChange) error {
	const q = `
	INSERT INTO historial_estados
	(elemento_id, estado_anterior, estado_nuevo, razon, observaciones, responsable, fecha_cambio)
	VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`

	res, err := tx.ExecContext(ctx, q,
		rec.ItemID, rec.PriorState, rec.NewState, rec.Reason, rec.Notes, rec.Actor,
	)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	rec.ID = id
	return nil
}

// ListByItemCode returns the trail for one item, newest first.
func (s *Store) ListByItemCode(ctx context.Context, code string, limit, offset int) ([]StateChange, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	const q = `
	SELECT h.id, h.elemento_id, h.estado_anterior, h.estado_nuevo, h.razon, h.observaciones, h.responsable, h.fecha_cambio
	FROM historial_estados h
	JOIN elementos e ON e.id = h.elemento_id
	WHERE e.codigo = ?
	ORDER BY h.fecha_cambio DESC, h.id DESC
	LIMIT ? OFFSET ?`

	rows, err := s.db.QueryContext(ctx, q, code, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StateChange
	for rows.Next() {
		var r StateChange
		if err := rows.Scan(
			&r.ID, &r.ItemID, &r.PriorState, &r.NewState, &r.Reason, &r.Notes, &r.Actor, &r.ChangedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
