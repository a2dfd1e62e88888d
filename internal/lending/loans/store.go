package loans

import (
	"context"
	"database/sql"
	"errors"

	"ortobanco-backend/internal/lending/history"
	"ortobanco-backend/internal/lending/items"
	"ortobanco-backend/internal/platform/apierr"
	"ortobanco-backend/internal/platform/db"
)

const loanColumns = `
	p.id, p.prestamo_ulid, p.elemento_id, p.beneficiario_id, p.hermano_solicitante_id,
	p.fecha_prestamo, p.duracion_dias, p.fecha_devolucion_estimada, p.fecha_devolucion_real,
	p.estado, p.observaciones_prestamo, p.observaciones_devolucion,
	p.autorizado_por, p.entregado_por, p.recibido_por, p.deposito_devolucion_id, p.fecha_creacion`

type Store struct{ db *sql.DB }

func NewStore(conn *sql.DB) *Store { return &Store{db: conn} }

func scanLoanRow(row interface{ Scan(...any) error }, r *LoanRow) error {
	return row.Scan(
		&r.ID, &r.ULID, &r.ItemID, &r.BeneficiaryID, &r.RequesterID,
		&r.LoanDate, &r.DurationDays, &r.ExpectedReturn, &r.ActualReturn,
		&r.Status, &r.OpenNotes, &r.CloseNotes,
		&r.AuthorizedBy, &r.DeliveredBy, &r.ReceivedBy, &r.ReturnDeposit, &r.CreatedAt,
		&r.ItemCode, &r.ItemName,
	)
}

// OpenLoanTx is the open-loan half of the consistency rule: availability
// check, ledger insert, item state flip and history append happen under one
// transaction with the item row locked, so two concurrent opens serialize
// and the loser sees prestado. On any error nothing is committed.
func (s *Store) OpenLoanTx(ctx context.Context, itemCode string, l *Loan) error {
	return db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		it, err := items.LockByCodeTx(ctx, tx, itemCode)
		if err != nil {
			return err
		}
		if !it.Active {
			return apierr.NotFound("item not found: " + itemCode)
		}
		if it.State != items.StateAvailable {
			return apierr.ItemNotAvailable("item " + itemCode + " is " + string(it.State))
		}
		l.ItemID = it.ID

		const q = `
		INSERT INTO prestamos
		(prestamo_ulid, elemento_id, beneficiario_id, hermano_solicitante_id,
		 fecha_prestamo, duracion_dias, fecha_devolucion_estimada,
		 estado, observaciones_prestamo, autorizado_por, entregado_por, fecha_creacion)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`

		res, err := tx.ExecContext(ctx, q,
			l.ULID, l.ItemID, l.BeneficiaryID, l.RequesterID,
			l.LoanDate, l.DurationDays, l.ExpectedReturn,
			StatusActive, l.OpenNotes, l.AuthorizedBy, l.DeliveredBy,
		)
		if err != nil {
			return err
		}
		id, _ := res.LastInsertId()
		l.ID = id
		l.Status = StatusActive

		if err := items.SetStateTx(ctx, tx, it.ID, items.StateLoaned); err != nil {
			return err
		}

		return history.InsertTx(ctx, tx, &history.StateChange{
			ItemID:     it.ID,
			PriorState: sql.NullString{String: string(it.State), Valid: true},
			NewState:   string(items.StateLoaned),
			Reason:     history.ReasonLoanOpened,
			Actor:      sql.NullString{String: l.DeliveredBy, Valid: l.DeliveredBy != ""},
		})
	})
}

// CloseTxParams carries what the service decided (status and mapped final
// state); the store only verifies the loan is still open and writes.
type CloseTxParams struct {
	ULID            string
	ReturnDate      sql.NullTime
	FinalStatus     Status
	FinalItemState  items.State
	CloseNotes      sql.NullString
	ReceivedBy      sql.NullString
	ReturnDepositID sql.NullInt64
	Actor           string
}

// CloseLoanTx is the closing half: loan and item rows are locked, the
// terminal status and the mapped item state land together or not at all.
func (s *Store) CloseLoanTx(ctx context.Context, p CloseTxParams) (*LoanRow, error) {
	var out LoanRow
	err := db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		const lockQ = `
		SELECT` + loanColumns + `, e.codigo, e.nombre
		FROM prestamos p
		JOIN elementos e ON e.id = p.elemento_id
		WHERE p.prestamo_ulid = ?
		FOR UPDATE`
		if err := scanLoanRow(tx.QueryRowContext(ctx, lockQ, p.ULID), &out); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apierr.NotFound("loan not found: " + p.ULID)
			}
			return err
		}
		if out.Status != StatusActive {
			return apierr.AlreadyClosed("loan is already " + string(out.Status))
		}

		// lock the item too; reconcile and decommission take the same lock
		it, err := items.LockByIDTx(ctx, tx, out.ItemID)
		if err != nil {
			return err
		}

		const updQ = `
		UPDATE prestamos
		SET estado = ?, fecha_devolucion_real = ?, observaciones_devolucion = ?,
		    recibido_por = ?, deposito_devolucion_id = ?
		WHERE id = ?`
		res, err := tx.ExecContext(ctx, updQ,
			p.FinalStatus, p.ReturnDate, p.CloseNotes, p.ReceivedBy, p.ReturnDepositID, out.ID,
		)
		if err != nil {
			return err
		}
		if aff, _ := res.RowsAffected(); aff != 1 {
			return apierr.Internal("failed to close loan")
		}

		if err := items.SetStateTx(ctx, tx, it.ID, p.FinalItemState); err != nil {
			return err
		}
		if p.ReturnDepositID.Valid {
			if err := items.SetDepositTx(ctx, tx, it.ID, p.ReturnDepositID.Int64); err != nil {
				return err
			}
		}

		if err := history.InsertTx(ctx, tx, &history.StateChange{
			ItemID:     it.ID,
			PriorState: sql.NullString{String: string(it.State), Valid: true},
			NewState:   string(p.FinalItemState),
			Reason:     history.ReasonLoanClosed,
			Notes:      p.CloseNotes,
			Actor:      sql.NullString{String: p.Actor, Valid: p.Actor != ""},
		}); err != nil {
			return err
		}

		out.Status = p.FinalStatus
		out.ActualReturn = p.ReturnDate
		out.CloseNotes = p.CloseNotes
		out.ReceivedBy = p.ReceivedBy
		out.ReturnDeposit = p.ReturnDepositID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) GetByULID(ctx context.Context, ulid string) (*LoanRow, error) {
	const q = `
	SELECT` + loanColumns + `, e.codigo, e.nombre
	FROM prestamos p
	JOIN elementos e ON e.id = p.elemento_id
	WHERE p.prestamo_ulid = ?`
	var r LoanRow
	if err := scanLoanRow(s.db.QueryRowContext(ctx, q, ulid), &r); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apierr.NotFound("loan not found: " + ulid)
		}
		return nil, err
	}
	return &r, nil
}

// ListActive returns every open ledger row. This is the read the dashboard,
// the alert report and the integrity audit are built on.
func (s *Store) ListActive(ctx context.Context) ([]LoanRow, error) {
	const q = `
	SELECT` + loanColumns + `, e.codigo, e.nombre
	FROM prestamos p
	JOIN elementos e ON e.id = p.elemento_id
	WHERE p.estado = ?
	ORDER BY p.fecha_devolucion_estimada ASC`
	return s.queryRows(ctx, q, StatusActive)
}

// ListByItemCode returns the full loan history of one item, newest first.
func (s *Store) ListByItemCode(ctx context.Context, code string) ([]LoanRow, error) {
	const q = `
	SELECT` + loanColumns + `, e.codigo, e.nombre
	FROM prestamos p
	JOIN elementos e ON e.id = p.elemento_id
	WHERE e.codigo = ?
	ORDER BY p.fecha_prestamo DESC, p.id DESC`
	return s.queryRows(ctx, q, code)
}

func (s *Store) queryRows(ctx context.Context, q string, args ...any) ([]LoanRow, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LoanRow
	for rows.Next() {
		var r LoanRow
		if err := scanLoanRow(rows, &r); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CountActive backs the integrity count check.
func (s *Store) CountActive(ctx context.Context) (int, error) {
	const q = `SELECT COUNT(*) FROM prestamos WHERE estado = ?`
	var n int
	if err := s.db.QueryRowContext(ctx, q, StatusActive).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
