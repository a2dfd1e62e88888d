package items

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"

	"ortobanco-backend/internal/platform/apierr"
	"ortobanco-backend/internal/platform/db"
)

const itemColumns = `
	id, codigo, nombre, categoria_id, deposito_id, estado,
	descripcion, marca, modelo, numero_serie, fecha_ingreso, observaciones, activo, fecha_creacion`

type Store struct{ db *sql.DB }

func NewStore(conn *sql.DB) *Store { return &Store{db: conn} }

func scanItem(row interface{ Scan(...any) error }, it *Item) error {
	return row.Scan(
		&it.ID, &it.Code, &it.Name, &it.CategoryID, &it.DepositID, &it.State,
		&it.Description, &it.Brand, &it.Model, &it.SerialNumber, &it.EntryDate,
		&it.Notes, &it.Active, &it.CreatedAt,
	)
}

func (s *Store) Insert(ctx context.Context, it *Item) error {
	const q = `
	INSERT INTO elementos
	(codigo, nombre, categoria_id, deposito_id, estado, descripcion, marca, modelo, numero_serie, fecha_ingreso, observaciones, activo, fecha_creacion)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, CURRENT_TIMESTAMP)`

	res, err := s.db.ExecContext(ctx, q,
		it.Code, it.Name, it.CategoryID, it.DepositID, it.State,
		it.Description, it.Brand, it.Model, it.SerialNumber, it.EntryDate, it.Notes,
	)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) {
			switch me.Number {
			case 1062:
				return apierr.DuplicateCode("code already registered: " + it.Code)
			case 1452:
				return apierr.Invalid("unknown category or deposit")
			}
		}
		return err
	}
	id, _ := res.LastInsertId()
	it.ID = id
	return nil
}

func (s *Store) GetByID(ctx context.Context, id int64) (*Item, error) {
	const q = `SELECT` + itemColumns + ` FROM elementos WHERE id = ?`
	var it Item
	if err := scanItem(s.db.QueryRowContext(ctx, q, id), &it); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apierr.NotFound("item not found")
		}
		return nil, err
	}
	return &it, nil
}

func (s *Store) GetByCode(ctx context.Context, code string) (*Item, error) {
	const q = `SELECT` + itemColumns + ` FROM elementos WHERE codigo = ?`
	var it Item
	if err := scanItem(s.db.QueryRowContext(ctx, q, code), &it); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apierr.NotFound("item not found: " + code)
		}
		return nil, err
	}
	return &it, nil
}

func (s *Store) List(ctx context.Context, f Filter) ([]Item, error) {
	sb := strings.Builder{}
	sb.WriteString(`SELECT` + itemColumns + ` FROM elementos WHERE activo = 1`)

	args := []any{}
	if f.State != nil {
		sb.WriteString(` AND estado = ?`)
		args = append(args, *f.State)
	}
	if f.CategoryID != nil {
		sb.WriteString(` AND categoria_id = ?`)
		args = append(args, *f.CategoryID)
	}
	if f.DepositID != nil {
		sb.WriteString(` AND deposito_id = ?`)
		args = append(args, *f.DepositID)
	}
	if f.Query != "" {
		// utf8mb4_unicode_ci keeps this accent-insensitive on the column side
		sb.WriteString(` AND (codigo LIKE ? OR nombre LIKE ? OR marca LIKE ?)`)
		pattern := "%" + f.Query + "%"
		args = append(args, pattern, pattern, pattern)
	}

	sb.WriteString(` ORDER BY codigo ASC`)
	if f.Limit <= 0 {
		f.Limit = 100
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	sb.WriteString(` LIMIT ? OFFSET ?`)
	args = append(args, f.Limit, f.Offset)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var it Item
		if err := scanItem(rows, &it); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// LockByIDTx reads one item under FOR UPDATE. The loan engine and the
// reconciler both go through this so a state decision is never made on a row
// another transaction is mid-way through changing.
func LockByIDTx(ctx context.Context, tx db.DBTX, id int64) (*Item, error) {
	const q = `SELECT` + itemColumns + ` FROM elementos WHERE id = ? FOR UPDATE`
	var it Item
	if err := scanItem(tx.QueryRowContext(ctx, q, id), &it); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apierr.NotFound("item not found")
		}
		return nil, err
	}
	return &it, nil
}

func LockByCodeTx(ctx context.Context, tx db.DBTX, code string) (*Item, error) {
	const q = `SELECT` + itemColumns + ` FROM elementos WHERE codigo = ? FOR UPDATE`
	var it Item
	if err := scanItem(tx.QueryRowContext(ctx, q, code), &it); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apierr.NotFound("item not found: " + code)
		}
		return nil, err
	}
	return &it, nil
}

// SetStateTx flips estado inside the caller's transaction. Handlers never
// call this directly; only the enforcer, decommission and the reconciler do.
func SetStateTx(ctx context.Context, tx db.DBTX, id int64, newState State) error {
	const q = `UPDATE elementos SET estado = ? WHERE id = ?`
	res, err := tx.ExecContext(ctx, q, newState, id)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff != 1 {
		return apierr.Internal("failed to update item state")
	}
	return nil
}

// SetDepositTx applies the return-to-deposit override at loan close.
func SetDepositTx(ctx context.Context, tx db.DBTX, id, depositID int64) error {
	const q = `UPDATE elementos SET deposito_id = ? WHERE id = ?`
	res, err := tx.ExecContext(ctx, q, depositID, id)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff != 1 {
		return apierr.Internal("failed to update item deposit")
	}
	return nil
}

// CountByState backs the dashboard metrics and the integrity count check.
func (s *Store) CountByState(ctx context.Context, st State) (int, error) {
	const q = `SELECT COUNT(*) FROM elementos WHERE estado = ? AND activo = 1`
	var n int
	if err := s.db.QueryRowContext(ctx, q, st).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
