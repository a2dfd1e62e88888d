package beneficiaries

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"ortobanco-backend/internal/platform/apierr"
)

const cols = `
	id, tipo, hermano_id, hermano_responsable_id, parentesco,
	nombre, telefono, direccion, observaciones, activo, fecha_registro`

type Store struct{ db *sql.DB }

func NewStore(conn *sql.DB) *Store { return &Store{db: conn} }

func scan(row interface{ Scan(...any) error }, b *Beneficiary) error {
	return row.Scan(
		&b.ID, &b.Type, &b.MemberID, &b.ResponsibleMemberID, &b.Relationship,
		&b.Name, &b.Phone, &b.Address, &b.Notes, &b.Active, &b.CreatedAt,
	)
}

func (s *Store) Insert(ctx context.Context, b *Beneficiary) error {
	const q = `
	INSERT INTO beneficiarios
	(tipo, hermano_id, hermano_responsable_id, parentesco, nombre, telefono, direccion, observaciones, activo, fecha_registro)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1, CURRENT_TIMESTAMP)`
	res, err := s.db.ExecContext(ctx, q,
		b.Type, b.MemberID, b.ResponsibleMemberID, b.Relationship,
		b.Name, b.Phone, b.Address, b.Notes,
	)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	b.ID = id
	return nil
}

func (s *Store) GetByID(ctx context.Context, id int64) (*Beneficiary, error) {
	const q = `SELECT` + cols + ` FROM beneficiarios WHERE id = ?`
	var b Beneficiary
	if err := scan(s.db.QueryRowContext(ctx, q, id), &b); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apierr.NotFound("beneficiary not found")
		}
		return nil, err
	}
	return &b, nil
}

func (s *Store) List(ctx context.Context, query string, limit, offset int) ([]Beneficiary, error) {
	sb := strings.Builder{}
	sb.WriteString(`SELECT` + cols + ` FROM beneficiarios WHERE activo = 1`)
	args := []any{}
	if query != "" {
		sb.WriteString(` AND nombre LIKE ?`)
		args = append(args, "%"+query+"%")
	}
	sb.WriteString(` ORDER BY nombre ASC`)
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	sb.WriteString(` LIMIT ? OFFSET ?`)
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Beneficiary
	for rows.Next() {
		var b Beneficiary
		if err := scan(rows, &b); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) Deactivate(ctx context.Context, id int64) error {
	const q = `UPDATE beneficiarios SET activo = 0 WHERE id = ? AND activo = 1`
	res, err := s.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff != 1 {
		return apierr.NotFound("beneficiary not found or already inactive")
	}
	return nil
}

// Exists satisfies the loan engine's BeneficiaryChecker.
func (s *Store) Exists(ctx context.Context, id int64) (bool, error) {
	const q = `SELECT 1 FROM beneficiarios WHERE id = ? AND activo = 1`
	var one int
	err := s.db.QueryRowContext(ctx, q, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
