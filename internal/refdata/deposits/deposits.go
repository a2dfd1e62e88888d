// Package deposits is plain record storage for the physical storage sites
// equipment lives at. Items reference a deposit; loan closes may move an
// item to a different one.
package deposits

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"

	"ortobanco-backend/internal/platform/apierr"
)

type Deposit struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Address     sql.NullString `json:"-"`
	Responsible sql.NullString `json:"-"`
	Phone       sql.NullString `json:"-"`
	Email       sql.NullString `json:"-"`
	Active      bool           `json:"active"`
	CreatedAt   time.Time      `json:"created_at"`
}

type Store struct{ db *sql.DB }

func NewStore(conn *sql.DB) *Store { return &Store{db: conn} }

const cols = `id, nombre, direccion, responsable, telefono, email, activo, fecha_creacion`

func scan(row interface{ Scan(...any) error }, d *Deposit) error {
	return row.Scan(&d.ID, &d.Name, &d.Address, &d.Responsible, &d.Phone, &d.Email, &d.Active, &d.CreatedAt)
}

func (s *Store) Insert(ctx context.Context, d *Deposit) error {
	const q = `
	INSERT INTO depositos (nombre, direccion, responsable, telefono, email, activo, fecha_creacion)
	VALUES (?, ?, ?, ?, ?, 1, CURRENT_TIMESTAMP)`
	res, err := s.db.ExecContext(ctx, q, d.Name, d.Address, d.Responsible, d.Phone, d.Email)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 {
			return apierr.Conflict("deposit name already exists: " + d.Name)
		}
		return err
	}
	id, _ := res.LastInsertId()
	d.ID = id
	return nil
}

func (s *Store) GetByID(ctx context.Context, id int64) (*Deposit, error) {
	const q = `SELECT ` + cols + ` FROM depositos WHERE id = ?`
	var d Deposit
	if err := scan(s.db.QueryRowContext(ctx, q, id), &d); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apierr.NotFound("deposit not found")
		}
		return nil, err
	}
	return &d, nil
}

func (s *Store) List(ctx context.Context) ([]Deposit, error) {
	const q = `SELECT ` + cols + ` FROM depositos WHERE activo = 1 ORDER BY nombre ASC`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Deposit
	for rows.Next() {
		var d Deposit
		if err := scan(rows, &d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// SeedDefault makes sure at least one deposit exists so item registration
// has somewhere to point on a fresh install.
func (s *Store) SeedDefault(ctx context.Context) error {
	const q = `INSERT IGNORE INTO depositos (nombre, direccion, activo, fecha_creacion)
	VALUES ('Depósito Principal', 'Dirección no especificada', 1, CURRENT_TIMESTAMP)`
	_, err := s.db.ExecContext(ctx, q)
	return err
}
