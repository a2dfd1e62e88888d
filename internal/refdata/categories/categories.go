// Package categories is the fixed-ish list of equipment kinds items are
// filed under.
package categories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"

	"ortobanco-backend/internal/platform/apierr"
)

type Category struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Description sql.NullString `json:"-"`
	Active      bool           `json:"active"`
}

type Store struct{ db *sql.DB }

func NewStore(conn *sql.DB) *Store { return &Store{db: conn} }

func (s *Store) Insert(ctx context.Context, c *Category) error {
	const q = `INSERT INTO categorias (nombre, descripcion, activo) VALUES (?, ?, 1)`
	res, err := s.db.ExecContext(ctx, q, c.Name, c.Description)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 {
			return apierr.Conflict("category already exists: " + c.Name)
		}
		return err
	}
	id, _ := res.LastInsertId()
	c.ID = id
	return nil
}

func (s *Store) List(ctx context.Context) ([]Category, error) {
	const q = `SELECT id, nombre, descripcion, activo FROM categorias WHERE activo = 1 ORDER BY nombre ASC`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Active); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SeedDefaults installs the category list the program has always used.
// INSERT IGNORE keeps restarts harmless.
func (s *Store) SeedDefaults(ctx context.Context) error {
	defaults := [][2]string{
		{"Sillas de Ruedas", "Sillas de ruedas manuales y eléctricas"},
		{"Bastones", "Bastones simples y ortopédicos"},
		{"Muletas", "Muletas axilares y de antebrazo"},
		{"Andadores", "Andadores con y sin ruedas"},
		{"Camas Ortopédicas", "Camas articuladas y colchones"},
		{"Equipos de Rehabilitación", "Equipos diversos de rehabilitación"},
		{"Otros", "Elementos diversos no categorizados"},
	}
	const q = `INSERT IGNORE INTO categorias (nombre, descripcion, activo) VALUES (?, ?, 1)`
	for _, d := range defaults {
		if _, err := s.db.ExecContext(ctx, q, d[0], d[1]); err != nil {
			return err
		}
	}
	return nil
}
