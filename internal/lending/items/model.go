package items

import (
	"database/sql"
	"time"
)

// State is the cached lifecycle projection of an item. The prestamos ledger
// is the source of truth for "is this item out"; estado exists so lists and
// availability checks do not need a ledger scan, and the integrity package
// repairs it when the two disagree.
type State string

const (
	StateAvailable      State = "disponible"
	StateLoaned         State = "prestado"
	StateMaintenance    State = "mantenimiento"
	StateDecommissioned State = "dado_de_baja"
)

var validStates = map[State]bool{
	StateAvailable:      true,
	StateLoaned:         true,
	StateMaintenance:    true,
	StateDecommissioned: true,
}

func IsValidState(s string) bool { return validStates[State(s)] }

// Item is one row of elementos. codigo is the human-assigned unique code
// painted on the equipment; it never changes after registration.
type Item struct {
	ID           int64
	Code         string
	Name         string
	CategoryID   int64
	DepositID    int64
	State        State
	Description  sql.NullString
	Brand        sql.NullString
	Model        sql.NullString
	SerialNumber sql.NullString
	EntryDate    time.Time
	Notes        sql.NullString
	Active       bool
	CreatedAt    time.Time
}

type Filter struct {
	State      *State
	CategoryID *int64
	DepositID  *int64
	Query      string // matched against codigo/nombre/marca, accent-folded
	Limit      int
	Offset     int
}
