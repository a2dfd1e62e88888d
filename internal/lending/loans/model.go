package loans

import (
	"database/sql"
	"time"
)

// Status is the stored loan status. Overdue is not here on purpose: it is a
// display tier computed by the alerts package, never written back, so the
// ledger stays the single source of truth for "is this item out".
type Status string

const (
	StatusActive   Status = "activo"
	StatusReturned Status = "devuelto"
	StatusLost     Status = "perdido"
)

// Loan is one row of prestamos. Rows are never deleted and a terminal
// status is never re-opened; the table is the audit trail.
type Loan struct {
	ID             int64
	ULID           string
	ItemID         int64
	BeneficiaryID  int64
	RequesterID    int64 // hermano solicitante; the member roster lives outside this engine
	LoanDate       time.Time
	DurationDays   int
	ExpectedReturn time.Time
	ActualReturn   sql.NullTime
	Status         Status
	OpenNotes      sql.NullString
	CloseNotes     sql.NullString
	AuthorizedBy   sql.NullString
	DeliveredBy    string
	ReceivedBy     sql.NullString
	ReturnDeposit  sql.NullInt64
	CreatedAt      time.Time
}

// LoanRow is a ledger row joined with the item it references, for list and
// detail rendering.
type LoanRow struct {
	Loan
	ItemCode string
	ItemName string
}
