package history

import (
	"database/sql"
	"time"
)

// StateChange is one row of the append-only item state trail. It exists for
// audit only; nothing in the loan engine reads it to make decisions.
type StateChange struct {
	ID         int64
	ItemID     int64
	PriorState sql.NullString
	NewState   string
	Reason     string
	Notes      sql.NullString
	Actor      sql.NullString
	ChangedAt  time.Time
}

// Reason values written by the engine. Free text is allowed for manual
// overrides; these are the ones the engine itself produces.
const (
	ReasonLoanOpened     = "loan opened"
	ReasonLoanClosed     = "loan closed"
	ReasonDecommissioned = "decommissioned"
	ReasonReconciled     = "automatic correction"
)
