package beneficiaries

import (
	"database/sql"
	"time"
)

// Beneficiary is who actually receives the equipment: a lodge member or a
// member's relative. The member roster itself is outside this service;
// member ids are stored as given.
type Beneficiary struct {
	ID                  int64
	Type                string // "hermano" | "familiar"
	MemberID            sql.NullInt64
	ResponsibleMemberID sql.NullInt64
	Relationship        sql.NullString
	Name                string
	Phone               sql.NullString
	Address             string
	Notes               sql.NullString
	Active              bool
	CreatedAt           time.Time
}

const (
	TypeMember   = "hermano"
	TypeRelative = "familiar"
)
