package integrity

import "time"

// Report is drift-detection output. Violations are data for an operator,
// not errors: the audit never mutates and never fails a request over them.
type Report struct {
	// items marked prestado with no active loan backing them
	OrphanedItems []OrphanedItem `json:"orphaned_items"`
	// active loans whose item is not marked prestado
	DanglingLoans []DanglingLoan `json:"dangling_loans"`
	// cheap necessary-but-not-sufficient cross-check
	LoanedItemCount int  `json:"loaned_item_count"`
	ActiveLoanCount int  `json:"active_loan_count"`
	CountMismatch   bool `json:"count_mismatch"`

	CheckedAt time.Time `json:"checked_at"`
}

func (r *Report) Clean() bool {
	return len(r.OrphanedItems) == 0 && len(r.DanglingLoans) == 0 && !r.CountMismatch
}

type OrphanedItem struct {
	ItemID   int64  `json:"item_id"`
	ItemCode string `json:"item_code"`
	ItemName string `json:"item_name"`
}

type DanglingLoan struct {
	LoanULID  string `json:"loan_ulid"`
	ItemID    int64  `json:"item_id"`
	ItemCode  string `json:"item_code"`
	ItemState string `json:"item_state"`
}

// Summary is what reconcile reports back to the admin screen.
type Summary struct {
	OrphansFixed  int       `json:"orphans_fixed"`
	DanglingFixed int       `json:"dangling_fixed"`
	RanAt         time.Time `json:"ran_at"`
}
