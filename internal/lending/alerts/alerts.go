// Package alerts computes the due-date tier for an active loan. Overdue is
// display-only; it is never written back into the ledger, so the stored
// statuses stay the single source of truth.
package alerts

import "time"

type Tier string

const (
	TierCurrent Tier = "al_dia"
	TierDueSoon Tier = "por_vencer"
	TierOverdue Tier = "vencido"
)

// DefaultDueSoonDays is the window used when the deployment config does not
// set one.
const DefaultDueSoonDays = 7

// Classify compares calendar dates only; hours are ignored. Both due-soon
// boundaries are inclusive: a loan due exactly today, or exactly
// dueSoonDays out, is por_vencer.
func Classify(expectedReturn, today time.Time, dueSoonDays int) Tier {
	if dueSoonDays <= 0 {
		dueSoonDays = DefaultDueSoonDays
	}

	due := truncateDay(expectedReturn)
	now := truncateDay(today)

	if now.After(due) {
		return TierOverdue
	}
	if !now.Before(due.AddDate(0, 0, -dueSoonDays)) {
		return TierDueSoon
	}
	return TierCurrent
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
