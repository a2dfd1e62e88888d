package integrity

import (
	"context"
	"database/sql"
	"time"

	"ortobanco-backend/internal/lending/items"
)

// Source is the read side the audit compares; Fixer applies the two legal
// corrections. The MySQL Store implements both, tests use doubles.
type Source interface {
	Snapshot(ctx context.Context) ([]itemRef, []loanRef, error)
}

type Fixer interface {
	FixOrphan(ctx context.Context, itemID int64, actor string) (bool, error)
	FixDangling(ctx context.Context, itemID int64, actor string) (bool, error)
}

type Clock interface{ Now() time.Time }
type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

type Service struct {
	source Source
	fixer  Fixer
	clock  Clock
}

func NewService(conn *sql.DB) *Service {
	st := NewStore(conn)
	return &Service{source: st, fixer: st, clock: realClock{}}
}

// Audit detects drift between the item table's cached estado and the
// ledger. Read-only and cheap; the dashboard runs it on every load.
func (s *Service) Audit(ctx context.Context) (*Report, error) {
	loaned, active, err := s.source.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	withActiveLoan := make(map[int64]bool, len(active))
	for _, l := range active {
		withActiveLoan[l.ItemID] = true
	}

	report := &Report{
		OrphanedItems:   []OrphanedItem{},
		DanglingLoans:   []DanglingLoan{},
		LoanedItemCount: len(loaned),
		ActiveLoanCount: len(active),
		CheckedAt:       s.clock.Now(),
	}

	for _, it := range loaned {
		if !withActiveLoan[it.ID] {
			report.OrphanedItems = append(report.OrphanedItems, OrphanedItem{
				ItemID:   it.ID,
				ItemCode: it.Code,
				ItemName: it.Name,
			})
		}
	}

	for _, l := range active {
		if l.ItemState != string(items.StateLoaned) {
			report.DanglingLoans = append(report.DanglingLoans, DanglingLoan{
				LoanULID:  l.ULID,
				ItemID:    l.ItemID,
				ItemCode:  l.ItemCode,
				ItemState: l.ItemState,
			})
		}
	}

	report.CountMismatch = report.LoanedItemCount != report.ActiveLoanCount
	return report, nil
}

// Reconcile resolves what Audit found, rewriting item state to match the
// ledger. Each fix re-verifies its violation under lock, so running it
// twice in a row corrects nothing the second time, and a fix racing a live
// open/close simply becomes a no-op.
func (s *Service) Reconcile(ctx context.Context, actor string) (*Summary, error) {
	report, err := s.Audit(ctx)
	if err != nil {
		return nil, err
	}

	summary := &Summary{RanAt: s.clock.Now()}

	for _, o := range report.OrphanedItems {
		fixed, err := s.fixer.FixOrphan(ctx, o.ItemID, actor)
		if err != nil {
			return nil, err
		}
		if fixed {
			summary.OrphansFixed++
		}
	}

	// several dangling loans can point at one item; fix the item once
	seen := make(map[int64]bool)
	for _, d := range report.DanglingLoans {
		if seen[d.ItemID] {
			continue
		}
		seen[d.ItemID] = true

		fixed, err := s.fixer.FixDangling(ctx, d.ItemID, actor)
		if err != nil {
			return nil, err
		}
		if fixed {
			summary.DanglingFixed++
		}
	}

	return summary, nil
}
