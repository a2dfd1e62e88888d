package integrity

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ortobanco-backend/internal/lending/items"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// world is an in-memory inventory plus ledger the fakes read and fix. Its
// fix methods re-verify the violation before acting, the way the store's
// transactional fixes do.
type world struct {
	itemStates map[int64]items.State
	loans      []loanRef
}

func (w *world) Snapshot(context.Context) ([]itemRef, []loanRef, error) {
	var loaned []itemRef
	for id, st := range w.itemStates {
		if st == items.StateLoaned {
			loaned = append(loaned, itemRef{ID: id, Code: fmt.Sprintf("ITEM-%03d", id), Name: "item"})
		}
	}
	active := make([]loanRef, len(w.loans))
	for i, l := range w.loans {
		l.ItemState = string(w.itemStates[l.ItemID])
		active[i] = l
	}
	return loaned, active, nil
}

func (w *world) hasActiveLoan(itemID int64) bool {
	for _, l := range w.loans {
		if l.ItemID == itemID {
			return true
		}
	}
	return false
}

func (w *world) FixOrphan(_ context.Context, itemID int64, _ string) (bool, error) {
	if w.itemStates[itemID] != items.StateLoaned || w.hasActiveLoan(itemID) {
		return false, nil
	}
	w.itemStates[itemID] = items.StateAvailable
	return true, nil
}

func (w *world) FixDangling(_ context.Context, itemID int64, _ string) (bool, error) {
	if w.itemStates[itemID] == items.StateLoaned || !w.hasActiveLoan(itemID) {
		return false, nil
	}
	w.itemStates[itemID] = items.StateLoaned
	return true, nil
}

func newTestService(w *world) *Service {
	return &Service{
		source: w,
		fixer:  w,
		clock:  fixedClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
	}
}

func activeLoan(ulid string, itemID int64) loanRef {
	return loanRef{ULID: ulid, ItemID: itemID, ItemCode: fmt.Sprintf("ITEM-%03d", itemID)}
}

func TestAuditCleanWorld(t *testing.T) {
	w := &world{
		itemStates: map[int64]items.State{
			1: items.StateLoaned,
			2: items.StateAvailable,
			3: items.StateMaintenance,
		},
		loans: []loanRef{activeLoan("01AAA", 1)},
	}
	report, err := newTestService(w).Audit(context.Background())
	require.NoError(t, err)

	assert.True(t, report.Clean())
	assert.Empty(t, report.OrphanedItems)
	assert.Empty(t, report.DanglingLoans)
	assert.Equal(t, 1, report.LoanedItemCount)
	assert.Equal(t, 1, report.ActiveLoanCount)
	assert.False(t, report.CountMismatch)
}

func TestAuditFindsOrphanedItem(t *testing.T) {
	// item 2 says prestado but no active loan backs it up
	w := &world{
		itemStates: map[int64]items.State{
			1: items.StateLoaned,
			2: items.StateLoaned,
		},
		loans: []loanRef{activeLoan("01AAA", 1)},
	}
	report, err := newTestService(w).Audit(context.Background())
	require.NoError(t, err)

	assert.False(t, report.Clean())
	require.Len(t, report.OrphanedItems, 1)
	assert.Equal(t, int64(2), report.OrphanedItems[0].ItemID)
	assert.Equal(t, "ITEM-002", report.OrphanedItems[0].ItemCode)
	assert.True(t, report.CountMismatch)
}

func TestAuditFindsDanglingLoan(t *testing.T) {
	// the ledger says item 1 is out but the item row says disponible
	w := &world{
		itemStates: map[int64]items.State{1: items.StateAvailable},
		loans:      []loanRef{activeLoan("01AAA", 1)},
	}
	report, err := newTestService(w).Audit(context.Background())
	require.NoError(t, err)

	assert.False(t, report.Clean())
	require.Len(t, report.DanglingLoans, 1)
	assert.Equal(t, "01AAA", report.DanglingLoans[0].LoanULID)
	assert.Equal(t, string(items.StateAvailable), report.DanglingLoans[0].ItemState)
}

func TestReconcileFixesBothDirections(t *testing.T) {
	w := &world{
		itemStates: map[int64]items.State{
			1: items.StateLoaned,    // orphan, no loan
			2: items.StateAvailable, // dangling, loan 01BBB
			3: items.StateLoaned,    // consistent
		},
		loans: []loanRef{activeLoan("01BBB", 2), activeLoan("01CCC", 3)},
	}
	svc := newTestService(w)

	summary, err := svc.Reconcile(context.Background(), "auditor")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.OrphansFixed)
	assert.Equal(t, 1, summary.DanglingFixed)

	// the ledger won: item state now matches it everywhere
	assert.Equal(t, items.StateAvailable, w.itemStates[1])
	assert.Equal(t, items.StateLoaned, w.itemStates[2])
	assert.Equal(t, items.StateLoaned, w.itemStates[3])

	report, err := svc.Audit(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Clean())
}

func TestReconcileIsIdempotent(t *testing.T) {
	w := &world{
		itemStates: map[int64]items.State{
			1: items.StateLoaned,
			2: items.StateAvailable,
		},
		loans: []loanRef{activeLoan("01BBB", 2)},
	}
	svc := newTestService(w)

	first, err := svc.Reconcile(context.Background(), "auditor")
	require.NoError(t, err)
	assert.Equal(t, 1, first.OrphansFixed)
	assert.Equal(t, 1, first.DanglingFixed)

	second, err := svc.Reconcile(context.Background(), "auditor")
	require.NoError(t, err)
	assert.Zero(t, second.OrphansFixed)
	assert.Zero(t, second.DanglingFixed)
}

func TestReconcileFixesDanglingItemOnce(t *testing.T) {
	// two active loans pointing at the same item row is itself bad data,
	// but the item must still be corrected exactly once
	w := &world{
		itemStates: map[int64]items.State{1: items.StateAvailable},
		loans:      []loanRef{activeLoan("01AAA", 1), activeLoan("01BBB", 1)},
	}
	summary, err := newTestService(w).Reconcile(context.Background(), "auditor")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.DanglingFixed)
	assert.Equal(t, items.StateLoaned, w.itemStates[1])
}

func TestReconcileSkipsRacedFix(t *testing.T) {
	// the fixer double reports the violation already gone, as the store's
	// locked re-check would when a close lands between audit and fix
	w := &world{
		itemStates: map[int64]items.State{1: items.StateLoaned},
		loans:      []loanRef{},
	}
	svc := newTestService(w)
	svc.fixer = racedFixer{w}

	summary, err := svc.Reconcile(context.Background(), "auditor")
	require.NoError(t, err)
	assert.Zero(t, summary.OrphansFixed)
	assert.Zero(t, summary.DanglingFixed)
	// the raced fixer left the row alone
	assert.Equal(t, items.StateLoaned, w.itemStates[1])
}

type racedFixer struct{ w *world }

func (racedFixer) FixOrphan(context.Context, int64, string) (bool, error)   { return false, nil }
func (racedFixer) FixDangling(context.Context, int64, string) (bool, error) { return false, nil }
