package loans

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ortobanco-backend/internal/lending/alerts"
	"ortobanco-backend/internal/lending/items"
	"ortobanco-backend/internal/platform/apierr"
	"ortobanco-backend/internal/platform/db"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type seqIDGen struct{ n int }

func (g *seqIDGen) NewULID(time.Time) string {
	g.n++
	return fmt.Sprintf("01TESTULID%016d", g.n)
}

// memStore mirrors the MySQL store's transactional guarantees in memory:
// availability and already-closed are checked at write time, and a failed
// write leaves nothing behind.
type memStore struct {
	itemStates map[string]items.State
	loans      map[string]*LoanRow
	failWrites bool
}

func newMemStore(codes ...string) *memStore {
	m := &memStore{
		itemStates: make(map[string]items.State),
		loans:      make(map[string]*LoanRow),
	}
	for _, c := range codes {
		m.itemStates[c] = items.StateAvailable
	}
	return m
}

func (m *memStore) OpenLoanTx(_ context.Context, itemCode string, l *Loan) error {
	if m.failWrites {
		return apierr.Internal("storage down")
	}
	st, ok := m.itemStates[itemCode]
	if !ok {
		return apierr.NotFound("item not found: " + itemCode)
	}
	if st != items.StateAvailable {
		return apierr.ItemNotAvailable("item " + itemCode + " is " + string(st))
	}
	l.Status = StatusActive
	m.itemStates[itemCode] = items.StateLoaned
	m.loans[l.ULID] = &LoanRow{Loan: *l, ItemCode: itemCode}
	return nil
}

func (m *memStore) CloseLoanTx(_ context.Context, p CloseTxParams) (*LoanRow, error) {
	if m.failWrites {
		return nil, apierr.Internal("storage down")
	}
	row, ok := m.loans[p.ULID]
	if !ok {
		return nil, apierr.NotFound("loan not found: " + p.ULID)
	}
	if row.Status != StatusActive {
		return nil, apierr.AlreadyClosed("loan " + p.ULID + " is " + string(row.Status))
	}
	row.Status = p.FinalStatus
	row.ActualReturn = p.ReturnDate
	row.CloseNotes = p.CloseNotes
	row.ReceivedBy = p.ReceivedBy
	m.itemStates[row.ItemCode] = p.FinalItemState
	return row, nil
}

func (m *memStore) GetByULID(_ context.Context, u string) (*LoanRow, error) {
	row, ok := m.loans[u]
	if !ok {
		return nil, apierr.NotFound("loan not found: " + u)
	}
	return row, nil
}

func (m *memStore) ListActive(context.Context) ([]LoanRow, error) {
	var out []LoanRow
	for _, r := range m.loans {
		if r.Status == StatusActive {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memStore) ListByItemCode(_ context.Context, code string) ([]LoanRow, error) {
	var out []LoanRow
	for _, r := range m.loans {
		if r.ItemCode == code {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memStore) countActive() int {
	n := 0
	for _, r := range m.loans {
		if r.Status == StatusActive {
			n++
		}
	}
	return n
}

func (m *memStore) countLoanedItems() int {
	n := 0
	for _, st := range m.itemStates {
		if st == items.StateLoaned {
			n++
		}
	}
	return n
}

type memBens struct{ ids map[int64]bool }

func (b memBens) Exists(_ context.Context, id int64) (bool, error) { return b.ids[id], nil }

func testConfig() db.LendingConfig {
	return db.LendingConfig{
		ConditionStateMap: map[string]string{
			"bueno":      "disponible",
			"regular":    "disponible",
			"danado":     "mantenimiento",
			"reparacion": "mantenimiento",
		},
		DueSoonDays:     7,
		DefaultLoanDays: 30,
	}
}

func newTestService(store *memStore, now time.Time) *Service {
	return &Service{
		store: store,
		bens:  memBens{ids: map[int64]bool{1: true, 2: true}},
		cfg:   testConfig(),
		clock: fixedClock{t: now},
		id:    &seqIDGen{},
	}
}

func strp(s string) *string { return &s }
func intp(n int) *int       { return &n }

var jan1 = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

func TestOpenLoanComputesExpectedReturn(t *testing.T) {
	store := newMemStore("SILLA-001")
	svc := newTestService(store, jan1)

	resp, err := svc.OpenLoan(context.Background(), OpenLoanRequest{
		ItemCode:      "SILLA-001",
		BeneficiaryID: 1,
		RequesterID:   2,
		DurationDays:  intp(90),
		LoanDate:      strp("2025-01-01"),
	}, "clerk1")
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), resp.ExpectedReturn)
	assert.Equal(t, StatusActive, resp.Status)
	assert.Equal(t, "clerk1", resp.DeliveredBy)
	assert.Equal(t, items.StateLoaned, store.itemStates["SILLA-001"])
}

func TestOpenLoanDefaults(t *testing.T) {
	store := newMemStore("SILLA-001")
	svc := newTestService(store, jan1)

	resp, err := svc.OpenLoan(context.Background(), OpenLoanRequest{
		ItemCode:      "SILLA-001",
		BeneficiaryID: 1,
		RequesterID:   1,
	}, "clerk1")
	require.NoError(t, err)

	// loan date truncates today to midnight, duration comes from config
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), resp.LoanDate)
	assert.Equal(t, 30, resp.DurationDays)
	assert.Equal(t, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), resp.ExpectedReturn)
}

func TestOpenLoanValidation(t *testing.T) {
	store := newMemStore("SILLA-001")
	svc := newTestService(store, jan1)
	valid := OpenLoanRequest{ItemCode: "SILLA-001", BeneficiaryID: 1, RequesterID: 1}

	tests := []struct {
		name   string
		mutate func(*OpenLoanRequest)
	}{
		{"missing item code", func(r *OpenLoanRequest) { r.ItemCode = "" }},
		{"missing beneficiary", func(r *OpenLoanRequest) { r.BeneficiaryID = 0 }},
		{"missing requester", func(r *OpenLoanRequest) { r.RequesterID = 0 }},
		{"zero duration", func(r *OpenLoanRequest) { r.DurationDays = intp(0) }},
		{"negative duration", func(r *OpenLoanRequest) { r.DurationDays = intp(-5) }},
		{"bad loan date", func(r *OpenLoanRequest) { r.LoanDate = strp("01/01/2025") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			_, err := svc.OpenLoan(context.Background(), req, "clerk1")
			var apiErr *apierr.Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, apierr.CodeInvalidArgument, apiErr.Code)
		})
	}

	// nothing was written by any rejected request
	assert.Empty(t, store.loans)
	assert.Equal(t, items.StateAvailable, store.itemStates["SILLA-001"])
}

func TestOpenLoanUnknownBeneficiary(t *testing.T) {
	store := newMemStore("SILLA-001")
	svc := newTestService(store, jan1)

	_, err := svc.OpenLoan(context.Background(), OpenLoanRequest{
		ItemCode:      "SILLA-001",
		BeneficiaryID: 999,
		RequesterID:   1,
	}, "clerk1")

	var apiErr *apierr.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierr.CodeBeneficiaryInvalid, apiErr.Code)
	assert.Empty(t, store.loans)
}

func TestOpenLoanTwiceSameItem(t *testing.T) {
	store := newMemStore("SILLA-001")
	svc := newTestService(store, jan1)
	req := OpenLoanRequest{ItemCode: "SILLA-001", BeneficiaryID: 1, RequesterID: 1}

	_, err := svc.OpenLoan(context.Background(), req, "clerk1")
	require.NoError(t, err)

	_, err = svc.OpenLoan(context.Background(), req, "clerk2")
	var apiErr *apierr.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierr.CodeItemNotAvailable, apiErr.Code)

	// the failed second open did not touch the ledger
	assert.Equal(t, 1, store.countActive())
	assert.Equal(t, 1, store.countLoanedItems())
}

func TestCloseLoanGoodCondition(t *testing.T) {
	store := newMemStore("SILLA-001")
	svc := newTestService(store, jan1)

	open, err := svc.OpenLoan(context.Background(), OpenLoanRequest{
		ItemCode: "SILLA-001", BeneficiaryID: 1, RequesterID: 1,
	}, "clerk1")
	require.NoError(t, err)

	resp, err := svc.CloseLoan(context.Background(), open.ULID, CloseLoanRequest{
		ReturnDate: "2025-01-20",
		Condition:  "bueno",
	}, "clerk1")
	require.NoError(t, err)

	assert.Equal(t, StatusReturned, resp.Status)
	assert.Equal(t, items.StateAvailable, resp.FinalItemState)
	assert.Equal(t, items.StateAvailable, store.itemStates["SILLA-001"])
	assert.Equal(t, 0, store.countActive())
}

func TestCloseLoanDamagedGoesToMaintenance(t *testing.T) {
	store := newMemStore("SILLA-001")
	svc := newTestService(store, jan1)

	open, err := svc.OpenLoan(context.Background(), OpenLoanRequest{
		ItemCode: "SILLA-001", BeneficiaryID: 1, RequesterID: 1,
	}, "clerk1")
	require.NoError(t, err)

	// accented form from the intake UI folds to the config key
	resp, err := svc.CloseLoan(context.Background(), open.ULID, CloseLoanRequest{
		ReturnDate: "2025-01-20",
		Condition:  "Dañado",
	}, "clerk1")
	require.NoError(t, err)

	assert.Equal(t, items.StateMaintenance, resp.FinalItemState)
	assert.Equal(t, items.StateMaintenance, store.itemStates["SILLA-001"])
}

func TestCloseLoanLost(t *testing.T) {
	store := newMemStore("SILLA-001")
	svc := newTestService(store, jan1)

	open, err := svc.OpenLoan(context.Background(), OpenLoanRequest{
		ItemCode: "SILLA-001", BeneficiaryID: 1, RequesterID: 1,
	}, "clerk1")
	require.NoError(t, err)

	resp, err := svc.CloseLoan(context.Background(), open.ULID, CloseLoanRequest{
		ReturnDate: "2025-01-20",
		Lost:       true,
	}, "clerk1")
	require.NoError(t, err)

	assert.Equal(t, StatusLost, resp.Status)
	assert.Equal(t, items.StateDecommissioned, resp.FinalItemState)
	assert.Equal(t, items.StateDecommissioned, store.itemStates["SILLA-001"])
}

func TestCloseLoanTwice(t *testing.T) {
	store := newMemStore("SILLA-001")
	svc := newTestService(store, jan1)

	open, err := svc.OpenLoan(context.Background(), OpenLoanRequest{
		ItemCode: "SILLA-001", BeneficiaryID: 1, RequesterID: 1,
	}, "clerk1")
	require.NoError(t, err)

	close1 := CloseLoanRequest{ReturnDate: "2025-01-20", Condition: "bueno"}
	_, err = svc.CloseLoan(context.Background(), open.ULID, close1, "clerk1")
	require.NoError(t, err)

	_, err = svc.CloseLoan(context.Background(), open.ULID, close1, "clerk2")
	var apiErr *apierr.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierr.CodeAlreadyClosed, apiErr.Code)

	// the first close's result stands
	assert.Equal(t, items.StateAvailable, store.itemStates["SILLA-001"])
}

func TestCloseLoanRejectsBadInput(t *testing.T) {
	store := newMemStore("SILLA-001")
	svc := newTestService(store, jan1)

	open, err := svc.OpenLoan(context.Background(), OpenLoanRequest{
		ItemCode: "SILLA-001", BeneficiaryID: 1, RequesterID: 1,
	}, "clerk1")
	require.NoError(t, err)

	tests := []struct {
		name string
		req  CloseLoanRequest
	}{
		{"bad return date", CloseLoanRequest{ReturnDate: "20-01-2025", Condition: "bueno"}},
		{"missing condition", CloseLoanRequest{ReturnDate: "2025-01-20"}},
		{"unknown condition", CloseLoanRequest{ReturnDate: "2025-01-20", Condition: "destruido"}},
		{"bad deposit id", CloseLoanRequest{ReturnDate: "2025-01-20", Condition: "bueno", ReturnDepositID: new(int64)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CloseLoan(context.Background(), open.ULID, tt.req, "clerk1")
			var apiErr *apierr.Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, apierr.CodeInvalidArgument, apiErr.Code)
		})
	}

	// every rejection left the loan open and the item out
	assert.Equal(t, 1, store.countActive())
	assert.Equal(t, items.StateLoaned, store.itemStates["SILLA-001"])
}

func TestCloseLoanMisroutedConditionMap(t *testing.T) {
	store := newMemStore("SILLA-001")
	svc := newTestService(store, jan1)
	// an operator typo in config must not leak an invalid state into the store
	svc.cfg.ConditionStateMap["bueno"] = "prestado"

	open, err := svc.OpenLoan(context.Background(), OpenLoanRequest{
		ItemCode: "SILLA-001", BeneficiaryID: 1, RequesterID: 1,
	}, "clerk1")
	require.NoError(t, err)

	_, err = svc.CloseLoan(context.Background(), open.ULID, CloseLoanRequest{
		ReturnDate: "2025-01-20",
		Condition:  "bueno",
	}, "clerk1")
	var apiErr *apierr.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierr.CodeInternal, apiErr.Code)
	assert.Equal(t, items.StateLoaned, store.itemStates["SILLA-001"])
}

func TestOpenLoanStoreFailure(t *testing.T) {
	store := newMemStore("SILLA-001")
	store.failWrites = true
	svc := newTestService(store, jan1)

	_, err := svc.OpenLoan(context.Background(), OpenLoanRequest{
		ItemCode: "SILLA-001", BeneficiaryID: 1, RequesterID: 1,
	}, "clerk1")
	require.Error(t, err)
	assert.False(t, apierr.IsValidation(err))
	assert.Empty(t, store.loans)
	assert.Equal(t, items.StateAvailable, store.itemStates["SILLA-001"])
}

func TestActiveLoanMatchesLoanedItemCount(t *testing.T) {
	store := newMemStore("SILLA-001", "CAMA-002", "MULETA-003")
	svc := newTestService(store, jan1)

	for _, code := range []string{"SILLA-001", "CAMA-002", "MULETA-003"} {
		_, err := svc.OpenLoan(context.Background(), OpenLoanRequest{
			ItemCode: code, BeneficiaryID: 1, RequesterID: 1,
		}, "clerk1")
		require.NoError(t, err)
	}
	assert.Equal(t, store.countActive(), store.countLoanedItems())

	active, err := svc.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, active, 3)

	_, err = svc.CloseLoan(context.Background(), active[0].ULID, CloseLoanRequest{
		ReturnDate: "2025-01-05", Condition: "regular",
	}, "clerk1")
	require.NoError(t, err)

	assert.Equal(t, 2, store.countActive())
	assert.Equal(t, store.countActive(), store.countLoanedItems())
}

func TestListActiveComputesAlertTiers(t *testing.T) {
	store := newMemStore("SILLA-001", "CAMA-002", "MULETA-003")
	// clock well past the first loan's due date
	svc := newTestService(store, jan1)

	open := func(code, date string, days int) {
		_, err := svc.OpenLoan(context.Background(), OpenLoanRequest{
			ItemCode: code, BeneficiaryID: 1, RequesterID: 1,
			LoanDate: strp(date), DurationDays: intp(days),
		}, "clerk1")
		require.NoError(t, err)
	}
	open("SILLA-001", "2024-11-01", 30) // due 2024-12-01, overdue
	open("CAMA-002", "2024-12-29", 7)   // due 2025-01-05, inside the window
	open("MULETA-003", "2025-01-01", 90)

	active, err := svc.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, active, 3)

	tiers := make(map[string]alerts.Tier)
	for _, l := range active {
		tiers[l.ItemCode] = l.Alert
	}
	assert.Equal(t, alerts.TierOverdue, tiers["SILLA-001"])
	assert.Equal(t, alerts.TierDueSoon, tiers["CAMA-002"])
	assert.Equal(t, alerts.TierCurrent, tiers["MULETA-003"])
}

func TestGetUnknownLoan(t *testing.T) {
	svc := newTestService(newMemStore(), jan1)
	_, err := svc.Get(context.Background(), "01NOPE")
	var apiErr *apierr.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, apierr.CodeNotFound, apiErr.Code)
}

func TestToNullString(t *testing.T) {
	assert.Equal(t, sql.NullString{}, toNullString(nil))
	assert.Equal(t, sql.NullString{}, toNullString(strp("")))
	assert.Equal(t, sql.NullString{String: "x", Valid: true}, toNullString(strp("x")))
}
