package loans

import (
	"context"
	"crypto/rand"
	"database/sql"
	"time"

	"github.com/oklog/ulid/v2"

	"ortobanco-backend/internal/lending/items"
	"ortobanco-backend/internal/platform/apierr"
	"ortobanco-backend/internal/platform/db"
	"ortobanco-backend/internal/platform/textutil"
)

type Clock interface{ Now() time.Time }
type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

type IDGen interface{ NewULID(t time.Time) string }
type ulidGen struct{}

func (ulidGen) NewULID(t time.Time) string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// LoanStore is what the ledger must provide. The MySQL Store implements it;
// tests run the service against an in-memory double.
type LoanStore interface {
	OpenLoanTx(ctx context.Context, itemCode string, l *Loan) error
	CloseLoanTx(ctx context.Context, p CloseTxParams) (*LoanRow, error)
	GetByULID(ctx context.Context, ulid string) (*LoanRow, error)
	ListActive(ctx context.Context) ([]LoanRow, error)
	ListByItemCode(ctx context.Context, code string) ([]LoanRow, error)
}

// BeneficiaryChecker is the one thing the engine asks of the beneficiary
// records: does this person exist and is the record active.
type BeneficiaryChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

type Service struct {
	store LoanStore
	bens  BeneficiaryChecker
	cfg   db.LendingConfig
	clock Clock
	id    IDGen
}

func NewService(conn *sql.DB, bens BeneficiaryChecker, cfg db.LendingConfig) *Service {
	return &Service{
		store: NewStore(conn),
		bens:  bens,
		cfg:   cfg,
		clock: realClock{},
		id:    ulidGen{},
	}
}

// OpenLoan validates the request, then hands the store one atomic
// open-loan write. ITEM_NOT_AVAILABLE comes from inside the transaction,
// under the row lock; there is no check-then-act gap for a concurrent open
// to slip through.
func (s *Service) OpenLoan(ctx context.Context, req OpenLoanRequest, actor string) (LoanResponse, error) {
	if req.ItemCode == "" {
		return LoanResponse{}, apierr.Invalid("item_code is required")
	}
	if req.BeneficiaryID <= 0 {
		return LoanResponse{}, apierr.Invalid("beneficiary_id is required")
	}
	if req.RequesterID <= 0 {
		return LoanResponse{}, apierr.Invalid("requester_id is required")
	}

	duration := s.cfg.DefaultLoanDays
	if req.DurationDays != nil {
		if *req.DurationDays <= 0 {
			return LoanResponse{}, apierr.Invalid("duration_days must be > 0")
		}
		duration = *req.DurationDays
	}

	now := s.clock.Now()
	loanDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if req.LoanDate != nil && *req.LoanDate != "" {
		parsed, err := time.Parse("2006-01-02", *req.LoanDate)
		if err != nil {
			return LoanResponse{}, apierr.Invalid("invalid loan_date format, expected YYYY-MM-DD")
		}
		loanDate = parsed
	}

	ok, err := s.bens.Exists(ctx, req.BeneficiaryID)
	if err != nil {
		return LoanResponse{}, err
	}
	if !ok {
		return LoanResponse{}, apierr.BeneficiaryInvalid("beneficiary does not exist or is inactive")
	}

	l := &Loan{
		ULID:           s.id.NewULID(now),
		BeneficiaryID:  req.BeneficiaryID,
		RequesterID:    req.RequesterID,
		LoanDate:       loanDate,
		DurationDays:   duration,
		ExpectedReturn: loanDate.AddDate(0, 0, duration), // calendar days, no business-day logic
		OpenNotes:      toNullString(req.Notes),
		AuthorizedBy:   toNullString(req.AuthorizedBy),
		DeliveredBy:    actor,
	}

	if err := s.store.OpenLoanTx(ctx, req.ItemCode, l); err != nil {
		return LoanResponse{}, err
	}

	row := &LoanRow{Loan: *l, ItemCode: req.ItemCode}
	return s.toResponse(row, now), nil
}

// CloseLoan maps the reported condition through the configured table and
// hands the store one atomic close write. ALREADY_CLOSED comes from inside
// the transaction.
func (s *Service) CloseLoan(ctx context.Context, loanULID string, req CloseLoanRequest, actor string) (CloseLoanResponse, error) {
	returnDate, err := time.Parse("2006-01-02", req.ReturnDate)
	if err != nil {
		return CloseLoanResponse{}, apierr.Invalid("invalid return_date format, expected YYYY-MM-DD")
	}

	finalStatus := StatusReturned
	var finalState items.State
	if req.Lost {
		// a lost item leaves the pool entirely
		finalStatus = StatusLost
		finalState = items.StateDecommissioned
	} else {
		finalState, err = s.mapCondition(req.Condition)
		if err != nil {
			return CloseLoanResponse{}, err
		}
	}

	p := CloseTxParams{
		ULID:           loanULID,
		ReturnDate:     sql.NullTime{Time: returnDate, Valid: true},
		FinalStatus:    finalStatus,
		FinalItemState: finalState,
		CloseNotes:     toNullString(req.Notes),
		ReceivedBy:     toNullString(req.ReceivedBy),
		Actor:          actor,
	}
	if req.ReturnDepositID != nil {
		if *req.ReturnDepositID <= 0 {
			return CloseLoanResponse{}, apierr.Invalid("return_deposit_id must be > 0")
		}
		p.ReturnDepositID = sql.NullInt64{Int64: *req.ReturnDepositID, Valid: true}
	}

	row, err := s.store.CloseLoanTx(ctx, p)
	if err != nil {
		return CloseLoanResponse{}, err
	}

	return CloseLoanResponse{
		LoanResponse:   s.toResponse(row, s.clock.Now()),
		FinalItemState: finalState,
	}, nil
}

// mapCondition is the one place the condition->state table is consulted.
// Call sites must not reimplement it; the mapping used to drift when each
// form did its own.
func (s *Service) mapCondition(condition string) (items.State, error) {
	key := textutil.Fold(condition)
	if key == "" {
		return "", apierr.Invalid("condition is required")
	}
	mapped, ok := s.cfg.ConditionStateMap[key]
	if !ok {
		return "", apierr.Invalid("unknown condition: " + condition)
	}
	st := items.State(mapped)
	if st != items.StateAvailable && st != items.StateMaintenance {
		// the config can only route returns to the two serviceable states
		return "", apierr.Internal("condition map routes " + condition + " to invalid state " + mapped)
	}
	return st, nil
}

func (s *Service) Get(ctx context.Context, loanULID string) (LoanResponse, error) {
	row, err := s.store.GetByULID(ctx, loanULID)
	if err != nil {
		return LoanResponse{}, err
	}
	return s.toResponse(row, s.clock.Now()), nil
}

// ListActive renders every open loan with its computed alert tier.
func (s *Service) ListActive(ctx context.Context) ([]LoanResponse, error) {
	rows, err := s.store.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	out := make([]LoanResponse, 0, len(rows))
	for i := range rows {
		out = append(out, s.toResponse(&rows[i], now))
	}
	return out, nil
}

// ListByItem returns the full lending history of one item.
func (s *Service) ListByItem(ctx context.Context, code string) ([]LoanResponse, error) {
	rows, err := s.store.ListByItemCode(ctx, code)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	out := make([]LoanResponse, 0, len(rows))
	for i := range rows {
		out = append(out, s.toResponse(&rows[i], now))
	}
	return out, nil
}

func toNullString(p *string) sql.NullString {
	if p == nil || *p == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}
