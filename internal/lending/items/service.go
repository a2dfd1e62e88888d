package items

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"ortobanco-backend/internal/lending/history"
	"ortobanco-backend/internal/platform/apierr"
	"ortobanco-backend/internal/platform/db"
	"ortobanco-backend/internal/platform/textutil"
)

type Service struct {
	db    *sql.DB
	store *Store
}

func NewService(conn *sql.DB) *Service {
	return &Service{db: conn, store: NewStore(conn)}
}

func (s *Service) Store() *Store { return s.store }

// Create registers new equipment. Items always enter as disponible; from
// there only the loan engine, decommission or the reconciler move estado.
func (s *Service) Create(ctx context.Context, req CreateItemRequest) (ItemResponse, error) {
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return ItemResponse{}, apierr.Invalid("code is required")
	}
	if strings.TrimSpace(req.Name) == "" {
		return ItemResponse{}, apierr.Invalid("name is required")
	}
	if req.CategoryID <= 0 || req.DepositID <= 0 {
		return ItemResponse{}, apierr.Invalid("category_id and deposit_id are required")
	}

	entryDate := time.Now().UTC().Truncate(24 * time.Hour)
	if req.EntryDate != nil && *req.EntryDate != "" {
		parsed, err := time.Parse("2006-01-02", *req.EntryDate)
		if err != nil {
			return ItemResponse{}, apierr.Invalid("invalid entry_date format, expected YYYY-MM-DD")
		}
		entryDate = parsed
	}

	it := &Item{
		Code:         code,
		Name:         req.Name,
		CategoryID:   req.CategoryID,
		DepositID:    req.DepositID,
		State:        StateAvailable,
		Description:  toNullString(req.Description),
		Brand:        toNullString(req.Brand),
		Model:        toNullString(req.Model),
		SerialNumber: toNullString(req.SerialNumber),
		EntryDate:    entryDate,
		Notes:        toNullString(req.Notes),
		Active:       true,
	}

	if err := s.store.Insert(ctx, it); err != nil {
		return ItemResponse{}, err
	}
	return toResponse(it), nil
}

func (s *Service) Get(ctx context.Context, code string) (ItemResponse, error) {
	it, err := s.store.GetByCode(ctx, code)
	if err != nil {
		return ItemResponse{}, err
	}
	return toResponse(it), nil
}

func (s *Service) List(ctx context.Context, f Filter) ([]ItemResponse, error) {
	f.Query = textutil.Fold(f.Query)
	list, err := s.store.List(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]ItemResponse, 0, len(list))
	for i := range list {
		out = append(out, toResponse(&list[i]))
	}
	return out, nil
}

// Decommission retires an item. The row stays; dado_de_baja is a state, not
// a deletion, because loan and history rows keep pointing at it.
func (s *Service) Decommission(ctx context.Context, code string, req DecommissionRequest, actor string) (ItemResponse, error) {
	if strings.TrimSpace(req.Reason) == "" {
		return ItemResponse{}, apierr.Invalid("reason is required")
	}

	var out ItemResponse
	err := db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		it, err := LockByCodeTx(ctx, tx, code)
		if err != nil {
			return err
		}
		switch it.State {
		case StateLoaned:
			return apierr.Conflict("item is on loan; close the loan first")
		case StateDecommissioned:
			return apierr.Conflict("item is already decommissioned")
		}

		if err := SetStateTx(ctx, tx, it.ID, StateDecommissioned); err != nil {
			return err
		}

		rec := &history.StateChange{
			ItemID:     it.ID,
			PriorState: sql.NullString{String: string(it.State), Valid: true},
			NewState:   string(StateDecommissioned),
			Reason:     history.ReasonDecommissioned + ": " + req.Reason,
			Notes:      toNullString(req.Notes),
			Actor:      sql.NullString{String: actor, Valid: actor != ""},
		}
		if err := history.InsertTx(ctx, tx, rec); err != nil {
			return err
		}

		it.State = StateDecommissioned
		out = toResponse(it)
		return nil
	})
	if err != nil {
		return ItemResponse{}, err
	}
	return out, nil
}

func toNullString(p *string) sql.NullString {
	if p == nil || *p == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}
