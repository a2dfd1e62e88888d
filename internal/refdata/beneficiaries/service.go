package beneficiaries

import (
	"context"
	"database/sql"
	"strings"

	"ortobanco-backend/internal/platform/apierr"
	"ortobanco-backend/internal/platform/textutil"
)

type Service struct {
	store *Store
}

func NewService(conn *sql.DB) *Service {
	return &Service{store: NewStore(conn)}
}

func (s *Service) Store() *Store { return s.store }

type CreateRequest struct {
	Type                string  `json:"type" binding:"required"`
	MemberID            *int64  `json:"member_id,omitempty"`
	ResponsibleMemberID *int64  `json:"responsible_member_id,omitempty"`
	Relationship        *string `json:"relationship,omitempty"`
	Name                string  `json:"name" binding:"required"`
	Phone               *string `json:"phone,omitempty"`
	Address             string  `json:"address" binding:"required"`
	Notes               *string `json:"notes,omitempty"`
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*Beneficiary, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, apierr.Invalid("name is required")
	}
	if strings.TrimSpace(req.Address) == "" {
		return nil, apierr.Invalid("address is required")
	}

	b := &Beneficiary{
		Type:    req.Type,
		Name:    req.Name,
		Address: req.Address,
		Phone:   toNullString(req.Phone),
		Notes:   toNullString(req.Notes),
		Active:  true,
	}

	switch req.Type {
	case TypeMember:
		if req.MemberID == nil || *req.MemberID <= 0 {
			return nil, apierr.Invalid("member_id is required for type hermano")
		}
		b.MemberID = sql.NullInt64{Int64: *req.MemberID, Valid: true}
	case TypeRelative:
		if req.ResponsibleMemberID == nil || *req.ResponsibleMemberID <= 0 {
			return nil, apierr.Invalid("responsible_member_id is required for type familiar")
		}
		if req.Relationship == nil || strings.TrimSpace(*req.Relationship) == "" {
			return nil, apierr.Invalid("relationship is required for type familiar")
		}
		b.ResponsibleMemberID = sql.NullInt64{Int64: *req.ResponsibleMemberID, Valid: true}
		b.Relationship = sql.NullString{String: *req.Relationship, Valid: true}
	default:
		return nil, apierr.Invalid("type must be hermano or familiar")
	}

	if err := s.store.Insert(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Beneficiary, error) {
	return s.store.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, query string, limit, offset int) ([]Beneficiary, error) {
	return s.store.List(ctx, textutil.Fold(query), limit, offset)
}

func (s *Service) Deactivate(ctx context.Context, id int64) error {
	return s.store.Deactivate(ctx, id)
}

func toNullString(p *string) sql.NullString {
	if p == nil || *p == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}
