package loans

import (
	"time"

	"ortobanco-backend/internal/lending/alerts"
	"ortobanco-backend/internal/lending/items"
)

type OpenLoanRequest struct {
	ItemCode      string `json:"item_code" binding:"required"`
	BeneficiaryID int64  `json:"beneficiary_id" binding:"required"`
	RequesterID   int64  `json:"requester_id" binding:"required"`
	// defaults to the configured loan duration
	DurationDays *int `json:"duration_days,omitempty"`
	// "2006-01-02"; defaults to today
	LoanDate     *string `json:"loan_date,omitempty"`
	Notes        *string `json:"notes,omitempty"`
	AuthorizedBy *string `json:"authorized_by,omitempty"`
}

type CloseLoanRequest struct {
	// "2006-01-02"
	ReturnDate string `json:"return_date" binding:"required"`
	// looked up in the configured condition map; ignored when lost
	Condition string `json:"condition"`
	Lost      bool   `json:"lost"`
	Notes     *string `json:"notes,omitempty"`
	ReceivedBy *string `json:"received_by,omitempty"`
	// return-to-deposit override
	ReturnDepositID *int64 `json:"return_deposit_id,omitempty"`
}

type LoanResponse struct {
	ULID           string      `json:"ulid"`
	ItemCode       string      `json:"item_code"`
	ItemName       string      `json:"item_name,omitempty"`
	BeneficiaryID  int64       `json:"beneficiary_id"`
	RequesterID    int64       `json:"requester_id"`
	LoanDate       time.Time   `json:"loan_date"`
	DurationDays   int         `json:"duration_days"`
	ExpectedReturn time.Time   `json:"expected_return"`
	ActualReturn   *time.Time  `json:"actual_return,omitempty"`
	Status         Status      `json:"status"`
	Alert          alerts.Tier `json:"alert,omitempty"` // active loans only
	Notes          *string     `json:"notes,omitempty"`
	CloseNotes     *string     `json:"close_notes,omitempty"`
	AuthorizedBy   *string     `json:"authorized_by,omitempty"`
	DeliveredBy    string      `json:"delivered_by"`
	ReceivedBy     *string     `json:"received_by,omitempty"`
}

type CloseLoanResponse struct {
	LoanResponse
	FinalItemState items.State `json:"final_item_state"`
}

func (s *Service) toResponse(r *LoanRow, today time.Time) LoanResponse {
	resp := LoanResponse{
		ULID:           r.ULID,
		ItemCode:       r.ItemCode,
		ItemName:       r.ItemName,
		BeneficiaryID:  r.BeneficiaryID,
		RequesterID:    r.RequesterID,
		LoanDate:       r.LoanDate,
		DurationDays:   r.DurationDays,
		ExpectedReturn: r.ExpectedReturn,
		Status:         r.Status,
		DeliveredBy:    r.DeliveredBy,
	}
	if r.Status == StatusActive {
		resp.Alert = alerts.Classify(r.ExpectedReturn, today, s.cfg.DueSoonDays)
	}
	if r.ActualReturn.Valid {
		v := r.ActualReturn.Time
		resp.ActualReturn = &v
	}
	if r.OpenNotes.Valid {
		v := r.OpenNotes.String
		resp.Notes = &v
	}
	if r.CloseNotes.Valid {
		v := r.CloseNotes.String
		resp.CloseNotes = &v
	}
	if r.AuthorizedBy.Valid {
		v := r.AuthorizedBy.String
		resp.AuthorizedBy = &v
	}
	if r.ReceivedBy.Valid {
		v := r.ReceivedBy.String
		resp.ReceivedBy = &v
	}
	return resp
}
