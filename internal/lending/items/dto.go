package items

import "time"

type CreateItemRequest struct {
	Code       string `json:"code" binding:"required"`
	Name       string `json:"name" binding:"required"`
	CategoryID int64  `json:"category_id" binding:"required"`
	DepositID  int64  `json:"deposit_id" binding:"required"`
	// "2006-01-02"; defaults to today
	EntryDate    *string `json:"entry_date,omitempty"`
	Description  *string `json:"description,omitempty"`
	Brand        *string `json:"brand,omitempty"`
	Model        *string `json:"model,omitempty"`
	SerialNumber *string `json:"serial_number,omitempty"`
	Notes        *string `json:"notes,omitempty"`
}

type DecommissionRequest struct {
	Reason string `json:"reason" binding:"required"`
	Notes  *string `json:"notes,omitempty"`
}

type ItemResponse struct {
	ID           int64     `json:"id"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	CategoryID   int64     `json:"category_id"`
	DepositID    int64     `json:"deposit_id"`
	State        State     `json:"state"`
	Description  *string   `json:"description,omitempty"`
	Brand        *string   `json:"brand,omitempty"`
	Model        *string   `json:"model,omitempty"`
	SerialNumber *string   `json:"serial_number,omitempty"`
	EntryDate    time.Time `json:"entry_date"`
	Notes        *string   `json:"notes,omitempty"`
	Active       bool      `json:"active"`
}

func toResponse(it *Item) ItemResponse {
	r := ItemResponse{
		ID:         it.ID,
		Code:       it.Code,
		Name:       it.Name,
		CategoryID: it.CategoryID,
		DepositID:  it.DepositID,
		State:      it.State,
		EntryDate:  it.EntryDate,
		Active:     it.Active,
	}
	if it.Description.Valid {
		v := it.Description.String
		r.Description = &v
	}
	if it.Brand.Valid {
		v := it.Brand.String
		r.Brand = &v
	}
	if it.Model.Valid {
		v := it.Model.String
		r.Model = &v
	}
	if it.SerialNumber.Valid {
		v := it.SerialNumber.String
		r.SerialNumber = &v
	}
	if it.Notes.Valid {
		v := it.Notes.String
		r.Notes = &v
	}
	return r
}
