package items

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ortobanco-backend/internal/platform/apierr"
)

func TestIsValidState(t *testing.T) {
	for _, st := range []State{StateAvailable, StateLoaned, StateMaintenance, StateDecommissioned} {
		assert.True(t, IsValidState(string(st)), string(st))
	}
	assert.False(t, IsValidState(""))
	assert.False(t, IsValidState("activo"))
	assert.False(t, IsValidState("Disponible"))
}

func TestCreateValidation(t *testing.T) {
	// validation runs before any storage access
	svc := &Service{}
	valid := CreateItemRequest{Code: "SILLA-001", Name: "Silla de ruedas", CategoryID: 1, DepositID: 1}

	tests := []struct {
		name   string
		mutate func(*CreateItemRequest)
	}{
		{"missing code", func(r *CreateItemRequest) { r.Code = "" }},
		{"blank code", func(r *CreateItemRequest) { r.Code = "   " }},
		{"missing name", func(r *CreateItemRequest) { r.Name = " " }},
		{"missing category", func(r *CreateItemRequest) { r.CategoryID = 0 }},
		{"missing deposit", func(r *CreateItemRequest) { r.DepositID = 0 }},
		{"bad entry date", func(r *CreateItemRequest) {
			d := "15/06/2025"
			r.EntryDate = &d
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			_, err := svc.Create(context.Background(), req)
			var apiErr *apierr.Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, apierr.CodeInvalidArgument, apiErr.Code)
		})
	}
}

func TestDecommissionRequiresReason(t *testing.T) {
	svc := &Service{}
	_, err := svc.Decommission(context.Background(), "SILLA-001", DecommissionRequest{}, "admin")
	var apiErr *apierr.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierr.CodeInvalidArgument, apiErr.Code)
}
