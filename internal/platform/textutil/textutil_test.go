package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Dañado", "danado"},
		{"SILLA DE RUEDAS", "silla de ruedas"},
		{"Bastón", "baston"},
		{"Ortopédico", "ortopedico"},
		{"regular", "regular"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Fold(tt.in), tt.in)
	}
}

func TestFoldIsIdempotent(t *testing.T) {
	in := "Camilla Ortopédica Nº2"
	assert.Equal(t, Fold(in), Fold(Fold(in)))
}
