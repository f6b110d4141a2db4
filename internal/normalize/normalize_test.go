package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercases", "CONSTRUCTORA ABC", "constructora abc"},
		{"collapses internal whitespace", "Torre   Norte\tFase 2", "torre norte fase 2"},
		{"trims surrounding whitespace", "  5-250-2-B-28-12-D-2-000  ", "5-250-2-b-28-12-d-2-000"},
		{"folds accents", "Álamo Cimentación", "alamo cimentacion"},
		{"empty stays empty", "", ""},
		{"whitespace only collapses to empty", "   \t\n ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Text(tt.input))
		})
	}
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal("Constructora  ABC", "constructora abc"))
	assert.True(t, Equal("CIMENTACIÓN", "cimentacion"))
	assert.False(t, Equal("Torre Norte", "Torre Sur"))
}
