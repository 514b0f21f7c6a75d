package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractKeywords(t *testing.T) {
	tests := []struct {
		msg  string
		want string
	}{
		{"I'm looking for a quiet spot in La Masella", "La Masella"},
		{"Places in Girona", "Girona"},
		{"places near Girona, Spain", "Girona"},
		{"Any spots around Berga for tonight?", "Berga"},
		{"camping in the Pyrenees", "Pyrenees"},
		{"looking for something cheap near Tarragona", "Tarragona"},
		{"Tell me about Sant Joan", "Sant Joan"},
		{"Show me Lleida.", "Lleida"},
		{"quiet beach parking please", "quiet beach parking"},
		{"¿Dónde dormir en Valencia?", "Valencia"},
		{"Sitios cerca de Girona para esta noche", "Girona"},
		{"Je cherche une aire près de Annecy", "Annecy"},
		{"On puc dormir a prop de Berga?", "Berga"},
		{"¿Dónde?", "¿Dónde?"},
		{"ok", "ok"},
		{"?!", "?!"},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractKeywords(tt.msg))
		})
	}
}

func TestExtractKeywords_NeverEmpty(t *testing.T) {
	inputs := []string{"a", "in", "the the the", "...", "I", "near  ", "¿dónde?"}
	for _, in := range inputs {
		assert.NotEmpty(t, ExtractKeywords(in), in)
	}
	assert.Empty(t, ExtractKeywords("   "))
}
