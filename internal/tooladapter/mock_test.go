package tooladapter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ecoforge/internal/domain"
)

func TestMockDeterministic(t *testing.T) {
	m := NewMockSource()
	params := map[string]any{"category": "transport", "activity": "train"}
	a := m.Value(KindCarbonFactor, params)
	b := m.Value(KindCarbonFactor, params)
	assert.Equal(t, a.Number, b.Number)
	assert.Equal(t, 0.04, a.Number)
	assert.Equal(t, domain.ProvenanceMock, a.Provenance)
}

func TestMockFactorTables(t *testing.T) {
	m := NewMockSource()
	tests := []struct {
		name   string
		params map[string]any
		want   float64
	}{
		{"beef", map[string]any{"category": "food", "activity": "beef"}, 60.0},
		{"unknown food default", map[string]any{"category": "food", "activity": "tofu"}, 2.0},
		{"suv", map[string]any{"category": "transport", "activity": "suv_gasoline"}, 0.25},
		{"unknown transport default", map[string]any{"category": "transport", "activity": "hoverboard"}, 0.18},
		{"jp grid", map[string]any{"category": "electricity", "country": "jp"}, 0.518},
		{"unknown grid default", map[string]any{"category": "electricity", "country": "XX"}, 0.4},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := m.Value(KindCarbonFactor, tc.params)
			assert.Equal(t, tc.want, v.Number)
		})
	}
}

func TestMockSearchMentionsQuery(t *testing.T) {
	m := NewMockSource()
	v := m.Value(KindSearch, map[string]any{"query": "ev charging"})
	assert.Contains(t, v.Text, "ev charging")
	assert.Equal(t, domain.ProvenanceMock, v.Provenance)
}
