package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilter_Matches(t *testing.T) {
	meta := map[string]any{"city": "Seattle", "lat": 47.6, "has_description": true, "segment": 2}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"empty", Filter{}, true},
		{"equals hit", Filter{Equals: map[string]any{"city": "Seattle"}}, true},
		{"equals miss", Filter{Equals: map[string]any{"city": "Portland"}}, false},
		{"missing key", Filter{Equals: map[string]any{"state": "WA"}}, false},
		{"numeric across types", Filter{Equals: map[string]any{"segment": float64(2)}}, true},
		{"bool", Filter{Equals: map[string]any{"has_description": true}}, true},
		{"in hit", Filter{In: map[string][]any{"city": {"Portland", "Seattle"}}}, true},
		{"in miss", Filter{In: map[string][]any{"city": {"Portland"}}}, false},
		{"and", Filter{Equals: map[string]any{"city": "Seattle"}, In: map[string][]any{"segment": {1}}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(meta))
		})
	}
}

func TestFilter_Validate(t *testing.T) {
	assert.NoError(t, CityFilter("Seattle").Validate())
	assert.True(t, CityFilter("").IsEmpty())
	assert.ErrorIs(t, Filter{Equals: map[string]any{"x": nil}}.Validate(), ErrInvalidInput)
	assert.ErrorIs(t, Filter{In: map[string][]any{"x": {[]int{1}}}}.Validate(), ErrInvalidInput)
}

func TestRankTopK(t *testing.T) {
	hits := []ScoredDocument{
		{Document: Document{ID: "c"}, Score: 0.2},
		{Document: Document{ID: "b"}, Score: 0.9},
		{Document: Document{ID: "a"}, Score: 0.9},
		{Document: Document{ID: "d"}, Score: 0.5},
	}

	res := RankTopK(hits, 3)

	assert.Equal(t, []string{"a", "b", "d"}, res.IDs())
	assert.Equal(t, 3, res.Len())
	assert.False(t, res.IsEmpty())

	assert.True(t, RankTopK(nil, 3).IsEmpty())
	assert.Equal(t, 1, RankTopK([]ScoredDocument{{Score: 1}}, 5).Len())
}
