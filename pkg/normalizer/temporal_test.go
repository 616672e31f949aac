package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idss-ai/text2sql-engine/pkg/knowledge"
)

func TestExtractTime(t *testing.T) {
	tests := []struct {
		name      string
		question  string
		wantScope TimeScope
		wantFrags []string
	}{
		{
			name:      "year and month",
			question:  "geek 25年7月全链库存",
			wantScope: TimeScope{FiscalYear: 2025, FiscalMonth: "7月", FiscalWeek: "ttl"},
			wantFrags: []string{"自然年 = 2025", "财月 = '7月'", "财周 = 'ttl'"},
		},
		{
			name:      "year only",
			question:  "510S 24年销量",
			wantScope: TimeScope{FiscalYear: 2024},
			wantFrags: []string{"自然年 = 2024"},
		},
		{
			name:      "single digit month",
			question:  "3月备货",
			wantScope: TimeScope{FiscalMonth: "3月"},
			wantFrags: []string{"财月 = '3月'"},
		},
		{
			name:      "full chain only",
			question:  "拯救者全链库存",
			wantScope: TimeScope{FiscalWeek: "ttl"},
			wantFrags: []string{"财周 = 'ttl'"},
		},
		{
			name:      "no temporal markers",
			question:  "拯救者销量",
			wantScope: TimeScope{},
			wantFrags: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scope, conds := ExtractTime(tt.question)
			assert.Equal(t, tt.wantScope, scope)

			var frags []string
			for _, c := range conds {
				frags = append(frags, c.Fragment)
			}
			assert.Equal(t, tt.wantFrags, frags)
		})
	}
}

func TestScopeFromConditions(t *testing.T) {
	t.Run("all dimensions", func(t *testing.T) {
		scope := ScopeFromConditions([]Condition{
			NewCondition("自然年 = 2025"),
			NewCondition("财月 = '7月'"),
			NewCondition("财周 = 'ttl'"),
		})
		assert.Equal(t, TimeScope{FiscalYear: 2025, FiscalMonth: "7月", FiscalWeek: "ttl"}, scope)
	})

	t.Run("week defaults to ttl when year pinned", func(t *testing.T) {
		scope := ScopeFromConditions([]Condition{
			NewCondition("自然年 = 2025"),
		})
		assert.Equal(t, "ttl", scope.FiscalWeek)
	})

	t.Run("no defaults without temporal context", func(t *testing.T) {
		scope := ScopeFromConditions([]Condition{
			NewCondition("[Group] = 'ttl'"),
		})
		assert.Equal(t, TimeScope{}, scope)
	})

	t.Run("fiscal year alias", func(t *testing.T) {
		scope := ScopeFromConditions([]Condition{
			NewCondition("财年 = 2024"),
		})
		assert.Equal(t, 2024, scope.FiscalYear)
	})
}

func TestProductConditions(t *testing.T) {
	conds := ProductConditions(knowledge.ProductTerm{Keyword: "geek", Pattern: "Geek"})
	require.Len(t, conds, 2)
	assert.Equal(t, "[Roadmap Family] LIKE '%Geek%'", conds[0].Fragment)
	assert.Equal(t, "[Group] = 'ttl'", conds[1].Fragment)
}
