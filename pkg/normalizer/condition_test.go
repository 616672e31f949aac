package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCondition(t *testing.T) {
	tests := []struct {
		name     string
		fragment string
		wantKey  string
		wantFrag string
	}{
		{
			name:     "equality",
			fragment: "自然年 = 2025",
			wantKey:  "自然年",
			wantFrag: "自然年 = 2025",
		},
		{
			name:     "strips WHERE prefix",
			fragment: "WHERE 财月 = '7月'",
			wantKey:  "财月",
			wantFrag: "财月 = '7月'",
		},
		{
			name:     "bracketed field with LIKE",
			fragment: "[Roadmap Family] LIKE '%Geek%'",
			wantKey:  "roadmap family",
			wantFrag: "[Roadmap Family] LIKE '%Geek%'",
		},
		{
			name:     "bracketed equality",
			fragment: "[Group] = 'ttl'",
			wantKey:  "group",
			wantFrag: "[Group] = 'ttl'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCondition(tt.fragment)
			assert.Equal(t, tt.wantKey, c.Key)
			assert.Equal(t, tt.wantFrag, c.Fragment)
		})
	}
}

func TestDedupe(t *testing.T) {
	t.Run("literal beats wildcard", func(t *testing.T) {
		conds := Dedupe([]Condition{
			NewCondition("财周 = '31'"),
			NewCondition("财周 = 'ttl'"),
		})
		require.Len(t, conds, 1)
		assert.Equal(t, "财周 = '31'", conds[0].Fragment)
	})

	t.Run("wildcard replaced by later literal", func(t *testing.T) {
		conds := Dedupe([]Condition{
			NewCondition("财周 = 'ttl'"),
			NewCondition("财周 = '31'"),
		})
		require.Len(t, conds, 1)
		assert.Equal(t, "财周 = '31'", conds[0].Fragment)
	})

	t.Run("later literal wins", func(t *testing.T) {
		conds := Dedupe([]Condition{
			NewCondition("财月 = '6月'"),
			NewCondition("财月 = '7月'"),
		})
		require.Len(t, conds, 1)
		assert.Equal(t, "财月 = '7月'", conds[0].Fragment)
	})

	t.Run("key order follows first occurrence", func(t *testing.T) {
		conds := Dedupe([]Condition{
			NewCondition("自然年 = 2025"),
			NewCondition("[Group] = 'ttl'"),
			NewCondition("自然年 = 2024"),
		})
		require.Len(t, conds, 2)
		assert.Equal(t, "自然年 = 2024", conds[0].Fragment)
		assert.Equal(t, "[Group] = 'ttl'", conds[1].Fragment)
	})
}

func TestJoinFragments(t *testing.T) {
	conds := []Condition{
		NewCondition("自然年 = 2025"),
		NewCondition("财月 = '7月'"),
		NewCondition("财周 = 'ttl'"),
	}
	assert.Equal(t, "自然年 = 2025 AND 财月 = '7月' AND 财周 = 'ttl'", JoinFragments(conds))
	assert.Equal(t, "", JoinFragments(nil))
}
