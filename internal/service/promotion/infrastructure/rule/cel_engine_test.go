// internal/service/promotion/infrastructure/rule/cel_engine_test.go
package rule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopcore/internal/service/promotion/domain"
)

func TestCELRuleEngineEvaluate(t *testing.T) {
	engine, err := NewCELRuleEngine()
	require.NoError(t, err)

	fact := domain.Fact{UserID: 42, TotalPrice: 2_000_000, ItemCount: 3}

	tests := []struct {
		name string
		rule string
		want bool
	}{
		{"空规则恒为真", "", true},
		{"总价门槛满足", "fact.totalPrice >= 1000000", true},
		{"总价门槛不满足", "fact.totalPrice >= 3000000", false},
		{"组合条件", "fact.totalPrice >= 1000000 && fact.itemCount >= 2", true},
		{"指定用户", "fact.userId == 42", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.Evaluate(tt.rule, fact)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCELRuleEngineErrors(t *testing.T) {
	engine, err := NewCELRuleEngine()
	require.NoError(t, err)

	t.Run("语法错误", func(t *testing.T) {
		_, err := engine.Evaluate("fact.totalPrice >=", domain.Fact{})
		assert.Error(t, err)
	})

	t.Run("非布尔结果", func(t *testing.T) {
		_, err := engine.Evaluate("fact.totalPrice", domain.Fact{TotalPrice: 1})
		assert.Error(t, err)
	})
}

func TestCELRuleEngineProgramCache(t *testing.T) {
	engine, err := NewCELRuleEngine()
	require.NoError(t, err)

	const rule = "fact.itemCount > 0"
	for i := 0; i < 3; i++ {
		ok, err := engine.Evaluate(rule, domain.Fact{ItemCount: 1})
		require.NoError(t, err)
		assert.True(t, ok)
	}
	engine.mu.RLock()
	defer engine.mu.RUnlock()
	assert.Len(t, engine.programs, 1)
}
