// internal/lock/zookeeper_test.go
package lock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeq(t *testing.T) {
	seq, err := parseSeq("_c_3f8a2b1c-lock-0000000042")
	require.NoError(t, err)
	assert.Equal(t, int64(42), seq)

	_, err = parseSeq("garbage")
	assert.Error(t, err)
}

func TestPickPredecessor(t *testing.T) {
	// GUID 前缀的字典序与创建顺序相反：后来者 _c_00… 排在持有者 _c_ff… 前面。
	// 排队必须按末尾序号，否则后来者会误判自己是持有者。
	holder := "_c_ffffffff-lock-0000000001"
	waiter := "_c_00000000-lock-0000000002"
	children := []string{waiter, holder}

	t.Run("持有者序号最小", func(t *testing.T) {
		prev, err := pickPredecessor(children, holder)
		require.NoError(t, err)
		assert.Empty(t, prev)
	})

	t.Run("等待者盯住前驱而不是自己", func(t *testing.T) {
		prev, err := pickPredecessor(children, waiter)
		require.NoError(t, err)
		assert.Equal(t, holder, prev)
	})

	t.Run("多个等待者各自盯紧邻前驱", func(t *testing.T) {
		third := "_c_77777777-lock-0000000003"
		prev, err := pickPredecessor([]string{third, waiter, holder}, third)
		require.NoError(t, err)
		assert.Equal(t, waiter, prev)
	})

	t.Run("自身节点缺失时报错", func(t *testing.T) {
		_, err := pickPredecessor(children, "_c_deadbeef-lock-0000000009")
		assert.Error(t, err)
	})

	t.Run("非顺序节点不参与排队", func(t *testing.T) {
		prev, err := pickPredecessor([]string{"marker", holder, waiter}, waiter)
		require.NoError(t, err)
		assert.Equal(t, holder, prev)
	})
}
