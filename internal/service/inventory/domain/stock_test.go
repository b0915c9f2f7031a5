// internal/service/inventory/domain/stock_test.go
package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopcore/internal/pkg/apperr"
)

func TestStockReserve(t *testing.T) {
	now := time.Now()
	st := Stock{ProductID: 7, Quantity: 10}

	t.Run("正常预占", func(t *testing.T) {
		next, mv, err := st.Reserve(3, "order x", now)
		require.NoError(t, err)
		assert.Equal(t, int64(7), next.Quantity)
		assert.Equal(t, int64(10), st.Quantity)
		assert.Equal(t, MovementOut, mv.Type)
		assert.Equal(t, int64(3), mv.Quantity)
	})

	t.Run("预占到零", func(t *testing.T) {
		next, _, err := st.Reserve(10, "order x", now)
		require.NoError(t, err)
		assert.Zero(t, next.Quantity)
	})

	t.Run("库存不足", func(t *testing.T) {
		_, _, err := st.Reserve(11, "order x", now)
		assert.ErrorIs(t, err, apperr.ErrInsufficientStock)
	})

	t.Run("非正数量被拒绝", func(t *testing.T) {
		_, _, err := st.Reserve(0, "order x", now)
		assert.ErrorIs(t, err, apperr.ErrInvalidQuantity)
	})
}

func TestStockRelease(t *testing.T) {
	now := time.Now()
	st := Stock{ProductID: 7, Quantity: 2}

	next, mv := st.Release(3, "order canceled", now)
	assert.Equal(t, int64(5), next.Quantity)
	assert.Equal(t, MovementIn, mv.Type)
	assert.Equal(t, "order canceled", mv.Reason)
}
