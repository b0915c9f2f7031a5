// internal/service/user/domain/user_test.go
package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopcore/internal/pkg/apperr"
)

func TestChargePoint(t *testing.T) {
	now := time.Now()
	u := User{ID: 1, Point: 100}

	t.Run("正常充值", func(t *testing.T) {
		next, history, err := u.ChargePoint(900, "charge", now)
		require.NoError(t, err)
		assert.Equal(t, int64(1000), next.Point)
		// 原快照不被修改
		assert.Equal(t, int64(100), u.Point)
		assert.Equal(t, PointCharge, history.Type)
		assert.Equal(t, int64(900), history.Amount)
	})

	t.Run("充值刚好到上限", func(t *testing.T) {
		next, _, err := u.ChargePoint(PointCap-100, "charge", now)
		require.NoError(t, err)
		assert.Equal(t, PointCap, next.Point)
	})

	t.Run("超过上限被拒绝", func(t *testing.T) {
		_, _, err := u.ChargePoint(PointCap-100+1, "charge", now)
		assert.ErrorIs(t, err, apperr.ErrBalanceCapExceeded)
	})

	t.Run("非正金额被拒绝", func(t *testing.T) {
		_, _, err := u.ChargePoint(0, "charge", now)
		assert.ErrorIs(t, err, apperr.ErrInvalidAmount)
		_, _, err = u.ChargePoint(-1, "charge", now)
		assert.ErrorIs(t, err, apperr.ErrInvalidAmount)
	})
}

func TestUsePoint(t *testing.T) {
	now := time.Now()
	u := User{ID: 1, Point: 500}

	t.Run("正常消费", func(t *testing.T) {
		next, history, err := u.UsePoint(200, "order abc", now)
		require.NoError(t, err)
		assert.Equal(t, int64(300), next.Point)
		assert.Equal(t, PointUse, history.Type)
		assert.Equal(t, "order abc", history.Comment)
	})

	t.Run("消费到零", func(t *testing.T) {
		next, _, err := u.UsePoint(500, "order abc", now)
		require.NoError(t, err)
		assert.Zero(t, next.Point)
	})

	t.Run("余额不足", func(t *testing.T) {
		_, _, err := u.UsePoint(501, "order abc", now)
		assert.ErrorIs(t, err, apperr.ErrInsufficientBalance)
	})

	t.Run("非正金额被拒绝", func(t *testing.T) {
		_, _, err := u.UsePoint(0, "order abc", now)
		assert.ErrorIs(t, err, apperr.ErrInvalidAmount)
	})
}
