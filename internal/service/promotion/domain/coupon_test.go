// internal/service/promotion/domain/coupon_test.go
package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopcore/internal/pkg/apperr"
)

func activeCoupon(now time.Time) Coupon {
	return Coupon{
		ID:                1,
		Type:              CouponAmount,
		DiscountValue:     200_000,
		MinOrderPrice:     1_000_000,
		Quantity:          10,
		AvailableQuantity: 10,
		Status:            CouponActive,
		ValidFrom:         now.Add(-time.Hour),
		ValidTo:           now.Add(time.Hour),
	}
}

func TestCouponDiscount(t *testing.T) {
	t.Run("固定金额", func(t *testing.T) {
		c := Coupon{Type: CouponAmount, DiscountValue: 200_000}
		assert.Equal(t, int64(200_000), c.Discount(2_000_000))
	})

	t.Run("百分比", func(t *testing.T) {
		c := Coupon{Type: CouponPercent, DiscountValue: 10}
		assert.Equal(t, int64(200_000), c.Discount(2_000_000))
	})

	t.Run("百分比向下取整", func(t *testing.T) {
		c := Coupon{Type: CouponPercent, DiscountValue: 3}
		assert.Equal(t, int64(3), c.Discount(133))
	})
}

func TestCouponCheckIssuable(t *testing.T) {
	now := time.Now()

	t.Run("可发放", func(t *testing.T) {
		assert.NoError(t, activeCoupon(now).CheckIssuable(now))
	})

	t.Run("未上架", func(t *testing.T) {
		c := activeCoupon(now)
		c.Status = CouponInactive
		assert.ErrorIs(t, c.CheckIssuable(now), apperr.ErrCouponInactive)
	})

	t.Run("不在有效期内", func(t *testing.T) {
		c := activeCoupon(now)
		assert.ErrorIs(t, c.CheckIssuable(now.Add(2*time.Hour)), apperr.ErrCouponInactive)
	})

	t.Run("池子耗尽", func(t *testing.T) {
		c := activeCoupon(now)
		c.AvailableQuantity = 0
		assert.ErrorIs(t, c.CheckIssuable(now), apperr.ErrCouponExhausted)
	})
}

func TestCouponTakeOneAndPutBack(t *testing.T) {
	now := time.Now()
	c := activeCoupon(now)

	t.Run("扣减一张", func(t *testing.T) {
		next, err := c.TakeOne(now)
		require.NoError(t, err)
		assert.Equal(t, int64(9), next.AvailableQuantity)
		assert.Equal(t, int64(10), c.AvailableQuantity)
	})

	t.Run("扣完报耗尽", func(t *testing.T) {
		empty := c
		empty.AvailableQuantity = 0
		_, err := empty.TakeOne(now)
		assert.ErrorIs(t, err, apperr.ErrCouponExhausted)
	})

	t.Run("过期不可核销", func(t *testing.T) {
		_, err := c.TakeOne(c.ValidTo.Add(time.Minute))
		assert.ErrorIs(t, err, apperr.ErrCouponExpired)
	})

	t.Run("归还封顶于总量", func(t *testing.T) {
		full := c
		assert.Equal(t, int64(10), full.PutBack().AvailableQuantity)

		taken, err := c.TakeOne(now)
		require.NoError(t, err)
		assert.Equal(t, int64(10), taken.PutBack().AvailableQuantity)
	})
}

func TestUserCouponLifecycle(t *testing.T) {
	now := time.Now()
	uc := NewUserCoupon(42, 1, now)
	assert.Equal(t, UserCouponAvailable, uc.Status)

	used, err := uc.Use(now)
	require.NoError(t, err)
	assert.Equal(t, UserCouponUsed, used.Status)
	require.NotNil(t, used.UsedAt)

	// 二次核销被拒绝
	_, err = used.Use(now)
	assert.ErrorIs(t, err, apperr.ErrCouponAlreadyUsed)

	restored := used.Restore()
	assert.Equal(t, UserCouponAvailable, restored.Status)
	assert.Nil(t, restored.UsedAt)

	// 对 AVAILABLE 的券 Restore 是幂等空操作
	assert.Equal(t, restored, restored.Restore())
}
