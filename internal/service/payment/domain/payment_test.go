// internal/service/payment/domain/payment_test.go
package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopcore/internal/pkg/apperr"
)

func TestNewPayment(t *testing.T) {
	now := time.Now()

	t.Run("零元单允许", func(t *testing.T) {
		p, err := NewPayment("order-1", 1, "key-1", 0, now)
		require.NoError(t, err)
		assert.Equal(t, StatusPending, p.Status)
		assert.NotEmpty(t, p.ID)
	})

	t.Run("负金额被拒绝", func(t *testing.T) {
		_, err := NewPayment("order-1", 1, "key-1", -1, now)
		assert.ErrorIs(t, err, apperr.ErrInvalidFinalPrice)
	})
}

func TestPaymentTransitions(t *testing.T) {
	now := time.Now()
	p, err := NewPayment("order-1", 1, "key-1", 1_700_000, now)
	require.NoError(t, err)

	t.Run("完结", func(t *testing.T) {
		done, err := p.Complete("txn-9", now)
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, done.Status)
		assert.Equal(t, "txn-9", done.TransactionID)
		require.NotNil(t, done.SuccessAt)

		// 终态不可再变更，且错误码要能和“幂等键已烧毁”区分开
		_, err = done.Complete("txn-10", now)
		assert.ErrorIs(t, err, apperr.ErrInvalidPaymentState)
		assert.NotErrorIs(t, err, apperr.ErrPaymentAlreadyFailed)
		_, err = done.Fail("too late", now)
		assert.ErrorIs(t, err, apperr.ErrInvalidPaymentState)
	})

	t.Run("失败", func(t *testing.T) {
		failed, err := p.Fail("insufficient balance", now)
		require.NoError(t, err)
		assert.Equal(t, StatusFailed, failed.Status)
		assert.Equal(t, "insufficient balance", failed.FailReason)

		_, err = failed.Complete("txn-9", now)
		assert.ErrorIs(t, err, apperr.ErrInvalidPaymentState)
	})
}
