// internal/lock/keyed_mutex_test.go
package lock

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopcore/internal/pkg/apperr"
)

func TestKeyedMutexMutualExclusion(t *testing.T) {
	m := NewKeyedMutex(time.Second)

	// 没有互斥保护时这是一个竞态计数器
	var counter int
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := m.WithLock(context.Background(), StockKey(1), func(ctx context.Context) error {
				v := counter
				time.Sleep(time.Microsecond)
				counter = v + 1
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
}

func TestKeyedMutexTimeout(t *testing.T) {
	m := NewKeyedMutex(20 * time.Millisecond)

	acquired := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = m.WithLock(context.Background(), CouponKey(9), func(ctx context.Context) error {
			close(acquired)
			<-release
			return nil
		})
	}()
	<-acquired
	defer close(release)

	err := m.WithLock(context.Background(), CouponKey(9), func(ctx context.Context) error { return nil })
	require.ErrorIs(t, err, apperr.ErrLockTimeout)

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.True(t, appErr.Retryable())
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	m := NewKeyedMutex(20 * time.Millisecond)

	acquired := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = m.WithLock(context.Background(), StockKey(1), func(ctx context.Context) error {
			close(acquired)
			<-release
			return nil
		})
	}()
	<-acquired
	defer close(release)

	// 不同 key 互不阻塞
	err := m.WithLock(context.Background(), StockKey(2), func(ctx context.Context) error { return nil })
	assert.NoError(t, err)
}

func TestKeyedMutexContextCanceled(t *testing.T) {
	m := NewKeyedMutex(time.Minute)

	acquired := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = m.WithLock(context.Background(), BalanceKey(5), func(ctx context.Context) error {
			close(acquired)
			<-release
			return nil
		})
	}()
	<-acquired
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := m.WithLock(ctx, BalanceKey(5), func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// 一次性 key（订单号、支付号）用完即回收，长跑进程不会积累条目。
func TestKeyedMutexReclaimsIdleEntries(t *testing.T) {
	m := NewKeyedMutex(time.Second)

	for i := int64(0); i < 100; i++ {
		err := m.WithLock(context.Background(), PaymentKey("key-"+strconv.FormatInt(i, 10)), func(ctx context.Context) error {
			return nil
		})
		require.NoError(t, err)
	}

	m.mu.Lock()
	remaining := len(m.sems)
	m.mu.Unlock()
	assert.Zero(t, remaining)
}

// 回收不能破坏互斥：争抢同一个 key 的等待者引用着同一把信号量。
func TestKeyedMutexReclaimKeepsExclusion(t *testing.T) {
	m := NewKeyedMutex(time.Second)

	var counter int
	var wg sync.WaitGroup
	for round := 0; round < 5; round++ {
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := m.WithLock(context.Background(), BalanceKey(7), func(ctx context.Context) error {
					v := counter
					time.Sleep(time.Microsecond)
					counter = v + 1
					return nil
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()
	}
	assert.Equal(t, 50, counter)

	m.mu.Lock()
	remaining := len(m.sems)
	m.mu.Unlock()
	assert.Zero(t, remaining)
}
