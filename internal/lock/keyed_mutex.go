// internal/lock/keyed_mutex.go
package lock

import (
	"context"
	"sync"
	"time"

	"shopcore/internal/pkg/apperr"
)

// KeyedMutex 是 Locker 的进程内实现：每个 key 一把容量为 1 的信号量。
// 单机部署、以及所有测试，都用它做并发守卫。
// 条目按持有者 + 等待者引用计数，没人引用时立刻回收，
// 长时间运行不会因为订单号、支付号这类一次性 key 而无限膨胀。
type KeyedMutex struct {
	mu   sync.Mutex
	sems map[string]*keyedSem
	wait time.Duration
}

type keyedSem struct {
	ch   chan struct{}
	refs int
}

// NewKeyedMutex 创建进程内锁。wait 是每次获取锁的有界等待时长。
func NewKeyedMutex(wait time.Duration) *KeyedMutex {
	return &KeyedMutex{
		sems: make(map[string]*keyedSem),
		wait: wait,
	}
}

func (m *KeyedMutex) retain(key string) *keyedSem {
	m.mu.Lock()
	defer m.mu.Unlock()
	sem, ok := m.sems[key]
	if !ok {
		sem = &keyedSem{ch: make(chan struct{}, 1)}
		m.sems[key] = sem
	}
	sem.refs++
	return sem
}

func (m *KeyedMutex) release(key string, sem *keyedSem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sem.refs--
	if sem.refs == 0 {
		delete(m.sems, key)
	}
}

// WithLock 在 key 的互斥区内执行 fn。等待超过 wait 返回 ErrLockTimeout。
func (m *KeyedMutex) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	sem := m.retain(key)
	defer m.release(key, sem)

	timer := time.NewTimer(m.wait)
	defer timer.Stop()

	select {
	case sem.ch <- struct{}{}:
	case <-timer.C:
		return apperr.ErrLockTimeout.WithMessage("timed out waiting for lock on %q", key)
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-sem.ch }()

	return fn(ctx)
}
