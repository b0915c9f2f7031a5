// internal/service/user/application/service_test.go
package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopcore/internal/lock"
	"shopcore/internal/pkg/apperr"
	"shopcore/internal/service/user/domain"
)

// noopUow 直接执行回调；事务语义由真实实现的集成环境保证。
type noopUow struct{}

func (noopUow) InTx(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }

type memoryUserRepo struct {
	mu    sync.Mutex
	users map[int64]domain.User
}

func newMemoryUserRepo(users ...domain.User) *memoryUserRepo {
	r := &memoryUserRepo{users: make(map[int64]domain.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *memoryUserRepo) FindByID(ctx context.Context, id int64) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.User{}, apperr.ErrUserNotFound
	}
	return u, nil
}

func (r *memoryUserRepo) FindByIDForUpdate(ctx context.Context, id int64) (domain.User, error) {
	return r.FindByID(ctx, id)
}

func (r *memoryUserRepo) Save(ctx context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
	return nil
}

type memoryHistoryRepo struct {
	mu   sync.Mutex
	rows []domain.PointHistory
}

func (r *memoryHistoryRepo) Append(ctx context.Context, h domain.PointHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, h)
	return nil
}

func (r *memoryHistoryRepo) FindByUserID(ctx context.Context, userID int64) ([]domain.PointHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.PointHistory
	for _, h := range r.rows {
		if h.UserID == userID {
			out = append(out, h)
		}
	}
	return out, nil
}

func newTestService(users *memoryUserRepo, history *memoryHistoryRepo) *Service {
	return NewService(users, history, lock.NewKeyedMutex(time.Second), noopUow{})
}

func TestChargeAndBalance(t *testing.T) {
	repo := newMemoryUserRepo(domain.User{ID: 1, Point: 0})
	history := &memoryHistoryRepo{}
	svc := newTestService(repo, history)
	ctx := context.Background()

	require.NoError(t, svc.Charge(ctx, 1, 500_000, "manual charge"))

	balance, err := svc.Balance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(500_000), balance)

	rows, err := history.FindByUserID(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.PointCharge, rows[0].Type)
}

func TestChargeCapRejected(t *testing.T) {
	repo := newMemoryUserRepo(domain.User{ID: 1, Point: domain.PointCap - 1})
	history := &memoryHistoryRepo{}
	svc := newTestService(repo, history)

	err := svc.Charge(context.Background(), 1, 2, "manual charge")
	assert.ErrorIs(t, err, apperr.ErrBalanceCapExceeded)

	// 失败的转换不留任何痕迹
	balance, _ := svc.Balance(context.Background(), 1)
	assert.Equal(t, domain.PointCap-1, balance)
	rows, _ := history.FindByUserID(context.Background(), 1)
	assert.Empty(t, rows)
}

func TestDebitUnknownUser(t *testing.T) {
	svc := newTestService(newMemoryUserRepo(), &memoryHistoryRepo{})
	err := svc.Debit(context.Background(), 404, 100, "order x")
	assert.ErrorIs(t, err, apperr.ErrUserNotFound)
}

// 并发扣减同一账户：锁内的读改写循环保证没有一次扣减丢失，
// 余额恰好从 1000 走到 0，超出的请求全部拿到余额不足。
func TestConcurrentDebits(t *testing.T) {
	repo := newMemoryUserRepo(domain.User{ID: 1, Point: 1000})
	history := &memoryHistoryRepo{}
	svc := newTestService(repo, history)

	const workers = 20
	var insufficient int64
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := svc.Debit(context.Background(), 1, 100, "order x")
			if err != nil {
				assert.ErrorIs(t, err, apperr.ErrInsufficientBalance)
				mu.Lock()
				insufficient++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	balance, err := svc.Balance(context.Background(), 1)
	require.NoError(t, err)
	assert.Zero(t, balance)
	assert.Equal(t, int64(workers-10), insufficient)

	rows, _ := history.FindByUserID(context.Background(), 1)
	assert.Len(t, rows, 10)
}

func TestRefundRestoresBalance(t *testing.T) {
	repo := newMemoryUserRepo(domain.User{ID: 1, Point: 1000})
	history := &memoryHistoryRepo{}
	svc := newTestService(repo, history)
	ctx := context.Background()

	require.NoError(t, svc.Debit(ctx, 1, 400, "order x"))
	require.NoError(t, svc.Refund(ctx, 1, 400, "refund for canceled order x"))

	balance, err := svc.Balance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), balance)
}
