// internal/service/inventory/application/service_test.go
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
	"shopcore/internal/service/inventory/domain"
)

type noopUow struct{}

func (noopUow) InTx(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }

type memoryProductRepo struct {
	products map[int64]domain.Product
}

func (r *memoryProductRepo) FindByIDs(ctx context.Context, ids []int64) (map[int64]domain.Product, error) {
	out := make(map[int64]domain.Product, len(ids))
	for _, id := range ids {
		p, ok := r.products[id]
		if !ok {
			return nil, apperr.ErrProductNotFound.WithMessage("product %d not found", id)
		}
		out[id] = p
	}
	return out, nil
}

type memoryStockRepo struct {
	mu     sync.Mutex
	stocks map[int64]domain.Stock
}

func (r *memoryStockRepo) FindByProductID(ctx context.Context, productID int64) (domain.Stock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.stocks[productID]
	if !ok {
		return domain.Stock{}, apperr.ErrProductNotFound
	}
	return st, nil
}

func (r *memoryStockRepo) FindByProductIDForUpdate(ctx context.Context, productID int64) (domain.Stock, error) {
	return r.FindByProductID(ctx, productID)
}

func (r *memoryStockRepo) Save(ctx context.Context, stock domain.Stock) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stocks[stock.ProductID] = stock
	return nil
}

type memoryMovementRepo struct {
	mu   sync.Mutex
	rows []domain.StockMovement
}

func (r *memoryMovementRepo) Append(ctx context.Context, mv domain.StockMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, mv)
	return nil
}

func newTestService(stocks *memoryStockRepo, movements *memoryMovementRepo) *Service {
	products := &memoryProductRepo{products: map[int64]domain.Product{
		7: {ID: 7, Name: "widget", Price: 500_000},
	}}
	return NewService(products, stocks, movements, lock.NewKeyedMutex(time.Second), noopUow{})
}

func TestGetPrices(t *testing.T) {
	svc := newTestService(&memoryStockRepo{stocks: map[int64]domain.Stock{}}, &memoryMovementRepo{})

	prices, err := svc.GetPrices(context.Background(), []int64{7})
	require.NoError(t, err)
	assert.Equal(t, map[int64]int64{7: 500_000}, prices)

	_, err = svc.GetPrices(context.Background(), []int64{7, 404})
	assert.ErrorIs(t, err, apperr.ErrProductNotFound)
}

func TestReserveAndRelease(t *testing.T) {
	stocks := &memoryStockRepo{stocks: map[int64]domain.Stock{7: {ProductID: 7, Quantity: 10}}}
	movements := &memoryMovementRepo{}
	svc := newTestService(stocks, movements)
	ctx := context.Background()

	require.NoError(t, svc.Reserve(ctx, 7, 3, "order a"))
	require.NoError(t, svc.Release(ctx, 7, 3, "order canceled"))

	st, err := stocks.FindByProductID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(10), st.Quantity)

	// 每次预占一条 OUT，每次释放一条 IN
	require.Len(t, movements.rows, 2)
	assert.Equal(t, domain.MovementOut, movements.rows[0].Type)
	assert.Equal(t, domain.MovementIn, movements.rows[1].Type)
}

// 并发预占：库存 5，20 个并发请求各要 1 件，
// 恰好 5 个成功，计数器停在 0，绝不超卖。
func TestConcurrentReserves(t *testing.T) {
	stocks := &memoryStockRepo{stocks: map[int64]domain.Stock{7: {ProductID: 7, Quantity: 5}}}
	movements := &memoryMovementRepo{}
	svc := newTestService(stocks, movements)

	const workers = 20
	var failures int64
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := svc.Reserve(context.Background(), 7, 1, "order x")
			if err != nil {
				assert.ErrorIs(t, err, apperr.ErrInsufficientStock)
				mu.Lock()
				failures++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	st, err := stocks.FindByProductID(context.Background(), 7)
	require.NoError(t, err)
	assert.Zero(t, st.Quantity)
	assert.Equal(t, int64(workers-5), failures)
	assert.Len(t, movements.rows, 5)
}
