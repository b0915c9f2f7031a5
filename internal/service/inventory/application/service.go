// internal/service/inventory/application/service.go
package application

import (
	"context"
	"time"

	"shopcore/internal/lock"
	"shopcore/internal/pkg/database"
	"shopcore/internal/service/inventory/domain"
)

// Service 是库存的应用服务。预占与释放都在商品粒度的
// 并发守卫下执行，计数器快照和流水行在同一个工作单元里落库。
type Service struct {
	products  domain.ProductRepository
	stocks    domain.StockRepository
	movements domain.StockMovementRepository
	locker    lock.Locker
	uow       database.UnitOfWork
	now       func() time.Time
}

func NewService(products domain.ProductRepository, stocks domain.StockRepository, movements domain.StockMovementRepository, locker lock.Locker, uow database.UnitOfWork) *Service {
	return &Service{products: products, stocks: stocks, movements: movements, locker: locker, uow: uow, now: time.Now}
}

// GetProducts 按 ID 批量读取商品，用于订单明细的单价快照。
func (s *Service) GetProducts(ctx context.Context, ids []int64) (map[int64]domain.Product, error) {
	return s.products.FindByIDs(ctx, ids)
}

// GetPrices 返回商品的当前单价。下游只关心价格时用这个，
// 省得把整个 Product 暴露出去。
func (s *Service) GetPrices(ctx context.Context, ids []int64) (map[int64]int64, error) {
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	prices := make(map[int64]int64, len(products))
	for id, p := range products {
		prices[id] = p.Price
	}
	return prices, nil
}

// Reserve 预占一个商品的库存。
func (s *Service) Reserve(ctx context.Context, productID, qty int64, reason string) error {
	return s.locker.WithLock(ctx, lock.StockKey(productID), func(ctx context.Context) error {
		return s.uow.InTx(ctx, func(ctx context.Context) error {
			st, err := s.stocks.FindByProductIDForUpdate(ctx, productID)
			if err != nil {
				return err
			}
			next, mv, err := st.Reserve(qty, reason, s.now())
			if err != nil {
				return err
			}
			if err := s.stocks.Save(ctx, next); err != nil {
				return err
			}
			return s.movements.Append(ctx, mv)
		})
	})
}

// Release 归还库存，Saga 补偿路径调用。总是成功（计数器只会增加）。
func (s *Service) Release(ctx context.Context, productID, qty int64, reason string) error {
	return s.locker.WithLock(ctx, lock.StockKey(productID), func(ctx context.Context) error {
		return s.uow.InTx(ctx, func(ctx context.Context) error {
			st, err := s.stocks.FindByProductIDForUpdate(ctx, productID)
			if err != nil {
				return err
			}
			next, mv := st.Release(qty, reason, s.now())
			if err := s.stocks.Save(ctx, next); err != nil {
				return err
			}
			return s.movements.Append(ctx, mv)
		})
	})
}
