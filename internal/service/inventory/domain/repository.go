// internal/service/inventory/domain/repository.go
package domain

import "context"

// ProductRepository 提供目录读取；下单时用它快照单价。
type ProductRepository interface {
	FindByIDs(ctx context.Context, ids []int64) (map[int64]Product, error)
}

// StockRepository 定义库存计数器的持久化接口。
type StockRepository interface {
	FindByProductID(ctx context.Context, productID int64) (Stock, error)
	FindByProductIDForUpdate(ctx context.Context, productID int64) (Stock, error)
	Save(ctx context.Context, stock Stock) error
}

// StockMovementRepository 只追加。
type StockMovementRepository interface {
	Append(ctx context.Context, movement StockMovement) error
}
