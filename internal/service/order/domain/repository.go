// internal/service/order/domain/repository.go
package domain

import "context"

// OrderRepository 定义订单聚合的持久化接口，由基础设施层实现。
type OrderRepository interface {
	Save(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, id string) (*Order, error)
}
