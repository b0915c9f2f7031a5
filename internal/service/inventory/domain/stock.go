// internal/service/inventory/domain/stock.go
package domain

import (
	"time"

	"shopcore/internal/pkg/apperr"
)

// Product 是商品目录里的一项。下单时 Price 会被快照进订单明细，
// 之后目录价格变动不影响已生成的订单。
type Product struct {
	ID    int64
	Name  string
	Price int64
}

// Stock 是某个商品的库存计数器。不可变值类型：
// Reserve / Release 返回新快照，不原地修改。
// 不变量: Quantity ≥ 0。
type Stock struct {
	ProductID int64
	Quantity  int64
	UpdatedAt time.Time
}

// MovementType 区分入库与出库。
type MovementType string

const (
	MovementIn  MovementType = "IN"
	MovementOut MovementType = "OUT"
)

// StockMovement 是 append-only 的库存流水。
// 每次成功预占对应一条 OUT，每次补偿释放对应一条 IN。
type StockMovement struct {
	ProductID int64
	Type      MovementType
	Quantity  int64
	Reason    string
	CreatedAt time.Time
}

// Reserve 预占库存。库存不足时返回 ErrInsufficientStock。
func (s Stock) Reserve(qty int64, reason string, now time.Time) (Stock, StockMovement, error) {
	if qty <= 0 {
		return Stock{}, StockMovement{}, apperr.ErrInvalidQuantity
	}
	if s.Quantity < qty {
		return Stock{}, StockMovement{}, apperr.ErrInsufficientStock.
			WithMessage("product %d has %d in stock, requested %d", s.ProductID, s.Quantity, qty)
	}
	next := s
	next.Quantity -= qty
	next.UpdatedAt = now
	return next, StockMovement{
		ProductID: s.ProductID,
		Type:      MovementOut,
		Quantity:  qty,
		Reason:    reason,
		CreatedAt: now,
	}, nil
}

// Release 归还库存，是 Reserve 的补偿路径，总是成功。
func (s Stock) Release(qty int64, reason string, now time.Time) (Stock, StockMovement) {
	next := s
	next.Quantity += qty
	next.UpdatedAt = now
	return next, StockMovement{
		ProductID: s.ProductID,
		Type:      MovementIn,
		Quantity:  qty,
		Reason:    reason,
		CreatedAt: now,
	}
}
