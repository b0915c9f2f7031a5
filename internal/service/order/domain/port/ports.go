// internal/service/order/domain/port/ports.go
package port

import "context"

// StockService 是库存的出站端口。Reserve 失败表示一单位都没扣。
type StockService interface {
	Reserve(ctx context.Context, productID, qty int64, reason string) error
	Release(ctx context.Context, productID, qty int64, reason string) error
}

// CouponService 是优惠券的出站端口。
type CouponService interface {
	// Redeem 核销用户的券并返回折扣额。
	Redeem(ctx context.Context, userID, couponID, totalPrice int64) (int64, error)
	// Restore 是 Redeem 的补偿。
	Restore(ctx context.Context, userID, couponID int64) error
}

// PointService 是积分账本的出站端口。
type PointService interface {
	Debit(ctx context.Context, userID, amount int64, comment string) error
	// Refund 是 Debit 的补偿。
	Refund(ctx context.Context, userID, amount int64, comment string) error
}
