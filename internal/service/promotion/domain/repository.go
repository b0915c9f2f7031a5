// internal/service/promotion/domain/repository.go
package domain

import "context"

// CouponRepository 定义券池的持久化接口。
type CouponRepository interface {
	FindByID(ctx context.Context, id int64) (Coupon, error)
	FindByIDForUpdate(ctx context.Context, id int64) (Coupon, error)
	Save(ctx context.Context, coupon Coupon) error
}

// UserCouponRepository 定义用户持券的持久化接口。
// 唯一性约束 (user_id, coupon_id) 在发放的临界区内检查，数据库唯一索引兜底。
type UserCouponRepository interface {
	FindByUserAndCoupon(ctx context.Context, userID, couponID int64) (UserCoupon, bool, error)
	Create(ctx context.Context, uc UserCoupon) error
	Save(ctx context.Context, uc UserCoupon) error
}

// Fact 是规则引擎求值时可见的订单事实。
type Fact struct {
	UserID     int64 `json:"userId"`
	TotalPrice int64 `json:"totalPrice"`
	ItemCount  int64 `json:"itemCount"`
}

// RuleEngine 求值一条券的适用规则。规则为空时实现方应返回 true。
type RuleEngine interface {
	Evaluate(rule string, fact Fact) (bool, error)
}
