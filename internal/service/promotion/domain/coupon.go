// internal/service/promotion/domain/coupon.go
package domain

import (
	"time"

	"shopcore/internal/pkg/apperr"
)

// CouponType 决定折扣的计算方式。
type CouponType string

const (
	CouponAmount  CouponType = "AMOUNT"  // 立减固定金额
	CouponPercent CouponType = "PERCENT" // 按订单总价的百分比立减
)

// CouponStatus 是券模板的上下架状态。
type CouponStatus string

const (
	CouponActive   CouponStatus = "ACTIVE"
	CouponInactive CouponStatus = "INACTIVE"
)

// Coupon 是一个有限的券池。不可变值类型，发放与核销都返回新快照。
// 不变量: 0 ≤ AvailableQuantity ≤ Quantity。
type Coupon struct {
	ID                int64
	Type              CouponType
	DiscountValue     int64
	MinOrderPrice     int64
	Quantity          int64
	AvailableQuantity int64
	Status            CouponStatus
	ValidFrom         time.Time
	ValidTo           time.Time
	// Rule 是可选的 CEL 表达式，对订单事实求值；为空时只校验 MinOrderPrice。
	Rule string
}

// Discount 计算该券对给定总价的折扣额。
func (c Coupon) Discount(totalPrice int64) int64 {
	switch c.Type {
	case CouponPercent:
		return totalPrice * c.DiscountValue / 100
	default:
		return c.DiscountValue
	}
}

// CheckIssuable 校验当前时刻能否从池子里发出一张券。
func (c Coupon) CheckIssuable(now time.Time) error {
	if c.Status != CouponActive {
		return apperr.ErrCouponInactive
	}
	if now.Before(c.ValidFrom) || now.After(c.ValidTo) {
		return apperr.ErrCouponInactive.WithMessage("coupon %d is outside its validity window", c.ID)
	}
	if c.AvailableQuantity <= 0 {
		return apperr.ErrCouponExhausted
	}
	return nil
}

// TakeOne 从池子里扣减一张，发放与核销共用。
func (c Coupon) TakeOne(now time.Time) (Coupon, error) {
	if c.AvailableQuantity <= 0 {
		return Coupon{}, apperr.ErrCouponExhausted
	}
	if now.After(c.ValidTo) {
		return Coupon{}, apperr.ErrCouponExpired
	}
	next := c
	next.AvailableQuantity--
	return next, nil
}

// PutBack 归还一张到池子里，是 TakeOne 的补偿。超过总量则封顶，
// 所以重复补偿不会破坏不变量。
func (c Coupon) PutBack() Coupon {
	next := c
	if next.AvailableQuantity < next.Quantity {
		next.AvailableQuantity++
	}
	return next
}
