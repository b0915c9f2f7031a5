// internal/service/order/domain/order.go
package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"shopcore/internal/pkg/apperr"
)

// Status 是订单的生命周期状态。
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusCanceled  Status = "CANCELED"
)

// Detail 是下单时刻的商品快照。UnitPrice 固化在这里，
// 之后目录调价不影响已生成的订单。
type Detail struct {
	ProductID int64
	UnitPrice int64
	Quantity  int64
}

// Order 是订单聚合根。
type Order struct {
	ID            string
	UserID        int64
	TotalPrice    int64
	DiscountPrice int64
	PointUsed     int64
	FinalPrice    int64
	Status        Status
	Details       []Detail
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewOrder 校验订单行并计算总价。明细为空或数量非正直接拒绝，
// 这些校验发生在任何锁之前。
func NewOrder(userID int64, details []Detail, now time.Time) (*Order, error) {
	if len(details) == 0 {
		return nil, apperr.ErrOrderEmpty
	}
	var total int64
	for _, d := range details {
		if d.Quantity <= 0 {
			return nil, apperr.ErrInvalidQuantity
		}
		total += d.UnitPrice * d.Quantity
	}
	return &Order{
		ID:         uuid.NewString(),
		UserID:     userID,
		TotalPrice: total,
		FinalPrice: total,
		Status:     StatusPending,
		Details:    details,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// ApplyDiscount 记录优惠额并重算实付价。
func (o *Order) ApplyDiscount(discount int64) {
	o.DiscountPrice = discount
	o.recalc()
}

// ApplyPoints 记录积分抵扣并重算实付价。
// 积分抵扣作用在折后价上：finalPrice = totalPrice − discountPrice − pointUsed，
// 结果为负时拒绝。
func (o *Order) ApplyPoints(points int64) error {
	o.PointUsed = points
	o.recalc()
	if o.FinalPrice < 0 {
		return apperr.ErrInvalidFinalPrice.
			WithMessage("total %d - discount %d - points %d is negative", o.TotalPrice, o.DiscountPrice, points)
	}
	return nil
}

func (o *Order) recalc() {
	o.FinalPrice = o.TotalPrice - o.DiscountPrice - o.PointUsed
}

// Complete 将订单置为 COMPLETED。
func (o *Order) Complete(now time.Time) error {
	if o.Status != StatusPending {
		return errors.New("only pending orders can be completed")
	}
	o.Status = StatusCompleted
	o.UpdatedAt = now
	return nil
}

// Cancel 将订单置为 CANCELED（支付失败补偿后的终态）。
func (o *Order) Cancel(now time.Time) {
	o.Status = StatusCanceled
	o.UpdatedAt = now
}
