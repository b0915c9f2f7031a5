// internal/service/user/domain/user.go
package domain

import (
	"time"

	"shopcore/internal/pkg/apperr"
)

// PointCap 是单个用户积分余额的上限。
const PointCap int64 = 1_000_000

// User 是积分账本的聚合根。余额只能通过 ChargePoint / UsePoint
// 变更，两者都返回新的不可变快照，绝不原地修改。
type User struct {
	ID        int64
	AccountID string
	Password  string
	Point     int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PointHistoryType 区分充值与消费。
type PointHistoryType string

const (
	PointCharge PointHistoryType = "CHARGE"
	PointUse    PointHistoryType = "USE"
)

// PointHistory 是 append-only 的积分流水，每次余额变更一行，用于对账。
type PointHistory struct {
	UserID    int64
	Amount    int64
	Type      PointHistoryType
	Comment   string
	CreatedAt time.Time
}

// ChargePoint 充值积分。返回新快照与待落库的流水意图。
// 不变量: 0 ≤ point ≤ PointCap。
func (u User) ChargePoint(amount int64, comment string, now time.Time) (User, PointHistory, error) {
	if amount <= 0 {
		return User{}, PointHistory{}, apperr.ErrInvalidAmount
	}
	if u.Point+amount > PointCap {
		return User{}, PointHistory{}, apperr.ErrBalanceCapExceeded.
			WithMessage("charging %d would exceed the %d point cap", amount, PointCap)
	}
	next := u
	next.Point += amount
	next.UpdatedAt = now
	return next, PointHistory{
		UserID:    u.ID,
		Amount:    amount,
		Type:      PointCharge,
		Comment:   comment,
		CreatedAt: now,
	}, nil
}

// UsePoint 消费积分。余额不足时返回 ErrInsufficientBalance。
func (u User) UsePoint(amount int64, comment string, now time.Time) (User, PointHistory, error) {
	if amount <= 0 {
		return User{}, PointHistory{}, apperr.ErrInvalidAmount
	}
	if u.Point < amount {
		return User{}, PointHistory{}, apperr.ErrInsufficientBalance.
			WithMessage("balance %d is less than requested %d", u.Point, amount)
	}
	next := u
	next.Point -= amount
	next.UpdatedAt = now
	return next, PointHistory{
		UserID:    u.ID,
		Amount:    amount,
		Type:      PointUse,
		Comment:   comment,
		CreatedAt: now,
	}, nil
}
