// internal/service/promotion/domain/user_coupon.go
package domain

import (
	"time"

	"shopcore/internal/pkg/apperr"
)

// UserCouponStatus 是用户持券的生命周期状态。USED / EXPIRED 是终态。
type UserCouponStatus string

const (
	UserCouponAvailable UserCouponStatus = "AVAILABLE"
	UserCouponUsed      UserCouponStatus = "USED"
	UserCouponExpired   UserCouponStatus = "EXPIRED"
)

// UserCoupon 是某个用户持有的一张券。
// 每个 (UserID, CouponID) 至多一行，由数据库唯一索引兜底。
type UserCoupon struct {
	ID        int64
	UserID    int64
	CouponID  int64
	Status    UserCouponStatus
	IssuedAt  time.Time
	UsedAt    *time.Time
	ExpiredAt *time.Time
}

// NewUserCoupon 构造一张刚发出的券。
func NewUserCoupon(userID, couponID int64, now time.Time) UserCoupon {
	return UserCoupon{
		UserID:   userID,
		CouponID: couponID,
		Status:   UserCouponAvailable,
		IssuedAt: now,
	}
}

// Use 核销这张券。只有 AVAILABLE 状态允许核销。
func (uc UserCoupon) Use(now time.Time) (UserCoupon, error) {
	if uc.Status != UserCouponAvailable {
		return UserCoupon{}, apperr.ErrCouponAlreadyUsed.
			WithMessage("user coupon is %s, not available", uc.Status)
	}
	next := uc
	next.Status = UserCouponUsed
	next.UsedAt = &now
	return next, nil
}

// Restore 是 Use 的补偿：把券放回 AVAILABLE。对已是 AVAILABLE 的券是幂等空操作。
func (uc UserCoupon) Restore() UserCoupon {
	next := uc
	if next.Status == UserCouponUsed {
		next.Status = UserCouponAvailable
		next.UsedAt = nil
	}
	return next
}
