// internal/service/promotion/infrastructure/models.go
package infrastructure

import "time"

// CouponModel 对应 coupon 表。
type CouponModel struct {
	ID                int64  `gorm:"primaryKey;autoIncrement"`
	Type              string `gorm:"size:16"`
	DiscountValue     int64
	MinOrderPrice     int64
	Quantity          int64
	AvailableQuantity int64
	Status            string `gorm:"size:16"`
	ValidFrom         time.Time
	ValidTo           time.Time
	Rule              string `gorm:"type:text"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (CouponModel) TableName() string { return "coupon" }

// UserCouponModel 对应 user_coupon 表。
// (user_id, coupon_id) 唯一索引是“一人一张”的最终防线。
type UserCouponModel struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	UserID    int64  `gorm:"uniqueIndex:uk_user_coupon,priority:1"`
	CouponID  int64  `gorm:"uniqueIndex:uk_user_coupon,priority:2"`
	Status    string `gorm:"size:16"`
	IssuedAt  time.Time
	UsedAt    *time.Time
	ExpiredAt *time.Time
}

func (UserCouponModel) TableName() string { return "user_coupon" }
