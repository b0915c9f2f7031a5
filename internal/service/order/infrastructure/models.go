// internal/service/order/infrastructure/models.go
package infrastructure

import "time"

// OrderModel 对应 order 表。MySQL 里 order 是保留字，表名用反引号不如换名省事。
type OrderModel struct {
	ID            string `gorm:"primaryKey;size:36"`
	UserID        int64  `gorm:"index"`
	TotalPrice    int64
	DiscountPrice int64
	PointUsed     int64
	FinalPrice    int64
	Status        string `gorm:"size:16"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Details []OrderDetailModel `gorm:"foreignKey:OrderID"`
}

func (OrderModel) TableName() string { return "orders" }

// OrderDetailModel 对应 order_detail 表，下单后不再变更。
type OrderDetailModel struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	OrderID   string `gorm:"size:36;index"`
	ProductID int64
	UnitPrice int64
	Quantity  int64
}

func (OrderDetailModel) TableName() string { return "order_detail" }
