// internal/service/inventory/infrastructure/models.go
package infrastructure

import "time"

// ProductModel 对应 product 表。
type ProductModel struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"size:128"`
	Price     int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (ProductModel) TableName() string { return "product" }

// StockModel 对应 stock 表，每个商品一行。
type StockModel struct {
	ProductID int64 `gorm:"primaryKey"`
	Quantity  int64
	UpdatedAt time.Time
}

func (StockModel) TableName() string { return "stock" }

// StockMovementModel 对应 stock_movement 表，append-only。
type StockMovementModel struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	ProductID int64  `gorm:"index"`
	Type      string `gorm:"size:8"`
	Quantity  int64
	Reason    string `gorm:"size:255"`
	CreatedAt time.Time
}

func (StockMovementModel) TableName() string { return "stock_movement" }
