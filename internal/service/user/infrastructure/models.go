// internal/service/user/infrastructure/models.go
package infrastructure

import "time"

// UserModel 对应数据库中的 user 表。
type UserModel struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	AccountID string `gorm:"size:64;uniqueIndex"`
	Password  string `gorm:"size:128"`
	Point     int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (UserModel) TableName() string { return "user" }

// PointHistoryModel 对应 point_history 表，append-only。
type PointHistoryModel struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	UserID    int64  `gorm:"index"`
	Amount    int64
	Type      string `gorm:"size:16"`
	Comment   string `gorm:"size:255"`
	CreatedAt time.Time
}

func (PointHistoryModel) TableName() string { return "point_history" }
