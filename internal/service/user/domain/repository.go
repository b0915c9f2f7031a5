// internal/service/user/domain/repository.go
package domain

import "context"

// UserRepository 定义用户聚合的持久化接口，由基础设施层实现。
// FindByIDForUpdate 在环境事务内加行级排他锁（SELECT ... FOR UPDATE）。
type UserRepository interface {
	FindByID(ctx context.Context, id int64) (User, error)
	FindByIDForUpdate(ctx context.Context, id int64) (User, error)
	Save(ctx context.Context, user User) error
}

// PointHistoryRepository 只追加，不更新不删除。
type PointHistoryRepository interface {
	Append(ctx context.Context, history PointHistory) error
	FindByUserID(ctx context.Context, userID int64) ([]PointHistory, error)
}
