// internal/service/user/application/service.go
package application

import (
	"context"
	"time"

	"shopcore/internal/lock"
	"shopcore/internal/pkg/database"
	"shopcore/internal/service/user/domain"
)

// Service 是积分账本的应用服务。所有余额变更都在并发守卫的
// 临界区内走 读取 → 纯函数转换 → 持久化 的循环，
// 余额快照和流水行落在同一个工作单元里。
type Service struct {
	users   domain.UserRepository
	history domain.PointHistoryRepository
	locker  lock.Locker
	uow     database.UnitOfWork
	now     func() time.Time
}

func NewService(users domain.UserRepository, history domain.PointHistoryRepository, locker lock.Locker, uow database.UnitOfWork) *Service {
	return &Service{users: users, history: history, locker: locker, uow: uow, now: time.Now}
}

// Charge 给用户充值积分。
func (s *Service) Charge(ctx context.Context, userID, amount int64, comment string) error {
	return s.mutate(ctx, userID, func(u domain.User) (domain.User, domain.PointHistory, error) {
		return u.ChargePoint(amount, comment, s.now())
	})
}

// Debit 扣减用户积分，Saga 的积分支付步骤走这里。
func (s *Service) Debit(ctx context.Context, userID, amount int64, comment string) error {
	return s.mutate(ctx, userID, func(u domain.User) (domain.User, domain.PointHistory, error) {
		return u.UsePoint(amount, comment, s.now())
	})
}

// Refund 是 Debit 的补偿：把扣掉的积分加回去。
// 余额上限不变量依然生效，所以重复补偿不会把余额撑爆。
func (s *Service) Refund(ctx context.Context, userID, amount int64, comment string) error {
	return s.mutate(ctx, userID, func(u domain.User) (domain.User, domain.PointHistory, error) {
		return u.ChargePoint(amount, comment, s.now())
	})
}

// Balance 读取当前余额（无锁快照读）。
func (s *Service) Balance(ctx context.Context, userID int64) (int64, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	return u.Point, nil
}

func (s *Service) mutate(ctx context.Context, userID int64, transition func(domain.User) (domain.User, domain.PointHistory, error)) error {
	return s.locker.WithLock(ctx, lock.BalanceKey(userID), func(ctx context.Context) error {
		return s.uow.InTx(ctx, func(ctx context.Context) error {
			u, err := s.users.FindByIDForUpdate(ctx, userID)
			if err != nil {
				return err
			}
			next, hist, err := transition(u)
			if err != nil {
				return err
			}
			if err := s.users.Save(ctx, next); err != nil {
				return err
			}
			return s.history.Append(ctx, hist)
		})
	})
}
