// internal/service/promotion/application/service.go
package application

import (
	"context"
	"time"

	"shopcore/internal/lock"
	"shopcore/internal/pkg/apperr"
	"shopcore/internal/pkg/database"
	"shopcore/internal/pkg/logger"
	"shopcore/internal/service/promotion/domain"
)

// FastPathGate 是发放入口的可选前置闸门（Redis Lua 实现）。
// 它在进数据库之前就挡掉绝大多数注定失败的请求；
// 最终一致性仍由数据库临界区保证。
type FastPathGate interface {
	// Attempt 原子地做“池子扣减 + 用户去重”，返回业务错误或 nil。
	Attempt(ctx context.Context, couponID, userID int64) error
	// Cancel 是 Attempt 的补偿，数据库路径失败时调用。
	Cancel(ctx context.Context, couponID, userID int64) error
}

// Service 是券的应用服务：先到先得的发放入口，以及 Saga 用的核销 / 回补。
type Service struct {
	coupons     domain.CouponRepository
	userCoupons domain.UserCouponRepository
	rules       domain.RuleEngine
	locker      lock.Locker
	uow         database.UnitOfWork
	fastPath    FastPathGate // 可为 nil
	now         func() time.Time
}

func NewService(coupons domain.CouponRepository, userCoupons domain.UserCouponRepository, rules domain.RuleEngine, locker lock.Locker, uow database.UnitOfWork, fastPath FastPathGate) *Service {
	return &Service{
		coupons:     coupons,
		userCoupons: userCoupons,
		rules:       rules,
		locker:      locker,
		uow:         uow,
		fastPath:    fastPath,
		now:         time.Now,
	}
}

// Issue 先到先得地给用户发一张券。
// 唯一性检查和池子扣减在同一个临界区内完成，
// 并发请求不可能给同一个用户发两张。
func (s *Service) Issue(ctx context.Context, userID, couponID int64) error {
	if s.fastPath != nil {
		if err := s.fastPath.Attempt(ctx, couponID, userID); err != nil {
			return err
		}
	}

	err := s.locker.WithLock(ctx, lock.CouponKey(couponID), func(ctx context.Context) error {
		return s.uow.InTx(ctx, func(ctx context.Context) error {
			coupon, err := s.coupons.FindByIDForUpdate(ctx, couponID)
			if err != nil {
				return err
			}
			if err := coupon.CheckIssuable(s.now()); err != nil {
				return err
			}
			if _, exists, err := s.userCoupons.FindByUserAndCoupon(ctx, userID, couponID); err != nil {
				return err
			} else if exists {
				return apperr.ErrAlreadyIssued
			}
			next, err := coupon.TakeOne(s.now())
			if err != nil {
				return err
			}
			if err := s.coupons.Save(ctx, next); err != nil {
				return err
			}
			return s.userCoupons.Create(ctx, domain.NewUserCoupon(userID, couponID, s.now()))
		})
	})
	if err != nil && s.fastPath != nil {
		// 数据库路径失败，把快速通道里占的名额还回去
		if cancelErr := s.fastPath.Cancel(ctx, couponID, userID); cancelErr != nil {
			logger.Ctx(ctx).Error().Err(cancelErr).
				Int64("coupon_id", couponID).Int64("user_id", userID).
				Msg("failed to cancel coupon fast-path reservation")
		}
	}
	return err
}

// Redeem 核销用户的券，返回折扣额。Saga 的优惠步骤调用。
func (s *Service) Redeem(ctx context.Context, userID, couponID, totalPrice int64) (int64, error) {
	var discount int64
	err := s.locker.WithLock(ctx, lock.CouponKey(couponID), func(ctx context.Context) error {
		return s.uow.InTx(ctx, func(ctx context.Context) error {
			coupon, err := s.coupons.FindByIDForUpdate(ctx, couponID)
			if err != nil {
				return err
			}
			uc, exists, err := s.userCoupons.FindByUserAndCoupon(ctx, userID, couponID)
			if err != nil {
				return err
			}
			if !exists {
				return apperr.ErrCouponNotFound.WithMessage("user %d holds no coupon %d", userID, couponID)
			}
			if totalPrice < coupon.MinOrderPrice {
				return apperr.ErrCouponNotApplicable.
					WithMessage("order total %d is below the %d minimum", totalPrice, coupon.MinOrderPrice)
			}
			if coupon.Rule != "" {
				ok, err := s.rules.Evaluate(coupon.Rule, domain.Fact{UserID: userID, TotalPrice: totalPrice})
				if err != nil {
					return err
				}
				if !ok {
					return apperr.ErrCouponNotApplicable
				}
			}
			nextCoupon, err := coupon.TakeOne(s.now())
			if err != nil {
				return err
			}
			nextUC, err := uc.Use(s.now())
			if err != nil {
				return err
			}
			if err := s.coupons.Save(ctx, nextCoupon); err != nil {
				return err
			}
			if err := s.userCoupons.Save(ctx, nextUC); err != nil {
				return err
			}
			discount = coupon.Discount(totalPrice)
			return nil
		})
	})
	return discount, err
}

// Restore 是 Redeem 的补偿：券回到 AVAILABLE，池子计数回补。
// 对已经回补过的券是幂等空操作。
func (s *Service) Restore(ctx context.Context, userID, couponID int64) error {
	return s.locker.WithLock(ctx, lock.CouponKey(couponID), func(ctx context.Context) error {
		return s.uow.InTx(ctx, func(ctx context.Context) error {
			coupon, err := s.coupons.FindByIDForUpdate(ctx, couponID)
			if err != nil {
				return err
			}
			uc, exists, err := s.userCoupons.FindByUserAndCoupon(ctx, userID, couponID)
			if err != nil {
				return err
			}
			if !exists || uc.Status != domain.UserCouponUsed {
				return nil
			}
			if err := s.coupons.Save(ctx, coupon.PutBack()); err != nil {
				return err
			}
			return s.userCoupons.Save(ctx, uc.Restore())
		})
	})
}
