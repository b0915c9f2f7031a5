// internal/service/payment/application/service.go
package application

import (
	"context"
	"time"

	"shopcore/internal/lock"
	"shopcore/internal/pkg/apperr"
	"shopcore/internal/service/payment/domain"
)

// Service 是支付的应用服务，幂等网关在这里。
type Service struct {
	payments  domain.PaymentRepository
	processor domain.Processor
	locker    lock.Locker
	now       func() time.Time
}

func NewService(payments domain.PaymentRepository, processor domain.Processor, locker lock.Locker) *Service {
	return &Service{payments: payments, processor: processor, locker: locker, now: time.Now}
}

// CheckKey 在进入 Saga 之前先查一次 key：
// 已有 COMPLETED / PENDING 的记录直接重放，避免重复执行任何账本变更；
// 已 FAILED 的 key 拒绝重放，调用方必须换新 key。
func (s *Service) CheckKey(ctx context.Context, key string) (*domain.Payment, error) {
	prior, exists, err := s.payments.FindByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	if prior.Status == domain.StatusFailed {
		return nil, apperr.ErrPaymentAlreadyFailed
	}
	return &prior, nil
}

// Create 在 key 粒度的锁内创建支付单，关闭 check-then-act 竞态：
// 并发携带同一个 key 的请求只有一个能真正创建，其余拿到同一条记录
// （replayed = true）。
func (s *Service) Create(ctx context.Context, orderID string, userID int64, key string, price int64) (domain.Payment, bool, error) {
	var result domain.Payment
	var replayed bool
	err := s.locker.WithLock(ctx, lock.PaymentKey(key), func(ctx context.Context) error {
		prior, exists, err := s.payments.FindByIdempotencyKey(ctx, key)
		if err != nil {
			return err
		}
		if exists {
			if prior.Status == domain.StatusFailed {
				return apperr.ErrPaymentAlreadyFailed
			}
			result, replayed = prior, true
			return nil
		}
		payment, err := domain.NewPayment(orderID, userID, key, price, s.now())
		if err != nil {
			return err
		}
		if err := s.payments.Create(ctx, payment); err != nil {
			return err
		}
		result = payment
		return nil
	})
	return result, replayed, err
}

// Process 调用外部结算通道。
func (s *Service) Process(ctx context.Context, payment domain.Payment) (string, error) {
	return s.processor.Process(ctx, payment)
}

// Complete 将支付单置为 COMPLETED 并持久化。
// 调用方负责把它圈进订单完结的工作单元。
func (s *Service) Complete(ctx context.Context, payment domain.Payment, transactionID string) (domain.Payment, error) {
	next, err := payment.Complete(transactionID, s.now())
	if err != nil {
		return domain.Payment{}, err
	}
	if err := s.payments.Save(ctx, next); err != nil {
		return domain.Payment{}, err
	}
	return next, nil
}

// Fail 将支付单置为 FAILED 并持久化。
func (s *Service) Fail(ctx context.Context, payment domain.Payment, reason string) (domain.Payment, error) {
	next, err := payment.Fail(reason, s.now())
	if err != nil {
		return domain.Payment{}, err
	}
	if err := s.payments.Save(ctx, next); err != nil {
		return domain.Payment{}, err
	}
	return next, nil
}
