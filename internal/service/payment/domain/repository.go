// internal/service/payment/domain/repository.go
package domain

import "context"

// PaymentRepository 定义支付单的持久化接口。
type PaymentRepository interface {
	FindByID(ctx context.Context, id string) (Payment, error)
	FindByIdempotencyKey(ctx context.Context, key string) (Payment, bool, error)
	Create(ctx context.Context, payment Payment) error
	Save(ctx context.Context, payment Payment) error
}

// Processor 是外部结算通道的出站端口。
// 当前唯一的实现是纯积分结算（TransactionID 为空、总是成功），
// 但接口允许换成真实的支付网关。
type Processor interface {
	Process(ctx context.Context, payment Payment) (transactionID string, err error)
}
