// internal/service/payment/domain/payment.go
package domain

import (
	"time"

	"github.com/google/uuid"

	"shopcore/internal/pkg/apperr"
)

// Status 是支付单的生命周期状态。Complete / Fail 只允许从 PENDING 出发。
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusCanceled  Status = "CANCELED"
	StatusFailed    Status = "FAILED"
)

// Payment 是一次支付尝试。IdempotencyKey 唯一标识一次逻辑上的支付，
// 客户端重试携带同一个 key 时不会产生第二条记录。
type Payment struct {
	ID             string
	OrderID        string
	UserID         int64
	IdempotencyKey string
	Price          int64
	Status         Status
	TransactionID  string
	FailReason     string
	ExternalSync   bool
	SuccessAt      *time.Time
	CreatedAt      time.Time
}

// NewPayment 创建一条 PENDING 的支付单。
func NewPayment(orderID string, userID int64, idempotencyKey string, price int64, now time.Time) (Payment, error) {
	if price < 0 {
		return Payment{}, apperr.ErrInvalidFinalPrice
	}
	return Payment{
		ID:             uuid.NewString(),
		OrderID:        orderID,
		UserID:         userID,
		IdempotencyKey: idempotencyKey,
		Price:          price,
		Status:         StatusPending,
		CreatedAt:      now,
	}, nil
}

// Complete 将支付单置为 COMPLETED。只有 PENDING 状态允许。
func (p Payment) Complete(transactionID string, now time.Time) (Payment, error) {
	if p.Status != StatusPending {
		return Payment{}, apperr.ErrInvalidPaymentState.
			WithMessage("payment %s is %s, cannot complete", p.ID, p.Status)
	}
	next := p
	next.Status = StatusCompleted
	next.TransactionID = transactionID
	next.SuccessAt = &now
	return next, nil
}

// Fail 将支付单置为 FAILED 并记录原因。只有 PENDING 状态允许。
func (p Payment) Fail(reason string, now time.Time) (Payment, error) {
	if p.Status != StatusPending {
		return Payment{}, apperr.ErrInvalidPaymentState.
			WithMessage("payment %s is %s, cannot fail", p.ID, p.Status)
	}
	next := p
	next.Status = StatusFailed
	next.FailReason = reason
	return next, nil
}
