// internal/service/payment/infrastructure/point_processor.go
package infrastructure

import (
	"context"

	"shopcore/internal/service/payment/domain"
)

// PointProcessor 是 domain.Processor 的积分结算实现。
// 积分在 Saga 的扣点步骤已经结清，这里没有外部网关要调，
// 所以总是成功且没有外部交易号。
type PointProcessor struct{}

func NewPointProcessor() *PointProcessor {
	return &PointProcessor{}
}

func (p *PointProcessor) Process(ctx context.Context, payment domain.Payment) (string, error) {
	return "", nil
}
