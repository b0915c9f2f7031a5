// internal/service/order/application/saga/stock.go
package saga

import (
	"context"
	"sort"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"shopcore/internal/pkg/logger"
	"shopcore/internal/service/order/domain"
)

// ReserveStockHandler 负责库存预占步骤。
// 订单行按 productID 升序逐行加锁预占，两个并发的多行订单
// 不会以相反顺序持锁。某一行失败时，已预占的行由补偿栈回滚。
type ReserveStockHandler struct {
	NextHandler
}

func (h *ReserveStockHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.ReserveStock")
	defer span.End()

	details := make([]domain.Detail, len(orderCtx.Order.Details))
	copy(details, orderCtx.Order.Details)
	sort.Slice(details, func(i, j int) bool { return details[i].ProductID < details[j].ProductID })

	reason := "order " + orderCtx.Order.ID
	for _, d := range details {
		span.SetAttributes(attribute.Int64("product_id", d.ProductID), attribute.Int64("quantity", d.Quantity))
		if err := orderCtx.Stocks.Reserve(ctx, d.ProductID, d.Quantity, reason); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "stock reservation failed")
			return err
		}

		productID, qty := d.ProductID, d.Quantity
		orderCtx.AddCompensation(func(compCtx context.Context) {
			compCtx, compSpan := orderCtx.Tracer.Start(compCtx, "saga.compensation.ReleaseStock")
			defer compSpan.End()
			if err := orderCtx.Stocks.Release(compCtx, productID, qty, "order canceled"); err != nil {
				// 补偿失败需要人工介入，记录后继续执行剩余补偿
				compSpan.RecordError(err)
				logger.Ctx(compCtx).Error().Err(err).
					Int64("product_id", productID).
					Msg("failed to release reserved stock")
			}
		})
	}

	span.AddEvent("all lines reserved")
	return h.executeNext(orderCtx)
}
