// internal/service/order/application/saga/points.go
package saga

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"shopcore/internal/pkg/logger"
)

// DebitPointsHandler 负责积分抵扣步骤。
// 先校验实付价不变量（不取锁），再扣减余额。
type DebitPointsHandler struct {
	NextHandler
}

func (h *DebitPointsHandler) Handle(orderCtx *OrderContext) error {
	if orderCtx.PointToUse <= 0 {
		return h.executeNext(orderCtx)
	}

	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.DebitPoints")
	defer span.End()
	span.SetAttributes(attribute.Int64("points", orderCtx.PointToUse))

	// 实付价为负属于校验失败，在触碰余额之前拒绝
	if err := orderCtx.Order.ApplyPoints(orderCtx.PointToUse); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid final price")
		return err
	}

	userID := orderCtx.Order.UserID
	comment := "order " + orderCtx.Order.ID
	if err := orderCtx.Points.Debit(ctx, userID, orderCtx.PointToUse, comment); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "point debit failed")
		return err
	}

	amount := orderCtx.PointToUse
	orderCtx.AddCompensation(func(compCtx context.Context) {
		compCtx, compSpan := orderCtx.Tracer.Start(compCtx, "saga.compensation.RefundPoints")
		defer compSpan.End()
		if err := orderCtx.Points.Refund(compCtx, userID, amount, "refund for canceled "+comment); err != nil {
			compSpan.RecordError(err)
			logger.Ctx(compCtx).Error().Err(err).
				Int64("user_id", userID).
				Msg("failed to refund debited points")
		}
	})

	return h.executeNext(orderCtx)
}
