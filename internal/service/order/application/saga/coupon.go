// internal/service/order/application/saga/coupon.go
package saga

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"shopcore/internal/pkg/logger"
)

// RedeemCouponHandler 负责优惠券核销步骤。没有券时直接放行。
type RedeemCouponHandler struct {
	NextHandler
}

func (h *RedeemCouponHandler) Handle(orderCtx *OrderContext) error {
	if orderCtx.CouponID == nil {
		return h.executeNext(orderCtx)
	}
	couponID := *orderCtx.CouponID

	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.RedeemCoupon")
	defer span.End()
	span.SetAttributes(attribute.Int64("coupon_id", couponID))

	discount, err := orderCtx.Coupons.Redeem(ctx, orderCtx.Order.UserID, couponID, orderCtx.Order.TotalPrice)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "coupon redemption failed")
		return err
	}
	orderCtx.Order.ApplyDiscount(discount)
	span.SetAttributes(attribute.Int64("discount", discount))

	userID := orderCtx.Order.UserID
	orderCtx.AddCompensation(func(compCtx context.Context) {
		compCtx, compSpan := orderCtx.Tracer.Start(compCtx, "saga.compensation.RestoreCoupon")
		defer compSpan.End()
		if err := orderCtx.Coupons.Restore(compCtx, userID, couponID); err != nil {
			compSpan.RecordError(err)
			logger.Ctx(compCtx).Error().Err(err).
				Int64("coupon_id", couponID).
				Msg("failed to restore redeemed coupon")
		}
	})

	return h.executeNext(orderCtx)
}
