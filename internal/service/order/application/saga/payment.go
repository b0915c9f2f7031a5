// internal/service/order/application/saga/payment.go
package saga

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"shopcore/internal/outbox"
	"shopcore/internal/pkg/logger"
	"shopcore/internal/service/order/domain"
)

// ErrReplayed 表示幂等网关命中了先前的支付记录。
// 本次尝试的账本变更是重复劳动，应用服务会触发补偿并返回先前的结果。
var ErrReplayed = errors.New("payment replayed from idempotency gate")

// CompletePaymentHandler 是责任链的最后一步：
// 创建支付单（幂等）、调用结算通道，然后在同一个工作单元里
// 完结支付、完结订单、写入发件箱事件——三者一起提交或一起回滚，
// 这正是 outbox 模式对双写问题的回答。
type CompletePaymentHandler struct {
	NextHandler
}

func (h *CompletePaymentHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.CompletePayment")
	defer span.End()
	span.SetAttributes(attribute.Int64("final_price", orderCtx.Order.FinalPrice))

	payment, replayed, err := orderCtx.Payments.Create(ctx, orderCtx.Order.ID, orderCtx.Order.UserID,
		orderCtx.IdempotencyKey, orderCtx.Order.FinalPrice)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "payment creation failed")
		return err
	}
	if replayed {
		// 同 key 的先前尝试已经走到了支付这一步，本次的账本变更是重复的
		span.AddEvent("idempotency key replayed prior payment")
		orderCtx.Payment = payment
		orderCtx.Replayed = true
		return ErrReplayed
	}
	orderCtx.Payment = payment

	transactionID, err := orderCtx.Payments.Process(ctx, payment)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "payment processing failed")
		// 结算失败: 支付单 FAILED，订单 CANCELED，补偿由应用服务触发
		if failed, failErr := orderCtx.Payments.Fail(ctx, payment, err.Error()); failErr != nil {
			logger.Ctx(ctx).Error().Err(failErr).Str("payment_id", payment.ID).Msg("failed to mark payment failed")
		} else {
			orderCtx.Payment = failed
		}
		return err
	}

	err = orderCtx.Uow.InTx(ctx, func(txCtx context.Context) error {
		completed, err := orderCtx.Payments.Complete(txCtx, orderCtx.Payment, transactionID)
		if err != nil {
			return err
		}
		orderCtx.Payment = completed

		if err := orderCtx.Order.Complete(time.Now()); err != nil {
			return err
		}
		if err := orderCtx.Orders.Save(txCtx, orderCtx.Order); err != nil {
			return err
		}

		msg, err := outbox.NewMessage(domain.AggregateTypeOrder, orderCtx.Order.ID,
			domain.EventTypeOrderCompleted, domain.NewOrderCompletedEvent(orderCtx.Order))
		if err != nil {
			return err
		}
		return orderCtx.Outbox.Append(txCtx, msg)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "order completion unit of work failed")
		return err
	}

	span.AddEvent("payment completed, order completed, outbox event enqueued")
	return h.executeNext(orderCtx)
}
