// internal/service/order/application/service.go
package application

import (
	"context"
	"time"

	pkgerrors "github.com/pkg/errors"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"shopcore/internal/outbox"
	"shopcore/internal/pkg/database"
	"shopcore/internal/pkg/logger"
	"shopcore/internal/service/order/application/saga"
	"shopcore/internal/service/order/domain"
	"shopcore/internal/service/order/domain/port"
	paymentdomain "shopcore/internal/service/payment/domain"
)

// ProductCatalog 提供下单时的单价快照。
type ProductCatalog interface {
	GetPrices(ctx context.Context, productIDs []int64) (map[int64]int64, error)
}

// IdempotencyGate 是 Saga 之前的幂等预检：
// 命中先前的 COMPLETED / PENDING 支付时直接重放，不执行任何账本变更。
type IdempotencyGate interface {
	CheckKey(ctx context.Context, key string) (*paymentdomain.Payment, error)
}

// Service 编排下单 Saga。它自己不持有任何持久状态，
// 只在一次请求的生命周期里驱动各聚合走过锁定的读改写循环。
type Service struct {
	orders  domain.OrderRepository
	catalog ProductCatalog
	gate    IdempotencyGate

	stocks   port.StockService
	coupons  port.CouponService
	points   port.PointService
	payments saga.PaymentGateway

	uow        database.UnitOfWork
	outboxRepo outbox.Repository
	tracer     trace.Tracer
	now        func() time.Time
}

func NewService(
	orders domain.OrderRepository,
	catalog ProductCatalog,
	gate IdempotencyGate,
	stocks port.StockService,
	coupons port.CouponService,
	points port.PointService,
	payments saga.PaymentGateway,
	uow database.UnitOfWork,
	outboxRepo outbox.Repository,
	tracer trace.Tracer,
) *Service {
	return &Service{
		orders: orders, catalog: catalog, gate: gate,
		stocks: stocks, coupons: coupons, points: points, payments: payments,
		uow: uow, outboxRepo: outboxRepo, tracer: tracer, now: time.Now,
	}
}

// PlaceOrder 执行一次完整的下单尝试。
// 一旦有步骤改动了持久状态，本方法要么走到支付完结，
// 要么走完全部补偿再返回——调用方看不到中间态。
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (PlaceOrderResult, error) {
	ctx, span := s.tracer.Start(ctx, "app.PlaceOrder")
	defer span.End()

	// 幂等预检: 同 key 的先前请求已经走到支付，直接重放旧结果
	if prior, err := s.gate.CheckKey(ctx, req.IdempotencyKey); err != nil {
		span.RecordError(err)
		return PlaceOrderResult{}, err
	} else if prior != nil {
		span.AddEvent("idempotency key replayed prior payment")
		return s.replayResult(ctx, prior)
	}

	order, err := s.buildOrder(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "order validation failed")
		return PlaceOrderResult{}, err
	}

	orderCtx := &saga.OrderContext{
		Ctx:            ctx,
		Order:          order,
		Tracer:         s.tracer,
		CouponID:       req.CouponID,
		PointToUse:     req.PointToUse,
		IdempotencyKey: req.IdempotencyKey,
		Stocks:         s.stocks,
		Coupons:        s.coupons,
		Points:         s.points,
		Payments:       s.payments,
		Uow:            s.uow,
		Orders:         s.orders,
		Outbox:         s.outboxRepo,
	}

	// 锁的全局获取顺序: 库存 → 优惠券 → 积分余额
	reserveStock := &saga.ReserveStockHandler{}
	reserveStock.
		SetNext(&saga.RedeemCouponHandler{}).
		SetNext(&saga.DebitPointsHandler{}).
		SetNext(&saga.CompletePaymentHandler{})

	if err := reserveStock.Handle(orderCtx); err != nil {
		if pkgerrors.Is(err, saga.ErrReplayed) {
			// 并发的同 key 请求抢先完成了支付，撤销本次的重复账本变更
			orderCtx.TriggerCompensation(ctx)
			return s.replayResult(ctx, &orderCtx.Payment)
		}

		orderCtx.TriggerCompensation(ctx)

		// 支付单已创建（结算失败）时订单落库为 CANCELED，留下这次尝试的痕迹
		if orderCtx.Payment.ID != "" {
			order.Cancel(s.now())
			if saveErr := s.orders.Save(ctx, order); saveErr != nil {
				logger.Ctx(ctx).Error().Err(saveErr).Str("order_id", order.ID).Msg("failed to persist canceled order")
			}
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "order saga failed")
		return PlaceOrderResult{}, err
	}

	return PlaceOrderResult{
		OrderID:       order.ID,
		PaymentID:     orderCtx.Payment.ID,
		TotalPrice:    order.TotalPrice,
		DiscountPrice: order.DiscountPrice,
		PointUsed:     order.PointUsed,
		FinalPrice:    order.FinalPrice,
		Status:        string(order.Status),
	}, nil
}

// buildOrder 校验请求并以目录价快照生成订单聚合。任何锁都尚未取得。
func (s *Service) buildOrder(ctx context.Context, req PlaceOrderRequest) (*domain.Order, error) {
	ids := make([]int64, 0, len(req.Lines))
	for _, line := range req.Lines {
		ids = append(ids, line.ProductID)
	}
	prices, err := s.catalog.GetPrices(ctx, ids)
	if err != nil {
		return nil, err
	}
	details := make([]domain.Detail, 0, len(req.Lines))
	for _, line := range req.Lines {
		details = append(details, domain.Detail{
			ProductID: line.ProductID,
			UnitPrice: prices[line.ProductID],
			Quantity:  line.Quantity,
		})
	}
	return domain.NewOrder(req.UserID, details, s.now())
}

// replayResult 把先前的支付记录还原成对调用方一致的结果。
// 订单还没落库时（首次请求仍在途）退回支付自身的状态，
// 调用方据此能区分“进行中”和“已完成”。
func (s *Service) replayResult(ctx context.Context, prior *paymentdomain.Payment) (PlaceOrderResult, error) {
	result := PlaceOrderResult{
		OrderID:    prior.OrderID,
		PaymentID:  prior.ID,
		FinalPrice: prior.Price,
		Status:     string(prior.Status),
		Replayed:   true,
	}
	order, err := s.orders.FindByID(ctx, prior.OrderID)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).
			Str("order_id", prior.OrderID).
			Str("payment_id", prior.ID).
			Msg("replay hit payment but order not readable yet, returning payment snapshot")
		return result, nil
	}
	result.TotalPrice = order.TotalPrice
	result.DiscountPrice = order.DiscountPrice
	result.PointUsed = order.PointUsed
	result.Status = string(order.Status)
	return result, nil
}
