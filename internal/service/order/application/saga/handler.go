// internal/service/order/application/saga/handler.go
package saga

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/trace"

	"shopcore/internal/outbox"
	"shopcore/internal/pkg/database"
	"shopcore/internal/pkg/logger"
	"shopcore/internal/service/order/domain"
	"shopcore/internal/service/order/domain/port"
	paymentdomain "shopcore/internal/service/payment/domain"
)

// PaymentGateway 是 Saga 对支付模块的出站端口，
// 由 payment 的应用服务实现（含幂等网关）。
type PaymentGateway interface {
	// Create 在 key 粒度的锁内创建支付单；replayed 表示命中了先前的记录。
	Create(ctx context.Context, orderID string, userID int64, key string, price int64) (payment paymentdomain.Payment, replayed bool, err error)
	Process(ctx context.Context, payment paymentdomain.Payment) (string, error)
	Complete(ctx context.Context, payment paymentdomain.Payment, transactionID string) (paymentdomain.Payment, error)
	Fail(ctx context.Context, payment paymentdomain.Payment, reason string) (paymentdomain.Payment, error)
}

// OrderContext 在 Saga 各步骤之间传递订单、端口与补偿栈。
type OrderContext struct {
	Ctx    context.Context
	Order  *domain.Order
	Tracer trace.Tracer

	// 请求参数
	CouponID       *int64
	PointToUse     int64
	IdempotencyKey string

	// 出站端口
	Stocks   port.StockService
	Coupons  port.CouponService
	Points   port.PointService
	Payments PaymentGateway

	// 完结工作单元所需的依赖
	Uow    database.UnitOfWork
	Orders domain.OrderRepository
	Outbox outbox.Repository

	// 结果
	Payment  paymentdomain.Payment
	Replayed bool

	compensations []func(ctx context.Context)
	compLock      sync.Mutex
}

// AddCompensation 把补偿动作压到栈顶；补偿总是按注册的逆序执行。
func (c *OrderContext) AddCompensation(comp func(ctx context.Context)) {
	c.compLock.Lock()
	defer c.compLock.Unlock()
	c.compensations = append([]func(context.Context){comp}, c.compensations...)
}

// TriggerCompensation 逆序执行所有已注册的补偿。
// 每个补偿动作都是其正向操作的代数逆，且可安全重试。
func (c *OrderContext) TriggerCompensation(ctx context.Context) {
	c.compLock.Lock()
	defer c.compLock.Unlock()
	logger.Ctx(ctx).Info().
		Str("order_id", c.Order.ID).
		Int("count", len(c.compensations)).
		Msg("executing saga compensations")
	for _, comp := range c.compensations {
		comp(ctx)
	}
	c.compensations = nil
}

// Handler 是 Saga 步骤的责任链接口。
type Handler interface {
	SetNext(handler Handler) Handler
	Handle(orderCtx *OrderContext) error
}

// NextHandler 提供链式传递的公共实现，各步骤内嵌它。
type NextHandler struct {
	next Handler
}

func (h *NextHandler) SetNext(handler Handler) Handler {
	h.next = handler
	return handler
}

func (h *NextHandler) executeNext(orderCtx *OrderContext) error {
	if h.next != nil {
		return h.next.Handle(orderCtx)
	}
	return nil
}
