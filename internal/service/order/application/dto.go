// internal/service/order/application/dto.go
package application

// OrderLine 是下单请求里的一行。
type OrderLine struct {
	ProductID int64 `json:"productId"`
	Quantity  int64 `json:"quantity"`
}

// PlaceOrderRequest 是下单意图。IdempotencyKey 由客户端生成，
// 重试时必须携带同一个 key。
type PlaceOrderRequest struct {
	UserID         int64       `json:"userId"`
	Lines          []OrderLine `json:"lines"`
	CouponID       *int64      `json:"couponId,omitempty"`
	PointToUse     int64       `json:"pointToUse"`
	IdempotencyKey string      `json:"idempotencyKey"`
}

// PlaceOrderResult 是下单的终态结果。
type PlaceOrderResult struct {
	OrderID       string `json:"orderId"`
	PaymentID     string `json:"paymentId"`
	TotalPrice    int64  `json:"totalPrice"`
	DiscountPrice int64  `json:"discountPrice"`
	PointUsed     int64  `json:"pointUsed"`
	FinalPrice    int64  `json:"finalPrice"`
	Status        string `json:"status"`
	// Replayed 表示结果来自幂等网关对先前请求的重放。
	Replayed bool `json:"replayed,omitempty"`
}
