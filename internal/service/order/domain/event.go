// internal/service/order/domain/event.go
package domain

// EventTypeOrderCompleted 是订单完结事件的类型标识。
const EventTypeOrderCompleted = "ORDER_COMPLETED"

// AggregateTypeOrder 是发件箱里订单聚合的类型标识。
const AggregateTypeOrder = "ORDER"

// OrderCompletedEvent 是写进发件箱的订单完结事件体。
type OrderCompletedEvent struct {
	OrderID    string               `json:"orderId"`
	UserID     int64                `json:"userId"`
	FinalPrice int64                `json:"finalPrice"`
	Items      []OrderCompletedItem `json:"items"`
}

type OrderCompletedItem struct {
	ProductID int64 `json:"productId"`
	Quantity  int64 `json:"quantity"`
}

// NewOrderCompletedEvent 从订单聚合生成事件体。
func NewOrderCompletedEvent(o *Order) OrderCompletedEvent {
	items := make([]OrderCompletedItem, 0, len(o.Details))
	for _, d := range o.Details {
		items = append(items, OrderCompletedItem{ProductID: d.ProductID, Quantity: d.Quantity})
	}
	return OrderCompletedEvent{
		OrderID:    o.ID,
		UserID:     o.UserID,
		FinalPrice: o.FinalPrice,
		Items:      items,
	}
}
