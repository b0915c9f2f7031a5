// internal/service/order/infrastructure/mapper.go
package infrastructure

import "shopcore/internal/service/order/domain"

func toOrderModel(o *domain.Order) OrderModel {
	details := make([]OrderDetailModel, 0, len(o.Details))
	for _, d := range o.Details {
		details = append(details, OrderDetailModel{
			OrderID:   o.ID,
			ProductID: d.ProductID,
			UnitPrice: d.UnitPrice,
			Quantity:  d.Quantity,
		})
	}
	return OrderModel{
		ID:            o.ID,
		UserID:        o.UserID,
		TotalPrice:    o.TotalPrice,
		DiscountPrice: o.DiscountPrice,
		PointUsed:     o.PointUsed,
		FinalPrice:    o.FinalPrice,
		Status:        string(o.Status),
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
		Details:       details,
	}
}

func toDomainOrder(m *OrderModel) *domain.Order {
	details := make([]domain.Detail, 0, len(m.Details))
	for _, d := range m.Details {
		details = append(details, domain.Detail{
			ProductID: d.ProductID,
			UnitPrice: d.UnitPrice,
			Quantity:  d.Quantity,
		})
	}
	return &domain.Order{
		ID:            m.ID,
		UserID:        m.UserID,
		TotalPrice:    m.TotalPrice,
		DiscountPrice: m.DiscountPrice,
		PointUsed:     m.PointUsed,
		FinalPrice:    m.FinalPrice,
		Status:        domain.Status(m.Status),
		Details:       details,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}
