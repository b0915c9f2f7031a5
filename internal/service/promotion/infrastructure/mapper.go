// internal/service/promotion/infrastructure/mapper.go
package infrastructure

import "shopcore/internal/service/promotion/domain"

func toDomainCoupon(m *CouponModel) domain.Coupon {
	return domain.Coupon{
		ID:                m.ID,
		Type:              domain.CouponType(m.Type),
		DiscountValue:     m.DiscountValue,
		MinOrderPrice:     m.MinOrderPrice,
		Quantity:          m.Quantity,
		AvailableQuantity: m.AvailableQuantity,
		Status:            domain.CouponStatus(m.Status),
		ValidFrom:         m.ValidFrom,
		ValidTo:           m.ValidTo,
		Rule:              m.Rule,
	}
}

func toDomainUserCoupon(m *UserCouponModel) domain.UserCoupon {
	return domain.UserCoupon{
		ID:        m.ID,
		UserID:    m.UserID,
		CouponID:  m.CouponID,
		Status:    domain.UserCouponStatus(m.Status),
		IssuedAt:  m.IssuedAt,
		UsedAt:    m.UsedAt,
		ExpiredAt: m.ExpiredAt,
	}
}

func toUserCouponModel(uc domain.UserCoupon) UserCouponModel {
	return UserCouponModel{
		ID:        uc.ID,
		UserID:    uc.UserID,
		CouponID:  uc.CouponID,
		Status:    string(uc.Status),
		IssuedAt:  uc.IssuedAt,
		UsedAt:    uc.UsedAt,
		ExpiredAt: uc.ExpiredAt,
	}
}
