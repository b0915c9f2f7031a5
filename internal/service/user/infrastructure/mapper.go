// internal/service/user/infrastructure/mapper.go
package infrastructure

import "shopcore/internal/service/user/domain"

func toDomainUser(m *UserModel) domain.User {
	return domain.User{
		ID:        m.ID,
		AccountID: m.AccountID,
		Password:  m.Password,
		Point:     m.Point,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toUserModel(u domain.User) UserModel {
	return UserModel{
		ID:        u.ID,
		AccountID: u.AccountID,
		Password:  u.Password,
		Point:     u.Point,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func toPointHistoryModel(h domain.PointHistory) PointHistoryModel {
	return PointHistoryModel{
		UserID:    h.UserID,
		Amount:    h.Amount,
		Type:      string(h.Type),
		Comment:   h.Comment,
		CreatedAt: h.CreatedAt,
	}
}

func toDomainPointHistory(m *PointHistoryModel) domain.PointHistory {
	return domain.PointHistory{
		UserID:    m.UserID,
		Amount:    m.Amount,
		Type:      domain.PointHistoryType(m.Type),
		Comment:   m.Comment,
		CreatedAt: m.CreatedAt,
	}
}
