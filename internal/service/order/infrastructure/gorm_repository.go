// internal/service/order/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"shopcore/internal/pkg/apperr"
	"shopcore/internal/pkg/database"
	"shopcore/internal/service/order/domain"
)

// GormOrderRepository 是 domain.OrderRepository 的 GORM 实现。
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Save 首次保存时连同明细一起插入；之后只更新头部字段，
// 明细是下单时刻的快照，永不改写。
func (r *GormOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	tx := database.FromContext(ctx, r.db)

	res := tx.Model(&OrderModel{}).
		Where("id = ?", order.ID).
		Updates(map[string]interface{}{
			"discount_price": order.DiscountPrice,
			"point_used":     order.PointUsed,
			"final_price":    order.FinalPrice,
			"status":         string(order.Status),
			"updated_at":     order.UpdatedAt,
		})
	if res.Error != nil {
		return pkgerrors.Wrap(res.Error, "failed to update order")
	}
	if res.RowsAffected > 0 {
		return nil
	}

	model := toOrderModel(order)
	if err := tx.Create(&model).Error; err != nil {
		return pkgerrors.Wrap(err, "failed to create order")
	}
	return nil
}

func (r *GormOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	var model OrderModel
	err := database.FromContext(ctx, r.db).
		Preload("Details").
		Where("id = ?", id).
		First(&model).Error
	if err != nil {
		if pkgerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrOrderNotFound
		}
		return nil, pkgerrors.Wrap(err, "failed to load order")
	}
	return toDomainOrder(&model), nil
}
