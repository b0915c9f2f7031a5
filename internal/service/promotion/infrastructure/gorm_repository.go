// internal/service/promotion/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"shopcore/internal/pkg/apperr"
	"shopcore/internal/pkg/database"
	"shopcore/internal/service/promotion/domain"
)

// GormCouponRepository 是 domain.CouponRepository 的 GORM 实现。
type GormCouponRepository struct {
	db *gorm.DB
}

func NewGormCouponRepository(db *gorm.DB) *GormCouponRepository {
	return &GormCouponRepository{db: db}
}

func (r *GormCouponRepository) FindByID(ctx context.Context, id int64) (domain.Coupon, error) {
	return r.find(ctx, id, false)
}

func (r *GormCouponRepository) FindByIDForUpdate(ctx context.Context, id int64) (domain.Coupon, error) {
	return r.find(ctx, id, true)
}

func (r *GormCouponRepository) find(ctx context.Context, id int64, forUpdate bool) (domain.Coupon, error) {
	tx := database.FromContext(ctx, r.db)
	if forUpdate {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var model CouponModel
	if err := tx.Where("id = ?", id).First(&model).Error; err != nil {
		if pkgerrors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Coupon{}, apperr.ErrCouponNotFound
		}
		return domain.Coupon{}, pkgerrors.Wrap(err, "failed to load coupon")
	}
	return toDomainCoupon(&model), nil
}

func (r *GormCouponRepository) Save(ctx context.Context, coupon domain.Coupon) error {
	err := database.FromContext(ctx, r.db).
		Model(&CouponModel{}).
		Where("id = ?", coupon.ID).
		Updates(map[string]interface{}{
			"available_quantity": coupon.AvailableQuantity,
			"status":             string(coupon.Status),
		}).Error
	return pkgerrors.Wrap(err, "failed to save coupon")
}

// GormUserCouponRepository 是 domain.UserCouponRepository 的 GORM 实现。
type GormUserCouponRepository struct {
	db *gorm.DB
}

func NewGormUserCouponRepository(db *gorm.DB) *GormUserCouponRepository {
	return &GormUserCouponRepository{db: db}
}

func (r *GormUserCouponRepository) FindByUserAndCoupon(ctx context.Context, userID, couponID int64) (domain.UserCoupon, bool, error) {
	var model UserCouponModel
	err := database.FromContext(ctx, r.db).
		Where("user_id = ? AND coupon_id = ?", userID, couponID).
		First(&model).Error
	if err != nil {
		if pkgerrors.Is(err, gorm.ErrRecordNotFound) {
			return domain.UserCoupon{}, false, nil
		}
		return domain.UserCoupon{}, false, pkgerrors.Wrap(err, "failed to load user coupon")
	}
	return toDomainUserCoupon(&model), true, nil
}

func (r *GormUserCouponRepository) Create(ctx context.Context, uc domain.UserCoupon) error {
	model := toUserCouponModel(uc)
	if err := database.FromContext(ctx, r.db).Create(&model).Error; err != nil {
		// 唯一索引兜底：临界区之外的重复插入也会被数据库拦下
		if pkgerrors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.ErrAlreadyIssued
		}
		return pkgerrors.Wrap(err, "failed to create user coupon")
	}
	return nil
}

func (r *GormUserCouponRepository) Save(ctx context.Context, uc domain.UserCoupon) error {
	err := database.FromContext(ctx, r.db).
		Model(&UserCouponModel{}).
		Where("id = ?", uc.ID).
		Updates(map[string]interface{}{
			"status":  string(uc.Status),
			"used_at": uc.UsedAt,
		}).Error
	return pkgerrors.Wrap(err, "failed to save user coupon")
}
