// internal/service/user/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"shopcore/internal/pkg/apperr"
	"shopcore/internal/pkg/database"
	"shopcore/internal/service/user/domain"
)

// GormUserRepository 是 domain.UserRepository 的 GORM 实现。
type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) FindByID(ctx context.Context, id int64) (domain.User, error) {
	return r.find(ctx, id, false)
}

// FindByIDForUpdate 在环境事务内用 SELECT ... FOR UPDATE 锁住该行。
func (r *GormUserRepository) FindByIDForUpdate(ctx context.Context, id int64) (domain.User, error) {
	return r.find(ctx, id, true)
}

func (r *GormUserRepository) find(ctx context.Context, id int64, forUpdate bool) (domain.User, error) {
	tx := database.FromContext(ctx, r.db)
	if forUpdate {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var model UserModel
	if err := tx.Where("id = ?", id).First(&model).Error; err != nil {
		if pkgerrors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, apperr.ErrUserNotFound
		}
		return domain.User{}, pkgerrors.Wrap(err, "failed to load user")
	}
	return toDomainUser(&model), nil
}

func (r *GormUserRepository) Save(ctx context.Context, user domain.User) error {
	model := toUserModel(user)
	err := database.FromContext(ctx, r.db).
		Model(&UserModel{}).
		Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"point":      model.Point,
			"updated_at": model.UpdatedAt,
		}).Error
	return pkgerrors.Wrap(err, "failed to save user")
}

// GormPointHistoryRepository 是 domain.PointHistoryRepository 的 GORM 实现。
type GormPointHistoryRepository struct {
	db *gorm.DB
}

func NewGormPointHistoryRepository(db *gorm.DB) *GormPointHistoryRepository {
	return &GormPointHistoryRepository{db: db}
}

func (r *GormPointHistoryRepository) Append(ctx context.Context, history domain.PointHistory) error {
	model := toPointHistoryModel(history)
	err := database.FromContext(ctx, r.db).Create(&model).Error
	return pkgerrors.Wrap(err, "failed to append point history")
}

func (r *GormPointHistoryRepository) FindByUserID(ctx context.Context, userID int64) ([]domain.PointHistory, error) {
	var models []PointHistoryModel
	err := database.FromContext(ctx, r.db).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&models).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to query point history")
	}
	out := make([]domain.PointHistory, 0, len(models))
	for i := range models {
		out = append(out, toDomainPointHistory(&models[i]))
	}
	return out, nil
}
