// internal/service/inventory/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"shopcore/internal/pkg/apperr"
	"shopcore/internal/pkg/database"
	"shopcore/internal/service/inventory/domain"
)

// GormProductRepository 是 domain.ProductRepository 的 GORM 实现。
type GormProductRepository struct {
	db *gorm.DB
}

func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []int64) (map[int64]domain.Product, error) {
	var models []ProductModel
	err := database.FromContext(ctx, r.db).Where("id IN ?", ids).Find(&models).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to load products")
	}
	out := make(map[int64]domain.Product, len(models))
	for _, m := range models {
		out[m.ID] = domain.Product{ID: m.ID, Name: m.Name, Price: m.Price}
	}
	for _, id := range ids {
		if _, ok := out[id]; !ok {
			return nil, apperr.ErrProductNotFound.WithMessage("product %d not found", id)
		}
	}
	return out, nil
}

// GormStockRepository 是 domain.StockRepository 的 GORM 实现。
type GormStockRepository struct {
	db *gorm.DB
}

func NewGormStockRepository(db *gorm.DB) *GormStockRepository {
	return &GormStockRepository{db: db}
}

func (r *GormStockRepository) FindByProductID(ctx context.Context, productID int64) (domain.Stock, error) {
	return r.find(ctx, productID, false)
}

func (r *GormStockRepository) FindByProductIDForUpdate(ctx context.Context, productID int64) (domain.Stock, error) {
	return r.find(ctx, productID, true)
}

func (r *GormStockRepository) find(ctx context.Context, productID int64, forUpdate bool) (domain.Stock, error) {
	tx := database.FromContext(ctx, r.db)
	if forUpdate {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var model StockModel
	if err := tx.Where("product_id = ?", productID).First(&model).Error; err != nil {
		if pkgerrors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Stock{}, apperr.ErrProductNotFound.WithMessage("no stock row for product %d", productID)
		}
		return domain.Stock{}, pkgerrors.Wrap(err, "failed to load stock")
	}
	return domain.Stock{ProductID: model.ProductID, Quantity: model.Quantity, UpdatedAt: model.UpdatedAt}, nil
}

func (r *GormStockRepository) Save(ctx context.Context, stock domain.Stock) error {
	err := database.FromContext(ctx, r.db).
		Model(&StockModel{}).
		Where("product_id = ?", stock.ProductID).
		Updates(map[string]interface{}{
			"quantity":   stock.Quantity,
			"updated_at": stock.UpdatedAt,
		}).Error
	return pkgerrors.Wrap(err, "failed to save stock")
}

// GormStockMovementRepository 是 domain.StockMovementRepository 的 GORM 实现。
type GormStockMovementRepository struct {
	db *gorm.DB
}

func NewGormStockMovementRepository(db *gorm.DB) *GormStockMovementRepository {
	return &GormStockMovementRepository{db: db}
}

func (r *GormStockMovementRepository) Append(ctx context.Context, movement domain.StockMovement) error {
	model := StockMovementModel{
		ProductID: movement.ProductID,
		Type:      string(movement.Type),
		Quantity:  movement.Quantity,
		Reason:    movement.Reason,
		CreatedAt: movement.CreatedAt,
	}
	err := database.FromContext(ctx, r.db).Create(&model).Error
	return pkgerrors.Wrap(err, "failed to append stock movement")
}
