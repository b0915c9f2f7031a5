// internal/service/payment/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"
	"time"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"shopcore/internal/pkg/apperr"
	"shopcore/internal/pkg/database"
	"shopcore/internal/service/payment/domain"
)

// PaymentModel 对应 payment 表。idempotency_key 上的唯一索引
// 是幂等网关的最终防线。
type PaymentModel struct {
	ID             string `gorm:"primaryKey;size:36"`
	OrderID        string `gorm:"size:36;index"`
	UserID         int64  `gorm:"index"`
	IdempotencyKey string `gorm:"size:64;uniqueIndex"`
	Price          int64
	Status         string `gorm:"size:16"`
	TransactionID  string `gorm:"size:64"`
	FailReason     string `gorm:"size:255"`
	ExternalSync   bool
	SuccessAt      *time.Time
	CreatedAt      time.Time
}

func (PaymentModel) TableName() string { return "payment" }

func toModel(p domain.Payment) PaymentModel {
	return PaymentModel{
		ID:             p.ID,
		OrderID:        p.OrderID,
		UserID:         p.UserID,
		IdempotencyKey: p.IdempotencyKey,
		Price:          p.Price,
		Status:         string(p.Status),
		TransactionID:  p.TransactionID,
		FailReason:     p.FailReason,
		ExternalSync:   p.ExternalSync,
		SuccessAt:      p.SuccessAt,
		CreatedAt:      p.CreatedAt,
	}
}

func toDomain(m *PaymentModel) domain.Payment {
	return domain.Payment{
		ID:             m.ID,
		OrderID:        m.OrderID,
		UserID:         m.UserID,
		IdempotencyKey: m.IdempotencyKey,
		Price:          m.Price,
		Status:         domain.Status(m.Status),
		TransactionID:  m.TransactionID,
		FailReason:     m.FailReason,
		ExternalSync:   m.ExternalSync,
		SuccessAt:      m.SuccessAt,
		CreatedAt:      m.CreatedAt,
	}
}

// GormPaymentRepository 是 domain.PaymentRepository 的 GORM 实现。
type GormPaymentRepository struct {
	db *gorm.DB
}

func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

func (r *GormPaymentRepository) FindByID(ctx context.Context, id string) (domain.Payment, error) {
	var model PaymentModel
	if err := database.FromContext(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if pkgerrors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Payment{}, apperr.ErrPaymentNotFound
		}
		return domain.Payment{}, pkgerrors.Wrap(err, "failed to load payment")
	}
	return toDomain(&model), nil
}

func (r *GormPaymentRepository) FindByIdempotencyKey(ctx context.Context, key string) (domain.Payment, bool, error) {
	var model PaymentModel
	err := database.FromContext(ctx, r.db).Where("idempotency_key = ?", key).First(&model).Error
	if err != nil {
		if pkgerrors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Payment{}, false, nil
		}
		return domain.Payment{}, false, pkgerrors.Wrap(err, "failed to load payment by idempotency key")
	}
	return toDomain(&model), true, nil
}

func (r *GormPaymentRepository) Create(ctx context.Context, payment domain.Payment) error {
	model := toModel(payment)
	err := database.FromContext(ctx, r.db).Create(&model).Error
	return pkgerrors.Wrap(err, "failed to create payment")
}

func (r *GormPaymentRepository) Save(ctx context.Context, payment domain.Payment) error {
	err := database.FromContext(ctx, r.db).
		Model(&PaymentModel{}).
		Where("id = ?", payment.ID).
		Updates(map[string]interface{}{
			"status":         string(payment.Status),
			"transaction_id": payment.TransactionID,
			"fail_reason":    payment.FailReason,
			"success_at":     payment.SuccessAt,
		}).Error
	return pkgerrors.Wrap(err, "failed to save payment")
}
