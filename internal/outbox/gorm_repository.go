// internal/outbox/gorm_repository.go
package outbox

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"shopcore/internal/pkg/database"
)

// MessageModel 对应 outbox_message 表。
type MessageModel struct {
	ID            int64  `gorm:"primaryKey;autoIncrement"`
	AggregateType string `gorm:"size:32;index:idx_aggregate,priority:1"`
	AggregateID   string `gorm:"size:64;index:idx_aggregate,priority:2"`
	EventType     string `gorm:"size:64"`
	Payload       []byte `gorm:"type:json"`
	IsProcessed   bool   `gorm:"index:idx_pending,priority:1"`
	ProcessedAt   *time.Time
	RetryCount    int `gorm:"index:idx_pending,priority:2"`
	ErrorMessage  string
	CreatedAt     time.Time
}

func (MessageModel) TableName() string { return "outbox_message" }

func toModel(m *Message) *MessageModel {
	return &MessageModel{
		ID:            m.ID,
		AggregateType: m.AggregateType,
		AggregateID:   m.AggregateID,
		EventType:     m.EventType,
		Payload:       m.Payload,
		IsProcessed:   m.IsProcessed,
		ProcessedAt:   m.ProcessedAt,
		RetryCount:    m.RetryCount,
		ErrorMessage:  m.ErrorMessage,
		CreatedAt:     m.CreatedAt,
	}
}

func toDomain(model *MessageModel) *Message {
	return &Message{
		ID:            model.ID,
		AggregateType: model.AggregateType,
		AggregateID:   model.AggregateID,
		EventType:     model.EventType,
		Payload:       model.Payload,
		IsProcessed:   model.IsProcessed,
		ProcessedAt:   model.ProcessedAt,
		RetryCount:    model.RetryCount,
		ErrorMessage:  model.ErrorMessage,
		CreatedAt:     model.CreatedAt,
	}
}

// GormRepository 是 Repository 的 GORM 实现。
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// Append 写入一条消息。ctx 中带事务时加入该事务，
// 这是发件箱模式的关键：与领域写入一起提交。
func (r *GormRepository) Append(ctx context.Context, msg *Message) error {
	model := toModel(msg)
	if err := database.FromContext(ctx, r.db).Create(model).Error; err != nil {
		return errors.Wrap(err, "failed to append outbox message")
	}
	msg.ID = model.ID
	msg.CreatedAt = model.CreatedAt
	return nil
}

func (r *GormRepository) FindPending(ctx context.Context, limit int) ([]*Message, error) {
	var models []*MessageModel
	err := database.FromContext(ctx, r.db).
		Where("is_processed = ? AND retry_count < ?", false, MaxRetry).
		Order("id ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to query pending outbox messages")
	}
	out := make([]*Message, 0, len(models))
	for _, m := range models {
		out = append(out, toDomain(m))
	}
	return out, nil
}

func (r *GormRepository) MarkProcessed(ctx context.Context, id int64, at time.Time) error {
	return database.FromContext(ctx, r.db).
		Model(&MessageModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_processed":  true,
			"processed_at":  at,
			"error_message": "",
		}).Error
}

func (r *GormRepository) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	return database.FromContext(ctx, r.db).
		Model(&MessageModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"retry_count":   gorm.Expr("retry_count + 1"),
			"error_message": errMsg,
		}).Error
}

func (r *GormRepository) FindDeadLetters(ctx context.Context) ([]*Message, error) {
	var models []*MessageModel
	err := database.FromContext(ctx, r.db).
		Where("is_processed = ? AND retry_count >= ?", false, MaxRetry).
		Order("id ASC").
		Find(&models).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to query dead letters")
	}
	out := make([]*Message, 0, len(models))
	for _, m := range models {
		out = append(out, toDomain(m))
	}
	return out, nil
}

func (r *GormRepository) DeleteProcessedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := database.FromContext(ctx, r.db).
		Where("is_processed = ? AND processed_at < ?", true, cutoff).
		Delete(&MessageModel{})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "failed to purge processed outbox messages")
	}
	return res.RowsAffected, nil
}
