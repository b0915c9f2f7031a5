// internal/outbox/message.go
package outbox

import (
	"context"
	"encoding/json"
	"time"
)

// MaxRetry 之后的消息不再自动重试，成为死信，等待人工介入。
const MaxRetry = 3

// Message 是事务性发件箱里的一行。它与触发它的领域写入
// 在同一个工作单元中落库，之后由 Relay 异步投递。
type Message struct {
	ID            int64
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       json.RawMessage
	IsProcessed   bool
	ProcessedAt   *time.Time
	RetryCount    int
	ErrorMessage  string
	CreatedAt     time.Time
}

// NewMessage 序列化事件体并构造一条待投递的消息。
func NewMessage(aggregateType, aggregateID, eventType string, event interface{}) (*Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return &Message{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       payload,
	}, nil
}

// DeadLetter 判断消息是否已耗尽重试预算。
func (m *Message) DeadLetter() bool {
	return !m.IsProcessed && m.RetryCount >= MaxRetry
}

// Repository 是发件箱的持久化接口。Append 必须尊重 ctx 中的环境事务，
// 这样消息才能和领域写入一起提交或一起回滚。
type Repository interface {
	Append(ctx context.Context, msg *Message) error
	// FindPending 返回未投递且未成为死信的消息，按创建先后排序。
	FindPending(ctx context.Context, limit int) ([]*Message, error)
	MarkProcessed(ctx context.Context, id int64, at time.Time) error
	// MarkFailed 累加重试计数并记录错误信息。
	MarkFailed(ctx context.Context, id int64, errMsg string) error
	FindDeadLetters(ctx context.Context) ([]*Message, error)
	// DeleteProcessedBefore 清理早于 cutoff 的已投递消息，返回删除行数。
	DeleteProcessedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Producer 是消息总线的出站端口。投递失败由 Relay 负责重试，
// 实现方自身不做内部重试。
type Producer interface {
	Send(ctx context.Context, topic, key string, payload []byte) error
}
