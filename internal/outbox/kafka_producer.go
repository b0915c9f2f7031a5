// internal/outbox/kafka_producer.go
package outbox

import (
	"context"

	"github.com/segmentio/kafka-go"

	"shopcore/internal/pkg/mq"
)

// KafkaProducer 是 Producer 的 kafka-go 实现。
// 消息 key 是聚合 ID，经 Hash Balancer 落到固定分区，保持单聚合顺序。
type KafkaProducer struct {
	writer *kafka.Writer
}

func NewKafkaProducer(writer *kafka.Writer) *KafkaProducer {
	return &KafkaProducer{writer: writer}
}

func (p *KafkaProducer) Send(ctx context.Context, topic, key string, payload []byte) error {
	return mq.ProduceMessage(ctx, p.writer, topic, []byte(key), payload)
}

// Close 关闭底层 Writer，flush 未发送的消息。
func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}
