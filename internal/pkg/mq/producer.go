// internal/pkg/mq/producer.go
package mq

import (
	"context"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// NewWriter 创建一个不绑定固定 Topic 的 kafka Writer，
// Topic 在每条消息上指定，方便一个 Writer 服务多个事件流。
func NewWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{}, // 同 key 落同分区，保证单聚合的顺序
		RequiredAcks: kafka.RequireAll,
	}
}

// ProduceMessage 发送一条消息，并把当前 trace 上下文注入到 Kafka Header，
// 让消费端可以延续同一条链路。
func ProduceMessage(ctx context.Context, writer *kafka.Writer, topic string, key, value []byte) error {
	msg := kafka.Message{
		Topic: topic,
		Key:   key,
		Value: value,
	}

	carrier := kafkaHeaderCarrier{msg: &msg}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	return writer.WriteMessages(ctx, msg)
}

// kafkaHeaderCarrier 把 kafka.Message 的 Header 适配成 otel 的 TextMapCarrier。
type kafkaHeaderCarrier struct {
	msg *kafka.Message
}

var _ propagation.TextMapCarrier = kafkaHeaderCarrier{}

func (c kafkaHeaderCarrier) Get(key string) string {
	for _, h := range c.msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c kafkaHeaderCarrier) Set(key, value string) {
	c.msg.Headers = append(c.msg.Headers, kafka.Header{Key: key, Value: []byte(value)})
}

func (c kafkaHeaderCarrier) Keys() []string {
	keys := make([]string, 0, len(c.msg.Headers))
	for _, h := range c.msg.Headers {
		keys = append(keys, h.Key)
	}
	return keys
}
