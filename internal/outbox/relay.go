// internal/outbox/relay.go
package outbox

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"shopcore/internal/pkg/logger"
)

// Relay 轮询发件箱并把待投递的消息推给 Producer。
// 投递语义是 at-least-once：失败累加重试计数，
// 达到 MaxRetry 后不再自动重试，由 FindDeadLetters 暴露给运维。
type Relay struct {
	repo      Repository
	producer  Producer
	topic     string
	interval  time.Duration
	batchSize int

	// maxPartitions 限制同时投递的聚合分区数。
	// 同一聚合内严格串行，保证单聚合事件的创建顺序。
	maxPartitions int

	now func() time.Time
}

func NewRelay(repo Repository, producer Producer, topic string, interval time.Duration, batchSize int) *Relay {
	return &Relay{
		repo:          repo,
		producer:      producer,
		topic:         topic,
		interval:      interval,
		batchSize:     batchSize,
		maxPartitions: 8,
		now:           time.Now,
	}
}

// Start 以固定间隔轮询，直到 ctx 取消。阻塞调用方，通常放在独立 goroutine 里。
func (r *Relay) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	logger.Ctx(ctx).Info().Dur("interval", r.interval).Msg("outbox relay started")
	for {
		select {
		case <-ctx.Done():
			logger.Ctx(ctx).Info().Msg("outbox relay stopped")
			return
		case <-ticker.C:
			if err := r.Drain(ctx); err != nil {
				logger.Ctx(ctx).Error().Err(err).Msg("outbox drain failed")
			}
		}
	}
}

// Drain 处理一批待投递消息。消息按聚合 ID 分区：
// 分区之间并行，分区内部按创建顺序串行，某条失败则该分区本轮到此为止，
// 避免越过失败的消息造成乱序。
func (r *Relay) Drain(ctx context.Context) error {
	pending, err := r.repo.FindPending(ctx, r.batchSize)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	partitions := make(map[string][]*Message)
	order := make([]string, 0)
	for _, msg := range pending {
		if _, ok := partitions[msg.AggregateID]; !ok {
			order = append(order, msg.AggregateID)
		}
		partitions[msg.AggregateID] = append(partitions[msg.AggregateID], msg)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.maxPartitions)
	for _, aggregateID := range order {
		msgs := partitions[aggregateID]
		g.Go(func() error {
			r.drainPartition(gctx, msgs)
			return nil
		})
	}
	return g.Wait()
}

func (r *Relay) drainPartition(ctx context.Context, msgs []*Message) {
	for _, msg := range msgs {
		if err := r.publish(ctx, msg); err != nil {
			// 本分区剩余消息留到下一轮，保持单聚合顺序
			return
		}
	}
}

func (r *Relay) publish(ctx context.Context, msg *Message) error {
	err := r.producer.Send(ctx, r.topic, msg.AggregateID, msg.Payload)
	if err != nil {
		publishFailuresTotal.Inc()
		if markErr := r.repo.MarkFailed(ctx, msg.ID, err.Error()); markErr != nil {
			logger.Ctx(ctx).Error().Err(markErr).Int64("message_id", msg.ID).Msg("failed to record publish failure")
			return err
		}
		if msg.RetryCount+1 >= MaxRetry {
			deadLettersTotal.Inc()
			logger.Ctx(ctx).Error().
				Int64("message_id", msg.ID).
				Str("aggregate_id", msg.AggregateID).
				Str("event_type", msg.EventType).
				Msg("outbox message dead-lettered")
		} else {
			logger.Ctx(ctx).Warn().
				Int64("message_id", msg.ID).
				Int("retry_count", msg.RetryCount+1).
				Err(err).
				Msg("outbox publish failed, will retry")
		}
		return err
	}

	if err := r.repo.MarkProcessed(ctx, msg.ID, r.now()); err != nil {
		// 标记失败会导致重复投递，这正是 at-least-once 的代价
		logger.Ctx(ctx).Error().Err(err).Int64("message_id", msg.ID).Msg("failed to mark message processed")
		return err
	}
	publishedTotal.Inc()
	return nil
}

// RunRetention 定期清理早于 maxAge 的已投递消息，直到 ctx 取消。
func (r *Relay) RunRetention(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := r.now().Add(-maxAge)
			n, err := r.repo.DeleteProcessedBefore(ctx, cutoff)
			if err != nil {
				logger.Ctx(ctx).Error().Err(err).Msg("outbox retention purge failed")
				continue
			}
			if n > 0 {
				purgedTotal.Add(float64(n))
				logger.Ctx(ctx).Info().Int64("purged", n).Time("cutoff", cutoff).Msg("outbox retention purge")
			}
		}
	}
}
