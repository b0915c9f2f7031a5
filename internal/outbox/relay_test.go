// internal/outbox/relay_test.go
package outbox

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryRepo 是 Repository 的内存实现，只用于测试。
type memoryRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*Message
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{rows: make(map[int64]*Message)}
}

func (r *memoryRepo) Append(ctx context.Context, msg *Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	stored := *msg
	stored.ID = r.nextID
	stored.CreatedAt = time.Now()
	r.rows[stored.ID] = &stored
	msg.ID = stored.ID
	return nil
}

func (r *memoryRepo) FindPending(ctx context.Context, limit int) ([]*Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Message
	for _, m := range r.rows {
		if !m.IsProcessed && m.RetryCount < MaxRetry {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryRepo) MarkProcessed(ctx context.Context, id int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.rows[id]
	m.IsProcessed = true
	m.ProcessedAt = &at
	return nil
}

func (r *memoryRepo) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.rows[id]
	m.RetryCount++
	m.ErrorMessage = errMsg
	return nil
}

func (r *memoryRepo) FindDeadLetters(ctx context.Context) ([]*Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Message
	for _, m := range r.rows {
		if m.DeadLetter() {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memoryRepo) DeleteProcessedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, m := range r.rows {
		if m.IsProcessed && m.ProcessedAt != nil && m.ProcessedAt.Before(cutoff) {
			delete(r.rows, id)
			n++
		}
	}
	return n, nil
}

// scriptedProducer 按 key 的调用次数决定成功或失败。
type scriptedProducer struct {
	mu       sync.Mutex
	failures map[string]int // 每个 key 先失败多少次
	sent     []string       // 成功投递的 key，按顺序
}

func (p *scriptedProducer) Send(ctx context.Context, topic, key string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failures[key] > 0 {
		p.failures[key]--
		return errors.New("broker unavailable")
	}
	p.sent = append(p.sent, key)
	return nil
}

func newRelayForTest(repo Repository, producer Producer) *Relay {
	return NewRelay(repo, producer, "order-events", time.Second, 100)
}

func TestRelayDrainPublishesPending(t *testing.T) {
	repo := newMemoryRepo()
	producer := &scriptedProducer{failures: map[string]int{}}
	relay := newRelayForTest(repo, producer)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		msg, err := NewMessage("ORDER", "order-1", "ORDER_COMPLETED", map[string]int{"seq": i})
		require.NoError(t, err)
		require.NoError(t, repo.Append(ctx, msg))
	}

	require.NoError(t, relay.Drain(ctx))

	pending, err := repo.FindPending(ctx, 100)
	require.NoError(t, err)
	assert.Empty(t, pending)
	assert.Equal(t, []string{"order-1", "order-1", "order-1"}, producer.sent)
}

func TestRelayRetriesThenSucceeds(t *testing.T) {
	repo := newMemoryRepo()
	// 前两轮失败，第三轮成功
	producer := &scriptedProducer{failures: map[string]int{"order-1": 2}}
	relay := newRelayForTest(repo, producer)

	ctx := context.Background()
	msg, err := NewMessage("ORDER", "order-1", "ORDER_COMPLETED", map[string]string{"orderId": "order-1"})
	require.NoError(t, err)
	require.NoError(t, repo.Append(ctx, msg))

	_ = relay.Drain(ctx)
	_ = relay.Drain(ctx)
	require.NoError(t, relay.Drain(ctx))

	repo.mu.Lock()
	stored := repo.rows[msg.ID]
	repo.mu.Unlock()
	assert.True(t, stored.IsProcessed)
	assert.Equal(t, 2, stored.RetryCount)
}

func TestRelayDeadLettersAfterMaxRetry(t *testing.T) {
	repo := newMemoryRepo()
	producer := &scriptedProducer{failures: map[string]int{"order-1": MaxRetry + 5}}
	relay := newRelayForTest(repo, producer)

	ctx := context.Background()
	msg, err := NewMessage("ORDER", "order-1", "ORDER_COMPLETED", map[string]string{"orderId": "order-1"})
	require.NoError(t, err)
	require.NoError(t, repo.Append(ctx, msg))

	for i := 0; i < MaxRetry+2; i++ {
		_ = relay.Drain(ctx)
	}

	// 重试预算耗尽后不再被 FindPending 捞出
	pending, err := repo.FindPending(ctx, 100)
	require.NoError(t, err)
	assert.Empty(t, pending)

	dead, err := repo.FindDeadLetters(ctx)
	require.NoError(t, err)
	require.Len(t, dead, 1)
	assert.Equal(t, MaxRetry, dead[0].RetryCount)
	assert.Empty(t, producer.sent)
}

func TestRelayPreservesPerAggregateOrder(t *testing.T) {
	repo := newMemoryRepo()
	// order-1 的第一条失败一次，本轮内后续消息必须跟着停下
	producer := &scriptedProducer{failures: map[string]int{"order-1": 1}}
	relay := newRelayForTest(repo, producer)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		msg, err := NewMessage("ORDER", "order-1", "ORDER_COMPLETED", map[string]int{"seq": i})
		require.NoError(t, err)
		require.NoError(t, repo.Append(ctx, msg))
	}
	other, err := NewMessage("ORDER", "order-2", "ORDER_COMPLETED", map[string]int{"seq": 0})
	require.NoError(t, err)
	require.NoError(t, repo.Append(ctx, other))

	_ = relay.Drain(ctx)

	// 第一轮: order-1 整个分区停下，order-2 正常投递
	assert.Equal(t, []string{"order-2"}, producer.sent)

	require.NoError(t, relay.Drain(ctx))
	assert.Equal(t, []string{"order-2", "order-1", "order-1"}, producer.sent)
}

func TestRelayRetentionPurge(t *testing.T) {
	repo := newMemoryRepo()
	producer := &scriptedProducer{failures: map[string]int{}}
	relay := newRelayForTest(repo, producer)

	ctx := context.Background()
	msg, err := NewMessage("ORDER", "order-1", "ORDER_COMPLETED", map[string]string{"orderId": "order-1"})
	require.NoError(t, err)
	require.NoError(t, repo.Append(ctx, msg))
	require.NoError(t, relay.Drain(ctx))

	n, err := repo.DeleteProcessedBefore(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	repo.mu.Lock()
	defer repo.mu.Unlock()
	assert.Empty(t, repo.rows)
}
