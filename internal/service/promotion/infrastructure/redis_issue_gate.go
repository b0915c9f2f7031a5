// internal/service/promotion/infrastructure/redis_issue_gate.go
package infrastructure

import (
	"context"
	"fmt"

	"shopcore/internal/pkg/apperr"
	"shopcore/internal/pkg/redis"
)

const (
	issueScriptName  = "coupon_issue"
	cancelScriptName = "coupon_issue_cancel"
)

// RedisIssueGate 是发放快速通道：Lua 脚本原子地做
// “用户去重 + 池子扣减”，把注定失败的请求挡在数据库之外。
type RedisIssueGate struct {
	client *redis.Client
}

// NewRedisIssueGate 创建快速通道并加载脚本。
func NewRedisIssueGate(client *redis.Client) (*RedisIssueGate, error) {
	if err := client.LoadScriptFromContent(issueScriptName, issueScript); err != nil {
		return nil, fmt.Errorf("failed to load coupon issue script: %w", err)
	}
	if err := client.LoadScriptFromContent(cancelScriptName, cancelScript); err != nil {
		return nil, fmt.Errorf("failed to load coupon issue cancel script: %w", err)
	}
	return &RedisIssueGate{client: client}, nil
}

func poolKey(couponID int64) string  { return fmt.Sprintf("coupon:pool:{%d}", couponID) }
func usersKey(couponID int64) string { return fmt.Sprintf("coupon:users:{%d}", couponID) }

// Attempt 实现 application.FastPathGate。
func (g *RedisIssueGate) Attempt(ctx context.Context, couponID, userID int64) error {
	result, err := g.client.RunScript(ctx, issueScriptName,
		[]string{poolKey(couponID), usersKey(couponID)}, userID)
	if err != nil {
		return fmt.Errorf("coupon issue script failed: %w", err)
	}
	code, ok := result.(int64)
	if !ok {
		return fmt.Errorf("unexpected result type from issue script: %T", result)
	}
	switch code {
	case 1:
		return nil
	case 0:
		return apperr.ErrCouponExhausted
	case 2:
		return apperr.ErrAlreadyIssued
	default:
		return fmt.Errorf("unknown result code from issue script: %d", code)
	}
}

// Cancel 归还名额并清掉去重标记。
func (g *RedisIssueGate) Cancel(ctx context.Context, couponID, userID int64) error {
	_, err := g.client.RunScript(ctx, cancelScriptName,
		[]string{poolKey(couponID), usersKey(couponID)}, userID)
	if err != nil {
		return fmt.Errorf("coupon issue cancel script failed: %w", err)
	}
	return nil
}

// Prepare 初始化某张券的快速通道名额（管理 / 测试用）。
func (g *RedisIssueGate) Prepare(ctx context.Context, couponID, available int64) error {
	pipe := g.client.GetClient().Pipeline()
	pipe.Set(ctx, poolKey(couponID), available, 0)
	pipe.Del(ctx, usersKey(couponID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to prepare coupon fast path: %w", err)
	}
	return nil
}

var issueScript = `
-- KEYS[1]: 券池剩余名额, 例如 coupon:pool:{42}
-- KEYS[2]: 已发放用户集合, 例如 coupon:users:{42}
-- ARGV[1]: 用户 ID

if redis.call('sismember', KEYS[2], ARGV[1]) == 1 then
    return 2 -- 该用户已领过
end

local remaining = tonumber(redis.call('get', KEYS[1]))
if remaining and remaining > 0 then
    redis.call('decr', KEYS[1])
    redis.call('sadd', KEYS[2], ARGV[1])
    return 1 -- 占到名额
else
    return 0 -- 已抢光
end
`

var cancelScript = `
-- Attempt 的逆操作: 仅当该用户确实占过名额时回补
if redis.call('sismember', KEYS[2], ARGV[1]) == 1 then
    redis.call('srem', KEYS[2], ARGV[1])
    redis.call('incr', KEYS[1])
end
return 1
`
