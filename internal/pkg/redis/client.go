// internal/pkg/redis/client.go
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Client 封装 go-redis 客户端，并维护一个按名字注册的 Lua 脚本表。
// 脚本在服务初始化时加载一次，之后通过 EvalSha 执行。
type Client struct {
	rdb     *redis.Client
	scripts map[string]*redis.Script
}

// NewClient 创建并探活一个 Redis 客户端。
func NewClient(ctx context.Context, addr string) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return &Client{
		rdb:     rdb,
		scripts: make(map[string]*redis.Script),
	}, nil
}

// LoadScriptFromContent 注册一段 Lua 脚本。
func (c *Client) LoadScriptFromContent(name, content string) error {
	if _, ok := c.scripts[name]; ok {
		return fmt.Errorf("script %q already registered", name)
	}
	c.scripts[name] = redis.NewScript(content)
	return nil
}

// RunScript 按名字执行已注册的脚本。
func (c *Client) RunScript(ctx context.Context, name string, keys []string, args ...interface{}) (interface{}, error) {
	script, ok := c.scripts[name]
	if !ok {
		return nil, fmt.Errorf("script %q not registered", name)
	}
	return script.Run(ctx, c.rdb, keys, args...).Result()
}

// GetClient 暴露底层客户端，供需要 pipeline 等高级能力的调用方使用。
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close 关闭底层连接。
func (c *Client) Close() error {
	return c.rdb.Close()
}
