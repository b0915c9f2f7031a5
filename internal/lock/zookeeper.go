// internal/lock/zookeeper.go
package lock

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-zookeeper/zk"

	"shopcore/internal/pkg/apperr"
)

const lockRoot = "/shopcore_locks"

// ZKLocker 是 Locker 的跨进程实现：在 ZooKeeper 上用
// 临时顺序节点排队。多实例部署时聚合计数器靠它串行化。
type ZKLocker struct {
	conn *zk.Conn
	wait time.Duration
}

// NewZKLocker 连接 ZooKeeper 并确保锁根节点存在。
func NewZKLocker(addrs []string, wait time.Duration) (*ZKLocker, error) {
	conn, _, err := zk.Connect(addrs, 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to zookeeper: %w", err)
	}
	if _, err := conn.Create(lockRoot, []byte{}, 0, zk.WorldACL(zk.PermAll)); err != nil && err != zk.ErrNodeExists {
		conn.Close()
		return nil, fmt.Errorf("failed to create lock root node: %w", err)
	}
	return &ZKLocker{conn: conn, wait: wait}, nil
}

// WithLock 在 key 的互斥区内执行 fn，无论 fn 结果如何都会释放锁。
func (l *ZKLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	node, err := l.acquire(ctx, key)
	if err != nil {
		return err
	}
	defer l.release(node)
	return fn(ctx)
}

// acquire 实现经典的顺序节点排队：
// 创建临时顺序节点，只监听紧邻的前驱，前驱消失后重新竞争。
// 整体等待超过 wait 视为 LockTimeout。
func (l *ZKLocker) acquire(ctx context.Context, key string) (string, error) {
	// key 可能带 ':'，ZooKeeper 路径里替换掉
	path := lockRoot + "/" + strings.ReplaceAll(key, ":", "-")
	if _, err := l.conn.Create(path, []byte{}, 0, zk.WorldACL(zk.PermAll)); err != nil && err != zk.ErrNodeExists {
		return "", fmt.Errorf("failed to create lock path node %s: %w", path, err)
	}

	node, err := l.conn.CreateProtectedEphemeralSequential(path+"/lock-", []byte{}, zk.WorldACL(zk.PermAll))
	if err != nil {
		return "", fmt.Errorf("failed to create sequential node: %w", err)
	}

	deadline := time.Now().Add(l.wait)
	for {
		children, _, err := l.conn.Children(path)
		if err != nil {
			l.release(node)
			return "", fmt.Errorf("failed to get children nodes: %w", err)
		}

		myName := strings.TrimPrefix(node, path+"/")
		prevName, err := pickPredecessor(children, myName)
		if err != nil {
			l.release(node)
			return "", err
		}
		if prevName == "" {
			// 序号最小，拿到锁
			return node, nil
		}
		prevPath := path + "/" + prevName

		exists, _, eventChan, err := l.conn.ExistsW(prevPath)
		if err != nil {
			if err == zk.ErrNoNode {
				continue
			}
			l.release(node)
			return "", fmt.Errorf("failed to watch previous node: %w", err)
		}
		if !exists {
			continue
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			l.release(node)
			return "", apperr.ErrLockTimeout.WithMessage("timed out waiting for lock on %q", key)
		}
		timer := time.NewTimer(remaining)
		select {
		case event := <-eventChan:
			timer.Stop()
			if event.Type == zk.EventNodeDeleted {
				continue
			}
		case <-timer.C:
			l.release(node)
			return "", apperr.ErrLockTimeout.WithMessage("timed out waiting for lock on %q", key)
		case <-ctx.Done():
			timer.Stop()
			l.release(node)
			return "", ctx.Err()
		}
	}
}

// parseSeq 取出节点名末尾的顺序号。受保护节点形如
// _c_<guid>-lock-<seq>，GUID 是随机的，排队只能看末尾序号。
func parseSeq(name string) (int64, error) {
	idx := strings.LastIndex(name, "-")
	if idx < 0 {
		return 0, fmt.Errorf("lock node %q has no sequence suffix", name)
	}
	return strconv.ParseInt(name[idx+1:], 10, 64)
}

// pickPredecessor 在兄弟节点里找 myName 按序号的紧邻前驱。
// 返回空串表示 myName 序号最小，当前就是持有者。
// 不能对节点名做字典序比较：随机 GUID 前缀会把后来者排到前面。
func pickPredecessor(children []string, myName string) (string, error) {
	mySeq, err := parseSeq(myName)
	if err != nil {
		return "", err
	}
	found := false
	prevName := ""
	prevSeq := int64(-1)
	for _, child := range children {
		if child == myName {
			found = true
			continue
		}
		seq, err := parseSeq(child)
		if err != nil {
			// 锁目录里混入的非顺序节点不参与排队
			continue
		}
		if seq < mySeq && seq > prevSeq {
			prevSeq = seq
			prevName = child
		}
	}
	if !found {
		return "", errors.New("own lock node missing from children listing")
	}
	return prevName, nil
}

func (l *ZKLocker) release(node string) {
	// 删除失败时临时节点会随会话过期自动清理
	_ = l.conn.Delete(node, -1)
}

// Close 关闭与 ZooKeeper 的会话，所有未释放的临时节点随之消失。
func (l *ZKLocker) Close() {
	l.conn.Close()
}
