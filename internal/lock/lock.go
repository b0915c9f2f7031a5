// internal/lock/lock.go
package lock

import (
	"context"
	"strconv"
)

// Locker 是并发守卫的统一入口：对同一个 key，fn 的执行是串行化的。
// 实现方必须保证 fn 返回后锁一定被释放（包括 panic 之外的所有错误路径），
// 并在有界等待超时后返回 apperr.ErrLockTimeout。
//
// 不同 key 之间没有任何顺序保证。调用方若要持有多把锁，
// 必须遵守全局固定的获取顺序：stock → coupon → balance。
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// 聚合锁 key 的命名约定。Saga 与发放入口统一通过这些函数取 key，
// 避免散落的 fmt.Sprintf 写出不一致的键。
const (
	stockKeyPrefix   = "stock:"
	couponKeyPrefix  = "coupon:"
	balanceKeyPrefix = "balance:"
	paymentKeyPrefix = "payment:"
)

func StockKey(productID int64) string  { return stockKeyPrefix + strconv.FormatInt(productID, 10) }
func CouponKey(couponID int64) string  { return couponKeyPrefix + strconv.FormatInt(couponID, 10) }
func BalanceKey(userID int64) string   { return balanceKeyPrefix + strconv.FormatInt(userID, 10) }
func PaymentKey(idemKey string) string { return paymentKeyPrefix + idemKey }
