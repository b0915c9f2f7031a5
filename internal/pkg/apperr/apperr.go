// internal/pkg/apperr/apperr.go
package apperr

import "fmt"

// Error 是对外暴露的业务错误：稳定的机器码 + 人类可读的消息。
// 内部细节（SQL、堆栈等）不会出现在这里，调用方只依赖 Code 做分支。
type Error struct {
	Code      string
	Message   string
	retryable bool
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Retryable 只有并发类错误（锁等待超时）允许调用方带退避重试。
func (e *Error) Retryable() bool {
	return e.retryable
}

// WithMessage 派生一个同码不同消息的错误，errors.Is 仍然与原哨兵匹配。
func (e *Error) WithMessage(format string, args ...interface{}) *Error {
	return &Error{Code: e.Code, Message: fmt.Sprintf(format, args...), retryable: e.retryable}
}

// Is 让派生错误与哨兵按 Code 匹配。
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// 校验类错误：未取得任何锁之前就被拒绝。
var (
	ErrInvalidRequest  = &Error{Code: "INVALID_REQUEST", Message: "malformed request"}
	ErrInvalidAmount   = &Error{Code: "INVALID_AMOUNT", Message: "amount must be positive"}
	ErrInvalidQuantity = &Error{Code: "INVALID_QUANTITY", Message: "quantity must be positive"}
	ErrOrderEmpty      = &Error{Code: "ORDER_EMPTY", Message: "order must contain at least one item"}
)

// 业务规则类错误：直接上抛给调用方，绝不静默重试。
var (
	ErrBalanceCapExceeded  = &Error{Code: "BALANCE_CAP_EXCEEDED", Message: "point balance cap exceeded"}
	ErrInsufficientBalance = &Error{Code: "INSUFFICIENT_BALANCE", Message: "insufficient point balance"}
	ErrInsufficientStock   = &Error{Code: "INSUFFICIENT_STOCK", Message: "insufficient stock"}
	ErrCouponExhausted     = &Error{Code: "COUPON_EXHAUSTED", Message: "coupon pool exhausted"}
	ErrCouponExpired       = &Error{Code: "COUPON_EXPIRED", Message: "coupon expired"}
	ErrCouponAlreadyUsed   = &Error{Code: "COUPON_ALREADY_USED", Message: "coupon already used"}
	ErrCouponInactive      = &Error{Code: "COUPON_INACTIVE", Message: "coupon is not active"}
	ErrCouponNotApplicable = &Error{Code: "COUPON_NOT_APPLICABLE", Message: "coupon not applicable to this order"}
	ErrAlreadyIssued       = &Error{Code: "ALREADY_ISSUED", Message: "coupon already issued to this user"}
	ErrInvalidFinalPrice   = &Error{Code: "INVALID_FINAL_PRICE", Message: "final price must not be negative"}
)

// 并发与幂等类错误。
var (
	ErrLockTimeout          = &Error{Code: "LOCK_TIMEOUT", Message: "timed out waiting for lock", retryable: true}
	ErrPaymentAlreadyFailed = &Error{Code: "PAYMENT_ALREADY_FAILED", Message: "payment with this idempotency key already failed, supply a new key"}
	ErrInvalidPaymentState  = &Error{Code: "INVALID_PAYMENT_STATE", Message: "payment state does not allow this transition"}
)

// NotFound 类：聚合不存在。
var (
	ErrUserNotFound    = &Error{Code: "USER_NOT_FOUND", Message: "user not found"}
	ErrProductNotFound = &Error{Code: "PRODUCT_NOT_FOUND", Message: "product not found"}
	ErrCouponNotFound  = &Error{Code: "COUPON_NOT_FOUND", Message: "coupon not found"}
	ErrOrderNotFound   = &Error{Code: "ORDER_NOT_FOUND", Message: "order not found"}
	ErrPaymentNotFound = &Error{Code: "PAYMENT_NOT_FOUND", Message: "payment not found"}
)
