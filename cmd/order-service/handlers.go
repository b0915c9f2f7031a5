// cmd/order-service/handlers.go
package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"shopcore/internal/pkg/apperr"
	"shopcore/internal/pkg/bootstrap"
	"shopcore/internal/pkg/logger"
	orderapp "shopcore/internal/service/order/application"
	promoapp "shopcore/internal/service/promotion/application"
	userapp "shopcore/internal/service/user/application"
)

type server struct {
	orders     *orderapp.Service
	users      *userapp.Service
	promotions *promoapp.Service
}

func (s *server) registerRoutes(appCtx bootstrap.AppCtx) {
	appCtx.Mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	appCtx.Mux.Handle("/metrics", promhttp.Handler())
	appCtx.Mux.HandleFunc("/orders", s.handlePlaceOrder)
	appCtx.Mux.HandleFunc("/points/charge", s.handleChargePoints)
	appCtx.Mux.HandleFunc("/coupons/issue", s.handleIssueCoupon)
}

func (s *server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req orderapp.PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, apperr.ErrInvalidRequest.WithMessage("invalid request body: %v", err))
		return
	}
	if req.IdempotencyKey == "" {
		writeError(w, r, apperr.ErrInvalidRequest.WithMessage("idempotencyKey is required"))
		return
	}
	result, err := s.orders.PlaceOrder(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type chargePointsRequest struct {
	UserID int64 `json:"userId"`
	Amount int64 `json:"amount"`
}

func (s *server) handleChargePoints(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req chargePointsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, apperr.ErrInvalidRequest.WithMessage("invalid request body: %v", err))
		return
	}
	if err := s.users.Charge(r.Context(), req.UserID, req.Amount, "manual charge"); err != nil {
		writeError(w, r, err)
		return
	}
	balance, err := s.users.Balance(r.Context(), req.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"userId": req.UserID, "balance": balance})
}

type issueCouponRequest struct {
	UserID   int64 `json:"userId"`
	CouponID int64 `json:"couponId"`
}

func (s *server) handleIssueCoupon(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req issueCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, apperr.ErrInvalidRequest.WithMessage("invalid request body: %v", err))
		return
	}
	if err := s.promotions.Issue(r.Context(), req.UserID, req.CouponID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "issued"})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError 把业务错误翻译成 {code, message}。
// 可重试的错误（锁等待超时）带上 Retry-After，客户端按退避重试。
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		logger.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed with internal error")
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"code":    "INTERNAL",
			"message": "internal server error",
		})
		return
	}

	status := httpStatus(appErr)
	if appErr.Retryable() {
		w.Header().Set("Retry-After", "1")
	}
	logger.Ctx(r.Context()).Warn().Str("code", appErr.Code).Str("path", r.URL.Path).Msg(appErr.Message)
	writeJSON(w, status, map[string]string{
		"code":    appErr.Code,
		"message": appErr.Message,
	})
}

func httpStatus(err *apperr.Error) int {
	switch {
	case errors.Is(err, apperr.ErrUserNotFound),
		errors.Is(err, apperr.ErrProductNotFound),
		errors.Is(err, apperr.ErrCouponNotFound),
		errors.Is(err, apperr.ErrOrderNotFound),
		errors.Is(err, apperr.ErrPaymentNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrInvalidRequest),
		errors.Is(err, apperr.ErrInvalidAmount),
		errors.Is(err, apperr.ErrInvalidQuantity),
		errors.Is(err, apperr.ErrOrderEmpty),
		errors.Is(err, apperr.ErrInvalidFinalPrice):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrAlreadyIssued),
		errors.Is(err, apperr.ErrPaymentAlreadyFailed),
		errors.Is(err, apperr.ErrInvalidPaymentState):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrLockTimeout):
		return http.StatusServiceUnavailable
	default:
		// 其余业务规则拒绝（库存不足、券池耗尽、余额不足等）
		return http.StatusUnprocessableEntity
	}
}
