package connector

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/kevin07696/bnpl-service/internal/domain"
	"github.com/kevin07696/bnpl-service/internal/domain/ports"
	"github.com/kevin07696/bnpl-service/internal/services/capture"
	"github.com/kevin07696/bnpl-service/internal/services/checkout"
	"github.com/kevin07696/bnpl-service/internal/services/refund"
	pkgerrors "github.com/kevin07696/bnpl-service/pkg/errors"
	"github.com/kevin07696/bnpl-service/pkg/observability"
	"go.uber.org/zap"
)

// Route patterns, also used as metric labels
const (
	RouteCheckoutSuccess = "/v1/checkout/success"
	RouteCaptureOrder    = "/v1/orders/{order_id}/capture"
	RouteRefundMemo      = "/v1/credit-memos/{credit_memo_id}/refund"
)

// cartCookie carries the in-progress cart id of the storefront session
const cartCookie = "cart_id"

// OrderCapturer captures an order after shipment
type OrderCapturer interface {
	CaptureOrder(ctx context.Context, orderID int64) (*capture.Outcome, error)
}

// CreditMemoRefunder refunds an order by credit memo
type CreditMemoRefunder interface {
	HandleCreditMemoCreated(ctx context.Context, creditMemoID int64) (*refund.Outcome, error)
}

// CheckoutReturner finalizes an order when the customer comes back from the provider
type CheckoutReturner interface {
	HandleReturn(ctx context.Context, orderID int64, session ports.SessionAccessor) *checkout.SuccessPage
}

// Handler serves the connector HTTP endpoints
type Handler struct {
	captures  OrderCapturer
	refunds   CreditMemoRefunder
	checkouts CheckoutReturner
	logger    *zap.Logger
}

// NewHandler creates a new connector handler
func NewHandler(captures OrderCapturer, refunds CreditMemoRefunder, checkouts CheckoutReturner, logger *zap.Logger) *Handler {
	return &Handler{
		captures:  captures,
		refunds:   refunds,
		checkouts: checkouts,
		logger:    logger,
	}
}

// CaptureResponse is returned by the manual capture endpoint
type CaptureResponse struct {
	OrderID           int64  `json:"order_id"`
	Stage             string `json:"stage"`
	ProviderCaptureID string `json:"provider_capture_id,omitempty"`
	CapturedAmount    string `json:"captured_amount,omitempty"`
	Currency          string `json:"currency,omitempty"`
	InvoiceNumber     string `json:"invoice_number,omitempty"`
	InvoiceError      string `json:"invoice_error,omitempty"`
}

// RefundResponse is returned by the manual refund endpoint
type RefundResponse struct {
	CreditMemoID     int64  `json:"credit_memo_id"`
	OrderID          int64  `json:"order_id"`
	Refunded         bool   `json:"refunded"`
	Reason           string `json:"reason,omitempty"`
	ProviderRefundID string `json:"provider_refund_id,omitempty"`
	RefundedAmount   string `json:"refunded_amount,omitempty"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Register mounts the endpoints on mux
func (h *Handler) Register(mux *runtime.ServeMux) error {
	routes := []struct {
		method  string
		pattern string
		handler runtime.HandlerFunc
	}{
		{http.MethodGet, RouteCheckoutSuccess, h.CheckoutSuccess},
		{http.MethodPost, RouteCaptureOrder, h.CaptureOrder},
		{http.MethodPost, RouteRefundMemo, h.RefundCreditMemo},
	}
	for _, route := range routes {
		if err := mux.HandlePath(route.method, route.pattern, instrument(route.pattern, route.handler)); err != nil {
			return err
		}
	}
	return nil
}

func instrument(route string, next runtime.HandlerFunc) runtime.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
		observability.InstrumentHandler(route, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next(w, r, pathParams)
		})).ServeHTTP(w, r)
	}
}

// CheckoutSuccess handles GET /v1/checkout/success?order_id=
// The customer always gets the success page. An unusable order_id falls back to 0,
// which the finalizer reports as a failed finalization; the cart is still cleared.
func (h *Handler) CheckoutSuccess(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	raw := r.URL.Query().Get("order_id")
	orderID, err := parseID(raw)
	if err != nil {
		h.logger.Warn("Checkout return without a usable order id",
			zap.String("order_id", raw),
			zap.Error(err))
		orderID = 0
	}

	page := h.checkouts.HandleReturn(r.Context(), orderID, sessionFromRequest(r))
	h.respondJSON(w, http.StatusOK, page)
}

// CaptureOrder handles POST /v1/orders/{order_id}/capture
func (h *Handler) CaptureOrder(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
	orderID, err := parseID(pathParams["order_id"])
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "order_id must be a positive integer")
		return
	}

	outcome, err := h.captures.CaptureOrder(r.Context(), orderID)
	if err != nil {
		h.handleServiceError(w, err, zap.Int64("order_id", orderID))
		return
	}

	resp := CaptureResponse{OrderID: outcome.OrderID, Stage: string(outcome.Stage)}
	if outcome.Record != nil {
		resp.ProviderCaptureID = outcome.Record.ProviderCaptureID
		resp.CapturedAmount = outcome.Record.TotalAmount.StringFixed(2)
		resp.Currency = outcome.Record.Currency
	}
	if outcome.Invoice != nil {
		resp.InvoiceNumber = outcome.Invoice.IncrementID
	}
	if outcome.InvoiceErr != nil {
		resp.InvoiceError = outcome.InvoiceErr.Error()
	}

	status := http.StatusOK
	if outcome.Stage == capture.StageRejected {
		status = http.StatusConflict
	}
	h.respondJSON(w, status, resp)
}

// RefundCreditMemo handles POST /v1/credit-memos/{credit_memo_id}/refund
func (h *Handler) RefundCreditMemo(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
	memoID, err := parseID(pathParams["credit_memo_id"])
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "credit_memo_id must be a positive integer")
		return
	}

	outcome, err := h.refunds.HandleCreditMemoCreated(r.Context(), memoID)
	if err != nil {
		h.handleServiceError(w, err, zap.Int64("credit_memo_id", memoID))
		return
	}

	resp := RefundResponse{
		CreditMemoID: outcome.CreditMemoID,
		OrderID:      outcome.OrderID,
		Refunded:     outcome.Refunded,
		Reason:       outcome.Reason,
	}
	if outcome.Record != nil {
		resp.ProviderRefundID = outcome.Record.ProviderRefundID
		resp.RefundedAmount = outcome.Record.TotalAmount.StringFixed(2)
	}
	h.respondJSON(w, http.StatusOK, resp)
}

// handleServiceError maps domain and provider errors to HTTP responses
func (h *Handler) handleServiceError(w http.ResponseWriter, err error, fields ...zap.Field) {
	status, code := statusFor(err)
	fields = append(fields, zap.String("code", code), zap.Error(err))
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", fields...)
	} else {
		h.logger.Warn("Request rejected", fields...)
	}
	h.respondError(w, status, code, err.Error())
}

func statusFor(err error) (int, string) {
	if pe, ok := pkgerrors.AsProviderError(err); ok && pe.Category == pkgerrors.CategoryUnavailable {
		return http.StatusServiceUnavailable, pe.Code
	}

	var validationErr *pkgerrors.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest, "INVALID_REQUEST"
	}

	code := domain.GetErrorCode(err)
	switch code {
	case domain.ErrorCodeOrderNotFound, domain.ErrorCodeCreditMemoNotFound:
		return http.StatusNotFound, string(code)
	case domain.ErrorCodeMissingProviderReference, domain.ErrorCodeCaptureIneligible, domain.ErrorCodeQuantityUnresolved:
		return http.StatusUnprocessableEntity, string(code)
	case domain.ErrorCodeProviderCallFailed:
		return http.StatusBadGateway, string(code)
	case "":
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	default:
		return http.StatusInternalServerError, string(code)
	}
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, code, message string) {
	h.respondJSON(w, status, ErrorResponse{Code: code, Message: message})
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, strconv.ErrRange
	}
	return id, nil
}
