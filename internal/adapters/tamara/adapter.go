package tamara

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/kevin07696/bnpl-service/internal/adapters/ports"
	"github.com/kevin07696/bnpl-service/internal/domain"
	domainports "github.com/kevin07696/bnpl-service/internal/domain/ports"
	pkgerrors "github.com/kevin07696/bnpl-service/pkg/errors"
	"github.com/kevin07696/bnpl-service/pkg/observability"
	"github.com/kevin07696/bnpl-service/pkg/timeutil"
)

const (
	capturePath = "/payments/capture"
	refundPath  = "/payments/simplified-refund/%s"

	// maxErrorBody bounds how much of an error response is kept
	maxErrorBody = 4096
)

// Config holds the provider connection settings
type Config struct {
	BaseURL  string
	APIToken string
}

// Adapter implements domain ports.ProviderGateway for the Tamara API
type Adapter struct {
	config     Config
	httpClient ports.HTTPClient
	breaker    *CircuitBreaker
	logger     domainports.Logger
	now        func() time.Time
}

var _ domainports.ProviderGateway = (*Adapter)(nil)

// NewAdapter creates a provider adapter with dependency injection
func NewAdapter(config Config, httpClient ports.HTTPClient, breaker *CircuitBreaker, logger domainports.Logger) *Adapter {
	if breaker == nil {
		breaker = NewCircuitBreaker(DefaultCircuitBreakerConfig())
	}
	breaker.OnStateChange(func(from, to CircuitState) {
		logger.Warn("provider circuit breaker state changed",
			domainports.String("from", from.String()),
			domainports.String("to", to.String()))
	})
	return &Adapter{
		config:     config,
		httpClient: httpClient,
		breaker:    breaker,
		logger:     logger,
		now:        timeutil.Now,
	}
}

// Capture implements ProviderGateway.Capture
func (a *Adapter) Capture(ctx context.Context, payload *domain.CapturePayload, order *domain.Order) (*domain.ProviderResult, error) {
	if payload.ProviderOrderID == "" {
		return nil, pkgerrors.NewValidationError("provider_order_id", "provider order id is required")
	}

	req := a.captureRequest(payload)
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal capture request: %w", err)
	}

	var resp CaptureResponse
	if err := a.makeRequest(ctx, "capture", http.MethodPost, capturePath, body, captureIdempotencyKey(payload.OrderID, body), &resp); err != nil {
		return nil, err
	}

	return &domain.ProviderResult{
		ProviderOrderID:   firstNonEmpty(resp.OrderID, payload.ProviderOrderID),
		ProviderCaptureID: resp.CaptureID,
		Status:            resp.Status,
		Amount:            payload.TotalAmount,
		Currency:          payload.Currency,
		Timestamp:         a.now().UTC(),
	}, nil
}

// Refund implements ProviderGateway.Refund
func (a *Adapter) Refund(ctx context.Context, payload *domain.RefundPayload, order *domain.Order) (*domain.ProviderResult, error) {
	if payload.ProviderOrderID == "" {
		return nil, pkgerrors.NewValidationError("provider_order_id", "provider order id is required")
	}

	body, err := json.Marshal(RefundRequest{
		TotalAmount: money(payload.TotalAmount, payload.Currency),
		Comment:     payload.Comment,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal refund request: %w", err)
	}

	var resp RefundResponse
	endpoint := fmt.Sprintf(refundPath, payload.ProviderOrderID)
	if err := a.makeRequest(ctx, "refund", http.MethodPost, endpoint, body, domain.RefundIdempotencyKey(payload.CreditMemoID), &resp); err != nil {
		return nil, err
	}

	return &domain.ProviderResult{
		ProviderOrderID:   firstNonEmpty(resp.OrderID, payload.ProviderOrderID),
		ProviderRefundID:  resp.RefundID,
		ProviderCaptureID: resp.CaptureID,
		Status:            resp.Status,
		Amount:            payload.TotalAmount,
		Currency:          payload.Currency,
		Timestamp:         a.now().UTC(),
	}, nil
}

func (a *Adapter) captureRequest(payload *domain.CapturePayload) CaptureRequest {
	currency := payload.Currency
	req := CaptureRequest{
		OrderID:        payload.ProviderOrderID,
		TotalAmount:    money(payload.TotalAmount, currency),
		DiscountAmount: money(payload.DiscountAmount, currency),
		ShippingAmount: money(payload.ShippingAmount, currency),
		TaxAmount:      money(payload.TaxAmount, currency),
		ShippingInfo:   a.shippingInfo(payload.ShippingInfo),
		Items:          make([]Item, 0, len(payload.Items)),
	}
	for _, item := range payload.Items {
		req.Items = append(req.Items, Item{
			ReferenceID:    strconv.FormatInt(item.OrderItemID, 10),
			Type:           item.Type,
			Name:           item.Name,
			SKU:            item.SKU,
			Quantity:       item.Quantity,
			UnitPrice:      money(item.UnitPrice, currency),
			TaxAmount:      money(item.TaxAmount, currency),
			DiscountAmount: money(item.DiscountAmount, currency),
			TotalAmount:    money(item.TotalAmount, currency),
			ImageURL:       item.ImageURL,
		})
	}
	return req
}

// shippingInfo reports the first track of the shipment
func (a *Adapter) shippingInfo(tracks []domain.ShipmentTrack) ShippingInfo {
	info := ShippingInfo{ShippedAt: timeutil.RFC3339(a.now())}
	if len(tracks) == 0 {
		return info
	}
	track := tracks[0]
	if !track.CreatedAt.IsZero() {
		info.ShippedAt = timeutil.RFC3339(track.CreatedAt)
	}
	info.ShippingCompany = firstNonEmpty(track.Title, track.CarrierCode)
	info.TrackingNumber = track.TrackNumber
	return info
}

// makeRequest sends one request through the circuit breaker.
// Client errors are returned to the caller without counting as provider failures.
func (a *Adapter) makeRequest(ctx context.Context, operation, method, endpoint string, body []byte, idempotencyKey string, response interface{}) error {
	var clientErr error
	err := a.breaker.Call(func() error {
		reqErr := a.do(ctx, operation, method, endpoint, body, idempotencyKey, response)
		if pe, ok := pkgerrors.AsProviderError(reqErr); ok && pe.Category == pkgerrors.CategoryRejected {
			clientErr = reqErr
			return nil
		}
		return reqErr
	})
	if errors.Is(err, ErrCircuitOpen) || errors.Is(err, ErrTooManyRequests) {
		observability.RecordProviderRequest(operation, "circuit_open", 0)
		return pkgerrors.NewProviderError("CIRCUIT_OPEN", "Payment provider temporarily unavailable", pkgerrors.CategoryUnavailable).
			WithDetail("cause", err.Error())
	}
	if err != nil {
		return err
	}
	return clientErr
}

func (a *Adapter) do(ctx context.Context, operation, method, endpoint string, body []byte, idempotencyKey string, response interface{}) error {
	httpReq, err := http.NewRequestWithContext(ctx, method, a.config.BaseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.config.APIToken)
	httpReq.Header.Set("Idempotency-Key", idempotencyKey)

	a.logger.Info("making request to payment provider",
		domainports.String("operation", operation),
		domainports.String("method", method),
		domainports.String("endpoint", endpoint),
	)

	start := time.Now()
	httpResp, err := a.httpClient.Do(httpReq)
	if err != nil {
		observability.RecordProviderRequest(operation, "network_error", time.Since(start).Seconds())
		a.logger.Error("payment provider unreachable",
			domainports.String("operation", operation),
			domainports.Err(err))
		return pkgerrors.NewProviderError("NETWORK_ERROR", "Failed to connect to payment provider", pkgerrors.CategoryNetwork)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	observability.RecordProviderRequest(operation, strconv.Itoa(httpResp.StatusCode), time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if httpResp.StatusCode >= 400 {
		pe := statusError(httpResp.StatusCode, respBody)
		a.logger.Warn("payment provider rejected request",
			domainports.String("operation", operation),
			domainports.Int("status_code", httpResp.StatusCode),
			domainports.String("provider_message", pe.ProviderMessage))
		return pe
	}

	if err := json.Unmarshal(respBody, response); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}

func statusError(status int, body []byte) *pkgerrors.ProviderError {
	pe := pkgerrors.FromStatus(status)

	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	var errBody ErrorResponse
	if err := json.Unmarshal(body, &errBody); err == nil {
		pe.ProviderMessage = errBody.Message
		if len(errBody.Errors) > 0 {
			pe.WithDetail("error_code", errBody.Errors[0].ErrorCode)
		}
	}
	return pe
}

// captureIdempotencyKey is stable for a resent identical capture of the same order
func captureIdempotencyKey(orderID int64, body []byte) string {
	sum := sha256.Sum256(body)
	return fmt.Sprintf("capture-%d-%s", orderID, hex.EncodeToString(sum[:8]))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
