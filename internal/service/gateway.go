package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nextchow/internal/logger"
	"github.com/nextchow/internal/metrics"
	"github.com/nextchow/internal/payment/paystack"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
)

// PaymentInitRequest 发起支付请求
type PaymentInitRequest struct {
	Email      string
	Amount     decimal.Decimal
	Currency   string
	OrderID    uint
	CustomerID uint
}

// PaymentInitResult 网关返回的交易信息
type PaymentInitResult struct {
	Reference        string
	AccessCode       string
	AuthorizationURL string
}

// PaymentStatusResult 网关交易状态
type PaymentStatusResult struct {
	Reference string
	Status    string
	Amount    decimal.Decimal
	PaidAt    *time.Time
	Raw       map[string]interface{}
}

// GatewayEvent 网关回调事件
type GatewayEvent struct {
	Event     string
	Reference string
	Status    string
	Amount    decimal.Decimal
	PaidAt    *time.Time
	Raw       map[string]interface{}
}

// PaymentGateway 支付网关
type PaymentGateway interface {
	Initialize(ctx context.Context, req PaymentInitRequest) (*PaymentInitResult, error)
	Verify(ctx context.Context, reference string) (*PaymentStatusResult, error)
	ParseWebhook(headers map[string]string, body []byte) (*GatewayEvent, error)
}

// PaystackGatewayOptions Paystack 网关参数
type PaystackGatewayOptions struct {
	Config      paystack.Config
	MaxFailures int
	OpenTimeout time.Duration
}

// PaystackGateway 带超时与熔断的 Paystack 网关
type PaystackGateway struct {
	cfg     paystack.Config
	breaker *gobreaker.CircuitBreaker[any]
	metrics *metrics.Metrics
}

// NewPaystackGateway 创建网关
func NewPaystackGateway(opts PaystackGatewayOptions, m *metrics.Metrics) *PaystackGateway {
	cfg := opts.Config
	cfg.Normalize()
	maxFailures := opts.MaxFailures
	if maxFailures <= 0 {
		maxFailures = 5
	}
	openTimeout := opts.OpenTimeout
	if openTimeout <= 0 {
		openTimeout = 30 * time.Second
	}
	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "paystack",
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(maxFailures)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warnw("payment_gateway_breaker_state_changed", "gateway", name, "from", from.String(), "to", to.String())
			m.SetBreakerState(int(to))
		},
		IsExcluded: func(err error) bool {
			return errors.Is(err, context.Canceled) || errors.Is(err, paystack.ErrConfigInvalid)
		},
	})
	return &PaystackGateway{cfg: cfg, breaker: breaker, metrics: m}
}

// Initialize 发起交易
func (g *PaystackGateway) Initialize(ctx context.Context, req PaymentInitRequest) (*PaymentInitResult, error) {
	raw, err := g.execute(ctx, "initialize", func(callCtx context.Context) (any, error) {
		return paystack.InitializeTransaction(callCtx, &g.cfg, paystack.InitializeInput{
			Email:      req.Email,
			Amount:     req.Amount,
			Currency:   req.Currency,
			OrderID:    req.OrderID,
			CustomerID: req.CustomerID,
		})
	})
	if err != nil {
		return nil, err
	}
	result := raw.(*paystack.InitializeResult)
	return &PaymentInitResult{
		Reference:        result.Reference,
		AccessCode:       result.AccessCode,
		AuthorizationURL: result.AuthorizationURL,
	}, nil
}

// Verify 查询交易状态
func (g *PaystackGateway) Verify(ctx context.Context, reference string) (*PaymentStatusResult, error) {
	raw, err := g.execute(ctx, "verify", func(callCtx context.Context) (any, error) {
		return paystack.VerifyTransaction(callCtx, &g.cfg, reference)
	})
	if err != nil {
		return nil, err
	}
	result := raw.(*paystack.VerifyResult)
	return &PaymentStatusResult{
		Reference: result.Reference,
		Status:    result.Status,
		Amount:    result.Amount,
		PaidAt:    result.PaidAt,
		Raw:       result.Raw,
	}, nil
}

// ParseWebhook 校验签名并解析回调
func (g *PaystackGateway) ParseWebhook(headers map[string]string, body []byte) (*GatewayEvent, error) {
	result, err := paystack.VerifyAndParseWebhook(&g.cfg, headers, body)
	if err != nil {
		if errors.Is(err, paystack.ErrSignatureInvalid) {
			return nil, fmt.Errorf("%w: %v", ErrWebhookSignatureInvalid, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrWebhookPayloadInvalid, err)
	}
	return &GatewayEvent{
		Event:     result.Event,
		Reference: result.Reference,
		Status:    result.Status,
		Amount:    result.Amount,
		PaidAt:    result.PaidAt,
		Raw:       result.Raw,
	}, nil
}

// execute 在熔断器与超时保护下调用网关
func (g *PaystackGateway) execute(ctx context.Context, operation string, call func(context.Context) (any, error)) (any, error) {
	started := time.Now()
	result, err := g.breaker.Execute(func() (any, error) {
		callCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
		return call(callCtx)
	})
	g.metrics.ObserveGateway(operation, err, time.Since(started))
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
		}
		return nil, err
	}
	return result, nil
}
