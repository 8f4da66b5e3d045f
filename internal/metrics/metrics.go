package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "nextchow"

// Metrics 服务指标集合
// 所有方法对 nil 接收者安全，未启用指标时可直接传 nil。
type Metrics struct {
	registry *prometheus.Registry

	Requests         *prometheus.CounterVec
	LatencyMS        *prometheus.HistogramVec
	Checkouts        *prometheus.CounterVec
	GatewayLatencyMS *prometheus.HistogramVec
	BreakerState     prometheus.Gauge
	Reconciled       *prometheus.CounterVec
}

// New 创建并注册指标
func New() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "route", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"route"})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "checkout",
		Name:      "attempts_total",
		Help:      "Checkout attempts by result.",
	}, []string{"result"})
	gatewayLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "gateway",
		Name:      "request_duration_ms",
		Help:      "Payment gateway latency in milliseconds.",
		Buckets:   []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000},
	}, []string{"operation", "result"})
	breakerState := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "gateway",
		Name:      "breaker_state",
		Help:      "Payment gateway circuit breaker state (0 closed, 1 half-open, 2 open).",
	})
	reconciled := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "orders",
		Name:      "reconciled_total",
		Help:      "Stale pending orders handled by reconciliation.",
	}, []string{"source"})

	registry.MustRegister(
		requests, latency, checkouts, gatewayLatency, breakerState, reconciled,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return &Metrics{
		registry:         registry,
		Requests:         requests,
		LatencyMS:        latency,
		Checkouts:        checkouts,
		GatewayLatencyMS: gatewayLatency,
		BreakerState:     breakerState,
		Reconciled:       reconciled,
	}
}

// Handler 指标导出接口
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest 记录一次 HTTP 请求
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.Requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.LatencyMS.WithLabelValues(route).Observe(float64(elapsed.Milliseconds()))
}

// CheckoutResult 记录结算结果
func (m *Metrics) CheckoutResult(result string) {
	if m == nil {
		return
	}
	m.Checkouts.WithLabelValues(result).Inc()
}

// ObserveGateway 记录网关调用耗时
func (m *Metrics) ObserveGateway(operation string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.GatewayLatencyMS.WithLabelValues(operation, result).Observe(float64(elapsed.Milliseconds()))
}

// SetBreakerState 记录熔断器状态
func (m *Metrics) SetBreakerState(state int) {
	if m == nil {
		return
	}
	m.BreakerState.Set(float64(state))
}

// OrderReconciled 记录对账取消的订单
func (m *Metrics) OrderReconciled(source string) {
	if m == nil {
		return
	}
	m.Reconciled.WithLabelValues(source).Inc()
}
