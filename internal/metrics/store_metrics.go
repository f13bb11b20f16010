package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vladislavdragonenkov/storefront/internal/state"
	"github.com/vladislavdragonenkov/storefront/internal/store"
)

const (
	resultOK    = "ok"
	resultError = "error"

	unknownDomain = "unknown"
)

// StoreMetrics содержит метрики store, API клиента и оформления заказа.
type StoreMetrics struct {
	// Dispatch
	actionsDispatched *prometheus.CounterVec
	actionFailures    *prometheus.CounterVec
	dispatchDuration  prometheus.Histogram

	// Корзина после последнего dispatch
	cartTotalPrice prometheus.Gauge
	cartLines      prometheus.Gauge

	// Backend API
	apiRequests        *prometheus.CounterVec
	apiRequestDuration *prometheus.HistogramVec

	// Оформление заказа
	checkouts            *prometheus.CounterVec
	checkoutStepDuration *prometheus.HistogramVec
}

// NewStoreMetrics создаёт метрики в DefaultRegisterer.
func NewStoreMetrics() *StoreMetrics {
	return NewStoreMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewStoreMetricsWithRegisterer создаёт метрики в заданном registerer. Повторная регистрация
// возвращает уже существующие коллекторы.
func NewStoreMetricsWithRegisterer(registerer prometheus.Registerer) *StoreMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &StoreMetrics{
		actionsDispatched: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_actions_dispatched_total",
			Help: "Total number of dispatched actions grouped by domain and type",
		}, []string{"domain", "type"})),
		actionFailures: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_action_failures_total",
			Help: "Total number of *_FAIL actions grouped by domain",
		}, []string{"domain"})),
		dispatchDuration: register(registerer, prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "storefront_dispatch_duration_seconds",
			Help:    "Duration of a single reduce step in seconds",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		})),
		cartTotalPrice: register(registerer, prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "storefront_cart_total_price",
			Help: "Cart total price after the last dispatch",
		})),
		cartLines: register(registerer, prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "storefront_cart_lines",
			Help: "Number of cart lines after the last dispatch",
		})),
		apiRequests: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_api_requests_total",
			Help: "Total number of backend API requests grouped by operation and result",
		}, []string{"operation", "result"})),
		apiRequestDuration: register(registerer, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "storefront_api_request_duration_seconds",
			Help:    "Duration of backend API requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"})),
		checkouts: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_checkouts_total",
			Help: "Total number of checkout attempts grouped by result",
		}, []string{"result"})),
		checkoutStepDuration: register(registerer, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "storefront_checkout_step_duration_seconds",
			Help:    "Duration of individual checkout steps in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"step"})),
	}
}

func register[C prometheus.Collector](registerer prometheus.Registerer, collector C) C {
	if err := registerer.Register(collector); err != nil {
		var alreadyRegistered prometheus.AlreadyRegisteredError
		if errors.As(err, &alreadyRegistered) {
			existing, ok := alreadyRegistered.ExistingCollector.(C)
			if !ok {
				panic(fmt.Sprintf("collector already registered with unexpected type %T", alreadyRegistered.ExistingCollector))
			}
			return existing
		}
		panic(fmt.Sprintf("register collector: %v", err))
	}
	return collector
}

// ObserveDispatch реализует store.Observer.
func (m *StoreMetrics) ObserveDispatch(event store.Event) {
	domain := string(event.Action.Domain())
	if domain == "" {
		domain = unknownDomain
	}

	m.actionsDispatched.WithLabelValues(domain, string(event.Action.Type())).Inc()
	if _, failed := event.Action.(state.FailAction); failed {
		m.actionFailures.WithLabelValues(domain).Inc()
	}
	m.dispatchDuration.Observe(event.Duration.Seconds())

	m.cartTotalPrice.Set(event.Next.Cart.TotalPrice.InexactFloat64())
	m.cartLines.Set(float64(len(event.Next.Cart.Products)))
}

// ObserveAPIRequest записывает результат и длительность одного запроса к backend.
func (m *StoreMetrics) ObserveAPIRequest(operation string, duration time.Duration, err error) {
	m.apiRequests.WithLabelValues(operation, result(err)).Inc()
	m.apiRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCheckout увеличивает счётчик попыток оформления заказа.
func (m *StoreMetrics) RecordCheckout(err error) {
	m.checkouts.WithLabelValues(result(err)).Inc()
}

// RecordCheckoutStep записывает время выполнения шага оформления заказа.
func (m *StoreMetrics) RecordCheckoutStep(step string, duration time.Duration) {
	m.checkoutStepDuration.WithLabelValues(step).Observe(duration.Seconds())
}

func result(err error) string {
	if err != nil {
		return resultError
	}
	return resultOK
}

var _ store.Observer = (*StoreMetrics)(nil)
