// internal/utils/metrics/collector.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "gmgn_sniper"

// Результаты обработки сообщений ленты
const (
	FeedDecodeError     = "decode_error"
	FeedNoAddress       = "no_address"
	FeedInfoUnavailable = "info_unavailable"
	FeedFiltered        = "filtered"
	FeedAdmitted        = "admitted"
)

// Результаты свопа
const (
	SwapNoRoute   = "no_route"
	SwapMalformed = "malformed_payload"
	SwapSubmitted = "submitted"
	SwapRejected  = "submit_empty"
)

// Collector держит метрики процесса на собственном реестре.
// Все методы допускают nil-получатель, чтобы компоненты работали без метрик.
type Collector struct {
	registry *prometheus.Registry

	feedMessages    *prometheus.CounterVec
	feedReconnects  prometheus.Counter
	bufferSize      prometheus.Gauge
	quoteLatency    *prometheus.HistogramVec
	swaps           *prometheus.CounterVec
	spentSol        prometheus.Gauge
	profitSol       prometheus.Gauge
	filteredByCause *prometheus.CounterVec
}

// NewCollector создает коллектор и регистрирует метрики.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		feedMessages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "feed",
				Name:      "messages_total",
				Help:      "Feed messages by processing outcome",
			},
			[]string{"outcome"},
		),
		feedReconnects: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "feed",
				Name:      "reconnects_total",
				Help:      "Number of feed reconnect cycles",
			},
		),
		bufferSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "feed",
				Name:      "candidates",
				Help:      "Candidates currently held in the buffer",
			},
		),
		filteredByCause: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "filter",
				Name:      "rejections_total",
				Help:      "Tokens rejected by the filter engine, by cause",
			},
			[]string{"reason"},
		),
		quoteLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "gmgn",
				Name:      "request_duration_seconds",
				Help:      "Quote service request latency",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
			},
			[]string{"endpoint", "result"},
		),
		swaps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "swap",
				Name:      "executions_total",
				Help:      "Swap executions by outcome",
			},
			[]string{"outcome"},
		),
		spentSol: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "stats",
				Name:      "spent_sol",
				Help:      "SOL committed to submitted swaps",
			},
		),
		profitSol: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "stats",
				Name:      "profit_sol",
				Help:      "Reported profit across submitted swaps",
			},
		),
	}

	c.registry.MustRegister(
		c.feedMessages,
		c.feedReconnects,
		c.bufferSize,
		c.filteredByCause,
		c.quoteLatency,
		c.swaps,
		c.spentSol,
		c.profitSol,
	)
	return c
}

// Registry возвращает реестр для promhttp.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// FeedMessage учитывает исход обработки одного сообщения ленты.
func (c *Collector) FeedMessage(outcome string) {
	if c == nil {
		return
	}
	c.feedMessages.WithLabelValues(outcome).Inc()
}

// FeedReconnect учитывает переподключение к ленте.
func (c *Collector) FeedReconnect() {
	if c == nil {
		return
	}
	c.feedReconnects.Inc()
}

// BufferSize выставляет текущий размер буфера кандидатов.
func (c *Collector) BufferSize(n int) {
	if c == nil {
		return
	}
	c.bufferSize.Set(float64(n))
}

// Filtered учитывает отказ фильтра.
func (c *Collector) Filtered(reason string) {
	if c == nil {
		return
	}
	c.filteredByCause.WithLabelValues(reason).Inc()
}

// ObserveQuote записывает задержку запроса к сервису котировок.
func (c *Collector) ObserveQuote(endpoint string, ok bool, d time.Duration) {
	if c == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "empty"
	}
	c.quoteLatency.WithLabelValues(endpoint, result).Observe(d.Seconds())
}

// Swap учитывает исход свопа.
func (c *Collector) Swap(outcome string) {
	if c == nil {
		return
	}
	c.swaps.WithLabelValues(outcome).Inc()
}

// Totals выставляет текущие суммарные траты и прибыль.
func (c *Collector) Totals(spent, profit float64) {
	if c == nil {
		return
	}
	c.spentSol.Set(spent)
	c.profitSol.Set(profit)
}
