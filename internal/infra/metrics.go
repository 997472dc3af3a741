package infra

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Latency: длительность полного 4-запросного батча
	RefreshDuration *prometheus.HistogramVec

	// Traffic: батчи по исходу (ok / failed / stale)
	RefreshTotal *prometheus.CounterVec

	// Errors: классификация отказов API-клиента (request / network)
	RequestErrors *prometheus.CounterVec

	// Отброшенные устаревшие батчи (гонка пересекающихся refresh)
	StaleDropped prometheus.Counter

	// Загрузки карточки пациента по исходу
	DetailLoads *prometheus.CounterVec

	// Сообщения push-канала, прошедшие монотонный guard
	LiveMessages prometheus.Counter

	// Saturation: состояние Circuit Breaker (0 - ок, 1 - выбило)
	BreakerState prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern - Если рег не передан, используем локальный, который никуда не подключен
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		RefreshDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "icu_console_refresh_duration_seconds",
			Help:    "Histogram of full refresh batch latencies.",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"status"}),

		RefreshTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "icu_console_refresh_total",
			Help: "Total number of refresh batches by outcome.",
		}, []string{"status"}), // статусы: ok, failed, stale

		RequestErrors: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "icu_console_request_errors_total",
			Help: "Total number of API client failures by type.",
		}, []string{"type"}), // типы: request, network

		StaleDropped: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "icu_console_refresh_stale_dropped_total",
			Help: "Completed batches discarded because a newer batch already committed.",
		}),

		DetailLoads: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "icu_console_detail_loads_total",
			Help: "Patient detail fetches by outcome.",
		}, []string{"status"}), // статусы: ok, failed

		LiveMessages: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "icu_console_live_messages_total",
			Help: "Push channel messages applied to the freshness label.",
		}),

		BreakerState: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "icu_console_breaker_state",
			Help: "Current state of the backend circuit breaker (0=closed, 1=open).",
		}),
	}
}
