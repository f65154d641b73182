package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	FetchRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fetch_requests_total",
		Help: "Количество операций выгрузки по платформам",
	}, []string{"platform", "kind", "status"})

	FetchItemsFetched = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fetch_items_fetched_total",
		Help: "Количество сохранённых публикаций",
	}, []string{"platform"})

	FetchItemsSkipped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fetch_items_skipped_total",
		Help: "Публикации, отброшенные нормализатором",
	}, []string{"platform"})

	FetchDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fetch_duration_seconds",
		Help:    "Длительность одной операции выгрузки",
		Buckets: prometheus.DefBuckets,
	}, []string{"platform"})

	ScraperProcessErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scraper_process_errors_total",
		Help: "Сбои внешнего процесса скрейпера",
	})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 15, 20, 30, 45, 60, 90, 120, 150, 180},
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество сетевых запросов",
	}, []string{"component", "operation", "target", "status"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		FetchRequestsTotal,
		FetchItemsFetched,
		FetchItemsSkipped,
		FetchDurationSeconds,
		ScraperProcessErrors,
		NetworkRequestDuration,
		NetworkRequestTotal,
	)
}

// StartServer запускает HTTP сервер с эндпоинтом /metrics.
func StartServer(ctx context.Context, logger zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownTimeout); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: graceful shutdown failed")
		}
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics: server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: server stopped")
		}
	}()
}

// ObserveNetworkRequest записывает длительность и статус сетевого запроса.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}

// ObserveFetch записывает итог операции выгрузки.
func ObserveFetch(platform, kind string, start time.Time, fetched, skipped int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	FetchRequestsTotal.WithLabelValues(platform, kind, status).Inc()
	FetchDurationSeconds.WithLabelValues(platform).Observe(time.Since(start).Seconds())
	if fetched > 0 {
		FetchItemsFetched.WithLabelValues(platform).Add(float64(fetched))
	}
	if skipped > 0 {
		FetchItemsSkipped.WithLabelValues(platform).Add(float64(skipped))
	}
}
