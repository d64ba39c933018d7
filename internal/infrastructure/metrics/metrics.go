// Package metrics exposes executor telemetry in the Prometheus format.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/doeshing/wintool/internal/domain"
	"github.com/doeshing/wintool/internal/ports"
)

// Recorder implements ports.ExecutionMetrics on its own registry, so several
// executors in one process (tests, mostly) never collide.
type Recorder struct {
	registry *prometheus.Registry
	attempts *prometheus.CounterVec
	duration *prometheus.HistogramVec
	cache    *prometheus.CounterVec
}

// NewRecorder registers the wintool collectors plus the Go runtime ones.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		attempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wintool_command_attempts_total",
			Help: "Strategy attempts by dialect, strategy and outcome",
		}, []string{"dialect", "strategy", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wintool_command_duration_seconds",
			Help:    "Wall time of a single strategy attempt",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"dialect", "strategy"}),
		cache: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wintool_cache_lookups_total",
			Help: "Result cache lookups by result",
		}, []string{"result"}),
	}
}

// ObserveAttempt implements ports.ExecutionMetrics.
func (r *Recorder) ObserveAttempt(dialect domain.Dialect, strategy, outcome string, elapsed time.Duration) {
	r.attempts.WithLabelValues(string(dialect), strategy, outcome).Inc()
	r.duration.WithLabelValues(string(dialect), strategy).Observe(elapsed.Seconds())
}

// ObserveCache implements ports.ExecutionMetrics.
func (r *Recorder) ObserveCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cache.WithLabelValues(result).Inc()
}

// Handler serves the registry in the exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Serve exposes /metrics on addr until ctx is done.
func (r *Recorder) Serve(ctx context.Context, addr string) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil || port == "" {
		return fmt.Errorf("must specify port for metrics address: %q", addr)
	}
	if host == "" {
		addr = net.JoinHostPort("localhost", port)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errs := make(chan error, 1)
	go func() { errs <- srv.ListenAndServe() }()
	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errs; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

var _ ports.ExecutionMetrics = (*Recorder)(nil)
