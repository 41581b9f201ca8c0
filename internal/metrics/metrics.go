// Package metrics exposes chat engine activity as Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mochachat"

// Metrics implements chatstore.Recorder and reply.Recorder.
type Metrics struct {
	registry *prometheus.Registry

	mutations       *prometheus.CounterVec
	persistFailures *prometheus.CounterVec
	repliesDue      prometheus.Counter
	replyDelay      prometheus.Histogram
	repliesDone     *prometheus.CounterVec
}

// New registers the engine metrics, plus the Go runtime collectors, on a
// private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_mutations_total",
			Help:      "Committed chat store mutations by reason.",
		}, []string{"reason"}),
		persistFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_failures_total",
			Help:      "Failed slot writes by slot.",
		}, []string{"slot"}),
		repliesDue: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replies_scheduled_total",
			Help:      "Simulated replies scheduled.",
		}),
		replyDelay: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reply_delay_seconds",
			Help:      "Delay drawn for scheduled replies.",
			Buckets:   prometheus.LinearBuckets(0.5, 0.5, 10),
		}),
		repliesDone: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replies_delivered_total",
			Help:      "Simulated replies that fired, by whether the target chat accepted them.",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		m.mutations,
		m.persistFailures,
		m.repliesDue,
		m.replyDelay,
		m.repliesDone,
		collectors.NewGoCollector(),
	)
	return m
}

// Registry returns the registry the metrics live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// MutationCommitted counts one store commit.
func (m *Metrics) MutationCommitted(reason string) {
	m.mutations.WithLabelValues(reason).Inc()
}

// PersistFailed counts one failed slot write.
func (m *Metrics) PersistFailed(slot string) {
	m.persistFailures.WithLabelValues(slot).Inc()
}

// ReplyScheduled counts a scheduled reply and observes its delay.
func (m *Metrics) ReplyScheduled(delay time.Duration) {
	m.repliesDue.Inc()
	m.replyDelay.Observe(delay.Seconds())
}

// ReplyDelivered counts a fired reply.
func (m *Metrics) ReplyDelivered(applied bool) {
	outcome := "applied"
	if !applied {
		outcome = "dropped"
	}
	m.repliesDone.WithLabelValues(outcome).Inc()
}

// WatchUnread exposes f as the unread-messages gauge.
func (m *Metrics) WatchUnread(f func() int) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "unread_messages",
		Help:      "Unread inbound messages across all chats.",
	}, func() float64 {
		return float64(f())
	}))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is canceled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("Serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
