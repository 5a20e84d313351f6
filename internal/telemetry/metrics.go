package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/catalyst-cloud/objectmigrate/cmn"
)

// Metrics is the run's Prometheus registry plus the handful of
// counters/gauges worth exposing while a migration is in flight: an
// operator watching Grafana during a multi-hour run cares about
// objects/bytes transferred so far and the current failure rate far
// more than a post-hoc stdout summary.
type Metrics struct {
	registry *prometheus.Registry

	ObjectsTransferred prometheus.Counter
	ObjectsSkipped     prometheus.Counter
	ObjectsFailed      prometheus.Counter
	BytesTransferred   prometheus.Counter
	ActiveWorkers      prometheus.Gauge
}

// NewMetrics constructs a fresh registry and metric set.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		ObjectsTransferred: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "objectmigrate",
			Name:      "objects_transferred_total",
			Help:      "Objects successfully copied from source to target.",
		}),
		ObjectsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "objectmigrate",
			Name:      "objects_skipped_total",
			Help:      "Objects skipped by the Skip Decider as already migrated.",
		}),
		ObjectsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "objectmigrate",
			Name:      "objects_failed_total",
			Help:      "Objects that failed migration and were logged, not aborted on.",
		}),
		BytesTransferred: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "objectmigrate",
			Name:      "bytes_transferred_total",
			Help:      "Bytes successfully uploaded to the target.",
		}),
		ActiveWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "objectmigrate",
			Name:      "active_workers",
			Help:      "Number of tenant-bucket workers currently running.",
		}),
	}

	reg.MustRegister(m.ObjectsTransferred, m.ObjectsSkipped, m.ObjectsFailed, m.BytesTransferred, m.ActiveWorkers)
	return m
}

// Serve starts a /metrics HTTP endpoint on addr and blocks until ctx is
// canceled, then shuts the server down gracefully. Intended to be run
// in its own goroutine for the lifetime of a migrate invocation.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return cmn.Wrap(srv.Shutdown(shutdownCtx), "shutdown metrics server")
	case err := <-errCh:
		return cmn.Wrap(err, "metrics server")
	}
}
