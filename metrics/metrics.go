// Package metrics exposes build counters over Prometheus.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Revisions counts diff revisions written across all partitions.
	Revisions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wikidated_revisions_total",
		Help: "Diff revisions written to entity stream archives.",
	})

	// ConversionFailures counts skipped revisions by failure reason.
	ConversionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wikidated_conversion_failures_total",
		Help: "Revisions skipped because conversion failed, by reason.",
	}, []string{"reason"})

	// PartitionsBuilt counts freshly built partition archives.
	PartitionsBuilt = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wikidated_partitions_built_total",
		Help: "Partition archives built during this run.",
	})

	// PartitionsSkipped counts partitions reused from a previous run.
	PartitionsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wikidated_partitions_skipped_total",
		Help: "Partition archives found committed and reused.",
	})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes /metrics on addr until the context is cancelled. Intended
// to run alongside a build; errors other than a clean shutdown are
// returned.
func Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	server := &http.Server{Addr: addr, Handler: mux}

	errs := make(chan error, 1)
	go func() {
		logger.Info("serving metrics", slog.String("addr", addr))
		errs <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
