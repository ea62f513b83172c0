// Copyright 2026 The Kiln Authors
// SPDX-License-Identifier: Apache-2.0

package expose

import (
	"log/slog"
	"net/http"

	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewHandler assembles the scrape surface: /metrics backed by a
// dedicated registry holding the exporter plus the Go runtime and
// process collectors, and /healthz as a bare liveness probe. The
// metrics handler negotiates gzip for scrapers that accept it.
func NewHandler(exporter *Exporter, logger *slog.Logger) http.Handler {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		exporter,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		ErrorLog: slog.NewLogLogger(logger.Handler(), slog.LevelError),
		// gzhttp owns compression; promhttp must not wrap the body a
		// second time.
		DisableCompression: true,
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", gzhttp.GzipHandler(metricsHandler))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})
	return mux
}
