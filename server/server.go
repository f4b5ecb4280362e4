// Package server exposes health, readiness, metrics and the configuration
// REST API over HTTP.
package server

import (
	"net/http"

	"github.com/florinutz/docsink/health"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// New returns the root handler serving /healthz, /readyz, /metrics and the
// API routes.
func New(checker *health.Checker, sinks *SinkHolder) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", checker.ServeHTTP)
	r.Method(http.MethodGet, "/readyz", checker.ReadyHandler())
	r.Mount("/", APIHandler(sinks))
	return r
}
