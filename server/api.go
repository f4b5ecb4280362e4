package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/florinutz/docsink"
	"github.com/florinutz/docsink/cdc"
	"github.com/florinutz/docsink/config"
	"github.com/florinutz/docsink/idstrategy"
	"github.com/florinutz/docsink/stage"
	"github.com/florinutz/docsink/writemodel"
	"github.com/go-chi/chi/v5"
)

// SinkHolder publishes the currently built sink to request handlers. The
// sink is swapped atomically on reload.
type SinkHolder struct {
	p atomic.Pointer[docsink.Sink]
}

// Load returns the current sink, or nil before the first successful build.
func (h *SinkHolder) Load() *docsink.Sink { return h.p.Load() }

// Store replaces the current sink.
func (h *SinkHolder) Store(s *docsink.Sink) { h.p.Store(s) }

// APIHandler returns a chi router with the configuration REST API.
//
//	POST /api/v1/validate             validate a property set
//	GET  /api/v1/components           list registered component names
//	GET  /api/v1/destinations         describe every built destination
//	GET  /api/v1/destinations/{name}  describe one destination
func APIHandler(sinks *SinkHolder) http.Handler {
	r := chi.NewRouter()

	r.Post("/api/v1/validate", validateProperties)
	r.Get("/api/v1/components", listComponents)
	r.Get("/api/v1/destinations", listDestinations(sinks))
	r.Get("/api/v1/destinations/{name}", getDestination(sinks))

	return r
}

// maxValidateBody caps the property set accepted by the validate endpoint.
const maxValidateBody = 1 << 20

func validateProperties(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxValidateBody)
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "request body too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	errs := docsink.ValidateAll(toProperties(body))
	if errs == nil {
		errs = []config.FieldError{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"valid":  len(errs) == 0,
		"errors": errs,
	})
}

// toProperties flattens decoded JSON values into raw property strings. Arrays
// become comma separated lists.
func toProperties(body map[string]any) config.Properties {
	props := make(config.Properties, len(body))
	for k, v := range body {
		switch val := v.(type) {
		case nil:
			props[k] = ""
		case string:
			props[k] = val
		case []any:
			parts := make([]string, len(val))
			for i, p := range val {
				parts[i] = fmt.Sprint(p)
			}
			props[k] = strings.Join(parts, ",")
		default:
			props[k] = fmt.Sprint(val)
		}
	}
	return props
}

func listComponents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{
		"stages":        stage.Names(),
		"id_strategies": idstrategy.Names(),
		"write_models":  writemodel.Names(),
		"cdc_handlers":  cdc.Names(),
	})
}

func listDestinations(sinks *SinkHolder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := sinks.Load()
		if s == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "sink not built"})
			return
		}
		infos, err := s.Describe()
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"destinations": infos,
			"count":        len(infos),
		})
	}
}

func getDestination(sinks *SinkHolder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := sinks.Load()
		if s == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "sink not built"})
			return
		}
		name := chi.URLParam(r, "name")
		infos, err := s.Describe()
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		for _, info := range infos {
			if info.Name == name {
				writeJSON(w, http.StatusOK, info)
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"error": fmt.Sprintf("destination %q not declared", name)})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
