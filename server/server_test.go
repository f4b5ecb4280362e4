package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/florinutz/docsink"
	"github.com/florinutz/docsink/config"
	"github.com/florinutz/docsink/health"
	"github.com/florinutz/docsink/stage"
)

func newTestServer(t *testing.T, props config.Properties) (http.Handler, *health.Checker, *SinkHolder) {
	t.Helper()
	checker := health.NewChecker()
	checker.Register("sink")
	holder := &SinkHolder{}
	if props != nil {
		s, err := docsink.New(config.New(props))
		if err != nil {
			t.Fatalf("build sink: %v", err)
		}
		holder.Store(s)
		checker.SetStatus("sink", health.StatusUp, "")
	}
	return New(checker, holder), checker, holder
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndReadiness(t *testing.T) {
	h, checker, _ := newTestServer(t, nil)

	if rec := do(t, h, http.MethodGet, "/healthz", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("healthz before build = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/readyz", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz before build = %d", rec.Code)
	}

	checker.SetStatus("sink", health.StatusDegraded, "reload failed")
	if rec := do(t, h, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Errorf("healthz degraded = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/readyz", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz degraded = %d", rec.Code)
	}

	checker.SetStatus("sink", health.StatusUp, "")
	if rec := do(t, h, http.MethodGet, "/readyz", ""); rec.Code != http.StatusOK {
		t.Errorf("readyz up = %d", rec.Code)
	}
}

func TestMetrics(t *testing.T) {
	h, _, _ := newTestServer(t, config.Properties{})
	rec := do(t, h, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "docsink_pipelines_built_total") {
		t.Error("metrics output misses docsink_pipelines_built_total")
	}
}

func TestValidate(t *testing.T) {
	h, _, _ := newTestServer(t, nil)

	tests := []struct {
		name      string
		body      string
		wantCode  int
		wantValid bool
		wantOpt   string
	}{
		{"empty config is valid", `{}`, http.StatusOK, true, ""},
		{"numbers and lists accepted", `{"mongodb.max.batch.size": 100, "mongodb.post.processor.chain": ["document_id_adder"]}`, http.StatusOK, true, ""},
		{"negative batch size", `{"mongodb.max.batch.size": -1}`, http.StatusOK, false, config.MaxBatchSize},
		{"unknown stage", `{"mongodb.post.processor.chain": "nope"}`, http.StatusOK, false, config.PostProcessorChain},
		{"bad json", `{`, http.StatusBadRequest, false, ""},
		{"body too large", `{"mongodb.collection": "` + strings.Repeat("x", maxValidateBody) + `"}`, http.StatusRequestEntityTooLarge, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/v1/validate", tt.body)
			if rec.Code != tt.wantCode {
				t.Fatalf("code = %d, want %d: %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			var resp struct {
				Valid  bool                `json:"valid"`
				Errors []config.FieldError `json:"errors"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatal(err)
			}
			if resp.Valid != tt.wantValid {
				t.Fatalf("valid = %v, errors = %+v", resp.Valid, resp.Errors)
			}
			if tt.wantOpt == "" {
				return
			}
			found := false
			for _, e := range resp.Errors {
				if e.Option == tt.wantOpt {
					found = true
				}
			}
			if !found {
				t.Errorf("no error for %s in %+v", tt.wantOpt, resp.Errors)
			}
		})
	}
}

func TestComponents(t *testing.T) {
	h, _, _ := newTestServer(t, nil)
	rec := do(t, h, http.MethodGet, "/api/v1/components", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	var resp map[string][]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"stages", "id_strategies", "write_models", "cdc_handlers"} {
		if len(resp[key]) == 0 {
			t.Errorf("%s is empty", key)
		}
	}
	hasIdentity := false
	for _, n := range resp["stages"] {
		if n == stage.IdentityStage {
			hasIdentity = true
		}
	}
	if !hasIdentity {
		t.Errorf("stages %v miss %s", resp["stages"], stage.IdentityStage)
	}
}

func TestDestinations(t *testing.T) {
	h, _, _ := newTestServer(t, config.Properties{
		config.Collections:                    "orders",
		config.WriteModelStrategy + ".orders": "update_one_timestamps",
	})

	rec := do(t, h, http.MethodGet, "/api/v1/destinations", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	var list struct {
		Destinations []docsink.DestinationInfo `json:"destinations"`
		Count        int                       `json:"count"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	if list.Count != 2 || list.Destinations[0].Name != config.DefaultDestination {
		t.Fatalf("destinations = %+v", list)
	}

	rec = do(t, h, http.MethodGet, "/api/v1/destinations/orders", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	var info docsink.DestinationInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatal(err)
	}
	if info.WriteModel != "update_one_timestamps" || info.Collection != "orders" {
		t.Errorf("orders = %+v", info)
	}

	if rec := do(t, h, http.MethodGet, "/api/v1/destinations/missing", ""); rec.Code != http.StatusNotFound {
		t.Errorf("missing = %d", rec.Code)
	}
}

func TestDestinations_NotBuilt(t *testing.T) {
	h, _, _ := newTestServer(t, nil)
	if rec := do(t, h, http.MethodGet, "/api/v1/destinations", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("code = %d", rec.Code)
	}
}
