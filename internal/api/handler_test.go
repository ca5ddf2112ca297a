package api_test

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/emicklei/go-restful/v3"
	"github.com/jamiemarshall1919/Lesson-pilot/internal/api"
	"github.com/jamiemarshall1919/Lesson-pilot/internal/api/middleware"
	"github.com/jamiemarshall1919/Lesson-pilot/internal/models"
	"github.com/jamiemarshall1919/Lesson-pilot/internal/retriever"
	"github.com/jamiemarshall1919/Lesson-pilot/internal/selection"
	"github.com/jamiemarshall1919/Lesson-pilot/internal/store"
	"github.com/rs/zerolog"
)

type stubSelector struct {
	outcome models.Outcome
	err     error
	panics  bool

	gotReq     models.SelectionRequest
	gotBaseURL string
}

func (s *stubSelector) Select(ctx context.Context, req models.SelectionRequest, baseURL string) (models.Outcome, error) {
	if s.panics {
		panic("boom")
	}
	s.gotReq = req
	s.gotBaseURL = baseURL
	return s.outcome, s.err
}

type stubReadiness bool

func (r stubReadiness) Ready() bool { return bool(r) }

func setupTestAPI(t *testing.T, selector api.Selector, ready bool, origin api.IndexOrigin) *restful.Container {
	t.Helper()
	logger := zerolog.Nop()

	container := restful.NewContainer()
	container.Filter(middleware.Logger)
	container.Filter(middleware.RecoverPanic)
	api.RegisterRoutes(container, api.NewHandler(selector, stubReadiness(ready), origin, &logger))
	api.RegisterOpenAPI(container)
	return container
}

func postSelect(t *testing.T, container *restful.Container, body any, mutate func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Failed to marshal request: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/standards/select", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if mutate != nil {
		mutate(req)
	}

	recorder := httptest.NewRecorder()
	container.ServeHTTP(recorder, req)
	return recorder
}

func TestAPI_Health(t *testing.T) {
	container := setupTestAPI(t, &stubSelector{}, false, api.IndexOrigin{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	recorder := httptest.NewRecorder()
	container.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", recorder.Code)
	}

	var response api.HealthResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if response.Status != "ok" {
		t.Errorf("Expected status 'ok', got '%s'", response.Status)
	}
}

func TestAPI_Ready(t *testing.T) {
	tests := []struct {
		ready    bool
		wantCode int
	}{
		{ready: true, wantCode: http.StatusOK},
		{ready: false, wantCode: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("ready=%v", tt.ready), func(t *testing.T) {
			container := setupTestAPI(t, &stubSelector{}, tt.ready, api.IndexOrigin{})

			recorder := httptest.NewRecorder()
			container.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/ready", nil))

			if recorder.Code != tt.wantCode {
				t.Errorf("Expected status %d, got %d", tt.wantCode, recorder.Code)
			}
			var response api.ReadyResponse
			if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
				t.Fatalf("Failed to parse response: %v", err)
			}
			if response.Ready != tt.ready {
				t.Errorf("Expected ready=%v, got %v", tt.ready, response.Ready)
			}
		})
	}
}

func TestAPI_Select_Resolved(t *testing.T) {
	row := models.StandardRow{Code: "NY-4.NF.1", Description: "Explain fraction equivalence.", Curriculum: "nys", SubjectKey: "mathematics", Grade: "Grade 4"}
	selector := &stubSelector{outcome: models.Resolved(row, models.MethodAuto)}
	container := setupTestAPI(t, selector, true, api.IndexOrigin{})

	recorder := postSelect(t, container, models.SelectionRequest{
		Curriculum: "nys",
		Subject:    "Mathematics",
		Grade:      "Grade 4",
		Topic:      "fractions as equal parts",
	}, nil)

	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	var outcome models.Outcome
	if err := json.Unmarshal(recorder.Body.Bytes(), &outcome); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if outcome.Status != models.StatusResolved || outcome.NeedsChoice {
		t.Errorf("Expected resolved outcome, got %+v", outcome)
	}
	if outcome.Standard == nil || outcome.Standard.Code != "NY-4.NF.1" {
		t.Errorf("Expected NY-4.NF.1, got %+v", outcome.Standard)
	}
	if selector.gotReq.RequestID == "" {
		t.Error("Expected a generated request id")
	}
	if selector.gotBaseURL != "" {
		t.Errorf("Expected no base URL for a host outside the allowlist, got %q", selector.gotBaseURL)
	}
}

func TestAPI_Select_NeedsChoiceIs200(t *testing.T) {
	container := setupTestAPI(t, &stubSelector{outcome: models.NeedsChoice(nil)}, false, api.IndexOrigin{})

	recorder := postSelect(t, container, models.SelectionRequest{Topic: "the French Revolution"}, nil)

	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", recorder.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if body["needs_choice"] != true {
		t.Errorf("Expected needs_choice=true, got %v", body["needs_choice"])
	}
	shortlist, ok := body["shortlist"].([]any)
	if !ok || len(shortlist) != 0 {
		t.Errorf("Expected empty shortlist array, got %v", body["shortlist"])
	}
	if _, ok := body["standard"]; ok {
		t.Error("Expected no standard in needs_choice outcome")
	}
}

func TestAPI_Select_BaseURL(t *testing.T) {
	tests := []struct {
		name   string
		origin api.IndexOrigin
		mutate func(*http.Request)
		want   string
	}{
		{
			name:   "configured wins",
			origin: api.IndexOrigin{BaseURL: "https://cdn.example.org/"},
			mutate: func(r *http.Request) {
				r.Host = "attacker.example.net"
				r.Header.Set("X-Forwarded-Proto", "http")
			},
			want: "https://cdn.example.org",
		},
		{
			name:   "forwarded proto",
			origin: api.IndexOrigin{AllowedHosts: []string{"lessons.example.org"}},
			mutate: func(r *http.Request) {
				r.Host = "lessons.example.org"
				r.Header.Set("X-Forwarded-Proto", "https, http")
			},
			want: "https://lessons.example.org",
		},
		{
			name:   "tls",
			origin: api.IndexOrigin{AllowedHosts: []string{"Secure.Example.org"}},
			mutate: func(r *http.Request) {
				r.Host = "secure.example.org"
				r.TLS = &tls.ConnectionState{}
			},
			want: "https://secure.example.org",
		},
		{
			name:   "allowed hostname with port",
			origin: api.IndexOrigin{AllowedHosts: []string{"localhost"}},
			mutate: func(r *http.Request) {
				r.Host = "localhost:18082"
			},
			want: "http://localhost:18082",
		},
		{
			name:   "unsupported forwarded proto ignored",
			origin: api.IndexOrigin{AllowedHosts: []string{"lessons.example.org"}},
			mutate: func(r *http.Request) {
				r.Host = "lessons.example.org"
				r.Header.Set("X-Forwarded-Proto", "gopher")
			},
			want: "http://lessons.example.org",
		},
		{
			name:   "untrusted host",
			origin: api.IndexOrigin{AllowedHosts: []string{"lessons.example.org"}},
			mutate: func(r *http.Request) {
				r.Host = "attacker.example.net"
				r.Header.Set("X-Forwarded-Proto", "https")
			},
			want: "",
		},
		{
			name: "no allowlist",
			mutate: func(r *http.Request) {
				r.Host = "lessons.example.org"
			},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			selector := &stubSelector{outcome: models.NeedsChoice(nil)}
			container := setupTestAPI(t, selector, true, tt.origin)

			recorder := postSelect(t, container, models.SelectionRequest{RequestID: "r-1", Topic: "fractions"}, tt.mutate)
			if recorder.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", recorder.Code)
			}
			if selector.gotBaseURL != tt.want {
				t.Errorf("Expected base URL %q, got %q", tt.want, selector.gotBaseURL)
			}
			if selector.gotReq.RequestID != "r-1" {
				t.Errorf("Expected caller request id kept, got %q", selector.gotReq.RequestID)
			}
		})
	}
}

// indexSelector loads the index with the base URL it is handed.
type indexSelector struct {
	store *store.Store
}

func (s indexSelector) Select(ctx context.Context, req models.SelectionRequest, baseURL string) (models.Outcome, error) {
	s.store.Index(ctx, baseURL)
	return models.NeedsChoice(nil), nil
}

func TestAPI_Select_UntrustedHostNeverLatchesIndex(t *testing.T) {
	var hits atomic.Int32
	attacker := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`[{"code":"EVIL-1","description":"planted","text":"planted","vector":[1,0]}]`))
	}))
	defer attacker.Close()

	logger := zerolog.Nop()
	st := store.New(store.Options{LocalPath: filepath.Join(t.TempDir(), "missing.json")}, &logger)
	container := setupTestAPI(t, indexSelector{store: st}, true, api.IndexOrigin{AllowedHosts: []string{"lessons.example.org"}})

	attackerHost := strings.TrimPrefix(attacker.URL, "http://")
	recorder := postSelect(t, container, models.SelectionRequest{Topic: "fractions"}, func(r *http.Request) {
		r.Host = attackerHost
	})

	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", recorder.Code)
	}
	if hits.Load() != 0 {
		t.Errorf("Expected no fetch from the request host, got %d", hits.Load())
	}
	if st.Ready() {
		t.Error("Expected index to stay unlatched")
	}
}

func TestAPI_Select_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     any
		err      error
		wantCode int
	}{
		{name: "empty topic", body: models.SelectionRequest{Curriculum: "nys"}, wantCode: http.StatusBadRequest},
		{name: "malformed body", body: "not an object", wantCode: http.StatusBadRequest},
		{name: "embedding failure", body: models.SelectionRequest{Topic: "x"}, err: fmt.Errorf("%w: timeout", selection.ErrQueryEmbedding), wantCode: http.StatusBadGateway},
		{name: "judge failure", body: models.SelectionRequest{Topic: "x"}, err: fmt.Errorf("%w: refused", selection.ErrJudge), wantCode: http.StatusBadGateway},
		{name: "dimension mismatch", body: models.SelectionRequest{Topic: "x"}, err: retriever.ErrDimensionMismatch, wantCode: http.StatusInternalServerError},
		{name: "unknown", body: models.SelectionRequest{Topic: "x"}, err: errors.New("unexpected"), wantCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			container := setupTestAPI(t, &stubSelector{err: tt.err}, true, api.IndexOrigin{})

			recorder := postSelect(t, container, tt.body, nil)
			if recorder.Code != tt.wantCode {
				t.Fatalf("Expected status %d, got %d: %s", tt.wantCode, recorder.Code, recorder.Body.String())
			}

			var errResp middleware.ErrorResponse
			if err := json.Unmarshal(recorder.Body.Bytes(), &errResp); err != nil {
				t.Fatalf("Failed to parse error response: %v", err)
			}
			if errResp.Code != tt.wantCode || errResp.Details == "" {
				t.Errorf("Unexpected error body %+v", errResp)
			}
		})
	}
}

func TestAPI_RecoverPanic(t *testing.T) {
	container := setupTestAPI(t, &stubSelector{panics: true}, true, api.IndexOrigin{})

	recorder := postSelect(t, container, models.SelectionRequest{Topic: "fractions"}, nil)
	if recorder.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", recorder.Code)
	}
}

func TestAPI_OpenAPIDocument(t *testing.T) {
	container := setupTestAPI(t, &stubSelector{}, true, api.IndexOrigin{})

	recorder := httptest.NewRecorder()
	container.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/apidocs.json", nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", recorder.Code)
	}
	if !bytes.Contains(recorder.Body.Bytes(), []byte("/api/v1/standards/select")) {
		t.Error("Expected select route in OpenAPI document")
	}
}
