package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/castenv"
	"github.com/eugenenazirov/castenv/source"
)

type controllableClock struct {
	mu  sync.RWMutex
	now time.Time
}

func newControllableClock(initial time.Time) *controllableClock {
	return &controllableClock{now: initial}
}

func (c *controllableClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

func (c *controllableClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestEnv(t *testing.T) (*castenv.Context, string) {
	t.Helper()

	dir := t.TempDir()
	content := "PORT=8080\nMODE=staging\nHOSTS=a;b\nLOOP_A='${LOOP_B}'\nLOOP_B='${LOOP_A}'\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	env := castenv.New(
		castenv.WithConfig(source.DefaultConfig().With(source.WithSearchDirs(dir))),
		castenv.WithEnviron(source.Static{"PORT": "9090", "DATA_DIR": "/srv"}),
		castenv.WithLogger(zaptest.NewLogger(t)),
	)
	return env, dir
}

func setupTestRouter(t *testing.T) (http.Handler, *controllableClock, string) {
	t.Helper()

	env, dir := newTestEnv(t)
	clock := newControllableClock(time.Date(2024, 11, 1, 12, 0, 0, 0, time.UTC))

	handler := NewHandler(env, WithClock(clock.Now))
	logger := zaptest.NewLogger(t)
	router := NewRouter(handler, logger, WithLogging(false))

	return router, clock, dir
}

func TestRequestIDHelpers(t *testing.T) {
	ctx := contextWithRequestID(context.Background(), "abc")
	if got := requestIDFromContext(ctx); got != "abc" {
		t.Fatalf("expected abc, got %s", got)
	}
	resp := httptest.NewRecorder()
	writeInternalError(resp, assertError("boom"))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 status, got %d", resp.Code)
	}
}

type assertError string

func (a assertError) Error() string { return string(a) }

func TestHealthEndpoint(t *testing.T) {
	router, clock, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body healthResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Status != "ok" || !body.Timestamp.Equal(clock.Now()) {
		t.Fatalf("unexpected health payload %+v", body)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected request id header")
	}
}

type resolveBody struct {
	Key        string          `json:"key"`
	Found      bool            `json:"found"`
	Layer      string          `json:"layer"`
	Raw        string          `json:"raw"`
	Kind       string          `json:"kind"`
	Value      json.RawMessage `json:"value"`
	ResolvedAt time.Time       `json:"resolvedAt"`
}

func getResolve(t *testing.T, router http.Handler, query string) (*httptest.ResponseRecorder, resolveBody) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/api/resolve?"+query, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var body resolveBody
	if rec.Code == http.StatusOK {
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
	}
	return rec, body
}

func TestResolveEndpoint(t *testing.T) {
	router, clock, _ := setupTestRouter(t)
	clock.Advance(time.Minute)

	testCases := []struct {
		name      string
		query     string
		wantLayer string
		wantKind  string
		wantValue string
		wantFound bool
	}{
		{name: "process wins", query: "key=PORT", wantLayer: "process", wantKind: "int", wantValue: "9090", wantFound: true},
		{name: "dotenv string", query: "key=MODE", wantLayer: "dotenv", wantKind: "string", wantValue: `"staging"`, wantFound: true},
		{name: "separator", query: "key=HOSTS&separator=%3B", wantLayer: "dotenv", wantKind: "list", wantValue: `["a","b"]`, wantFound: true},
		{name: "default cast", query: "key=MISSING&default=30s", wantLayer: "none", wantKind: "float", wantValue: "30"},
		{name: "missing", query: "key=MISSING", wantLayer: "none", wantKind: "none", wantValue: "null"},
		{name: "lowercase", query: "key=MODE&lowercase=true&enum=staging,prod", wantLayer: "dotenv", wantKind: "string", wantValue: `"staging"`, wantFound: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec, body := getResolve(t, router, tc.query)
			if rec.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
			}
			if body.Layer != tc.wantLayer || body.Kind != tc.wantKind || body.Found != tc.wantFound {
				t.Fatalf("unexpected resolution %+v", body)
			}
			if string(body.Value) != tc.wantValue {
				t.Fatalf("expected value %s, got %s", tc.wantValue, body.Value)
			}
			if !body.ResolvedAt.Equal(clock.Now()) {
				t.Fatalf("expected resolvedAt from clock, got %s", body.ResolvedAt)
			}
		})
	}
}

func TestResolveEndpointErrors(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	testCases := []struct {
		name   string
		query  string
		status int
	}{
		{name: "missing key", query: "", status: http.StatusBadRequest},
		{name: "bad percent mode", query: "key=PORT&percent_mode=ratio", status: http.StatusBadRequest},
		{name: "bad boolean", query: "key=PORT&lowercase=maybe", status: http.StatusBadRequest},
		{name: "enum violation", query: "key=MODE&enum=dev&enum=prod", status: http.StatusUnprocessableEntity},
		{name: "cycle", query: "key=LOOP_A", status: http.StatusUnprocessableEntity},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec, _ := getResolve(t, router, tc.query)
			if rec.Code != tc.status {
				t.Fatalf("expected status %d, got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
			var body errorResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode error response: %v", err)
			}
			if body.Error == "" {
				t.Fatalf("expected error message")
			}
		})
	}
}

func TestFilesEndpoint(t *testing.T) {
	router, _, dir := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/files", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body filesResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Files) != 1 || body.Files[0].Path != filepath.Join(dir, ".env") || body.Files[0].Rank != 0 {
		t.Fatalf("unexpected files %+v", body.Files)
	}
	if len(body.Filenames) != 2 || !body.StopAtFirstFoundDir || !body.PreferOSOverDotenv {
		t.Fatalf("unexpected plan %+v", body)
	}
}

func TestNormalizeEndpoint(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	payload := map[string]any{
		"workers": "4",
		"data":    []any{"${DATA_DIR}/cache", "off"},
		"limit":   "50%",
		"nested":  map[string]any{"timeout": "2m", "keep": 1.5},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/normalize?percent_mode=fraction", bytes.NewReader(data))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	want := `{"value":{"data":["/srv/cache",false],"limit":0.5,"nested":{"keep":1.5,"timeout":120},"workers":4}}`
	if got := bytes.TrimSpace(rec.Body.Bytes()); string(got) != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestNormalizeEndpointRejectsInvalidPayloads(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	testCases := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{name: "invalid json", path: "/api/normalize", body: "{", status: http.StatusBadRequest},
		{name: "bad option", path: "/api/normalize?parse_lists=sometimes", body: "{}", status: http.StatusBadRequest},
		{name: "enum", path: "/api/normalize?enum=a", body: `["a","b"]`, status: http.StatusUnprocessableEntity},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tc.path, bytes.NewReader([]byte(tc.body)))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("expected status %d, got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestUnknownRouteReturnsNotFound(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/unknown", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
