package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kvfiles/internal/config"
	"kvfiles/internal/keystore"
	"kvfiles/internal/keystore/memory"
	"kvfiles/internal/service"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	return &config.Config{
		AuthMode:          config.AuthModeAPIKey,
		APIKeys:           []string{"test-key"},
		RateLimitRequests: 1000,
		RateLimitWindow:   time.Minute,
	}
}

func seededStore() *memory.Store {
	store := memory.New()
	for _, name := range []string{"a.png", "b.mp4", "r2:c.mp3", "d.pdf"} {
		store.Put(keystore.Key{Name: name, Metadata: map[string]any{"fileName": name, "TimeStamp": float64(1700000000)}})
	}
	store.Put(keystore.Key{Name: "session:tmp", Metadata: map[string]any{"fileName": "x", "TimeStamp": float64(1)}})
	return store
}

func newTestServer(t *testing.T, store keystore.KeyStore) http.Handler {
	t.Helper()
	cfg := testConfig()
	auth, cleanup, err := NewAuthenticator(cfg, discardLogger())
	if err != nil {
		t.Fatalf("NewAuthenticator: %v", err)
	}
	t.Cleanup(cleanup)

	handler := NewListHandler(service.NewListService(store, discardLogger()), discardLogger())
	return NewRouter(cfg, handler, auth)
}

type listBody struct {
	Keys []struct {
		Name     string         `json:"name"`
		Metadata map[string]any `json:"metadata"`
	} `json:"keys"`
	ListComplete bool           `json:"list_complete"`
	Cursor       *string        `json:"cursor"`
	PageCount    int            `json:"pageCount"`
	Stats        map[string]any `json:"stats"`
}

func doList(t *testing.T, h http.Handler, query string) (*httptest.ResponseRecorder, listBody) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/manage/list"+query, nil)
	req.Header.Set("Authorization", "ApiKey test-key")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var body listBody
	if rr.Code == http.StatusOK {
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return rr, body
}

func TestListHandler_FirstPage(t *testing.T) {
	h := newTestServer(t, seededStore())

	rr, body := doList(t, h, "?limit=2")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("unexpected content type %q", rr.Header().Get("Content-Type"))
	}
	if body.PageCount != 2 || len(body.Keys) != 2 {
		t.Fatalf("unexpected page: %+v", body)
	}
	if body.ListComplete || body.Cursor == nil || *body.Cursor == "" {
		t.Fatalf("expected a continuation cursor: %+v", body)
	}
	if body.Keys[0].Name != "a.png" || body.Keys[0].Metadata["fileType"] != "image" || body.Keys[0].Metadata["storageType"] != "telegram" {
		t.Fatalf("unexpected first key: %+v", body.Keys[0])
	}
	if body.Stats != nil {
		t.Fatal("stats should be omitted unless requested")
	}

	rr, next := doList(t, h, "?limit=2&cursor="+*body.Cursor)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if next.Keys[0].Name != "d.pdf" {
		t.Fatalf("unexpected second page: %+v", next.Keys)
	}
}

func TestListHandler_CompletePageOmitsCursor(t *testing.T) {
	h := newTestServer(t, seededStore())

	rr, body := doList(t, h, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !body.ListComplete || body.Cursor != nil {
		t.Fatalf("complete page should omit cursor: %+v", body)
	}
	// session: 前缀的 key 不应出现
	if body.PageCount != 4 {
		t.Fatalf("expected 4 keys, got %d", body.PageCount)
	}
}

func TestListHandler_WithStats(t *testing.T) {
	h := newTestServer(t, seededStore())

	rr, body := doList(t, h, "?limit=1&includeStats=true")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if body.Stats == nil {
		t.Fatal("expected stats")
	}
	if body.Stats["total"] != float64(4) {
		t.Fatalf("unexpected total: %v", body.Stats["total"])
	}
	byStorage := body.Stats["byStorage"].(map[string]any)
	if byStorage["telegram"] != float64(3) || byStorage["r2"] != float64(1) || byStorage["huggingface"] != float64(0) {
		t.Fatalf("unexpected byStorage: %v", byStorage)
	}
	byType := body.Stats["byType"].(map[string]any)
	if byType["image"] != float64(1) || byType["video"] != float64(1) || byType["audio"] != float64(1) || byType["document"] != float64(1) {
		t.Fatalf("unexpected byType: %v", byType)
	}
}

func TestListHandler_StorageFilter(t *testing.T) {
	h := newTestServer(t, seededStore())

	_, body := doList(t, h, "?storage=R2&stats=1")
	if body.PageCount != 1 || body.Keys[0].Name != "r2:c.mp3" {
		t.Fatalf("unexpected filtered page: %+v", body)
	}
	if body.Stats["total"] != float64(1) {
		t.Fatalf("unexpected filtered stats: %v", body.Stats)
	}
}

func TestListHandler_InvalidCursor(t *testing.T) {
	h := newTestServer(t, seededStore())

	rr, _ := doList(t, h, "?cursor=%25%25%25")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	var body errorEnvelope
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil || body.Error != "invalid cursor" {
		t.Fatalf("unexpected error body: %s", rr.Body.String())
	}
}

type brokenStore struct{}

func (brokenStore) List(ctx context.Context, opts keystore.ListOptions) (*keystore.Page, error) {
	return nil, errors.New("kv namespace unavailable")
}

func TestListHandler_StoreFailure(t *testing.T) {
	h := newTestServer(t, brokenStore{})

	rr, _ := doList(t, h, "")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	var body errorEnvelope
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil || body.Error != "failed to list keys" {
		t.Fatalf("unexpected error body: %s", rr.Body.String())
	}
}

func TestListHandler_RequiresAuth(t *testing.T) {
	h := newTestServer(t, seededStore())

	req := httptest.NewRequest(http.MethodGet, "/api/manage/list", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	h := newTestServer(t, seededStore())

	for _, path := range []string{"/healthz", "/metrics"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rr.Code)
		}
	}
}

func TestRouter_DisabledAuth(t *testing.T) {
	cfg := testConfig()
	cfg.AuthMode = config.AuthModeDisabled
	auth, cleanup, err := NewAuthenticator(cfg, discardLogger())
	if err != nil {
		t.Fatalf("NewAuthenticator: %v", err)
	}
	defer cleanup()
	if auth != nil {
		t.Fatal("disabled mode should not install auth middleware")
	}

	handler := NewListHandler(service.NewListService(seededStore(), discardLogger()), discardLogger())
	rr := httptest.NewRecorder()
	NewRouter(cfg, handler, auth).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/manage/list", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 without auth, got %d", rr.Code)
	}
}

func TestNewAuthenticator_UnknownMode(t *testing.T) {
	cfg := testConfig()
	cfg.AuthMode = "basic"
	if _, _, err := NewAuthenticator(cfg, discardLogger()); err == nil {
		t.Fatal("expected error for unknown auth mode")
	}
}
