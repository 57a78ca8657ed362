package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yourorg/oas2postman/internal/config"
	"github.com/yourorg/oas2postman/internal/store"
	"github.com/yourorg/oas2postman/pkg/types"
)

const petsDoc = `{
  "openapi": "3.0.3",
  "info": {"title": "Pets", "version": "1"},
  "paths": {
    "/pets/{id}": {
      "get": {
        "tags": ["Pets"],
        "operationId": "getPet",
        "responses": {"200": {"description": "OK"}}
      }
    }
  }
}`

func newTestServer(t *testing.T) (*Server, *store.SQLiteStore) {
	t.Helper()

	tmpDir := t.TempDir()
	cfg := config.Default()
	cfg.Store.Path = filepath.Join(tmpDir, "history.db")
	cfg.Server.CORSOrigin = "https://app.example.com"

	st, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	srv, err := New(cfg, st, nil)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return srv, st
}

func serve(srv *Server, method, target string, body []byte) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestServerHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := serve(srv, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestServerRunsEmpty(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := serve(srv, http.MethodGet, "/api/runs", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var runs []types.Run
	if err := json.NewDecoder(rec.Body).Decode(&runs); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(runs) != 0 {
		t.Fatalf("expected empty runs, got %d", len(runs))
	}
}

func TestServerConvertAndHistory(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := serve(srv, http.MethodPost, "/api/convert?base_url=http://localhost:9000&name=pets.json", []byte(petsDoc))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Fatalf("unexpected CORS origin %q", got)
	}
	runID := rec.Header().Get("X-Run-Id")
	if runID == "" {
		t.Fatalf("missing X-Run-Id")
	}

	var col struct {
		Item []struct {
			Name string `json:"name"`
			Item []struct {
				Name    string `json:"name"`
				Request struct {
					URL struct {
						Raw  string   `json:"raw"`
						Path []string `json:"path"`
					} `json:"url"`
				} `json:"request"`
			} `json:"item"`
		} `json:"item"`
		Variable []struct {
			Key   string `json:"key"`
			Value string `json:"value"`
		} `json:"variable"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &col); err != nil {
		t.Fatalf("decode collection: %v", err)
	}
	if len(col.Item) != 1 || col.Item[0].Name != "Pets" {
		t.Fatalf("unexpected folders: %+v", col.Item)
	}
	item := col.Item[0].Item[0]
	if item.Name != "getPet" || item.Request.URL.Raw != "http://localhost:9000/pets/{id}" {
		t.Fatalf("unexpected item: %+v", item)
	}
	if col.Variable[0].Value != "http://localhost:9000" {
		t.Fatalf("unexpected baseUrl %q", col.Variable[0].Value)
	}

	detail := serve(srv, http.MethodGet, "/api/runs/"+runID, nil)
	if detail.Code != http.StatusOK {
		t.Fatalf("detail status = %d", detail.Code)
	}
	var run types.Run
	if err := json.NewDecoder(detail.Body).Decode(&run); err != nil {
		t.Fatalf("decode run: %v", err)
	}
	if run.Source != types.SourceHTTP || run.Input != "pets.json" || run.RequestCount != 1 {
		t.Fatalf("unexpected run: %+v", run)
	}

	stored := serve(srv, http.MethodGet, "/api/runs/"+runID+"/collection", nil)
	if stored.Code != http.StatusOK {
		t.Fatalf("collection status = %d", stored.Code)
	}
	if !bytes.Equal(stored.Body.Bytes(), rec.Body.Bytes()) {
		t.Fatalf("stored collection differs from response")
	}

	if del := serve(srv, http.MethodDelete, "/api/runs/"+runID, nil); del.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", del.Code)
	}
	if gone := serve(srv, http.MethodGet, "/api/runs/"+runID, nil); gone.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", gone.Code)
	}
}

func TestServerConvertYAML(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := serve(srv, http.MethodPost, "/api/convert?format=yaml", []byte(petsDoc))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "application/yaml") {
		t.Fatalf("unexpected content type %q", rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Body.String(), "name: getPet") {
		t.Fatalf("expected yaml body, got %s", rec.Body.String())
	}
}

func TestServerConvertClientErrors(t *testing.T) {
	srv, _ := newTestServer(t)

	cases := map[string]struct {
		target string
		body   string
		want   int
	}{
		"malformed":      {"/api/convert", `{"openapi": `, http.StatusBadRequest},
		"missing paths":  {"/api/convert", `{"openapi": "3.0.3", "info": {"title": "x"}}`, http.StatusBadRequest},
		"unknown format": {"/api/convert?format=xml", petsDoc, http.StatusBadRequest},
	}
	for name, c := range cases {
		rec := serve(srv, http.MethodPost, c.target, []byte(c.body))
		if rec.Code != c.want {
			t.Fatalf("%s: status = %d, want %d", name, rec.Code, c.want)
		}
		var body map[string]string
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil || body["error"] == "" {
			t.Fatalf("%s: expected error body, err=%v", name, err)
		}
	}

	if rec := serve(srv, http.MethodGet, "/api/convert", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET /api/convert status = %d", rec.Code)
	}
	if rec := serve(srv, http.MethodOptions, "/api/convert", nil); rec.Code != http.StatusNoContent {
		t.Fatalf("OPTIONS /api/convert status = %d", rec.Code)
	}
}

func TestServerConvertTooLarge(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.cfg.Server.MaxBodyBytes = 16

	rec := serve(srv, http.MethodPost, "/api/convert", []byte(petsDoc))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestServerWithoutStore(t *testing.T) {
	cfg := config.Default()
	srv, err := New(cfg, nil, nil)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	rec := serve(srv, http.MethodPost, "/api/convert", []byte(petsDoc))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("X-Run-Id") != "" {
		t.Fatalf("expected no run id without a store")
	}
	if rec := serve(srv, http.MethodGet, "/api/runs/run_20260101_001", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}
