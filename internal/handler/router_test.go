package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/hornsiq/sentinel/backend/internal/config"
	personaModel "github.com/hornsiq/sentinel/backend/internal/model/persona"
	"github.com/hornsiq/sentinel/backend/internal/service/relay"
	telemetryService "github.com/hornsiq/sentinel/backend/internal/service/telemetry"
)

func newRelayTestRouter(t *testing.T, staticDir string) http.Handler {
	t.Helper()
	client := relay.NewClient(config.RelayConfig{BaseURL: "http://127.0.0.1:1", Timeout: time.Second})
	svc := relay.NewService(client, relay.NewMemoryStore())
	return NewRelayRouter(svc, personaModel.NewMemoryStore(personaModel.Seed()), staticDir, []string{"*"})
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
	return resp
}

func TestAPIRouterHealthAndBanner(t *testing.T) {
	repo := telemetryService.NewRepository(filepath.Join("..", "service", "telemetry", "testdata"))
	r := NewAPIRouter(telemetryService.NewService(repo), []string{"*"})

	resp := get(r, "/health")
	gt.V(t, resp.Code).Equal(http.StatusOK)
	var health map[string]string
	gt.NoError(t, json.Unmarshal(resp.Body.Bytes(), &health))
	gt.V(t, health["status"]).Equal("healthy")
	_, err := time.Parse(time.RFC3339, health["timestamp"])
	gt.NoError(t, err)

	resp = get(r, "/")
	gt.V(t, resp.Code).Equal(http.StatusOK)
	gt.S(t, resp.Body.String()).Contains("Horns Sentinel Demo API")

	resp = get(r, "/api/alerts?limit=2")
	gt.V(t, resp.Code).Equal(http.StatusOK)

	resp = get(r, "/metrics")
	gt.V(t, resp.Code).Equal(http.StatusOK)
	gt.S(t, resp.Body.String()).Contains("sentinel_http_requests_total")
}

func TestRelayRouterFallbackPage(t *testing.T) {
	r := newRelayTestRouter(t, filepath.Join(t.TempDir(), "missing"))

	resp := get(r, "/")
	gt.V(t, resp.Code).Equal(http.StatusOK)
	gt.S(t, resp.Body.String()).Contains("Chat interface not found")

	resp = get(r, "/static/app.js")
	gt.V(t, resp.Code).Equal(http.StatusNotFound)
}

func TestRelayRouterServesStaticChat(t *testing.T) {
	dir := t.TempDir()
	gt.NoError(t, os.WriteFile(filepath.Join(dir, "chat.html"), []byte("<html>hornsiq</html>"), 0o644))
	gt.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644))

	r := newRelayTestRouter(t, dir)

	resp := get(r, "/")
	gt.V(t, resp.Code).Equal(http.StatusOK)
	gt.S(t, resp.Body.String()).Contains("hornsiq")

	resp = get(r, "/static/app.js")
	gt.V(t, resp.Code).Equal(http.StatusOK)
	gt.S(t, resp.Body.String()).Contains("console.log")
}

func TestRelayRouterHealthAndPersonas(t *testing.T) {
	r := newRelayTestRouter(t, t.TempDir())

	resp := get(r, "/health")
	gt.V(t, resp.Code).Equal(http.StatusOK)
	var health map[string]string
	gt.NoError(t, json.Unmarshal(resp.Body.Bytes(), &health))
	gt.V(t, health["service"]).Equal("hornsiq-web")

	resp = get(r, "/api/personas")
	gt.V(t, resp.Code).Equal(http.StatusOK)
	gt.S(t, resp.Body.String()).Contains("Security Analyst")
}

func TestRelayRouterCORSPreflight(t *testing.T) {
	r := newRelayTestRouter(t, t.TempDir())

	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "http://dashboard.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	gt.V(t, resp.Code).Equal(http.StatusNoContent)
	gt.V(t, resp.Header().Get("Access-Control-Allow-Origin")).Equal("http://dashboard.example")
}
