package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hornsiq/sentinel/backend/internal/handler/chat"
	"github.com/hornsiq/sentinel/backend/internal/handler/persona"
	"github.com/hornsiq/sentinel/backend/internal/handler/telemetry"
	middlewarePkg "github.com/hornsiq/sentinel/backend/internal/middleware"
	personaModel "github.com/hornsiq/sentinel/backend/internal/model/persona"
	"github.com/hornsiq/sentinel/backend/internal/service/relay"
	telemetryService "github.com/hornsiq/sentinel/backend/internal/service/telemetry"
	"github.com/hornsiq/sentinel/backend/pkg/utils"
)

const fallbackChatPage = "<h1>HornsIQ Chat</h1><p>Chat interface not found</p>"

func newBaseRouter(service string, allowedOrigins []string) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.Observe(service))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(allowedOrigins))

	r.Handle("/metrics", promhttp.Handler())
	return r
}

// NewAPIRouter wires the telemetry query service.
func NewAPIRouter(svc *telemetryService.Service, allowedOrigins []string) http.Handler {
	r := newBaseRouter("api", allowedOrigins)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"service": "Horns Sentinel Demo API",
			"version": "1.0.0",
			"status":  "operational",
			"endpoints": []string{
				"/api/stats",
				"/api/alerts",
				"/api/vulnerabilities",
				"/api/threats",
				"/api/osint",
				"/api/agents",
				"/api/sentiment/mentions",
				"/api/security-tools/status",
			},
		})
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	r.Route("/api", func(api chi.Router) {
		telemetry.New(svc).RegisterRoutes(api)
	})

	return r
}

// NewRelayRouter wires the HornsIQ chat relay and its static chat page.
func NewRelayRouter(relaySvc *relay.Service, personas personaModel.Store, staticDir string, allowedOrigins []string) http.Handler {
	r := newBaseRouter("relay", allowedOrigins)

	chatPage := filepath.Join(staticDir, "chat.html")
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		if info, err := os.Stat(chatPage); err == nil && !info.IsDir() {
			http.ServeFile(w, r, chatPage)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(fallbackChatPage))
	})

	// 静态目录不存在时不挂载
	if info, err := os.Stat(staticDir); err == nil && info.IsDir() {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": "hornsiq-web",
		})
	})

	r.Route("/api", func(api chi.Router) {
		chat.New(relaySvc, personas).RegisterRoutes(api)
		persona.New(personas).RegisterRoutes(api)
	})

	return r
}
