package telemetry

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	telemetryService "github.com/hornsiq/sentinel/backend/internal/service/telemetry"
	"github.com/hornsiq/sentinel/backend/pkg/utils"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

// Handler 安全遥测查询接口的HTTP处理器
type Handler struct {
	svc *telemetryService.Service
}

// New 创建遥测处理器
func New(svc *telemetryService.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes 注册查询与动作路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stats", h.handleStats)

	r.Route("/alerts", func(r chi.Router) {
		r.Get("/", h.handleListAlerts)
		r.Get("/{id}", h.handleGetAlert)
		r.Post("/{id}/acknowledge", h.handleAction(telemetryService.ActionAcknowledge))
		r.Post("/{id}/resolve", h.handleAction(telemetryService.ActionResolve))
		r.Post("/{id}/escalate", h.handleAction(telemetryService.ActionEscalate))
	})

	r.Route("/vulnerabilities", func(r chi.Router) {
		r.Get("/", h.handleListVulnerabilities)
		r.Post("/{id}/patch", h.handleAction(telemetryService.ActionMarkPatched))
	})

	r.Route("/threats", func(r chi.Router) {
		r.Get("/", h.handleListThreats)
		r.Post("/{id}/block", h.handleAction(telemetryService.ActionBlock))
	})

	r.Route("/osint", func(r chi.Router) {
		r.Get("/", h.handleListOSINT)
		r.Post("/export", h.handleExport("osint"))
		r.Post("/{id}/save", h.handleAction(telemetryService.ActionSave))
	})

	r.Route("/agents", func(r chi.Router) {
		r.Get("/", h.handleListAgents)
		r.Get("/{id}", h.handleGetAgent)
		r.Post("/{id}/restart", h.handleAction(telemetryService.ActionRestart))
	})

	r.Get("/sentiment/mentions", h.handleMentions)
	r.Get("/security-tools/status", h.handleSecurityTools)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.svc.Stats(r.Context()))
}

func (h *Handler) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	q := r.URL.Query()
	alerts := h.svc.ListAlerts(r.Context(), telemetryService.AlertFilter{
		Severity: q.Get("severity"),
		Status:   q.Get("status"),
		Limit:    limit,
	})
	utils.RespondJSON(w, http.StatusOK, alerts)
}

func (h *Handler) handleGetAlert(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	alert, err := h.svc.GetAlert(r.Context(), id)
	if err != nil {
		if errors.Is(err, telemetryService.ErrNotFound) {
			utils.RespondError(w, http.StatusNotFound, fmt.Sprintf("Alert %s not found", id))
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "failed to load alert")
		return
	}
	utils.RespondJSON(w, http.StatusOK, alert)
}

func (h *Handler) handleListVulnerabilities(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	patched, err := parseOptionalBool(r, "patched")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	vulns := h.svc.ListVulnerabilities(r.Context(), telemetryService.VulnerabilityFilter{
		Severity: r.URL.Query().Get("severity"),
		Patched:  patched,
		Limit:    limit,
	})
	utils.RespondJSON(w, http.StatusOK, vulns)
}

func (h *Handler) handleListThreats(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	q := r.URL.Query()
	threats := h.svc.ListThreats(r.Context(), telemetryService.ThreatFilter{
		Type:       q.Get("type"),
		Confidence: q.Get("confidence"),
		Limit:      limit,
	})
	utils.RespondJSON(w, http.StatusOK, threats)
}

func (h *Handler) handleListOSINT(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	verified, err := parseOptionalBool(r, "verified")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	findings := h.svc.ListOSINT(r.Context(), telemetryService.OSINTFilter{
		Type:     r.URL.Query().Get("type"),
		Verified: verified,
		Limit:    limit,
	})
	utils.RespondJSON(w, http.StatusOK, findings)
}

func (h *Handler) handleListAgents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	agents := h.svc.ListAgents(r.Context(), telemetryService.AgentFilter{
		Status:         q.Get("status"),
		DeploymentMode: q.Get("deployment_mode"),
	})
	utils.RespondJSON(w, http.StatusOK, agents)
}

func (h *Handler) handleGetAgent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	agent, err := h.svc.GetAgent(r.Context(), id)
	if err != nil {
		if errors.Is(err, telemetryService.ErrNotFound) {
			utils.RespondError(w, http.StatusNotFound, fmt.Sprintf("Agent %s not found", id))
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "failed to load agent")
		return
	}
	utils.RespondJSON(w, http.StatusOK, agent)
}

func (h *Handler) handleMentions(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]any{"mentions": h.svc.Mentions(r.Context())})
}

func (h *Handler) handleSecurityTools(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]any{"tools": h.svc.SecurityTools(r.Context())})
}

// handleAction echoes a receipt for the {id} path parameter.
func (h *Handler) handleAction(action telemetryService.Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		receipt := h.svc.Acknowledge(r.Context(), action, chi.URLParam(r, "id"))
		utils.RespondJSON(w, http.StatusOK, receipt)
	}
}

func (h *Handler) handleExport(target string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		receipt := h.svc.Acknowledge(r.Context(), telemetryService.ActionExport, target)
		utils.RespondJSON(w, http.StatusOK, receipt)
	}
}

// parseLimit reads ?limit=, defaulting to 100 and accepting 1..1000.
func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > maxLimit {
		return 0, fmt.Errorf("limit must be an integer between 1 and %d", maxLimit)
	}
	return limit, nil
}

func parseOptionalBool(r *http.Request, key string) (*bool, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	val, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be a boolean", key)
	}
	return &val, nil
}
