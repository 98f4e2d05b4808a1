package chat

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/hornsiq/sentinel/backend/internal/logging"
	"github.com/hornsiq/sentinel/backend/internal/model/chat"
	"github.com/hornsiq/sentinel/backend/internal/model/persona"
	"github.com/hornsiq/sentinel/backend/internal/service/relay"
	"github.com/hornsiq/sentinel/backend/pkg/utils"
)

// 流式事件名，SSE 与 WebSocket 共用
const (
	eventDelta    = "delta"
	eventCitation = "citation"
	eventDone     = "done"
	eventError    = "error"
)

// Handler 聊天中继的HTTP处理器
type Handler struct {
	relaySvc *relay.Service
	personas persona.Store
	upgrader websocket.Upgrader
}

// New 创建聊天处理器
func New(relaySvc *relay.Service, personas persona.Store) *Handler {
	return &Handler{
		relaySvc: relaySvc,
		personas: personas,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
	r.Post("/chat/stream", h.handleChatStream)
	r.Get("/chat/ws", h.handleWebSocket)
	r.Post("/search", h.handleSearch)
}

// handleChat 同步聊天，返回聚合后的回答
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeChatRequest(w, r)
	if !ok {
		return
	}

	utils.RespondJSON(w, http.StatusOK, h.relaySvc.Chat(r.Context(), req))
}

// handleChatStream 以SSE形式逐段推送回答
func (h *Handler) handleChatStream(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeChatRequest(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	logger := logging.From(r.Context())
	resp := h.relaySvc.ChatStream(r.Context(), req, func(ev relay.Event) {
		name, payload, ok := streamFrame(ev)
		if !ok {
			return
		}
		if err := utils.SendSSEEvent(w, flusher, name, payload); err != nil {
			logger.Debug("sse write failed", "event", name, "error", err)
		}
	})

	final := eventDone
	if !resp.Success {
		final = eventError
	}
	if err := utils.SendSSEEvent(w, flusher, final, resp); err != nil {
		logger.Debug("sse write failed", "event", final, "error", err)
	}
}

// handleSearch 知识库检索
func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req chat.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		utils.RespondError(w, http.StatusBadRequest, "query is required")
		return
	}
	if req.Limit < 0 {
		utils.RespondError(w, http.StatusBadRequest, "limit must not be negative")
		return
	}

	utils.RespondJSON(w, http.StatusOK, h.relaySvc.Search(r.Context(), req))
}

func (h *Handler) decodeChatRequest(w http.ResponseWriter, r *http.Request) (chat.Request, bool) {
	var req chat.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return chat.Request{}, false
	}

	if msg := h.validateChatRequest(req); msg != "" {
		utils.RespondError(w, http.StatusBadRequest, msg)
		return chat.Request{}, false
	}
	return req, true
}

// validateChatRequest 返回校验失败的原因；persona_id 缺省为 0
func (h *Handler) validateChatRequest(req chat.Request) string {
	if strings.TrimSpace(req.Message) == "" {
		return "message is required"
	}
	if _, ok := h.personas.FindByID(req.PersonaID); !ok {
		return "persona not found"
	}
	return ""
}

// streamFrame 把中继事件映射为对外的事件名和负载；user_message_id 只进入最终响应
func streamFrame(ev relay.Event) (string, map[string]any, bool) {
	switch ev.Kind {
	case relay.EventTextDelta:
		return eventDelta, map[string]any{"content": ev.Text}, true
	case relay.EventCitation:
		return eventCitation, map[string]any{"source": ev.Source}, true
	default:
		return "", nil, false
	}
}
