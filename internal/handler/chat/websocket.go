package chat

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/hornsiq/sentinel/backend/internal/logging"
	"github.com/hornsiq/sentinel/backend/internal/model/chat"
	"github.com/hornsiq/sentinel/backend/internal/service/relay"
)

// wsFrame 是发往客户端的单帧消息
type wsFrame struct {
	Event    string         `json:"event"`
	Content  string         `json:"content,omitempty"`
	Source   *chat.Source   `json:"source,omitempty"`
	Response *chat.Response `json:"response,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// handleWebSocket 每个入站文本帧是一次聊天请求，回复以 done 或 error 帧结束
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.From(r.Context()).Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	logger := logging.From(r.Context())
	ctx := r.Context()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if !errors.As(err, &closeErr) {
				logger.Debug("websocket read ended", "error", err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		var req chat.Request
		if err := json.Unmarshal(data, &req); err != nil {
			if writeErr := conn.WriteJSON(wsFrame{Event: eventError, Error: "invalid request body"}); writeErr != nil {
				return
			}
			continue
		}
		if msg := h.validateChatRequest(req); msg != "" {
			if writeErr := conn.WriteJSON(wsFrame{Event: eventError, Error: msg}); writeErr != nil {
				return
			}
			continue
		}

		var writeErr error
		resp := h.relaySvc.ChatStream(ctx, req, func(ev relay.Event) {
			frame, ok := toWSFrame(ev)
			if !ok || writeErr != nil {
				return
			}
			writeErr = conn.WriteJSON(frame)
		})
		if writeErr != nil {
			logger.Debug("websocket write failed", "error", writeErr)
			return
		}

		final := wsFrame{Event: eventDone, Response: &resp}
		if !resp.Success {
			final.Event = eventError
			final.Error = resp.Error
		}
		if err := conn.WriteJSON(final); err != nil {
			logger.Debug("websocket write failed", "error", err)
			return
		}
	}
}

func toWSFrame(ev relay.Event) (wsFrame, bool) {
	switch ev.Kind {
	case relay.EventTextDelta:
		return wsFrame{Event: eventDelta, Content: ev.Text}, true
	case relay.EventCitation:
		src := ev.Source
		return wsFrame{Event: eventCitation, Source: &src}, true
	default:
		return wsFrame{}, false
	}
}
