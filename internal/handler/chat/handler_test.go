package chat

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/m-mizutani/gt"

	"github.com/hornsiq/sentinel/backend/internal/config"
	"github.com/hornsiq/sentinel/backend/internal/model/chat"
	"github.com/hornsiq/sentinel/backend/internal/model/persona"
	"github.com/hornsiq/sentinel/backend/internal/service/relay"
)

func newOnyxStub(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat/create-chat-session", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chat_session_id": "abc"}`)
	})
	mux.HandleFunc("POST /api/chat/send-message", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, strings.Join([]string{
			`{"user_message_id": 42}`,
			`{"obj": {"type": "message_delta", "content": "Hello "}}`,
			`not json`,
			`{"obj": {"type": "message_delta", "content": "world"}}`,
			`{"obj": {"type": "citation_delta", "document": {"title": "Playbook", "link": "https://kb.example/p", "blurb": "b"}}}`,
		}, "\n"))
	})
	mux.HandleFunc("POST /api/query", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results": [{"title": "Playbook"}]}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestRouter(baseURL string) chi.Router {
	client := relay.NewClient(config.RelayConfig{BaseURL: baseURL, Timeout: 5 * time.Second})
	svc := relay.NewService(client, relay.NewMemoryStore())

	r := chi.NewRouter()
	New(svc, persona.NewMemoryStore(persona.Seed())).RegisterRoutes(r)
	return r
}

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestChatAggregatesAnswer(t *testing.T) {
	r := newTestRouter(newOnyxStub(t).URL)

	resp := postJSON(r, "/chat", `{"message": "hi"}`)
	gt.V(t, resp.Code).Equal(http.StatusOK)

	var body chat.Response
	gt.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	gt.True(t, body.Success)
	gt.V(t, body.Message).Equal("Hello world")
	gt.A(t, body.Sources).Length(1)
	gt.V(t, body.Sources[0].Title).Equal("Playbook")
	gt.V(t, *body.ConversationID).Equal(42)
}

func TestChatRejectsBadInput(t *testing.T) {
	r := newTestRouter(newOnyxStub(t).URL)

	cases := map[string]string{
		"invalid json":     `{"message":`,
		"empty message":    `{"message": "   "}`,
		"negative persona": `{"message": "hi", "persona_id": -1}`,
		"unknown persona":  `{"message": "hi", "persona_id": 99}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			resp := postJSON(r, "/chat", body)
			gt.V(t, resp.Code).Equal(http.StatusBadRequest)
		})
	}
}

func TestChatBackendDownIsFailSoft(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	r := newTestRouter(url)
	resp := postJSON(r, "/chat", `{"message": "hi"}`)
	gt.V(t, resp.Code).Equal(http.StatusOK)

	var body chat.Response
	gt.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	gt.False(t, body.Success)
	gt.V(t, body.Reason).Equal(string(relay.ReasonSessionUnavailable))
	gt.S(t, body.Message).Contains("unavailable")
}

func TestChatStreamEmitsSSE(t *testing.T) {
	r := newTestRouter(newOnyxStub(t).URL)

	resp := postJSON(r, "/chat/stream", `{"message": "hi", "persona_id": 1}`)
	gt.V(t, resp.Code).Equal(http.StatusOK)
	gt.V(t, resp.Header().Get("Content-Type")).Equal("text/event-stream")

	out := resp.Body.String()
	gt.S(t, out).Contains("event: delta\ndata: {\"content\":\"Hello \"}")
	gt.S(t, out).Contains("event: citation\n")
	gt.S(t, out).Contains("event: done\n")
	gt.S(t, out).Contains(`"message":"Hello world"`)
	gt.S(t, out).NotContains("event: error")
	gt.True(t, strings.Index(out, "event: delta") < strings.Index(out, "event: done"))
}

func TestChatStreamRejectsEmptyMessage(t *testing.T) {
	r := newTestRouter(newOnyxStub(t).URL)

	resp := postJSON(r, "/chat/stream", `{"message": ""}`)
	gt.V(t, resp.Code).Equal(http.StatusBadRequest)
}

func TestSearch(t *testing.T) {
	r := newTestRouter(newOnyxStub(t).URL)

	resp := postJSON(r, "/search", `{"query": "phishing"}`)
	gt.V(t, resp.Code).Equal(http.StatusOK)

	var body chat.SearchResponse
	gt.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	gt.True(t, body.Success)
	gt.A(t, body.Results).Length(1)

	resp = postJSON(r, "/search", `{"query": " "}`)
	gt.V(t, resp.Code).Equal(http.StatusBadRequest)

	resp = postJSON(r, "/search", `nope`)
	gt.V(t, resp.Code).Equal(http.StatusBadRequest)
}

func TestChatWebSocket(t *testing.T) {
	srv := httptest.NewServer(newTestRouter(newOnyxStub(t).URL))
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/chat/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	gt.NoError(t, err)
	defer conn.Close()

	gt.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"message": "hi"}`)))

	var events []string
	var final wsFrame
	for {
		var frame wsFrame
		gt.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		gt.NoError(t, conn.ReadJSON(&frame))
		events = append(events, frame.Event)
		if frame.Event == eventDone || frame.Event == eventError {
			final = frame
			break
		}
	}

	gt.V(t, events).Equal([]string{eventDelta, eventDelta, eventCitation, eventDone})
	gt.V(t, final.Response).NotNil()
	gt.V(t, final.Response.Message).Equal("Hello world")

	// 非法帧返回 error 帧但保持连接
	gt.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"message": ""}`)))
	var frame wsFrame
	gt.NoError(t, conn.ReadJSON(&frame))
	gt.V(t, frame.Event).Equal(eventError)
	gt.V(t, frame.Error).Equal("message is required")
}

func TestChatRejectsUnknownPersona(t *testing.T) {
	r := newTestRouter(newOnyxStub(t).URL)

	resp := postJSON(r, "/chat", `{"message": "hi", "persona_id": 7}`)
	gt.V(t, resp.Code).Equal(http.StatusBadRequest)

	var body map[string]string
	gt.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	gt.V(t, body["error"]).Equal("persona not found")

	resp = postJSON(r, "/chat", `{"message": "hi", "persona_id": 2}`)
	gt.V(t, resp.Code).Equal(http.StatusOK)
}
