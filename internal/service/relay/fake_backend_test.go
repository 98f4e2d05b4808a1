package relay

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hornsiq/sentinel/backend/internal/config"
)

// fakeBackend is an Onyx-compatible test server.
type fakeBackend struct {
	mu            sync.Mutex
	createCalls   int
	createStatus  int
	sendStatus    int
	searchStatus  int
	streamLines   []string
	sendPayloads  []map[string]any
	searchPayload map[string]any
	authHeaders   []string
}

func newFakeBackend(t *testing.T) (*fakeBackend, *httptest.Server) {
	t.Helper()
	fb := &fakeBackend{
		createStatus: http.StatusOK,
		sendStatus:   http.StatusOK,
		searchStatus: http.StatusOK,
		streamLines: []string{
			`{"user_message_id": 501}`,
			`{"obj": {"type": "message_delta", "content": "Hello "}}`,
			`{"obj": {"type": "message_delta", "content": "world"}}`,
			`{"obj": {"type": "citation_delta", "document": {"semantic_identifier": "Runbook", "link": "https://kb.example/runbook", "blurb": "steps"}}}`,
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat/create-chat-session", func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		fb.createCalls++
		n := fb.createCalls
		status := fb.createStatus
		fb.authHeaders = append(fb.authHeaders, r.Header.Get("Authorization"))
		fb.mu.Unlock()

		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"chat_session_id": "session-%d"}`, n)
	})
	mux.HandleFunc("POST /api/chat/send-message", func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)

		fb.mu.Lock()
		fb.sendPayloads = append(fb.sendPayloads, payload)
		status := fb.sendStatus
		lines := append([]string(nil), fb.streamLines...)
		fb.mu.Unlock()

		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/x-ndjson")
		fmt.Fprint(w, strings.Join(lines, "\n"))
	})
	mux.HandleFunc("POST /api/query", func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)

		fb.mu.Lock()
		fb.searchPayload = payload
		status := fb.searchStatus
		fb.mu.Unlock()

		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"results": [{"title": "Phishing response", "score": 0.91}]}`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return fb, srv
}

func (fb *fakeBackend) sessionCreates() int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.createCalls
}

func (fb *fakeBackend) lastSendPayload() map[string]any {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if len(fb.sendPayloads) == 0 {
		return nil
	}
	return fb.sendPayloads[len(fb.sendPayloads)-1]
}

func testClient(baseURL, apiKey string) *Client {
	return NewClient(config.RelayConfig{BaseURL: baseURL, APIKey: apiKey, Timeout: 5 * time.Second})
}
