package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/hornsiq/sentinel/backend/internal/config"
)

// Backend paths on the retrieval-augmented chat service.
const (
	createSessionPath = "/api/chat/create-chat-session"
	sendMessagePath   = "/api/chat/send-message"
	searchPath        = "/api/query"

	sessionDescription = "HornsIQ web chat"
	maxErrorBodyBytes  = 4 << 10
)

// Backend is the remote chat service the relay forwards to.
type Backend interface {
	CreateSession(ctx context.Context, personaID int) (string, error)
	SendMessage(ctx context.Context, req SendMessageRequest) (*Stream, error)
	Search(ctx context.Context, query string, limit int) ([]map[string]any, error)
}

// SendMessageRequest is one user turn posted under a remote session.
type SendMessageRequest struct {
	SessionID       string
	Message         string
	ParentMessageID *int
}

// Client talks to an Onyx-compatible backend over HTTP. Each call builds its
// own http.Client with the configured timeout, which also bounds reading a
// streamed body.
type Client struct {
	baseURL   string
	apiKey    string
	timeout   time.Duration
	transport http.RoundTripper
}

// NewClient creates a backend client from relay configuration.
func NewClient(cfg config.RelayConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		timeout: timeout,
	}
}

func (c *Client) httpClient() *http.Client {
	return &http.Client{Timeout: c.timeout, Transport: c.transport}
}

type createSessionPayload struct {
	PersonaID   int    `json:"persona_id"`
	Description string `json:"description"`
}

// CreateSession asks the backend for a new chat session bound to personaID.
// The backend may report the id as a string or a number.
func (c *Client) CreateSession(ctx context.Context, personaID int) (string, error) {
	resp, err := c.post(ctx, createSessionPath, createSessionPayload{
		PersonaID:   personaID,
		Description: sessionDescription,
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var body struct {
		ChatSessionID json.RawMessage `json:"chat_session_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", &Failure{Reason: ReasonDecode, Err: goerr.Wrap(err, "failed to decode create-session response")}
	}

	id := decodeSessionID(body.ChatSessionID)
	if id == "" {
		return "", &Failure{Reason: ReasonDecode, Err: goerr.New("create-session response has no chat_session_id", goerr.V("persona_id", personaID))}
	}
	return id, nil
}

func decodeSessionID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

type retrievalOptions struct {
	RunSearch string `json:"run_search"`
	RealTime  bool   `json:"real_time"`
}

type sendMessagePayload struct {
	ChatSessionID    string           `json:"chat_session_id"`
	ParentMessageID  *int             `json:"parent_message_id"`
	Message          string           `json:"message"`
	FileDescriptors  []any            `json:"file_descriptors"`
	PromptID         *int             `json:"prompt_id"`
	SearchDocIDs     []int            `json:"search_doc_ids"`
	RetrievalOptions retrievalOptions `json:"retrieval_options"`
	Stream           bool             `json:"stream"`
}

// SendMessage posts a user message and returns the newline-delimited response
// stream. Retrieval always runs. The caller must Close the stream.
func (c *Client) SendMessage(ctx context.Context, req SendMessageRequest) (*Stream, error) {
	resp, err := c.post(ctx, sendMessagePath, sendMessagePayload{
		ChatSessionID:    req.SessionID,
		ParentMessageID:  req.ParentMessageID,
		Message:          req.Message,
		FileDescriptors:  []any{},
		RetrievalOptions: retrievalOptions{RunSearch: "always", RealTime: true},
		Stream:           true,
	})
	if err != nil {
		return nil, err
	}
	return NewStream(resp.Body), nil
}

type searchPayload struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

// Search runs a single-shot knowledge-base query.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]map[string]any, error) {
	resp, err := c.post(ctx, searchPath, searchPayload{Query: query, Limit: limit})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body struct {
		Results []map[string]any `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &Failure{Reason: ReasonDecode, Err: goerr.Wrap(err, "failed to decode search response")}
	}
	if body.Results == nil {
		body.Results = []map[string]any{}
	}
	return body.Results, nil
}

// post sends a JSON body and returns the response when the status is 2xx.
func (c *Client) post(ctx context.Context, path string, payload any) (*http.Response, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, &Failure{Reason: ReasonUnexpected, Err: goerr.Wrap(err, "failed to encode request", goerr.V("path", path))}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, &Failure{Reason: ReasonUnexpected, Err: goerr.Wrap(err, "failed to build request", goerr.V("path", path))}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, &Failure{Reason: ReasonConnection, Err: goerr.Wrap(err, "backend request failed", goerr.V("path", path))}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, &Failure{
			Reason: ReasonHTTPStatus,
			Status: resp.StatusCode,
			Err: goerr.New("backend returned error status",
				goerr.V("path", path),
				goerr.V("status", resp.StatusCode),
				goerr.V("body", string(snippet)),
			),
		}
	}
	return resp, nil
}
