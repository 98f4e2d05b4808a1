package relay

import (
	"context"

	"github.com/hornsiq/sentinel/backend/internal/logging"
	"github.com/hornsiq/sentinel/backend/internal/metrics"
	"github.com/hornsiq/sentinel/backend/internal/model/chat"
)

// Service relays chat and search calls to the backend. Every operation is
// fail-soft: errors are reported inside the returned envelope.
type Service struct {
	backend  Backend
	sessions SessionStore
}

// NewService wires the relay. sessions lives as long as the Service.
func NewService(backend Backend, sessions SessionStore) *Service {
	return &Service{
		backend:  backend,
		sessions: sessions,
	}
}

// Chat sends req.Message and returns the aggregated answer.
func (s *Service) Chat(ctx context.Context, req chat.Request) chat.Response {
	return s.ChatStream(ctx, req, nil)
}

// ChatStream behaves like Chat and additionally hands every parsed event to
// onEvent as it arrives. onEvent may be nil.
func (s *Service) ChatStream(ctx context.Context, req chat.Request, onEvent func(Event)) chat.Response {
	key := SessionKey{PersonaID: req.PersonaID, ConversationID: req.ConversationID}

	sessionID, err := s.ensureSession(ctx, key)
	if err != nil {
		return s.chatFailure(ctx, "send_message", err)
	}

	stream, err := s.backend.SendMessage(ctx, SendMessageRequest{
		SessionID:       sessionID,
		Message:         req.Message,
		ParentMessageID: req.ConversationID,
	})
	if err != nil {
		return s.chatFailure(ctx, "send_message", err)
	}
	defer stream.Close()

	var agg Aggregator
	for ev := range stream.Events() {
		metrics.RelayStreamEvents.WithLabelValues(ev.Kind.String()).Inc()
		agg.Add(ev)
		if onEvent != nil {
			onEvent(ev)
		}
	}
	if err := stream.Err(); err != nil {
		return s.chatFailure(ctx, "send_message", &Failure{Reason: ReasonStreamInterrupted, Err: err})
	}

	metrics.RelayBackendCalls.WithLabelValues("send_message", metrics.OutcomeOK).Inc()
	result := agg.Result()
	logging.From(ctx).Debug("chat relayed",
		"session_key", key.String(),
		"answer_len", len(result.Message),
		"sources", len(result.Sources),
	)

	return chat.Response{
		Success:        true,
		Message:        result.Message,
		Sources:        result.Sources,
		ConversationID: result.UserMessageID,
	}
}

// ensureSession returns the cached remote session for key, creating one on
// first use. A store read error is treated as a miss.
func (s *Service) ensureSession(ctx context.Context, key SessionKey) (string, error) {
	logger := logging.From(ctx)

	id, ok, err := s.sessions.Get(ctx, key)
	if err != nil {
		logger.Warn("session store read failed, creating a new remote session", "session_key", key.String(), "error", err)
	} else if ok {
		return id, nil
	}

	id, err = s.backend.CreateSession(ctx, key.PersonaID)
	if err != nil {
		metrics.RelayBackendCalls.WithLabelValues("create_session", string(asFailure(err).Reason)).Inc()
		return "", &Failure{Reason: ReasonSessionUnavailable, Err: err}
	}
	metrics.RelayBackendCalls.WithLabelValues("create_session", metrics.OutcomeOK).Inc()
	metrics.RelaySessionsCreated.Inc()

	if err := s.sessions.Put(ctx, key, id); err != nil {
		logger.Warn("session store write failed", "session_key", key.String(), "error", err)
	}
	logger.Info("remote chat session created", "session_key", key.String(), "session_id", id)
	return id, nil
}

func (s *Service) chatFailure(ctx context.Context, operation string, err error) chat.Response {
	f := asFailure(err)
	if f.Reason != ReasonSessionUnavailable {
		metrics.RelayBackendCalls.WithLabelValues(operation, string(f.Reason)).Inc()
	}
	logging.From(ctx).Warn("chat relay failed", "reason", f.Reason, "error", err)

	return chat.Response{
		Success: false,
		Message: f.Reason.UserMessage(),
		Sources: []chat.Source{},
		Error:   f.Error(),
		Reason:  string(f.Reason),
	}
}

// Search proxies a knowledge-base query. Results is empty on failure.
func (s *Service) Search(ctx context.Context, req chat.SearchRequest) chat.SearchResponse {
	limit := req.Limit
	if limit <= 0 {
		limit = chat.DefaultSearchLimit
	}

	results, err := s.backend.Search(ctx, req.Query, limit)
	if err != nil {
		f := asFailure(err)
		metrics.RelayBackendCalls.WithLabelValues("search", string(f.Reason)).Inc()
		logging.From(ctx).Warn("search relay failed", "reason", f.Reason, "error", err)
		return chat.SearchResponse{
			Success: false,
			Results: []map[string]any{},
			Error:   f.Error(),
			Reason:  string(f.Reason),
		}
	}

	metrics.RelayBackendCalls.WithLabelValues("search", metrics.OutcomeOK).Inc()
	if results == nil {
		results = []map[string]any{}
	}
	return chat.SearchResponse{Success: true, Results: results}
}
