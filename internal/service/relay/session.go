package relay

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/redis/go-redis/v9"
)

// SessionKey identifies a cached remote session.
type SessionKey struct {
	PersonaID      int
	ConversationID *int
}

func (k SessionKey) String() string {
	if k.ConversationID == nil {
		return fmt.Sprintf("persona:%d", k.PersonaID)
	}
	return fmt.Sprintf("persona:%d:conversation:%d", k.PersonaID, *k.ConversationID)
}

// SessionStore maps session keys to remote session ids. Entries are never
// expired or removed. Get followed by Put is not atomic: concurrent first use
// of one key may create two remote sessions, and the last Put wins.
type SessionStore interface {
	Get(ctx context.Context, key SessionKey) (string, bool, error)
	Put(ctx context.Context, key SessionKey, sessionID string) error
}

// MemoryStore keeps mappings for the lifetime of the process.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]string
}

// NewMemoryStore returns an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]string)}
}

func (s *MemoryStore) Get(_ context.Context, key SessionKey) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.sessions[key.String()]
	return id, ok, nil
}

func (s *MemoryStore) Put(_ context.Context, key SessionKey, sessionID string) error {
	s.mu.Lock()
	s.sessions[key.String()] = sessionID
	s.mu.Unlock()
	return nil
}

// RedisStore shares mappings between relay replicas. Keys carry no TTL.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Get(ctx context.Context, key SessionKey) (string, bool, error) {
	id, err := s.client.Get(ctx, s.prefix+key.String()).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, goerr.Wrap(err, "failed to read session mapping", goerr.V("key", key.String()))
	}
	return id, true, nil
}

func (s *RedisStore) Put(ctx context.Context, key SessionKey, sessionID string) error {
	if err := s.client.Set(ctx, s.prefix+key.String(), sessionID, 0).Err(); err != nil {
		return goerr.Wrap(err, "failed to write session mapping", goerr.V("key", key.String()))
	}
	return nil
}
