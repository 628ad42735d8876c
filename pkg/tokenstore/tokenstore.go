// Package tokenstore is the durable home of upstream bearer tokens, one
// plain string per browser session. Absence of a token means the session
// is unauthenticated.
package tokenstore

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/yannickabena/mboa-storefront/pkg/redis"
)

// ErrNotFound is returned when no token is stored for the session.
var ErrNotFound = errors.New("tokenstore: no token for session")

// Store persists one bearer token per browser session. Writes happen only
// on login/logout; reads happen on every upstream call.
type Store interface {
	Get(ctx context.Context, sessionID string) (string, error)
	Put(ctx context.Context, sessionID, token string) error
	Delete(ctx context.Context, sessionID string) error
}

const redisKeyPrefix = "mboa:token:"

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis returns a Store backed by Redis, with tokens expiring alongside
// the browser session.
func NewRedis(client *redis.Client, ttl time.Duration) Store {
	return &redisStore{client: client, ttl: ttl}
}

func (s *redisStore) Get(ctx context.Context, sessionID string) (string, error) {
	val, err := s.client.Get(ctx, redisKeyPrefix+sessionID)
	if errors.Is(err, redis.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (s *redisStore) Put(ctx context.Context, sessionID, token string) error {
	return s.client.Set(ctx, redisKeyPrefix+sessionID, token, s.ttl)
}

func (s *redisStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, redisKeyPrefix+sessionID)
}

type memoryStore struct {
	mu     sync.RWMutex
	tokens map[string]string
}

// NewMemory returns a process-local Store. Used when Redis is not
// configured and in tests.
func NewMemory() Store {
	return &memoryStore{tokens: make(map[string]string)}
}

func (s *memoryStore) Get(_ context.Context, sessionID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	token, ok := s.tokens[sessionID]
	if !ok {
		return "", ErrNotFound
	}
	return token, nil
}

func (s *memoryStore) Put(_ context.Context, sessionID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[sessionID] = token
	return nil
}

func (s *memoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, sessionID)
	return nil
}
