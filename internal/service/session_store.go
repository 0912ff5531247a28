package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"gradnet/internal/domain"
)

// SessionStore persiste el estado de sesion por id. El TTL sale de ExpiresAt.
type SessionStore interface {
	Get(ctx context.Context, id string) (domain.Session, bool, error)
	Save(ctx context.Context, session domain.Session) error
	Destroy(ctx context.Context, id string) error
}

type memorySessionStore struct {
	mu    sync.Mutex
	items map[string]domain.Session
}

func NewMemorySessionStore() SessionStore {
	return &memorySessionStore{
		items: make(map[string]domain.Session),
	}
}

func (s *memorySessionStore) Get(_ context.Context, id string) (domain.Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.items[id]
	if !ok {
		return domain.Session{}, false, nil
	}
	if session.Expired(time.Now().UTC()) {
		delete(s.items, id)
		return domain.Session{}, false, nil
	}
	return session, true, nil
}

func (s *memorySessionStore) Save(_ context.Context, session domain.Session) error {
	if err := session.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[session.ID] = session
	return nil
}

func (s *memorySessionStore) Destroy(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}

type redisKVClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type redisSessionStore struct {
	client redisKVClient
	prefix string
}

func NewRedisSessionStore(client *redis.Client) SessionStore {
	if client == nil {
		return nil
	}
	return &redisSessionStore{
		client: client,
		prefix: "gradnet:session:",
	}
}

func (s *redisSessionStore) Get(ctx context.Context, id string) (domain.Session, bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Session{}, false, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	raw, err := s.client.Get(ctx, s.prefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Session{}, false, nil
	}
	if err != nil {
		return domain.Session{}, false, err
	}
	var session domain.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return domain.Session{}, false, err
	}
	if session.Validate() != nil {
		return domain.Session{}, false, nil
	}
	return session, true, nil
}

func (s *redisSessionStore) Save(ctx context.Context, session domain.Session) error {
	if err := session.Validate(); err != nil {
		return err
	}
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return s.Destroy(ctx, session.ID)
	}
	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	return s.client.Set(ctx, s.prefix+session.ID, payload, ttl).Err()
}

func (s *redisSessionStore) Destroy(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	return s.client.Del(ctx, s.prefix+id).Err()
}
