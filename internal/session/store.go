package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mohammed-shakir/cityjson-codec/internal/cache/keys"
	"github.com/mohammed-shakir/cityjson-codec/internal/cache/redisstore"
	"github.com/mohammed-shakir/cityjson-codec/internal/core/observability"
)

const cacheName = "session"

var ErrNoID = errors.New("session id is required")

// Store persists sessions between codec calls. Load returns a fresh session
// when the id is unknown. Implementations are safe for concurrent use.
type Store interface {
	Load(ctx context.Context, id string) (*ImportSession, error)
	Save(ctx context.Context, s *ImportSession) error
	Delete(ctx context.Context, id string) error
}

type memoryStore struct {
	lru *lru.Cache[string, *ImportSession]
}

// NewMemoryStore keeps up to size sessions in process, evicting the least
// recently used.
func NewMemoryStore(size int) (Store, error) {
	if size <= 0 {
		size = 1024
	}
	c, err := lru.New[string, *ImportSession](size)
	if err != nil {
		return nil, fmt.Errorf("session lru: %w", err)
	}
	return &memoryStore{lru: c}, nil
}

func (m *memoryStore) Load(_ context.Context, id string) (*ImportSession, error) {
	if id == "" {
		return nil, ErrNoID
	}
	if s, ok := m.lru.Get(id); ok {
		observability.AddCacheHits(cacheName, 1)
		return s.Clone(), nil
	}
	observability.AddCacheMisses(cacheName, 1)
	return New(id), nil
}

func (m *memoryStore) Save(_ context.Context, s *ImportSession) error {
	if s == nil || s.ID == "" {
		return ErrNoID
	}
	m.lru.Add(s.ID, s.Clone())
	return nil
}

func (m *memoryStore) Delete(_ context.Context, id string) error {
	m.lru.Remove(id)
	return nil
}

type redisStore struct {
	cli *redisstore.Client
	ttl time.Duration
}

// NewRedisStore keeps sessions as JSON under keys.Session. A ttl of zero
// keeps them forever.
func NewRedisStore(cli *redisstore.Client, ttl time.Duration) Store {
	return &redisStore{cli: cli, ttl: ttl}
}

func (r *redisStore) Load(ctx context.Context, id string) (*ImportSession, error) {
	if id == "" {
		return nil, ErrNoID
	}
	raw, found, err := r.cli.Get(ctx, keys.Session(id))
	if err != nil {
		return nil, fmt.Errorf("load session %q: %w", id, err)
	}
	if !found {
		observability.AddCacheMisses(cacheName, 1)
		return New(id), nil
	}
	observability.AddCacheHits(cacheName, 1)

	var s ImportSession
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode session %q: %w", id, err)
	}
	s.ID = id
	return &s, nil
}

func (r *redisStore) Save(ctx context.Context, s *ImportSession) error {
	if s == nil || s.ID == "" {
		return ErrNoID
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session %q: %w", s.ID, err)
	}
	if err := r.cli.Set(ctx, keys.Session(s.ID), raw, r.ttl); err != nil {
		return fmt.Errorf("save session %q: %w", s.ID, err)
	}
	return nil
}

func (r *redisStore) Delete(ctx context.Context, id string) error {
	if err := r.cli.Del(ctx, keys.Session(id)); err != nil {
		return fmt.Errorf("delete session %q: %w", id, err)
	}
	return nil
}
