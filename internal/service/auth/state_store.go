package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"moviedash/pkg/redis"
)

// PendingAuthorization is the server-side half of an OAuth exchange that
// has been started but not completed.
type PendingAuthorization struct {
	State        string    `json:"state"`
	RedirectURI  string    `json:"redirect_uri"`
	CodeVerifier string    `json:"code_verifier"`
	CreatedAt    time.Time `json:"created_at"`
}

// StateStore keeps pending authorizations until their callback arrives.
// Consume removes the entry; it returns nil, nil when the state is unknown
// or expired.
type StateStore interface {
	Save(ctx context.Context, p *PendingAuthorization, ttl time.Duration) error
	Consume(ctx context.Context, state string) (*PendingAuthorization, error)
}

// RedisStateStore stores pending authorizations in Redis with a TTL
type RedisStateStore struct {
	client *redis.Client
}

// NewRedisStateStore creates a Redis-backed state store
func NewRedisStateStore(client *redis.Client) *RedisStateStore {
	return &RedisStateStore{client: client}
}

func (s *RedisStateStore) Save(ctx context.Context, p *PendingAuthorization, ttl time.Duration) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode oauth state: %w", err)
	}
	if err := s.client.Set(ctx, s.client.KeyBuilder.KeyOAuthState(p.State), payload, ttl); err != nil {
		return fmt.Errorf("save oauth state: %w", err)
	}
	return nil
}

func (s *RedisStateStore) Consume(ctx context.Context, state string) (*PendingAuthorization, error) {
	raw, err := s.client.GetDel(ctx, s.client.KeyBuilder.KeyOAuthState(state))
	if errors.Is(err, redis.ErrNil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("consume oauth state: %w", err)
	}

	var p PendingAuthorization
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("decode oauth state: %w", err)
	}
	return &p, nil
}

// MemoryStateStore keeps pending authorizations in process memory. It is
// used when Redis is not configured and only works for a single instance.
type MemoryStateStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	pending   PendingAuthorization
	expiresAt time.Time
}

// NewMemoryStateStore creates an in-process state store. A nil clock uses time.Now.
func NewMemoryStateStore(clock func() time.Time) *MemoryStateStore {
	if clock == nil {
		clock = time.Now
	}
	return &MemoryStateStore{entries: make(map[string]memoryEntry), now: clock}
}

func (s *MemoryStateStore) Save(_ context.Context, p *PendingAuthorization, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, k)
		}
	}
	s.entries[p.State] = memoryEntry{pending: *p, expiresAt: now.Add(ttl)}
	return nil
}

func (s *MemoryStateStore) Consume(_ context.Context, state string) (*PendingAuthorization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[state]
	if !ok {
		return nil, nil
	}
	delete(s.entries, state)
	if !s.now().Before(e.expiresAt) {
		return nil, nil
	}
	p := e.pending
	return &p, nil
}
