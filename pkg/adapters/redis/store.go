// Package redis provides the durable SessionStore and the DistributedLocker
// used by multi-replica deployments. Sessions are stored as JSON records;
// conditional updates run server-side in Lua so the step/status guard and the
// write are one atomic operation.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/moot/pkg/domain"
	"github.com/aretw0/moot/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// guardedSetScript replaces the record only if the stored currentStep and
// status still match what the writer read.
//
// Returns 1 on success, 0 on guard mismatch, -1 if the key is gone.
const guardedSetScript = `
local cur = redis.call("GET", KEYS[1])
if not cur then
	return -1
end
local rec = cjson.decode(cur)
if tostring(rec.currentStep) ~= ARGV[2] or rec.status ~= ARGV[3] then
	return 0
end
if tonumber(ARGV[4]) > 0 then
	redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[4])
else
	redis.call("SET", KEYS[1], ARGV[1])
end
return 1
`

// Store implements ports.SessionStore using Redis.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// Option configures the Store.
type Option func(*Store)

// WithTTL sets the expiration for session records.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for session records.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "moot:session:",
		ttl:    0, // No expiration by default
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Client returns the underlying Redis client so callers can share the
// connection with the locker.
func (s *Store) Client() *backend.Client {
	return s.client
}

func (s *Store) key(sessionID string) string {
	return s.prefix + sessionID
}

// Create persists a new session, refusing to clobber an existing ID.
func (s *Store) Create(ctx context.Context, session *domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	ok, err := s.client.SetNX(ctx, s.key(session.ID), data, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("redis setnx: %w", err)
	}
	if !ok {
		return domain.ErrSessionExists
	}
	return nil
}

// Load retrieves a session by ID.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	data, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session %q: %w", sessionID, err)
	}
	return &session, nil
}

// Update replaces the stored record if the guard still matches.
func (s *Store) Update(ctx context.Context, session *domain.Session, guard ports.Guard) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	res, err := s.client.Eval(ctx, guardedSetScript,
		[]string{s.key(session.ID)},
		string(data),
		fmt.Sprintf("%d", guard.CurrentStep),
		string(guard.Status),
		fmt.Sprintf("%d", s.ttl.Milliseconds()),
	).Int64()
	if err != nil {
		return fmt.Errorf("redis guarded set: %w", err)
	}

	switch res {
	case 1:
		return nil
	case 0:
		return domain.ErrSessionConflict
	default:
		return domain.ErrSessionNotFound
	}
}

// Delete removes a session record.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// List returns the IDs of all stored sessions.
func (s *Store) List(ctx context.Context) ([]string, error) {
	var ids []string
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, iter.Val()[len(s.prefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	return ids, nil
}

var _ ports.SessionStore = (*Store)(nil)
