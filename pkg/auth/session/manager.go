package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
)

const activeMarker = "active"

// Source is the authoritative lookup for session state, backed by the
// user_sessions table.
type Source interface {
	// LookupActive reports whether the session exists, is active, and has not
	// expired. ExpiresAt is only meaningful when active is true.
	LookupActive(ctx context.Context, sessionID uuid.UUID) (active bool, expiresAt time.Time, err error)
}

type sessionCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	SessionKey(sessionID string) string
}

// Manager answers "is this session still valid" with a Redis read-through in
// front of the database. Only positive results are cached; invalidation
// happens by deleting the cache entry when a session is revoked.
type Manager struct {
	cache  sessionCache
	source Source
}

// AccessSessionChecker exposes the read-only surface needed by middleware.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

func NewManager(cache sessionCache, source Source) (*Manager, error) {
	if cache == nil {
		return nil, fmt.Errorf("session cache is required")
	}
	if source == nil {
		return nil, fmt.Errorf("session source is required")
	}
	return &Manager{cache: cache, source: source}, nil
}

// HasSession reports whether the session identified by the token's jti is
// still active. Cache misses fall through to the database; cache errors are
// treated as misses so a Redis outage degrades to DB reads instead of
// rejecting valid sessions.
func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	accessID = strings.TrimSpace(accessID)
	if accessID == "" {
		return false, fmt.Errorf("access id is required")
	}
	sessionID, err := uuid.Parse(accessID)
	if err != nil {
		return false, nil
	}

	key := m.cache.SessionKey(accessID)
	if value, cacheErr := m.cache.Get(ctx, key); cacheErr == nil && value == activeMarker {
		return true, nil
	} else if cacheErr != nil && !errors.Is(cacheErr, redislib.Nil) {
		// fall through to the source
	}

	active, expiresAt, err := m.source.LookupActive(ctx, sessionID)
	if err != nil {
		return false, err
	}
	if !active {
		return false, nil
	}

	if ttl := time.Until(expiresAt); ttl > 0 {
		_ = m.cache.Set(ctx, key, activeMarker, ttl)
	}
	return true, nil
}

// Invalidate drops the cached entry for a session so the next check hits the
// database. Called after revocation.
func (m *Manager) Invalidate(ctx context.Context, accessID string) error {
	accessID = strings.TrimSpace(accessID)
	if accessID == "" {
		return fmt.Errorf("access id is required")
	}
	return m.cache.Del(ctx, m.cache.SessionKey(accessID))
}

// NewAccessID produces the identifier used as both the JWT jti and the
// user_sessions primary key.
func NewAccessID() string {
	return uuid.NewString()
}
