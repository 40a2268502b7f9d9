package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/myhousemouse/Risk-api-server/internal/cache"
	"github.com/myhousemouse/Risk-api-server/pkg/models"
)

// CacheStore keeps sessions as JSON documents in a cache.Cache with a TTL.
// It backs both the in-process and the Redis session backends.
type CacheStore struct {
	cache cache.Cache
	ttl   time.Duration
	now   func() time.Time
}

// NewCacheStore creates a CacheStore. Every write refreshes the session's TTL.
func NewCacheStore(c cache.Cache, ttl time.Duration) *CacheStore {
	return &CacheStore{cache: c, ttl: ttl, now: time.Now}
}

func (s *CacheStore) Create(ctx context.Context) (string, error) {
	now := s.now().UTC()
	sess := &models.Session{
		ID:        uuid.NewString(),
		Stage:     models.StageCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.write(ctx, sess); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return sess.ID, nil
}

func (s *CacheStore) Get(ctx context.Context, id string) (*models.Session, error) {
	data, found, err := s.cache.Get(ctx, cache.SessionKey(id))
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if !found {
		return nil, ErrNotFound
	}

	var sess models.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &sess, nil
}

func (s *CacheStore) Put(ctx context.Context, sess *models.Session) error {
	_, found, err := s.cache.Get(ctx, cache.SessionKey(sess.ID))
	if err != nil {
		return fmt.Errorf("put session: %w", err)
	}
	if !found {
		return ErrNotFound
	}

	sess.UpdatedAt = s.now().UTC()
	if err := s.write(ctx, sess); err != nil {
		return fmt.Errorf("put session: %w", err)
	}
	return nil
}

func (s *CacheStore) Ping(ctx context.Context) error {
	return s.cache.Ping(ctx)
}

func (s *CacheStore) write(ctx context.Context, sess *models.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.cache.Set(ctx, cache.SessionKey(sess.ID), data, s.ttl)
}

var _ Store = (*CacheStore)(nil)
