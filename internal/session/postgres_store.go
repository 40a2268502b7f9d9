package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/myhousemouse/Risk-api-server/pkg/models"
)

// PostgresStore keeps sessions in the sessions table as jsonb documents.
// Expired rows are invisible to Get and Put and are purged by PurgeExpired.
type PostgresStore struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

func NewPostgresStore(pool *pgxpool.Pool, ttl time.Duration) *PostgresStore {
	return &PostgresStore{pool: pool, ttl: ttl}
}

func (s *PostgresStore) Create(ctx context.Context) (string, error) {
	now := time.Now().UTC()
	sess := models.Session{
		ID:        uuid.NewString(),
		Stage:     models.StageCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return "", fmt.Errorf("encode session: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO sessions (id, stage, data, created_at, updated_at, expires_at)
		 VALUES ($1, $2, $3, $4, $4, $5)`,
		sess.ID, string(sess.Stage), data, now, now.Add(s.ttl))
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return sess.ID, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*models.Session, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM sessions WHERE id = $1 AND expires_at > NOW()`, id,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var sess models.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &sess, nil
}

func (s *PostgresStore) Put(ctx context.Context, sess *models.Session) error {
	now := time.Now().UTC()
	sess.UpdatedAt = now
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE sessions SET stage = $2, data = $3, updated_at = $4, expires_at = $5
		 WHERE id = $1 AND expires_at > NOW()`,
		sess.ID, string(sess.Stage), data, now, now.Add(s.ttl))
	if err != nil {
		return fmt.Errorf("put session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// PurgeExpired deletes expired sessions and returns how many were removed.
func (s *PostgresStore) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

var _ Store = (*PostgresStore)(nil)
