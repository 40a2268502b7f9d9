// Package session holds per-session workflow state keyed by an opaque identifier.
// It is pure data access: stage rules live in the workflow package.
package session

import (
	"context"
	"errors"

	"github.com/myhousemouse/Risk-api-server/pkg/models"
)

// ErrNotFound is returned when a session id is unknown or has expired.
var ErrNotFound = errors.New("session not found")

// Store is the session key-value contract. Writes are last-write-wins per key.
type Store interface {
	// Create allocates a new session in the CREATED stage and returns its id.
	Create(ctx context.Context) (string, error)
	// Get returns a copy of the stored session or ErrNotFound.
	Get(ctx context.Context, id string) (*models.Session, error)
	// Put replaces the stored session. It returns ErrNotFound if the session no longer exists.
	Put(ctx context.Context, s *models.Session) error
	Ping(ctx context.Context) error
}
