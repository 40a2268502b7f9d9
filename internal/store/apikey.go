package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/myhousemouse/Risk-api-server/pkg/models"
)

const (
	// APIKeyPrefix starts every raw key so leaked keys are recognisable.
	APIKeyPrefix = "rk_"
	// KeyPrefixLen is how many leading characters of a raw key are stored in clear.
	KeyPrefixLen = 8
)

// NewAPIKey mints a raw key and the record to store for it. The raw key is
// only ever returned here; the record holds its bcrypt hash.
func NewAPIKey(name string, scopes []string) (string, *models.APIKey, error) {
	raw := APIKeyPrefix + strings.ReplaceAll(uuid.NewString(), "-", "") + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]

	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, fmt.Errorf("hash api key: %w", err)
	}
	if scopes == nil {
		scopes = []string{}
	}

	now := time.Now().UTC()
	return raw, &models.APIKey{
		ID:        uuid.New(),
		Name:      name,
		KeyHash:   string(hash),
		KeyPrefix: raw[:KeyPrefixLen],
		Scopes:    scopes,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
