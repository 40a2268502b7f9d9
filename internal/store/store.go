package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/myhousemouse/Risk-api-server/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	ListAPIKeys(ctx context.Context) ([]*models.APIKey, error)
	RevokeAPIKey(ctx context.Context, id uuid.UUID) error

	SaveReport(ctx context.Context, sessionID string, report *models.Report) error
	GetReport(ctx context.Context, sessionID string) (*models.ArchivedReport, error)
	ListReports(ctx context.Context, filter ReportFilter) ([]*models.ArchivedReport, int, error)
}

// ReportFilter selects archived reports. Page is 1-based.
type ReportFilter struct {
	Since time.Time
	Page  int
	Limit int
}
