package store

import (
	"context"
	"errors"

	"github.com/statusdeck/statusdeck/internal/models"
)

// ErrServiceNotFound is returned when a service lookup misses.
var ErrServiceNotFound = errors.New("service not found")

// ServiceStore defines the interface for service storage operations. All
// operations are scoped to a single organization; no cross-organization
// read is possible through a correctly scoped call.
type ServiceStore interface {
	// Create creates a new service. An empty ID is assigned by the store,
	// and zero timestamps are set to the current time. Duplicate names are
	// permitted.
	Create(ctx context.Context, orgID string, svc *models.Service) error

	// Get retrieves a service by ID.
	// Returns ErrServiceNotFound if the service doesn't exist.
	Get(ctx context.Context, orgID string, serviceID string) (*models.Service, error)

	// List returns all services for the organization, unordered.
	List(ctx context.Context, orgID string) ([]*models.Service, error)

	// Update overwrites the service's mutable fields and refreshes
	// UpdatedAt. Last writer wins; there is no concurrency check.
	// Returns ErrServiceNotFound if the service doesn't exist.
	Update(ctx context.Context, orgID string, svc *models.Service) error

	// Delete removes a service. Incidents referencing the service keep
	// their name snapshots; nothing cascades.
	// Returns ErrServiceNotFound if the service doesn't exist.
	Delete(ctx context.Context, orgID string, serviceID string) error

	// Watch returns a channel that delivers the full service collection on
	// subscribe and again after every add, update, or delete by any client,
	// including this one. The channel is closed when ctx is cancelled or
	// the subscription is lost.
	Watch(ctx context.Context, orgID string) (<-chan []*models.Service, error)
}
