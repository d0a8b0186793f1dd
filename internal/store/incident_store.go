package store

import (
	"context"
	"errors"

	"github.com/statusdeck/statusdeck/internal/models"
)

// ErrIncidentNotFound is returned when an incident lookup misses.
var ErrIncidentNotFound = errors.New("incident not found")

// IncidentStore defines the interface for incident storage operations,
// scoped to a single organization.
type IncidentStore interface {
	// Create creates a new incident with its initial update already in
	// place. An empty ID is assigned by the store, and zero timestamps are
	// set to the current time.
	Create(ctx context.Context, orgID string, incident *models.Incident) error

	// Get retrieves an incident by ID.
	// Returns ErrIncidentNotFound if the incident doesn't exist.
	Get(ctx context.Context, orgID string, incidentID string) (*models.Incident, error)

	// List returns all incidents for the organization, unordered.
	List(ctx context.Context, orgID string) ([]*models.Incident, error)

	// AppendUpdate atomically appends an update to the incident's log and
	// applies the derived top-level transition: status becomes the
	// update's status, UpdatedAt is refreshed, and ResolvedAt is set if
	// the new status is Resolved or cleared otherwise. The append is an
	// atomic array-add at the store level, never read-modify-write, so
	// concurrent appends cannot overwrite each other.
	// Returns ErrIncidentNotFound if the incident doesn't exist.
	AppendUpdate(ctx context.Context, orgID string, incidentID string, update models.IncidentUpdate) error

	// Watch returns a channel that delivers the full incident collection on
	// subscribe and again after every change. The channel is closed when
	// ctx is cancelled or the subscription is lost.
	Watch(ctx context.Context, orgID string) (<-chan []*models.Incident, error)

	// WatchIncident returns a channel that delivers a single incident
	// document on subscribe and after every change. The channel is closed
	// when ctx is cancelled, the incident is deleted, or the subscription
	// is lost.
	WatchIncident(ctx context.Context, orgID string, incidentID string) (<-chan *models.Incident, error)
}
