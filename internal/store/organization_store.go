package store

import (
	"context"
	"errors"

	"github.com/statusdeck/statusdeck/internal/models"
)

// Sentinel errors for organization store operations
var (
	ErrOrganizationNotFound      = errors.New("organization not found")
	ErrOrganizationAlreadyExists = errors.New("organization already exists")
	ErrAlreadyMember             = errors.New("user is already a member")
)

// OrganizationStore defines the interface for organization storage operations.
// Organizations represent tenants; every service and incident belongs to
// exactly one organization.
type OrganizationStore interface {
	// Create creates a new organization in the store. An empty ID is
	// assigned by the store. Returns ErrOrganizationAlreadyExists if an
	// organization with the same ID already exists.
	Create(ctx context.Context, org *models.Organization) error

	// Get retrieves an organization by ID.
	// Returns ErrOrganizationNotFound if the organization doesn't exist.
	Get(ctx context.Context, orgID string) (*models.Organization, error)

	// AddMember atomically adds a user id to the organization's member set.
	// Returns ErrAlreadyMember if the user is already a member, without
	// mutating anything.
	AddMember(ctx context.Context, orgID string, uid string) error

	// Watch returns a channel that delivers the organization document on
	// subscribe and again after every change. The channel is closed when
	// ctx is cancelled or the subscription is lost.
	Watch(ctx context.Context, orgID string) (<-chan *models.Organization, error)
}
