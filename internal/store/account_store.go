package store

import (
	"context"

	"github.com/statusdeck/statusdeck/internal/models"
)

// AccountStore defines the multi-document operations that must be atomic.
// A plain two-step write here leaves an orphaned organization or a member
// set that disagrees with the user's organization id when the second step
// fails, so both operations commit all-or-nothing.
type AccountStore interface {
	// CreateAccount creates an organization and the owner's user profile
	// as a single atomic operation. The profile's OrganizationID is set to
	// the new organization's ID before commit.
	CreateAccount(ctx context.Context, org *models.Organization, profile *models.UserProfile) error

	// TransferUser atomically adds the user to the organization's member
	// set and overwrites the user's OrganizationID. This is a forced
	// tenant transfer; there is no invitation to accept.
	// Returns ErrAlreadyMember if the user is already a member, without
	// mutating anything, and ErrUserNotFound or ErrOrganizationNotFound
	// when either side is absent.
	TransferUser(ctx context.Context, orgID string, uid string) error
}
