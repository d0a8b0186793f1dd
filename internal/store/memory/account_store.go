package memory

import (
	"context"

	"github.com/statusdeck/statusdeck/internal/models"
	"github.com/statusdeck/statusdeck/internal/store"
)

// accountStore exposes the shared directory state as a store.AccountStore.
// Both operations run under the directory lock, so they are atomic: a
// failure on the second document leaves nothing behind from the first.
type accountStore struct {
	d *Directory
}

// CreateAccount creates an organization and the owner's profile together.
func (s *accountStore) CreateAccount(ctx context.Context, org *models.Organization, profile *models.UserProfile) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	if _, exists := s.d.users[profile.UID]; exists {
		return store.ErrUserAlreadyExists
	}

	if err := s.d.createOrganizationLocked(org); err != nil {
		return err
	}

	profile.OrganizationID = org.ID
	if err := s.d.createUserLocked(profile); err != nil {
		// Compensate so no orphaned organization survives.
		delete(s.d.organizations, org.ID)
		return err
	}

	return nil
}

// TransferUser atomically adds the user to the member set and moves the
// user's profile to the organization.
func (s *accountStore) TransferUser(ctx context.Context, orgID string, uid string) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	if _, exists := s.d.users[uid]; !exists {
		return store.ErrUserNotFound
	}

	if err := s.d.addMemberLocked(orgID, uid); err != nil {
		return err
	}

	return s.d.setUserOrganizationLocked(uid, orgID)
}
