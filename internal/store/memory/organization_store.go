package memory

import (
	"context"
	"slices"

	"github.com/statusdeck/statusdeck/internal/models"
	"github.com/statusdeck/statusdeck/internal/store"
)

// organizationStore exposes the shared directory state as a
// store.OrganizationStore.
type organizationStore struct {
	d *Directory
}

// Create creates a new organization in memory.
func (s *organizationStore) Create(ctx context.Context, org *models.Organization) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	return s.d.createOrganizationLocked(org)
}

// Get retrieves an organization by ID.
func (s *organizationStore) Get(ctx context.Context, orgID string) (*models.Organization, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()

	org, exists := s.d.organizations[orgID]
	if !exists {
		return nil, store.ErrOrganizationNotFound
	}

	return cloneOrganization(org), nil
}

// AddMember atomically adds a user id to the organization's member set.
func (s *organizationStore) AddMember(ctx context.Context, orgID string, uid string) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	return s.d.addMemberLocked(orgID, uid)
}

// Watch returns a channel delivering the organization document on subscribe
// and after every change.
func (s *organizationStore) Watch(ctx context.Context, orgID string) (<-chan *models.Organization, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	org, exists := s.d.organizations[orgID]
	if !exists {
		return nil, store.ErrOrganizationNotFound
	}

	return watch(ctx, s.d, s.d.orgWatchers, orgID, cloneOrganization(org)), nil
}

func (d *Directory) createOrganizationLocked(org *models.Organization) error {
	if org.ID == "" {
		org.ID = newID()
	}
	if _, exists := d.organizations[org.ID]; exists {
		return store.ErrOrganizationAlreadyExists
	}

	ts := now()
	if org.CreatedAt.IsZero() {
		org.CreatedAt = ts
	}
	if org.UpdatedAt.IsZero() {
		org.UpdatedAt = ts
	}

	d.organizations[org.ID] = cloneOrganization(org)
	d.notifyOrganizationLocked(org.ID)

	return nil
}

func (d *Directory) addMemberLocked(orgID string, uid string) error {
	org, exists := d.organizations[orgID]
	if !exists {
		return store.ErrOrganizationNotFound
	}
	if slices.Contains(org.Members, uid) {
		return store.ErrAlreadyMember
	}

	org.Members = append(org.Members, uid)
	org.UpdatedAt = now()
	d.notifyOrganizationLocked(orgID)

	return nil
}

// notifyOrganizationLocked fans the current document out to all watchers.
func (d *Directory) notifyOrganizationLocked(orgID string) {
	org, exists := d.organizations[orgID]
	if !exists {
		return
	}
	for _, ch := range d.orgWatchers[orgID] {
		sendLatest(ch, cloneOrganization(org))
	}
}

func cloneOrganization(org *models.Organization) *models.Organization {
	clone := *org
	clone.Members = slices.Clone(org.Members)
	return &clone
}
