package memory

import (
	"context"

	"github.com/statusdeck/statusdeck/internal/models"
	"github.com/statusdeck/statusdeck/internal/store"
)

// userStore exposes the shared directory state as a store.UserStore.
type userStore struct {
	d *Directory
}

// Create creates a new user profile in memory.
func (s *userStore) Create(ctx context.Context, profile *models.UserProfile) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	return s.d.createUserLocked(profile)
}

// Get retrieves a user profile by UID.
func (s *userStore) Get(ctx context.Context, uid string) (*models.UserProfile, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()

	profile, exists := s.d.users[uid]
	if !exists {
		return nil, store.ErrUserNotFound
	}

	clone := *profile
	return &clone, nil
}

// GetByEmail retrieves a user profile by email address.
func (s *userStore) GetByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()

	uid, exists := s.d.usersByEmail[email]
	if !exists {
		return nil, store.ErrUserNotFound
	}

	clone := *s.d.users[uid]
	return &clone, nil
}

// GetBatch retrieves the profiles for the given UIDs in a single lookup.
func (s *userStore) GetBatch(ctx context.Context, uids []string) ([]*models.UserProfile, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()

	profiles := make([]*models.UserProfile, 0, len(uids))
	for _, uid := range uids {
		if profile, exists := s.d.users[uid]; exists {
			clone := *profile
			profiles = append(profiles, &clone)
		}
	}

	return profiles, nil
}

// Watch returns a channel delivering the user profile on subscribe and after
// every change.
func (s *userStore) Watch(ctx context.Context, uid string) (<-chan *models.UserProfile, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	profile, exists := s.d.users[uid]
	if !exists {
		return nil, store.ErrUserNotFound
	}

	clone := *profile
	return watch(ctx, s.d, s.d.userWatchers, uid, &clone), nil
}

func (d *Directory) createUserLocked(profile *models.UserProfile) error {
	if _, exists := d.users[profile.UID]; exists {
		return store.ErrUserAlreadyExists
	}

	clone := *profile
	d.users[profile.UID] = &clone
	d.usersByEmail[profile.Email] = profile.UID
	d.notifyUserLocked(profile.UID)

	return nil
}

func (d *Directory) setUserOrganizationLocked(uid string, orgID string) error {
	profile, exists := d.users[uid]
	if !exists {
		return store.ErrUserNotFound
	}

	profile.OrganizationID = orgID
	d.notifyUserLocked(uid)

	return nil
}

func (d *Directory) notifyUserLocked(uid string) {
	profile, exists := d.users[uid]
	if !exists {
		return
	}
	for _, ch := range d.userWatchers[uid] {
		clone := *profile
		sendLatest(ch, &clone)
	}
}
