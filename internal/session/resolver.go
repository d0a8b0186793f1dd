// Package session maps an authenticated identity to its user profile and
// owning organization, creating both on first login as one atomic write.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/statusdeck/statusdeck/internal/login"
	"github.com/statusdeck/statusdeck/internal/models"
	"github.com/statusdeck/statusdeck/internal/store"
	"github.com/statusdeck/statusdeck/internal/telemetry"
)

// Resolver maps authenticated identities to sessions.
type Resolver struct {
	users    store.UserStore
	accounts store.AccountStore
}

func NewResolver(users store.UserStore, accounts store.AccountStore) *Resolver {
	return &Resolver{
		users:    users,
		accounts: accounts,
	}
}

// Resolve returns a live session for the identity. On first encounter it
// creates the user's organization and profile together; a failure leaves no
// partial state behind. The session follows the user document, so a tenant
// transfer lands without re-login; Close tears the subscription down.
//
// The stored profile is returned verbatim on subsequent logins; the
// identity's current email and name are not reconciled against it.
func (r *Resolver) Resolve(ctx context.Context, identity login.Identity) (*Session, error) {
	profile, err := r.users.Get(ctx, identity.Subject)
	if errors.Is(err, store.ErrUserNotFound) {
		profile, err = r.bootstrap(ctx, identity)
	}
	if err != nil {
		return nil, err
	}

	// The watch outlives the resolving request; its lifetime is the
	// session's own.
	watchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	ch, err := r.users.Watch(watchCtx, identity.Subject)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to watch user profile: %w", err)
	}

	s := &Session{
		profile: profile,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go s.follow(ch)

	return s, nil
}

// bootstrap creates the organization and profile for a first login.
func (r *Resolver) bootstrap(ctx context.Context, identity login.Identity) (*models.UserProfile, error) {
	org := &models.Organization{
		Name:    defaultOrgName(identity.DisplayName),
		OwnerID: identity.Subject,
		Members: []string{identity.Subject},
	}
	profile := &models.UserProfile{
		UID:         identity.Subject,
		Email:       identity.Email,
		DisplayName: identity.DisplayName,
	}

	err := r.accounts.CreateAccount(ctx, org, profile)
	if errors.Is(err, store.ErrUserAlreadyExists) {
		// Lost a first-login race; the winner's profile is authoritative.
		return r.users.Get(ctx, identity.Subject)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to bootstrap account: %w", err)
	}

	log.Info().
		Str("uid", identity.Subject).
		Str("org_id", org.ID).
		Msg("Created organization and profile for first login")
	telemetry.GetMetrics().AccountsCreatedTotal.Add(ctx, 1)

	return profile, nil
}

// defaultOrgName derives the initial organization name from the user's
// display name.
func defaultOrgName(displayName string) string {
	first, _, _ := strings.Cut(strings.TrimSpace(displayName), " ")
	if first == "" {
		return "My Status Page"
	}
	return first + "'s Status Page"
}

// Session is a resolved authenticated session. The profile it holds tracks
// the user document in the store for as long as the session is open.
type Session struct {
	mu      sync.RWMutex
	profile *models.UserProfile

	cancel    context.CancelFunc
	closeOnce sync.Once
	done      chan struct{}
}

func (s *Session) follow(ch <-chan *models.UserProfile) {
	defer close(s.done)

	for profile := range ch {
		s.mu.Lock()
		moved := s.profile.OrganizationID != profile.OrganizationID
		s.profile = profile
		s.mu.Unlock()

		if moved {
			log.Info().
				Str("uid", profile.UID).
				Str("org_id", profile.OrganizationID).
				Msg("Session moved to new organization")
		}
	}
}

// Profile returns the current user profile.
func (s *Session) Profile() *models.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clone := *s.profile
	return &clone
}

// OrganizationID returns the id of the organization the session currently
// belongs to.
func (s *Session) OrganizationID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.profile.OrganizationID
}

// Close cancels the profile subscription. It is safe to call more than
// once; the subscription is torn down exactly once.
func (s *Session) Close() {
	s.closeOnce.Do(s.cancel)
	<-s.done
}
