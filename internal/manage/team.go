package manage

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/statusdeck/statusdeck/internal/models"
	"github.com/statusdeck/statusdeck/internal/store"
	"github.com/statusdeck/statusdeck/internal/telemetry"
)

// TeamManager implements membership operations for an organization.
type TeamManager struct {
	organizations store.OrganizationStore
	users         store.UserStore
	accounts      store.AccountStore
}

func NewTeamManager(organizations store.OrganizationStore, users store.UserStore, accounts store.AccountStore) *TeamManager {
	return &TeamManager{
		organizations: organizations,
		users:         users,
		accounts:      accounts,
	}
}

// Invite adds the user with the given email to the organization. This is a
// forced tenant transfer: the invited user's profile is moved to the
// inviting organization unconditionally, with no handshake. Fails with
// store.ErrUserNotFound if no profile has that email and ErrValidation if
// the user is already a member; neither failure mutates anything.
func (m *TeamManager) Invite(ctx context.Context, orgID string, email string) (*models.UserProfile, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, validationf("email is required")
	}

	profile, err := m.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	err = m.accounts.TransferUser(ctx, orgID, profile.UID)
	if errors.Is(err, store.ErrAlreadyMember) {
		return nil, validationf("%s is already a member", email)
	}
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("org_id", orgID).
		Str("uid", profile.UID).
		Msg("Invited user into organization")
	telemetry.GetMetrics().InvitesTotal.Add(ctx, 1)

	profile.OrganizationID = orgID
	return profile, nil
}

// Roster returns the member profiles for the organization in one batched
// lookup.
func (m *TeamManager) Roster(ctx context.Context, orgID string) (*models.Organization, []*models.UserProfile, error) {
	org, err := m.organizations.Get(ctx, orgID)
	if err != nil {
		return nil, nil, err
	}

	members, err := m.users.GetBatch(ctx, org.Members)
	if err != nil {
		return nil, nil, err
	}

	return org, members, nil
}
