package postgres

import (
	"context"
	"fmt"

	"github.com/statusdeck/statusdeck/internal/models"
	"github.com/statusdeck/statusdeck/internal/store"
)

type accountStore struct {
	d *Directory
}

var _ store.AccountStore = (*accountStore)(nil)

// CreateAccount creates the organization and the owner's profile in one
// transaction, so a failed profile write never leaves an orphaned tenant.
func (s *accountStore) CreateAccount(ctx context.Context, org *models.Organization, profile *models.UserProfile) error {
	if org.ID == "" {
		org.ID = newID()
	}
	ts := now()
	if org.CreatedAt.IsZero() {
		org.CreatedAt = ts
	}
	if org.UpdatedAt.IsZero() {
		org.UpdatedAt = ts
	}
	profile.OrganizationID = org.ID

	tx, err := s.d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", mapPostgresError(err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback is safe to call after commit

	_, err = tx.Exec(ctx, `
		INSERT INTO organizations (org_id, name, owner_id, members, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, org.ID, org.Name, org.OwnerID, org.Members, org.CreatedAt, org.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrOrganizationAlreadyExists
		}
		return fmt.Errorf("failed to create organization: %w", mapPostgresError(err))
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO users (uid, email, display_name, org_id)
		VALUES ($1, $2, $3, $4)
	`, profile.UID, profile.Email, profile.DisplayName, profile.OrganizationID)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", mapPostgresError(err))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit account: %w", mapPostgresError(err))
	}

	s.d.notify.notify(topicOrganization(org.ID))
	s.d.notify.notify(topicUser(profile.UID))
	return nil
}

// TransferUser moves the user into the organization: membership add and
// profile reassignment commit together or not at all.
func (s *accountStore) TransferUser(ctx context.Context, orgID string, uid string) error {
	tx, err := s.d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", mapPostgresError(err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback is safe to call after commit

	tag, err := tx.Exec(ctx, `
		UPDATE organizations
		SET members = array_append(members, $2), updated_at = $3
		WHERE org_id = $1 AND NOT $2 = ANY(members)
	`, orgID, uid, now())
	if err != nil {
		return fmt.Errorf("failed to add member: %w", mapPostgresError(err))
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM organizations WHERE org_id = $1)`, orgID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check organization: %w", mapPostgresError(err))
		}
		if !exists {
			return store.ErrOrganizationNotFound
		}
		return store.ErrAlreadyMember
	}

	tag, err = tx.Exec(ctx, `
		UPDATE users
		SET org_id = $2
		WHERE uid = $1
	`, uid, orgID)
	if err != nil {
		return fmt.Errorf("failed to reassign user: %w", mapPostgresError(err))
	}
	if tag.RowsAffected() == 0 {
		return store.ErrUserNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transfer: %w", mapPostgresError(err))
	}

	s.d.notify.notify(topicOrganization(orgID))
	s.d.notify.notify(topicUser(uid))
	return nil
}
