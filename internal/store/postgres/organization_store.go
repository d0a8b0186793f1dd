package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/statusdeck/statusdeck/internal/models"
	"github.com/statusdeck/statusdeck/internal/store"
)

type organizationStore struct {
	d *Directory
}

var _ store.OrganizationStore = (*organizationStore)(nil)

func (s *organizationStore) Create(ctx context.Context, org *models.Organization) error {
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

	_, err := s.d.pool.Exec(ctx, `
		INSERT INTO organizations (org_id, name, owner_id, members, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, org.ID, org.Name, org.OwnerID, org.Members, org.CreatedAt, org.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrOrganizationAlreadyExists
		}
		return fmt.Errorf("failed to create organization: %w", mapPostgresError(err))
	}

	s.d.notify.notify(topicOrganization(org.ID))
	return nil
}

func (s *organizationStore) Get(ctx context.Context, orgID string) (*models.Organization, error) {
	return getOrganization(ctx, s.d, orgID)
}

func getOrganization(ctx context.Context, d *Directory, orgID string) (*models.Organization, error) {
	var org models.Organization
	err := d.pool.QueryRow(ctx, `
		SELECT org_id, name, owner_id, members, created_at, updated_at
		FROM organizations
		WHERE org_id = $1
	`, orgID).Scan(&org.ID, &org.Name, &org.OwnerID, &org.Members, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to get organization: %w", mapPostgresError(err))
	}

	return &org, nil
}

func (s *organizationStore) AddMember(ctx context.Context, orgID string, uid string) error {
	// The guard in the WHERE clause makes the membership add idempotent
	// and race-free without a separate read.
	tag, err := s.d.pool.Exec(ctx, `
		UPDATE organizations
		SET members = array_append(members, $2), updated_at = $3
		WHERE org_id = $1 AND NOT $2 = ANY(members)
	`, orgID, uid, now())
	if err != nil {
		return fmt.Errorf("failed to add member: %w", mapPostgresError(err))
	}

	if tag.RowsAffected() == 0 {
		// Either the org is missing or the user is already a member.
		if _, err := s.Get(ctx, orgID); err != nil {
			return err
		}
		return store.ErrAlreadyMember
	}

	s.d.notify.notify(topicOrganization(orgID))
	return nil
}

func (s *organizationStore) Watch(ctx context.Context, orgID string) (<-chan *models.Organization, error) {
	return watchTopic(ctx, s.d.notify, topicOrganization(orgID), func(ctx context.Context) (*models.Organization, error) {
		return s.Get(ctx, orgID)
	})
}
