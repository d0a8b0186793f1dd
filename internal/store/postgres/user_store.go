package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/statusdeck/statusdeck/internal/models"
	"github.com/statusdeck/statusdeck/internal/store"
)

type userStore struct {
	d *Directory
}

var _ store.UserStore = (*userStore)(nil)

func (s *userStore) Create(ctx context.Context, profile *models.UserProfile) error {
	_, err := s.d.pool.Exec(ctx, `
		INSERT INTO users (uid, email, display_name, org_id)
		VALUES ($1, $2, $3, $4)
	`, profile.UID, profile.Email, profile.DisplayName, profile.OrganizationID)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", mapPostgresError(err))
	}

	s.d.notify.notify(topicUser(profile.UID))
	return nil
}

func (s *userStore) Get(ctx context.Context, uid string) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := s.d.pool.QueryRow(ctx, `
		SELECT uid, email, display_name, org_id
		FROM users
		WHERE uid = $1
	`, uid).Scan(&profile.UID, &profile.Email, &profile.DisplayName, &profile.OrganizationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", mapPostgresError(err))
	}

	return &profile, nil
}

func (s *userStore) GetByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := s.d.pool.QueryRow(ctx, `
		SELECT uid, email, display_name, org_id
		FROM users
		WHERE email = $1
	`, email).Scan(&profile.UID, &profile.Email, &profile.DisplayName, &profile.OrganizationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", mapPostgresError(err))
	}

	return &profile, nil
}

func (s *userStore) GetBatch(ctx context.Context, uids []string) ([]*models.UserProfile, error) {
	rows, err := s.d.pool.Query(ctx, `
		SELECT uid, email, display_name, org_id
		FROM users
		WHERE uid = ANY($1)
	`, uids)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", mapPostgresError(err))
	}
	defer rows.Close()

	var profiles []*models.UserProfile
	for rows.Next() {
		var profile models.UserProfile
		if err := rows.Scan(&profile.UID, &profile.Email, &profile.DisplayName, &profile.OrganizationID); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		profiles = append(profiles, &profile)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read users: %w", mapPostgresError(err))
	}

	return profiles, nil
}

func (s *userStore) Watch(ctx context.Context, uid string) (<-chan *models.UserProfile, error) {
	return watchTopic(ctx, s.d.notify, topicUser(uid), func(ctx context.Context) (*models.UserProfile, error) {
		return s.Get(ctx, uid)
	})
}
