package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/statusdeck/statusdeck/internal/models"
	"github.com/statusdeck/statusdeck/internal/store"
)

type serviceStore struct {
	d *Directory
}

var _ store.ServiceStore = (*serviceStore)(nil)

func (s *serviceStore) Create(ctx context.Context, orgID string, svc *models.Service) error {
	if svc.ID == "" {
		svc.ID = newID()
	}
	ts := now()
	if svc.CreatedAt.IsZero() {
		svc.CreatedAt = ts
	}
	if svc.UpdatedAt.IsZero() {
		svc.UpdatedAt = ts
	}

	_, err := s.d.pool.Exec(ctx, `
		INSERT INTO services (service_id, org_id, name, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, svc.ID, orgID, svc.Name, svc.Status, svc.CreatedAt, svc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", mapPostgresError(err))
	}

	s.d.notify.notify(topicServices(orgID))
	return nil
}

func (s *serviceStore) Get(ctx context.Context, orgID string, serviceID string) (*models.Service, error) {
	var svc models.Service
	err := s.d.pool.QueryRow(ctx, `
		SELECT service_id, name, status, created_at, updated_at
		FROM services
		WHERE org_id = $1 AND service_id = $2
	`, orgID, serviceID).Scan(&svc.ID, &svc.Name, &svc.Status, &svc.CreatedAt, &svc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrServiceNotFound
		}
		return nil, fmt.Errorf("failed to get service: %w", mapPostgresError(err))
	}

	return &svc, nil
}

func (s *serviceStore) List(ctx context.Context, orgID string) ([]*models.Service, error) {
	rows, err := s.d.pool.Query(ctx, `
		SELECT service_id, name, status, created_at, updated_at
		FROM services
		WHERE org_id = $1
	`, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", mapPostgresError(err))
	}
	defer rows.Close()

	var services []*models.Service
	for rows.Next() {
		var svc models.Service
		if err := rows.Scan(&svc.ID, &svc.Name, &svc.Status, &svc.CreatedAt, &svc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		services = append(services, &svc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read services: %w", mapPostgresError(err))
	}

	return services, nil
}

func (s *serviceStore) Update(ctx context.Context, orgID string, svc *models.Service) error {
	svc.UpdatedAt = now()

	tag, err := s.d.pool.Exec(ctx, `
		UPDATE services
		SET name = $3, status = $4, updated_at = $5
		WHERE org_id = $1 AND service_id = $2
	`, orgID, svc.ID, svc.Name, svc.Status, svc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update service: %w", mapPostgresError(err))
	}
	if tag.RowsAffected() == 0 {
		return store.ErrServiceNotFound
	}

	s.d.notify.notify(topicServices(orgID))
	return nil
}

func (s *serviceStore) Delete(ctx context.Context, orgID string, serviceID string) error {
	tag, err := s.d.pool.Exec(ctx, `
		DELETE FROM services
		WHERE org_id = $1 AND service_id = $2
	`, orgID, serviceID)
	if err != nil {
		return fmt.Errorf("failed to delete service: %w", mapPostgresError(err))
	}
	if tag.RowsAffected() == 0 {
		return store.ErrServiceNotFound
	}

	s.d.notify.notify(topicServices(orgID))
	return nil
}

func (s *serviceStore) Watch(ctx context.Context, orgID string) (<-chan []*models.Service, error) {
	return watchTopic(ctx, s.d.notify, topicServices(orgID), func(ctx context.Context) ([]*models.Service, error) {
		return s.List(ctx, orgID)
	})
}
