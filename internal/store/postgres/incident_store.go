package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/statusdeck/statusdeck/internal/models"
	"github.com/statusdeck/statusdeck/internal/store"
)

type incidentStore struct {
	d *Directory
}

var _ store.IncidentStore = (*incidentStore)(nil)

func (s *incidentStore) Create(ctx context.Context, orgID string, incident *models.Incident) error {
	if incident.ID == "" {
		incident.ID = newID()
	}
	ts := now()
	if incident.CreatedAt.IsZero() {
		incident.CreatedAt = ts
	}
	if incident.UpdatedAt.IsZero() {
		incident.UpdatedAt = ts
	}

	affected, err := json.Marshal(incident.AffectedServices)
	if err != nil {
		return fmt.Errorf("failed to encode affected services: %w", err)
	}
	updates, err := json.Marshal(incident.Updates)
	if err != nil {
		return fmt.Errorf("failed to encode updates: %w", err)
	}

	_, err = s.d.pool.Exec(ctx, `
		INSERT INTO incidents (incident_id, org_id, title, status, impact, affected_services, updates, created_at, updated_at, resolved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, incident.ID, orgID, incident.Title, incident.Status, incident.Impact,
		affected, updates, incident.CreatedAt, incident.UpdatedAt, incident.ResolvedAt)
	if err != nil {
		return fmt.Errorf("failed to create incident: %w", mapPostgresError(err))
	}

	s.d.notify.notify(topicIncidents(orgID))
	s.d.notify.notify(topicIncident(orgID, incident.ID))
	return nil
}

func (s *incidentStore) Get(ctx context.Context, orgID string, incidentID string) (*models.Incident, error) {
	row := s.d.pool.QueryRow(ctx, `
		SELECT incident_id, title, status, impact, affected_services, updates, created_at, updated_at, resolved_at
		FROM incidents
		WHERE org_id = $1 AND incident_id = $2
	`, orgID, incidentID)

	incident, err := scanIncident(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrIncidentNotFound
		}
		return nil, fmt.Errorf("failed to get incident: %w", mapPostgresError(err))
	}

	return incident, nil
}

func (s *incidentStore) List(ctx context.Context, orgID string) ([]*models.Incident, error) {
	rows, err := s.d.pool.Query(ctx, `
		SELECT incident_id, title, status, impact, affected_services, updates, created_at, updated_at, resolved_at
		FROM incidents
		WHERE org_id = $1
	`, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list incidents: %w", mapPostgresError(err))
	}
	defer rows.Close()

	var incidents []*models.Incident
	for rows.Next() {
		incident, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan incident: %w", err)
		}
		incidents = append(incidents, incident)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read incidents: %w", mapPostgresError(err))
	}

	return incidents, nil
}

func (s *incidentStore) AppendUpdate(ctx context.Context, orgID string, incidentID string, update models.IncidentUpdate) error {
	entry, err := json.Marshal([]models.IncidentUpdate{update})
	if err != nil {
		return fmt.Errorf("failed to encode update: %w", err)
	}

	var resolvedAt *time.Time
	if update.Status == models.IncidentResolved {
		at := update.CreatedAt
		resolvedAt = &at
	}

	// A single UPDATE keeps the append atomic: the array-add happens on
	// the server, so concurrent appends interleave instead of overwriting.
	tag, err := s.d.pool.Exec(ctx, `
		UPDATE incidents
		SET updates = updates || $3::jsonb,
		    status = $4,
		    updated_at = $5,
		    resolved_at = $6
		WHERE org_id = $1 AND incident_id = $2
	`, orgID, incidentID, entry, update.Status, update.CreatedAt, resolvedAt)
	if err != nil {
		return fmt.Errorf("failed to append incident update: %w", mapPostgresError(err))
	}
	if tag.RowsAffected() == 0 {
		return store.ErrIncidentNotFound
	}

	s.d.notify.notify(topicIncidents(orgID))
	s.d.notify.notify(topicIncident(orgID, incidentID))
	return nil
}

func (s *incidentStore) Watch(ctx context.Context, orgID string) (<-chan []*models.Incident, error) {
	return watchTopic(ctx, s.d.notify, topicIncidents(orgID), func(ctx context.Context) ([]*models.Incident, error) {
		return s.List(ctx, orgID)
	})
}

func (s *incidentStore) WatchIncident(ctx context.Context, orgID string, incidentID string) (<-chan *models.Incident, error) {
	return watchTopic(ctx, s.d.notify, topicIncident(orgID, incidentID), func(ctx context.Context) (*models.Incident, error) {
		return s.Get(ctx, orgID, incidentID)
	})
}

func scanIncident(row pgx.Row) (*models.Incident, error) {
	var (
		incident models.Incident
		affected []byte
		updates  []byte
	)

	err := row.Scan(&incident.ID, &incident.Title, &incident.Status, &incident.Impact,
		&affected, &updates, &incident.CreatedAt, &incident.UpdatedAt, &incident.ResolvedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(affected, &incident.AffectedServices); err != nil {
		return nil, fmt.Errorf("failed to decode affected services: %w", err)
	}
	if err := json.Unmarshal(updates, &incident.Updates); err != nil {
		return nil, fmt.Errorf("failed to decode updates: %w", err)
	}

	return &incident, nil
}
