package manage

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/statusdeck/statusdeck/internal/models"
	"github.com/statusdeck/statusdeck/internal/store"
	"github.com/statusdeck/statusdeck/internal/telemetry"
)

// IncidentManager implements the incident mutation operations for one
// organization's collection.
type IncidentManager struct {
	incidents store.IncidentStore
	services  store.ServiceStore
}

func NewIncidentManager(incidents store.IncidentStore, services store.ServiceStore) *IncidentManager {
	return &IncidentManager{
		incidents: incidents,
		services:  services,
	}
}

// CreateIncidentParams holds the inputs for a new incident.
type CreateIncidentParams struct {
	Title              string
	Impact             models.IncidentImpact
	Status             models.IncidentStatus
	AffectedServiceIDs []string
	Message            string
}

// Create reports a new incident. Affected service ids are resolved to
// (id, name) snapshots at call time, and the update log is seeded with one
// entry built from the initial message and status. An incident created
// directly as Resolved gets ResolvedAt set, keeping the resolved-iff-status
// invariant from the first write.
func (m *IncidentManager) Create(ctx context.Context, orgID string, params CreateIncidentParams) (*models.Incident, error) {
	title := strings.TrimSpace(params.Title)
	message := strings.TrimSpace(params.Message)

	if title == "" {
		return nil, validationf("incident title is required")
	}
	if message == "" {
		return nil, validationf("update message is required")
	}
	if !params.Impact.Valid() {
		return nil, validationf("unknown incident impact %q", params.Impact)
	}
	if !params.Status.Valid() {
		return nil, validationf("unknown incident status %q", params.Status)
	}

	refs := make([]models.ServiceRef, 0, len(params.AffectedServiceIDs))
	for _, serviceID := range params.AffectedServiceIDs {
		svc, err := m.services.Get(ctx, orgID, serviceID)
		if err != nil {
			return nil, err
		}
		refs = append(refs, models.ServiceRef{ID: svc.ID, Name: svc.Name})
	}

	now := time.Now()
	incident := &models.Incident{
		Title:            title,
		Status:           params.Status,
		Impact:           params.Impact,
		AffectedServices: refs,
		Updates: []models.IncidentUpdate{{
			ID:        uuid.Must(uuid.NewV7()).String(),
			Message:   message,
			Status:    params.Status,
			CreatedAt: now,
		}},
	}
	if params.Status == models.IncidentResolved {
		incident.ResolvedAt = &now
	}

	if err := m.incidents.Create(ctx, orgID, incident); err != nil {
		return nil, err
	}

	log.Info().
		Str("org_id", orgID).
		Str("incident_id", incident.ID).
		Str("impact", string(params.Impact)).
		Msg("Created incident")
	telemetry.GetMetrics().IncidentsOpenedTotal.Add(ctx, 1)

	return incident, nil
}

// AppendUpdate posts a new entry to the incident's update log and moves the
// incident to the update's status. This is the only path that can resolve
// or reopen an incident. The append itself is atomic in the store, so
// concurrent posts are all preserved.
func (m *IncidentManager) AppendUpdate(ctx context.Context, orgID string, incidentID string, message string, incidentStatus models.IncidentStatus) (*models.IncidentUpdate, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, validationf("update message is required")
	}
	if !incidentStatus.Valid() {
		return nil, validationf("unknown incident status %q", incidentStatus)
	}

	update := models.IncidentUpdate{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Message:   message,
		Status:    incidentStatus,
		CreatedAt: time.Now(),
	}

	if err := m.incidents.AppendUpdate(ctx, orgID, incidentID, update); err != nil {
		return nil, err
	}

	log.Info().
		Str("org_id", orgID).
		Str("incident_id", incidentID).
		Str("status", string(incidentStatus)).
		Msg("Posted incident update")

	metrics := telemetry.GetMetrics()
	metrics.IncidentUpdatesTotal.Add(ctx, 1)
	if incidentStatus == models.IncidentResolved {
		metrics.IncidentsResolvedTotal.Add(ctx, 1)
	}

	return &update, nil
}
