package memory

import (
	"context"
	"slices"

	"github.com/statusdeck/statusdeck/internal/models"
	"github.com/statusdeck/statusdeck/internal/store"
)

// incidentStore exposes the shared directory state as a store.IncidentStore.
type incidentStore struct {
	d *Directory
}

// Create creates a new incident in memory.
func (s *incidentStore) Create(ctx context.Context, orgID string, incident *models.Incident) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

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

	incidents := s.d.incidents[orgID]
	if incidents == nil {
		incidents = make(map[string]*models.Incident)
		s.d.incidents[orgID] = incidents
	}

	incidents[incident.ID] = cloneIncident(incident)
	s.d.notifyIncidentsLocked(orgID, incident.ID)

	return nil
}

// Get retrieves an incident by ID.
func (s *incidentStore) Get(ctx context.Context, orgID string, incidentID string) (*models.Incident, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()

	incident, exists := s.d.incidents[orgID][incidentID]
	if !exists {
		return nil, store.ErrIncidentNotFound
	}

	return cloneIncident(incident), nil
}

// List returns all incidents for the organization, unordered.
func (s *incidentStore) List(ctx context.Context, orgID string) ([]*models.Incident, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()

	return s.d.incidentSnapshotLocked(orgID), nil
}

// AppendUpdate atomically appends an update and applies the derived
// top-level transition. The whole operation happens under one lock, so
// concurrent appends interleave without loss.
func (s *incidentStore) AppendUpdate(ctx context.Context, orgID string, incidentID string, update models.IncidentUpdate) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	incident, exists := s.d.incidents[orgID][incidentID]
	if !exists {
		return store.ErrIncidentNotFound
	}

	ts := now()
	if update.CreatedAt.IsZero() {
		update.CreatedAt = ts
	}

	incident.Updates = append(incident.Updates, update)
	incident.Status = update.Status
	incident.UpdatedAt = ts
	if update.Status == models.IncidentResolved {
		resolved := ts
		incident.ResolvedAt = &resolved
	} else {
		incident.ResolvedAt = nil
	}

	s.d.notifyIncidentsLocked(orgID, incidentID)

	return nil
}

// Watch returns a channel delivering the full incident collection on
// subscribe and after every change.
func (s *incidentStore) Watch(ctx context.Context, orgID string) (<-chan []*models.Incident, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	return watch(ctx, s.d, s.d.incidentWatchers, orgID, s.d.incidentSnapshotLocked(orgID)), nil
}

// WatchIncident returns a channel delivering a single incident document on
// subscribe and after every change.
func (s *incidentStore) WatchIncident(ctx context.Context, orgID string, incidentID string) (<-chan *models.Incident, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	incident, exists := s.d.incidents[orgID][incidentID]
	if !exists {
		return nil, store.ErrIncidentNotFound
	}

	key := orgID + "/" + incidentID
	return watch(ctx, s.d, s.d.incidentDocWatchers, key, cloneIncident(incident)), nil
}

// incidentSnapshotLocked builds a cloned full-collection snapshot.
func (d *Directory) incidentSnapshotLocked(orgID string) []*models.Incident {
	incidents := make([]*models.Incident, 0, len(d.incidents[orgID]))
	for _, incident := range d.incidents[orgID] {
		incidents = append(incidents, cloneIncident(incident))
	}
	return incidents
}

func (d *Directory) notifyIncidentsLocked(orgID string, incidentID string) {
	for _, ch := range d.incidentWatchers[orgID] {
		sendLatest(ch, d.incidentSnapshotLocked(orgID))
	}

	incident, exists := d.incidents[orgID][incidentID]
	if !exists {
		return
	}
	key := orgID + "/" + incidentID
	for _, ch := range d.incidentDocWatchers[key] {
		sendLatest(ch, cloneIncident(incident))
	}
}

func cloneIncident(incident *models.Incident) *models.Incident {
	clone := *incident
	clone.AffectedServices = slices.Clone(incident.AffectedServices)
	clone.Updates = slices.Clone(incident.Updates)
	if incident.ResolvedAt != nil {
		resolved := *incident.ResolvedAt
		clone.ResolvedAt = &resolved
	}
	return &clone
}
