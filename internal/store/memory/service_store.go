package memory

import (
	"context"

	"github.com/statusdeck/statusdeck/internal/models"
	"github.com/statusdeck/statusdeck/internal/store"
)

// serviceStore exposes the shared directory state as a store.ServiceStore.
type serviceStore struct {
	d *Directory
}

// Create creates a new service in memory.
func (s *serviceStore) Create(ctx context.Context, orgID string, svc *models.Service) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

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

	services := s.d.services[orgID]
	if services == nil {
		services = make(map[string]*models.Service)
		s.d.services[orgID] = services
	}

	clone := *svc
	services[svc.ID] = &clone
	s.d.notifyServicesLocked(orgID)

	return nil
}

// Get retrieves a service by ID.
func (s *serviceStore) Get(ctx context.Context, orgID string, serviceID string) (*models.Service, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()

	svc, exists := s.d.services[orgID][serviceID]
	if !exists {
		return nil, store.ErrServiceNotFound
	}

	clone := *svc
	return &clone, nil
}

// List returns all services for the organization, unordered.
func (s *serviceStore) List(ctx context.Context, orgID string) ([]*models.Service, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()

	return s.d.serviceSnapshotLocked(orgID), nil
}

// Update overwrites the service's mutable fields. Last writer wins.
func (s *serviceStore) Update(ctx context.Context, orgID string, svc *models.Service) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	existing, exists := s.d.services[orgID][svc.ID]
	if !exists {
		return store.ErrServiceNotFound
	}

	existing.Name = svc.Name
	existing.Status = svc.Status
	existing.UpdatedAt = now()
	s.d.notifyServicesLocked(orgID)

	return nil
}

// Delete removes a service. Incident snapshots referencing it are untouched.
func (s *serviceStore) Delete(ctx context.Context, orgID string, serviceID string) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	if _, exists := s.d.services[orgID][serviceID]; !exists {
		return store.ErrServiceNotFound
	}

	delete(s.d.services[orgID], serviceID)
	s.d.notifyServicesLocked(orgID)

	return nil
}

// Watch returns a channel delivering the full service collection on
// subscribe and after every change.
func (s *serviceStore) Watch(ctx context.Context, orgID string) (<-chan []*models.Service, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	return watch(ctx, s.d, s.d.serviceWatchers, orgID, s.d.serviceSnapshotLocked(orgID)), nil
}

// serviceSnapshotLocked builds a cloned full-collection snapshot.
func (d *Directory) serviceSnapshotLocked(orgID string) []*models.Service {
	services := make([]*models.Service, 0, len(d.services[orgID]))
	for _, svc := range d.services[orgID] {
		clone := *svc
		services = append(services, &clone)
	}
	return services
}

func (d *Directory) notifyServicesLocked(orgID string) {
	for _, ch := range d.serviceWatchers[orgID] {
		sendLatest(ch, d.serviceSnapshotLocked(orgID))
	}
}
