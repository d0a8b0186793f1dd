package manage

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/statusdeck/statusdeck/internal/models"
	"github.com/statusdeck/statusdeck/internal/store"
	"github.com/statusdeck/statusdeck/internal/telemetry"
)

// ServiceManager implements the service mutation operations for one
// organization's collection.
type ServiceManager struct {
	services store.ServiceStore
}

func NewServiceManager(services store.ServiceStore) *ServiceManager {
	return &ServiceManager{services: services}
}

// Create adds a new service. Timestamps are assigned by the store; names
// are not required to be unique.
func (m *ServiceManager) Create(ctx context.Context, orgID string, name string, svcStatus models.ServiceStatus) (*models.Service, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationf("service name is required")
	}
	if !svcStatus.Valid() {
		return nil, validationf("unknown service status %q", svcStatus)
	}

	svc := &models.Service{
		Name:   name,
		Status: svcStatus,
	}
	if err := m.services.Create(ctx, orgID, svc); err != nil {
		return nil, err
	}

	log.Info().Str("org_id", orgID).Str("service_id", svc.ID).Str("name", name).Msg("Created service")
	telemetry.GetMetrics().ServiceWritesTotal.Add(ctx, 1)

	return svc, nil
}

// Update overwrites the service's name and status and refreshes UpdatedAt.
// Last writer wins.
func (m *ServiceManager) Update(ctx context.Context, orgID string, serviceID string, name string, svcStatus models.ServiceStatus) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return validationf("service name is required")
	}
	if !svcStatus.Valid() {
		return validationf("unknown service status %q", svcStatus)
	}

	if err := m.services.Update(ctx, orgID, &models.Service{
		ID:     serviceID,
		Name:   name,
		Status: svcStatus,
	}); err != nil {
		return err
	}

	telemetry.GetMetrics().ServiceWritesTotal.Add(ctx, 1)
	return nil
}

// Delete removes a service. Incidents that reference it keep their name
// snapshots; nothing cascades.
func (m *ServiceManager) Delete(ctx context.Context, orgID string, serviceID string) error {
	if err := m.services.Delete(ctx, orgID, serviceID); err != nil {
		return err
	}

	log.Info().Str("org_id", orgID).Str("service_id", serviceID).Msg("Deleted service")
	telemetry.GetMetrics().ServiceWritesTotal.Add(ctx, 1)

	return nil
}
