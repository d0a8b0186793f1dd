// Package status contains the pure view-derivation functions computed over
// synchronized snapshots: overall system status, the active/resolved
// incident partition, and presentation ordering.
package status

import (
	"cmp"
	"slices"

	"github.com/statusdeck/statusdeck/internal/models"
)

// Overall status labels. The service statuses reuse their own names; the
// two extra labels cover the all-clear and empty cases.
const (
	AllOperational = "All Systems Operational"
	Unknown        = "Status Unknown"
)

// Overall computes the aggregate status banner for a set of services.
// Severity is first-match-wins: a single Major Outage dominates regardless
// of how many services are healthy.
func Overall(services []*models.Service) string {
	for _, severity := range []models.ServiceStatus{models.StatusMajor, models.StatusPartial, models.StatusDegraded} {
		for _, svc := range services {
			if svc.Status == severity {
				return string(severity)
			}
		}
	}
	if len(services) > 0 {
		return AllOperational
	}
	return Unknown
}

// Partition splits incidents into active (status != Resolved) and resolved
// sets. Active incidents are ordered by status then createdAt descending,
// resolved by createdAt descending, matching the synchronizer's filtered
// subscriptions.
func Partition(incidents []*models.Incident) (active, resolved []*models.Incident) {
	for _, incident := range incidents {
		if incident.Resolved() {
			resolved = append(resolved, incident)
		} else {
			active = append(active, incident)
		}
	}

	SortActive(active)
	SortByCreatedDesc(resolved)

	return active, resolved
}

// SortByCreatedDesc orders incidents newest-first.
func SortByCreatedDesc(incidents []*models.Incident) {
	slices.SortStableFunc(incidents, func(a, b *models.Incident) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

// SortActive orders active incidents by status, then newest-first.
func SortActive(incidents []*models.Incident) {
	slices.SortStableFunc(incidents, func(a, b *models.Incident) int {
		return cmp.Or(
			cmp.Compare(a.Status, b.Status),
			b.CreatedAt.Compare(a.CreatedAt),
		)
	})
}

// SortServices orders services newest-first, the dashboard and public page
// ordering.
func SortServices(services []*models.Service) {
	slices.SortStableFunc(services, func(a, b *models.Service) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

// Timeline returns an incident's updates ordered newest-first by creation
// time, independent of append order in storage. The input is not modified.
func Timeline(incident *models.Incident) []models.IncidentUpdate {
	updates := slices.Clone(incident.Updates)
	slices.SortStableFunc(updates, func(a, b models.IncidentUpdate) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return updates
}
