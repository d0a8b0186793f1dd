package models

import "time"

// IncidentStatus represents the lifecycle stage of an incident.
type IncidentStatus string

const (
	IncidentInvestigating IncidentStatus = "Investigating"
	IncidentIdentified    IncidentStatus = "Identified"
	IncidentMonitoring    IncidentStatus = "Monitoring"
	IncidentResolved      IncidentStatus = "Resolved"
)

// Valid returns true if the status is one of the known incident statuses.
func (s IncidentStatus) Valid() bool {
	switch s {
	case IncidentInvestigating, IncidentIdentified, IncidentMonitoring, IncidentResolved:
		return true
	}
	return false
}

// IncidentImpact represents the severity of an incident.
type IncidentImpact string

const (
	ImpactCritical IncidentImpact = "Critical"
	ImpactMajor    IncidentImpact = "Major"
	ImpactMinor    IncidentImpact = "Minor"
	ImpactNone     IncidentImpact = "None"
)

// Valid returns true if the impact is one of the known impact levels.
func (i IncidentImpact) Valid() bool {
	switch i {
	case ImpactCritical, ImpactMajor, ImpactMinor, ImpactNone:
		return true
	}
	return false
}

// ServiceRef is a point-in-time snapshot of a service's id and name, taken
// when an incident is created. A later rename or delete of the service does
// not rewrite incident history.
type ServiceRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// IncidentUpdate is a single entry in an incident's append-only update log.
// Updates are immutable once appended; storage order is append order, and
// presentation order is newest-first.
type IncidentUpdate struct {
	ID        string         `json:"id"`
	Message   string         `json:"message"`
	Status    IncidentStatus `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
}

// Incident is a reported disruption owned by exactly one organization.
// ResolvedAt is non-nil if and only if the current status is Resolved.
type Incident struct {
	ID               string           `json:"id"`
	Title            string           `json:"title"`
	Status           IncidentStatus   `json:"status"`
	Impact           IncidentImpact   `json:"impact"`
	AffectedServices []ServiceRef     `json:"affected_services"`
	Updates          []IncidentUpdate `json:"updates"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	ResolvedAt       *time.Time       `json:"resolved_at,omitempty"`
}

// Resolved returns true if the incident's current status is Resolved.
func (i *Incident) Resolved() bool {
	return i.Status == IncidentResolved
}
