package models

import "time"

// ServiceStatus represents the current health of a monitored service.
type ServiceStatus string

const (
	StatusOperational ServiceStatus = "Operational"
	StatusDegraded    ServiceStatus = "Degraded Performance"
	StatusPartial     ServiceStatus = "Partial Outage"
	StatusMajor       ServiceStatus = "Major Outage"
)

// Valid returns true if the status is one of the known service statuses.
func (s ServiceStatus) Valid() bool {
	switch s {
	case StatusOperational, StatusDegraded, StatusPartial, StatusMajor:
		return true
	}
	return false
}

// Service is a monitored component owned by exactly one organization.
type Service struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Status    ServiceStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
