package models

import (
	"slices"
	"time"
)

// Organization represents a tenant in the system. Each organization owns a
// collection of services and incidents and has a set of member users.
type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"owner_id"`
	Members   []string  `json:"members"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasMember returns true if the given user id is a member of the organization.
func (o *Organization) HasMember(uid string) bool {
	return slices.Contains(o.Members, uid)
}
