package models

// UserProfile represents a user known to the system. The UID matches the
// subject of the identity provider. Each user belongs to exactly one
// organization; an invite moves the user to the inviting organization.
type UserProfile struct {
	UID            string `json:"uid"`
	Email          string `json:"email"`
	DisplayName    string `json:"display_name"`
	OrganizationID string `json:"organization_id"`
}
