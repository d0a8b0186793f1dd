package store

// Directory bundles the per-aggregate stores backed by a single directory
// store. All collections are organization-scoped except users, which are
// keyed by the identity provider's subject id.
type Directory struct {
	Organizations OrganizationStore
	Users         UserStore
	Services      ServiceStore
	Incidents     IncidentStore
	Accounts      AccountStore
}
