package projection

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/statusdeck/statusdeck/internal/models"
	"github.com/statusdeck/statusdeck/internal/status"
	"github.com/statusdeck/statusdeck/internal/store"
)

// Incidents is the incident synchronizer. Alongside the full collection it
// maintains the two filtered views the public page consumes: active
// incidents (status != Resolved, ordered by status then createdAt
// descending) and resolved incidents (createdAt descending). An incident
// transitioning to Resolved moves between the two views on the next
// snapshot without any manual reconciliation.
type Incidents struct {
	store store.IncidentStore
	orgID string

	all      feed[[]*models.Incident]
	active   feed[[]*models.Incident]
	resolved feed[[]*models.Incident]

	mu   sync.Mutex
	err  error
	done chan struct{}
}

// NewIncidents creates an incident synchronizer for the organization.
func NewIncidents(st store.IncidentStore, orgID string) *Incidents {
	return &Incidents{
		store: st,
		orgID: orgID,
		done:  make(chan struct{}),
	}
}

// Start establishes the store subscription and begins projecting snapshots.
// The subscription is torn down when ctx is cancelled.
func (s *Incidents) Start(ctx context.Context) error {
	ch, err := s.store.Watch(ctx, s.orgID)
	if err != nil {
		return err
	}

	go s.run(ctx, ch)
	return nil
}

func (s *Incidents) run(ctx context.Context, ch <-chan []*models.Incident) {
	defer close(s.done)
	defer s.all.shutdown()
	defer s.active.shutdown()
	defer s.resolved.shutdown()

	for incidents := range ch {
		active, resolved := status.Partition(incidents)
		status.SortByCreatedDesc(incidents)

		s.all.publish(incidents)
		s.active.publish(active)
		s.resolved.publish(resolved)
	}

	if ctx.Err() == nil {
		log.Warn().Str("org_id", s.orgID).Msg("incident subscription lost")
		s.mu.Lock()
		s.err = ErrSubscriptionLost
		s.mu.Unlock()
	}
}

// Snapshot returns the full projection, ordered by createdAt descending.
func (s *Incidents) Snapshot() []*models.Incident {
	incidents, _ := s.all.get()
	return incidents
}

// Active returns the current active incidents.
func (s *Incidents) Active() []*models.Incident {
	incidents, _ := s.active.get()
	return incidents
}

// Resolved returns the current resolved incidents.
func (s *Incidents) Resolved() []*models.Incident {
	incidents, _ := s.resolved.get()
	return incidents
}

// Subscribe returns a channel of full snapshots, starting with the current
// one.
func (s *Incidents) Subscribe(ctx context.Context) <-chan []*models.Incident {
	return s.all.subscribe(ctx)
}

// SubscribeActive returns a channel of active-incident snapshots. It is an
// independent subscription from SubscribeResolved.
func (s *Incidents) SubscribeActive(ctx context.Context) <-chan []*models.Incident {
	return s.active.subscribe(ctx)
}

// SubscribeResolved returns a channel of resolved-incident snapshots.
func (s *Incidents) SubscribeResolved(ctx context.Context) <-chan []*models.Incident {
	return s.resolved.subscribe(ctx)
}

// Done is closed when the synchronizer has stopped.
func (s *Incidents) Done() <-chan struct{} {
	return s.done
}

// Err reports why the synchronizer stopped. It is nil while running and
// after an ordinary context cancellation.
func (s *Incidents) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
