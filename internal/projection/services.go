package projection

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/statusdeck/statusdeck/internal/models"
	"github.com/statusdeck/statusdeck/internal/status"
	"github.com/statusdeck/statusdeck/internal/store"
)

// Services is the service synchronizer: a continuously-updated ordered
// snapshot of one organization's services, newest-first.
type Services struct {
	store store.ServiceStore
	orgID string

	feed feed[[]*models.Service]

	mu   sync.Mutex
	err  error
	done chan struct{}
}

// NewServices creates a service synchronizer for the organization.
func NewServices(st store.ServiceStore, orgID string) *Services {
	return &Services{
		store: st,
		orgID: orgID,
		done:  make(chan struct{}),
	}
}

// Start establishes the store subscription and begins projecting snapshots.
// The subscription is torn down when ctx is cancelled.
func (s *Services) Start(ctx context.Context) error {
	ch, err := s.store.Watch(ctx, s.orgID)
	if err != nil {
		return err
	}

	go s.run(ctx, ch)
	return nil
}

func (s *Services) run(ctx context.Context, ch <-chan []*models.Service) {
	defer close(s.done)
	defer s.feed.shutdown()

	for services := range ch {
		status.SortServices(services)
		s.feed.publish(services)
	}

	if ctx.Err() == nil {
		log.Warn().Str("org_id", s.orgID).Msg("service subscription lost")
		s.mu.Lock()
		s.err = ErrSubscriptionLost
		s.mu.Unlock()
	}
}

// Snapshot returns the current projection, ordered by createdAt descending.
func (s *Services) Snapshot() []*models.Service {
	services, _ := s.feed.get()
	return services
}

// Subscribe returns a channel of full snapshots, starting with the current
// one. The channel is closed when ctx is cancelled or the synchronizer
// stops.
func (s *Services) Subscribe(ctx context.Context) <-chan []*models.Service {
	return s.feed.subscribe(ctx)
}

// Done is closed when the synchronizer has stopped, either because its
// context ended or because the subscription was lost.
func (s *Services) Done() <-chan struct{} {
	return s.done
}

// Err reports why the synchronizer stopped. It is nil while running and
// after an ordinary context cancellation.
func (s *Services) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
