package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/statusdeck/statusdeck/internal/models"
	"github.com/statusdeck/statusdeck/internal/store"
)

// Directory implements every store interface using in-memory storage. All
// aggregates share one lock so the multi-document account operations are
// atomic. This implementation is for testing and development - data is lost
// on restart.
type Directory struct {
	mu sync.RWMutex

	organizations map[string]*models.Organization      // org id -> Organization
	users         map[string]*models.UserProfile       // uid -> UserProfile
	usersByEmail  map[string]string                    // email -> uid
	services      map[string]map[string]*models.Service  // org id -> service id -> Service
	incidents     map[string]map[string]*models.Incident // org id -> incident id -> Incident

	// Active watchers, keyed by the watched document or collection.
	orgWatchers         map[string][]chan *models.Organization
	userWatchers        map[string][]chan *models.UserProfile
	serviceWatchers     map[string][]chan []*models.Service
	incidentWatchers    map[string][]chan []*models.Incident
	incidentDocWatchers map[string][]chan *models.Incident // org id + "/" + incident id
}

// NewDirectory creates a new in-memory directory store.
func NewDirectory() *Directory {
	return &Directory{
		organizations:       make(map[string]*models.Organization),
		users:               make(map[string]*models.UserProfile),
		usersByEmail:        make(map[string]string),
		services:            make(map[string]map[string]*models.Service),
		incidents:           make(map[string]map[string]*models.Incident),
		orgWatchers:         make(map[string][]chan *models.Organization),
		userWatchers:        make(map[string][]chan *models.UserProfile),
		serviceWatchers:     make(map[string][]chan []*models.Service),
		incidentWatchers:    make(map[string][]chan []*models.Incident),
		incidentDocWatchers: make(map[string][]chan *models.Incident),
	}
}

// Stores returns the directory bundled as the per-aggregate store interfaces.
func (d *Directory) Stores() store.Directory {
	return store.Directory{
		Organizations: &organizationStore{d},
		Users:         &userStore{d},
		Services:      &serviceStore{d},
		Incidents:     &incidentStore{d},
		Accounts:      &accountStore{d},
	}
}

// newID generates a new document id.
func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// now returns the current time truncated to microseconds, matching the
// precision the postgres store round-trips.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// sendLatest delivers a snapshot with latest-wins semantics: if the watcher
// has not consumed the previous snapshot it is replaced rather than queued,
// so a slow consumer always observes the newest state and never blocks a
// writer. Callers hold d.mu, which serializes sends per channel.
func sendLatest[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}

// watch registers a channel in the given registry, delivers the initial
// value, and removes and closes the channel once ctx is done.
func watch[T any](ctx context.Context, d *Directory, registry map[string][]chan T, key string, initial T) <-chan T {
	ch := make(chan T, 1)
	ch <- initial
	registry[key] = append(registry[key], ch)

	go func() {
		<-ctx.Done()
		d.mu.Lock()
		defer d.mu.Unlock()
		watchers := registry[key]
		for i, c := range watchers {
			if c == ch {
				registry[key] = append(watchers[:i], watchers[i+1:]...)
				break
			}
		}
		close(ch)
	}()

	return ch
}
