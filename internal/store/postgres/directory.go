package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/statusdeck/statusdeck/internal/store"
)

// Config holds the settings for a postgres-backed directory store.
type Config struct {
	Pool PoolConfig

	// AutoMigrate runs pending schema migrations on startup.
	AutoMigrate bool
}

// Directory is a postgres-backed implementation of the directory stores.
// Watch channels are driven by in-process notifications for writes made
// through this Directory, with a poll fallback for writes made by other
// processes sharing the database.
type Directory struct {
	pool   *pgxpool.Pool
	notify *notifier
}

// New connects to postgres and optionally runs migrations.
func New(ctx context.Context, cfg *Config) (*Directory, error) {
	pool, err := NewPool(ctx, &cfg.Pool)
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		if err := runMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
	}

	return &Directory{pool: pool, notify: newNotifier()}, nil
}

// Stores returns the per-aggregate store views backed by this directory.
func (d *Directory) Stores() store.Directory {
	return store.Directory{
		Organizations: &organizationStore{d: d},
		Users:         &userStore{d: d},
		Services:      &serviceStore{d: d},
		Incidents:     &incidentStore{d: d},
		Accounts:      &accountStore{d: d},
	}
}

// Close releases the underlying connection pool.
func (d *Directory) Close() {
	d.pool.Close()
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// Notification topics. Watchers subscribe by key so a write only wakes
// the watchers that care about it.
func topicOrganization(orgID string) string { return "org/" + orgID }
func topicUser(uid string) string           { return "user/" + uid }
func topicServices(orgID string) string     { return "services/" + orgID }
func topicIncidents(orgID string) string    { return "incidents/" + orgID }
func topicIncident(orgID, incidentID string) string {
	return "incident/" + orgID + "/" + incidentID
}
