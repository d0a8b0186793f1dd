package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/statusdeck/statusdeck/internal/models"
	"github.com/statusdeck/statusdeck/internal/store"
)

func TestServiceStore(t *testing.T) {
	ctx := context.Background()

	t.Run("create assigns id and timestamps", func(t *testing.T) {
		dir := NewDirectory().Stores()

		svc := &models.Service{Name: "API", Status: models.StatusOperational}
		require.NoError(t, dir.Services.Create(ctx, "org-1", svc))
		require.NotEmpty(t, svc.ID)
		require.False(t, svc.CreatedAt.IsZero())

		got, err := dir.Services.Get(ctx, "org-1", svc.ID)
		require.NoError(t, err)
		require.Equal(t, "API", got.Name)
	})

	t.Run("services are organization scoped", func(t *testing.T) {
		dir := NewDirectory().Stores()

		svc := &models.Service{Name: "API", Status: models.StatusOperational}
		require.NoError(t, dir.Services.Create(ctx, "org-1", svc))

		_, err := dir.Services.Get(ctx, "org-2", svc.ID)
		require.ErrorIs(t, err, store.ErrServiceNotFound)

		other, err := dir.Services.List(ctx, "org-2")
		require.NoError(t, err)
		require.Empty(t, other)
	})

	t.Run("duplicate names allowed", func(t *testing.T) {
		dir := NewDirectory().Stores()

		require.NoError(t, dir.Services.Create(ctx, "org-1", &models.Service{Name: "API", Status: models.StatusOperational}))
		require.NoError(t, dir.Services.Create(ctx, "org-1", &models.Service{Name: "API", Status: models.StatusMajor}))

		services, err := dir.Services.List(ctx, "org-1")
		require.NoError(t, err)
		require.Len(t, services, 2)
	})

	t.Run("update overwrites name and status", func(t *testing.T) {
		dir := NewDirectory().Stores()

		svc := &models.Service{Name: "API", Status: models.StatusOperational}
		require.NoError(t, dir.Services.Create(ctx, "org-1", svc))

		err := dir.Services.Update(ctx, "org-1", &models.Service{
			ID:     svc.ID,
			Name:   "Public API",
			Status: models.StatusMajor,
		})
		require.NoError(t, err)

		got, err := dir.Services.Get(ctx, "org-1", svc.ID)
		require.NoError(t, err)
		require.Equal(t, "Public API", got.Name)
		require.Equal(t, models.StatusMajor, got.Status)
		require.True(t, got.UpdatedAt.After(got.CreatedAt) || got.UpdatedAt.Equal(got.CreatedAt))
	})

	t.Run("update and delete of missing service fail", func(t *testing.T) {
		dir := NewDirectory().Stores()

		err := dir.Services.Update(ctx, "org-1", &models.Service{ID: "missing", Name: "x", Status: models.StatusOperational})
		require.ErrorIs(t, err, store.ErrServiceNotFound)
		require.ErrorIs(t, dir.Services.Delete(ctx, "org-1", "missing"), store.ErrServiceNotFound)
	})

	t.Run("delete leaves incident snapshots intact", func(t *testing.T) {
		dir := NewDirectory().Stores()

		svc := &models.Service{Name: "API", Status: models.StatusMajor}
		require.NoError(t, dir.Services.Create(ctx, "org-1", svc))

		incident := &models.Incident{
			Title:            "API outage",
			Status:           models.IncidentInvestigating,
			Impact:           models.ImpactMajor,
			AffectedServices: []models.ServiceRef{{ID: svc.ID, Name: svc.Name}},
		}
		require.NoError(t, dir.Incidents.Create(ctx, "org-1", incident))

		require.NoError(t, dir.Services.Delete(ctx, "org-1", svc.ID))

		got, err := dir.Incidents.Get(ctx, "org-1", incident.ID)
		require.NoError(t, err)
		require.Equal(t, []models.ServiceRef{{ID: svc.ID, Name: "API"}}, got.AffectedServices)
	})

	t.Run("watch delivers collection snapshots", func(t *testing.T) {
		dir := NewDirectory().Stores()

		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		ch, err := dir.Services.Watch(watchCtx, "org-1")
		require.NoError(t, err)

		initial := <-ch
		require.Empty(t, initial)

		svc := &models.Service{Name: "API", Status: models.StatusOperational}
		require.NoError(t, dir.Services.Create(ctx, "org-1", svc))

		afterCreate := <-ch
		require.Len(t, afterCreate, 1)

		require.NoError(t, dir.Services.Delete(ctx, "org-1", svc.ID))

		afterDelete := <-ch
		require.Empty(t, afterDelete)
	})

	t.Run("slow watcher sees only the latest snapshot", func(t *testing.T) {
		dir := NewDirectory().Stores()

		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		ch, err := dir.Services.Watch(watchCtx, "org-1")
		require.NoError(t, err)

		// Never read while three writes land.
		for _, name := range []string{"a", "b", "c"} {
			require.NoError(t, dir.Services.Create(ctx, "org-1", &models.Service{Name: name, Status: models.StatusOperational}))
		}

		latest := <-ch
		require.Len(t, latest, 3)
	})
}
