package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/statusdeck/statusdeck/internal/models"
	"github.com/statusdeck/statusdeck/internal/store"
)

func newIncident(title string, st models.IncidentStatus) *models.Incident {
	return &models.Incident{
		Title:  title,
		Status: st,
		Impact: models.ImpactMajor,
		Updates: []models.IncidentUpdate{{
			ID:      "u-initial",
			Message: "initial report",
			Status:  st,
		}},
	}
}

func TestIncidentStore(t *testing.T) {
	ctx := context.Background()

	t.Run("create assigns id and timestamps", func(t *testing.T) {
		dir := NewDirectory().Stores()

		incident := newIncident("API outage", models.IncidentInvestigating)
		require.NoError(t, dir.Incidents.Create(ctx, "org-1", incident))
		require.NotEmpty(t, incident.ID)
		require.False(t, incident.CreatedAt.IsZero())

		got, err := dir.Incidents.Get(ctx, "org-1", incident.ID)
		require.NoError(t, err)
		require.Equal(t, "API outage", got.Title)
		require.Len(t, got.Updates, 1)
		require.Nil(t, got.ResolvedAt)
	})

	t.Run("get missing returns not found", func(t *testing.T) {
		dir := NewDirectory().Stores()

		_, err := dir.Incidents.Get(ctx, "org-1", "missing")
		require.ErrorIs(t, err, store.ErrIncidentNotFound)
	})

	t.Run("append update moves status and log together", func(t *testing.T) {
		dir := NewDirectory().Stores()

		incident := newIncident("API outage", models.IncidentInvestigating)
		require.NoError(t, dir.Incidents.Create(ctx, "org-1", incident))

		err := dir.Incidents.AppendUpdate(ctx, "org-1", incident.ID, models.IncidentUpdate{
			ID:      "u-2",
			Message: "root cause identified",
			Status:  models.IncidentIdentified,
		})
		require.NoError(t, err)

		got, err := dir.Incidents.Get(ctx, "org-1", incident.ID)
		require.NoError(t, err)
		require.Equal(t, models.IncidentIdentified, got.Status)
		require.Len(t, got.Updates, 2)
		require.Nil(t, got.ResolvedAt)
	})

	t.Run("resolving sets resolved timestamp, reopening clears it", func(t *testing.T) {
		dir := NewDirectory().Stores()

		incident := newIncident("API outage", models.IncidentInvestigating)
		require.NoError(t, dir.Incidents.Create(ctx, "org-1", incident))

		require.NoError(t, dir.Incidents.AppendUpdate(ctx, "org-1", incident.ID, models.IncidentUpdate{
			ID: "u-2", Message: "fixed", Status: models.IncidentResolved,
		}))

		got, err := dir.Incidents.Get(ctx, "org-1", incident.ID)
		require.NoError(t, err)
		require.True(t, got.Resolved())
		require.NotNil(t, got.ResolvedAt)

		require.NoError(t, dir.Incidents.AppendUpdate(ctx, "org-1", incident.ID, models.IncidentUpdate{
			ID: "u-3", Message: "it came back", Status: models.IncidentMonitoring,
		}))

		got, err = dir.Incidents.Get(ctx, "org-1", incident.ID)
		require.NoError(t, err)
		require.False(t, got.Resolved())
		require.Nil(t, got.ResolvedAt)
		require.Len(t, got.Updates, 3)
	})

	t.Run("append to missing incident fails", func(t *testing.T) {
		dir := NewDirectory().Stores()

		err := dir.Incidents.AppendUpdate(ctx, "org-1", "missing", models.IncidentUpdate{
			ID: "u-1", Message: "hello", Status: models.IncidentMonitoring,
		})
		require.ErrorIs(t, err, store.ErrIncidentNotFound)
	})

	t.Run("concurrent appends all survive", func(t *testing.T) {
		dir := NewDirectory().Stores()

		incident := newIncident("API outage", models.IncidentInvestigating)
		require.NoError(t, dir.Incidents.Create(ctx, "org-1", incident))

		const writers = 20

		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				err := dir.Incidents.AppendUpdate(ctx, "org-1", incident.ID, models.IncidentUpdate{
					ID:      fmt.Sprintf("u-%d", i),
					Message: fmt.Sprintf("update %d", i),
					Status:  models.IncidentMonitoring,
				})
				require.NoError(t, err)
			}(i)
		}
		wg.Wait()

		got, err := dir.Incidents.Get(ctx, "org-1", incident.ID)
		require.NoError(t, err)
		require.Len(t, got.Updates, writers+1)
	})

	t.Run("watch collection delivers changes", func(t *testing.T) {
		dir := NewDirectory().Stores()

		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		ch, err := dir.Incidents.Watch(watchCtx, "org-1")
		require.NoError(t, err)

		initial := <-ch
		require.Empty(t, initial)

		incident := newIncident("API outage", models.IncidentInvestigating)
		require.NoError(t, dir.Incidents.Create(ctx, "org-1", incident))

		afterCreate := <-ch
		require.Len(t, afterCreate, 1)
	})

	t.Run("watch single incident follows its document", func(t *testing.T) {
		dir := NewDirectory().Stores()

		incident := newIncident("API outage", models.IncidentInvestigating)
		require.NoError(t, dir.Incidents.Create(ctx, "org-1", incident))

		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		ch, err := dir.Incidents.WatchIncident(watchCtx, "org-1", incident.ID)
		require.NoError(t, err)

		initial := <-ch
		require.Equal(t, models.IncidentInvestigating, initial.Status)

		require.NoError(t, dir.Incidents.AppendUpdate(ctx, "org-1", incident.ID, models.IncidentUpdate{
			ID: "u-2", Message: "fixed", Status: models.IncidentResolved,
		}))

		updated := <-ch
		require.Equal(t, models.IncidentResolved, updated.Status)
		require.NotNil(t, updated.ResolvedAt)
	})

	t.Run("watch missing incident fails", func(t *testing.T) {
		dir := NewDirectory().Stores()

		_, err := dir.Incidents.WatchIncident(ctx, "org-1", "missing")
		require.ErrorIs(t, err, store.ErrIncidentNotFound)
	})
}
