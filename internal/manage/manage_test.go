package manage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/statusdeck/statusdeck/internal/models"
	"github.com/statusdeck/statusdeck/internal/store"
	"github.com/statusdeck/statusdeck/internal/store/memory"
)

func TestServiceManager(t *testing.T) {
	ctx := context.Background()

	t.Run("create trims name and validates status", func(t *testing.T) {
		dir := memory.NewDirectory().Stores()
		mgr := NewServiceManager(dir.Services)

		svc, err := mgr.Create(ctx, "org-1", "  API  ", models.StatusOperational)
		require.NoError(t, err)
		require.Equal(t, "API", svc.Name)

		_, err = mgr.Create(ctx, "org-1", "   ", models.StatusOperational)
		require.ErrorIs(t, err, ErrValidation)

		_, err = mgr.Create(ctx, "org-1", "Web", models.ServiceStatus("On Fire"))
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("update rejects unknown status", func(t *testing.T) {
		dir := memory.NewDirectory().Stores()
		mgr := NewServiceManager(dir.Services)

		svc, err := mgr.Create(ctx, "org-1", "API", models.StatusOperational)
		require.NoError(t, err)

		require.ErrorIs(t, mgr.Update(ctx, "org-1", svc.ID, "API", models.ServiceStatus("bogus")), ErrValidation)
		require.NoError(t, mgr.Update(ctx, "org-1", svc.ID, "API", models.StatusDegraded))

		got, err := dir.Services.Get(ctx, "org-1", svc.ID)
		require.NoError(t, err)
		require.Equal(t, models.StatusDegraded, got.Status)
	})

	t.Run("delete of missing service surfaces not found", func(t *testing.T) {
		dir := memory.NewDirectory().Stores()
		mgr := NewServiceManager(dir.Services)

		require.ErrorIs(t, mgr.Delete(ctx, "org-1", "missing"), store.ErrServiceNotFound)
	})
}

func TestIncidentManager(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (store.Directory, *IncidentManager, *models.Service) {
		t.Helper()
		dir := memory.NewDirectory().Stores()

		svc := &models.Service{Name: "API", Status: models.StatusMajor}
		require.NoError(t, dir.Services.Create(ctx, "org-1", svc))

		return dir, NewIncidentManager(dir.Incidents, dir.Services), svc
	}

	t.Run("create snapshots affected services and seeds the log", func(t *testing.T) {
		_, mgr, svc := setup(t)

		incident, err := mgr.Create(ctx, "org-1", CreateIncidentParams{
			Title:              "API outage",
			Impact:             models.ImpactMajor,
			Status:             models.IncidentInvestigating,
			AffectedServiceIDs: []string{svc.ID},
			Message:            "We are investigating elevated error rates.",
		})
		require.NoError(t, err)
		require.Equal(t, []models.ServiceRef{{ID: svc.ID, Name: "API"}}, incident.AffectedServices)
		require.Len(t, incident.Updates, 1)
		require.Equal(t, models.IncidentInvestigating, incident.Updates[0].Status)
		require.NotEmpty(t, incident.Updates[0].ID)
		require.Nil(t, incident.ResolvedAt)
	})

	t.Run("create resolved incident sets resolved timestamp immediately", func(t *testing.T) {
		_, mgr, _ := setup(t)

		incident, err := mgr.Create(ctx, "org-1", CreateIncidentParams{
			Title:   "Postmortem entry",
			Impact:  models.ImpactMinor,
			Status:  models.IncidentResolved,
			Message: "Brief blip, already recovered.",
		})
		require.NoError(t, err)
		require.NotNil(t, incident.ResolvedAt)
	})

	t.Run("create validates inputs", func(t *testing.T) {
		_, mgr, _ := setup(t)

		_, err := mgr.Create(ctx, "org-1", CreateIncidentParams{
			Impact: models.ImpactMajor, Status: models.IncidentInvestigating, Message: "x",
		})
		require.ErrorIs(t, err, ErrValidation)

		_, err = mgr.Create(ctx, "org-1", CreateIncidentParams{
			Title: "t", Impact: models.ImpactMajor, Status: models.IncidentInvestigating,
		})
		require.ErrorIs(t, err, ErrValidation)

		_, err = mgr.Create(ctx, "org-1", CreateIncidentParams{
			Title: "t", Impact: models.IncidentImpact("Apocalyptic"), Status: models.IncidentInvestigating, Message: "x",
		})
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("create fails on unknown affected service", func(t *testing.T) {
		_, mgr, _ := setup(t)

		_, err := mgr.Create(ctx, "org-1", CreateIncidentParams{
			Title:              "API outage",
			Impact:             models.ImpactMajor,
			Status:             models.IncidentInvestigating,
			AffectedServiceIDs: []string{"ghost"},
			Message:            "x",
		})
		require.ErrorIs(t, err, store.ErrServiceNotFound)
	})

	t.Run("append update resolves and reopens", func(t *testing.T) {
		dir, mgr, _ := setup(t)

		incident, err := mgr.Create(ctx, "org-1", CreateIncidentParams{
			Title:   "API outage",
			Impact:  models.ImpactMajor,
			Status:  models.IncidentInvestigating,
			Message: "investigating",
		})
		require.NoError(t, err)

		_, err = mgr.AppendUpdate(ctx, "org-1", incident.ID, "fixed", models.IncidentResolved)
		require.NoError(t, err)

		got, err := dir.Incidents.Get(ctx, "org-1", incident.ID)
		require.NoError(t, err)
		require.NotNil(t, got.ResolvedAt)

		_, err = mgr.AppendUpdate(ctx, "org-1", incident.ID, "regression", models.IncidentInvestigating)
		require.NoError(t, err)

		got, err = dir.Incidents.Get(ctx, "org-1", incident.ID)
		require.NoError(t, err)
		require.Nil(t, got.ResolvedAt)
		require.Len(t, got.Updates, 3)
	})
}

func TestTeamManager(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (store.Directory, *TeamManager, *models.Organization) {
		t.Helper()
		dir := memory.NewDirectory().Stores()

		org := &models.Organization{Name: "Acme", OwnerID: "u1", Members: []string{"u1"}}
		require.NoError(t, dir.Accounts.CreateAccount(ctx, org, &models.UserProfile{
			UID: "u1", Email: "jane@acme.com", DisplayName: "Jane",
		}))

		return dir, NewTeamManager(dir.Organizations, dir.Users, dir.Accounts), org
	}

	t.Run("invite transfers the user", func(t *testing.T) {
		dir, mgr, org := setup(t)

		other := &models.Organization{Name: "Other", OwnerID: "u2", Members: []string{"u2"}}
		require.NoError(t, dir.Accounts.CreateAccount(ctx, other, &models.UserProfile{
			UID: "u2", Email: "sam@other.com", DisplayName: "Sam",
		}))

		profile, err := mgr.Invite(ctx, org.ID, "sam@other.com")
		require.NoError(t, err)
		require.Equal(t, org.ID, profile.OrganizationID)

		got, err := dir.Organizations.Get(ctx, org.ID)
		require.NoError(t, err)
		require.True(t, got.HasMember("u2"))
	})

	t.Run("invite of unknown email fails", func(t *testing.T) {
		_, mgr, org := setup(t)

		_, err := mgr.Invite(ctx, org.ID, "nobody@acme.com")
		require.ErrorIs(t, err, store.ErrUserNotFound)
	})

	t.Run("invite of existing member is a validation error", func(t *testing.T) {
		_, mgr, org := setup(t)

		_, err := mgr.Invite(ctx, org.ID, "jane@acme.com")
		require.ErrorIs(t, err, ErrValidation)
		require.ErrorContains(t, err, "already a member")
	})

	t.Run("roster batches member profiles", func(t *testing.T) {
		dir, mgr, org := setup(t)

		other := &models.Organization{Name: "Other", OwnerID: "u2", Members: []string{"u2"}}
		require.NoError(t, dir.Accounts.CreateAccount(ctx, other, &models.UserProfile{
			UID: "u2", Email: "sam@other.com", DisplayName: "Sam",
		}))
		_, err := mgr.Invite(ctx, org.ID, "sam@other.com")
		require.NoError(t, err)

		gotOrg, members, err := mgr.Roster(ctx, org.ID)
		require.NoError(t, err)
		require.Equal(t, org.ID, gotOrg.ID)
		require.Len(t, members, 2)
	})
}
