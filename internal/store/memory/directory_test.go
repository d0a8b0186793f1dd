package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/statusdeck/statusdeck/internal/models"
	"github.com/statusdeck/statusdeck/internal/store"
)

func TestOrganizationStore(t *testing.T) {
	ctx := context.Background()

	t.Run("create assigns id and timestamps", func(t *testing.T) {
		dir := NewDirectory().Stores()

		org := &models.Organization{Name: "Acme", OwnerID: "u1", Members: []string{"u1"}}
		require.NoError(t, dir.Organizations.Create(ctx, org))
		require.NotEmpty(t, org.ID)
		require.False(t, org.CreatedAt.IsZero())
		require.False(t, org.UpdatedAt.IsZero())

		got, err := dir.Organizations.Get(ctx, org.ID)
		require.NoError(t, err)
		require.Equal(t, "Acme", got.Name)
		require.Equal(t, []string{"u1"}, got.Members)
	})

	t.Run("get missing returns not found", func(t *testing.T) {
		dir := NewDirectory().Stores()

		_, err := dir.Organizations.Get(ctx, "missing")
		require.ErrorIs(t, err, store.ErrOrganizationNotFound)
	})

	t.Run("duplicate id rejected", func(t *testing.T) {
		dir := NewDirectory().Stores()

		org := &models.Organization{ID: "org-1", Name: "Acme", OwnerID: "u1"}
		require.NoError(t, dir.Organizations.Create(ctx, org))

		err := dir.Organizations.Create(ctx, &models.Organization{ID: "org-1", Name: "Other", OwnerID: "u2"})
		require.ErrorIs(t, err, store.ErrOrganizationAlreadyExists)
	})

	t.Run("add member is idempotent-safe", func(t *testing.T) {
		dir := NewDirectory().Stores()

		org := &models.Organization{Name: "Acme", OwnerID: "u1", Members: []string{"u1"}}
		require.NoError(t, dir.Organizations.Create(ctx, org))

		require.NoError(t, dir.Organizations.AddMember(ctx, org.ID, "u2"))
		require.ErrorIs(t, dir.Organizations.AddMember(ctx, org.ID, "u2"), store.ErrAlreadyMember)

		got, err := dir.Organizations.Get(ctx, org.ID)
		require.NoError(t, err)
		require.Equal(t, []string{"u1", "u2"}, got.Members)
	})

	t.Run("returned document is a copy", func(t *testing.T) {
		dir := NewDirectory().Stores()

		org := &models.Organization{Name: "Acme", OwnerID: "u1", Members: []string{"u1"}}
		require.NoError(t, dir.Organizations.Create(ctx, org))

		got, err := dir.Organizations.Get(ctx, org.ID)
		require.NoError(t, err)
		got.Members[0] = "tampered"
		got.Name = "tampered"

		again, err := dir.Organizations.Get(ctx, org.ID)
		require.NoError(t, err)
		require.Equal(t, "Acme", again.Name)
		require.Equal(t, []string{"u1"}, again.Members)
	})

	t.Run("watch delivers initial document and changes", func(t *testing.T) {
		dir := NewDirectory().Stores()

		org := &models.Organization{Name: "Acme", OwnerID: "u1", Members: []string{"u1"}}
		require.NoError(t, dir.Organizations.Create(ctx, org))

		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		ch, err := dir.Organizations.Watch(watchCtx, org.ID)
		require.NoError(t, err)

		initial := <-ch
		require.Equal(t, []string{"u1"}, initial.Members)

		require.NoError(t, dir.Organizations.AddMember(ctx, org.ID, "u2"))

		updated := <-ch
		require.Equal(t, []string{"u1", "u2"}, updated.Members)

		cancel()
		_, ok := <-ch
		require.False(t, ok)
	})

	t.Run("watch missing organization fails", func(t *testing.T) {
		dir := NewDirectory().Stores()

		_, err := dir.Organizations.Watch(ctx, "missing")
		require.ErrorIs(t, err, store.ErrOrganizationNotFound)
	})
}

func TestUserStore(t *testing.T) {
	ctx := context.Background()

	t.Run("create and lookup by uid and email", func(t *testing.T) {
		dir := NewDirectory().Stores()

		profile := &models.UserProfile{UID: "u1", Email: "jane@acme.com", DisplayName: "Jane", OrganizationID: "org-1"}
		require.NoError(t, dir.Users.Create(ctx, profile))

		byUID, err := dir.Users.Get(ctx, "u1")
		require.NoError(t, err)
		require.Equal(t, "jane@acme.com", byUID.Email)

		byEmail, err := dir.Users.GetByEmail(ctx, "jane@acme.com")
		require.NoError(t, err)
		require.Equal(t, "u1", byEmail.UID)
	})

	t.Run("duplicate uid rejected", func(t *testing.T) {
		dir := NewDirectory().Stores()

		require.NoError(t, dir.Users.Create(ctx, &models.UserProfile{UID: "u1", Email: "jane@acme.com"}))
		err := dir.Users.Create(ctx, &models.UserProfile{UID: "u1", Email: "other@acme.com"})
		require.ErrorIs(t, err, store.ErrUserAlreadyExists)
	})

	t.Run("missing lookups return not found", func(t *testing.T) {
		dir := NewDirectory().Stores()

		_, err := dir.Users.Get(ctx, "missing")
		require.ErrorIs(t, err, store.ErrUserNotFound)

		_, err = dir.Users.GetByEmail(ctx, "nobody@acme.com")
		require.ErrorIs(t, err, store.ErrUserNotFound)
	})

	t.Run("batch lookup skips missing uids", func(t *testing.T) {
		dir := NewDirectory().Stores()

		require.NoError(t, dir.Users.Create(ctx, &models.UserProfile{UID: "u1", Email: "jane@acme.com"}))
		require.NoError(t, dir.Users.Create(ctx, &models.UserProfile{UID: "u2", Email: "sam@acme.com"}))

		profiles, err := dir.Users.GetBatch(ctx, []string{"u1", "ghost", "u2"})
		require.NoError(t, err)
		require.Len(t, profiles, 2)
	})
}

func TestAccountStore(t *testing.T) {
	ctx := context.Background()

	t.Run("create account writes organization and profile together", func(t *testing.T) {
		dir := NewDirectory().Stores()

		org := &models.Organization{Name: "Jane's Status Page", OwnerID: "u1", Members: []string{"u1"}}
		profile := &models.UserProfile{UID: "u1", Email: "jane@acme.com", DisplayName: "Jane"}

		require.NoError(t, dir.Accounts.CreateAccount(ctx, org, profile))
		require.Equal(t, org.ID, profile.OrganizationID)

		gotOrg, err := dir.Organizations.Get(ctx, org.ID)
		require.NoError(t, err)
		require.Equal(t, "u1", gotOrg.OwnerID)

		gotProfile, err := dir.Users.Get(ctx, "u1")
		require.NoError(t, err)
		require.Equal(t, org.ID, gotProfile.OrganizationID)
	})

	t.Run("create account for existing user leaves no orphan", func(t *testing.T) {
		dir := NewDirectory().Stores()

		first := &models.Organization{Name: "First", OwnerID: "u1", Members: []string{"u1"}}
		require.NoError(t, dir.Accounts.CreateAccount(ctx, first, &models.UserProfile{UID: "u1", Email: "jane@acme.com"}))

		second := &models.Organization{Name: "Second", OwnerID: "u1", Members: []string{"u1"}}
		err := dir.Accounts.CreateAccount(ctx, second, &models.UserProfile{UID: "u1", Email: "jane@acme.com"})
		require.ErrorIs(t, err, store.ErrUserAlreadyExists)

		if second.ID != "" {
			_, err = dir.Organizations.Get(ctx, second.ID)
			require.ErrorIs(t, err, store.ErrOrganizationNotFound)
		}
	})

	t.Run("transfer moves user and membership together", func(t *testing.T) {
		dir := NewDirectory().Stores()

		home := &models.Organization{Name: "Home", OwnerID: "u1", Members: []string{"u1"}}
		require.NoError(t, dir.Accounts.CreateAccount(ctx, home, &models.UserProfile{UID: "u1", Email: "jane@acme.com"}))

		away := &models.Organization{Name: "Away", OwnerID: "u2", Members: []string{"u2"}}
		require.NoError(t, dir.Accounts.CreateAccount(ctx, away, &models.UserProfile{UID: "u2", Email: "sam@acme.com"}))

		require.NoError(t, dir.Accounts.TransferUser(ctx, away.ID, "u1"))

		profile, err := dir.Users.Get(ctx, "u1")
		require.NoError(t, err)
		require.Equal(t, away.ID, profile.OrganizationID)

		org, err := dir.Organizations.Get(ctx, away.ID)
		require.NoError(t, err)
		require.True(t, org.HasMember("u1"))
	})

	t.Run("transfer of existing member changes nothing", func(t *testing.T) {
		dir := NewDirectory().Stores()

		org := &models.Organization{Name: "Acme", OwnerID: "u1", Members: []string{"u1"}}
		require.NoError(t, dir.Accounts.CreateAccount(ctx, org, &models.UserProfile{UID: "u1", Email: "jane@acme.com"}))

		err := dir.Accounts.TransferUser(ctx, org.ID, "u1")
		require.ErrorIs(t, err, store.ErrAlreadyMember)

		got, err := dir.Organizations.Get(ctx, org.ID)
		require.NoError(t, err)
		require.Equal(t, []string{"u1"}, got.Members)
	})

	t.Run("transfer of unknown user fails", func(t *testing.T) {
		dir := NewDirectory().Stores()

		org := &models.Organization{Name: "Acme", OwnerID: "u1", Members: []string{"u1"}}
		require.NoError(t, dir.Accounts.CreateAccount(ctx, org, &models.UserProfile{UID: "u1", Email: "jane@acme.com"}))

		require.ErrorIs(t, dir.Accounts.TransferUser(ctx, org.ID, "ghost"), store.ErrUserNotFound)
	})

	t.Run("transfer propagates to user watch", func(t *testing.T) {
		dir := NewDirectory().Stores()

		home := &models.Organization{Name: "Home", OwnerID: "u1", Members: []string{"u1"}}
		require.NoError(t, dir.Accounts.CreateAccount(ctx, home, &models.UserProfile{UID: "u1", Email: "jane@acme.com"}))

		away := &models.Organization{Name: "Away", OwnerID: "u2", Members: []string{"u2"}}
		require.NoError(t, dir.Accounts.CreateAccount(ctx, away, &models.UserProfile{UID: "u2", Email: "sam@acme.com"}))

		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		ch, err := dir.Users.Watch(watchCtx, "u1")
		require.NoError(t, err)

		initial := <-ch
		require.Equal(t, home.ID, initial.OrganizationID)

		require.NoError(t, dir.Accounts.TransferUser(ctx, away.ID, "u1"))

		moved := <-ch
		require.Equal(t, away.ID, moved.OrganizationID)
	})
}
