package users

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/autokatalog/autokatalog/backend/go-services/internal/docstore"
	"github.com/autokatalog/autokatalog/backend/go-services/internal/models"
)

func newService(t *testing.T) (*Service, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	svc := NewService(docstore.New(docstore.NewFileBackend(fs, "/data"), nil))
	svc.cost = bcrypt.MinCost
	return svc, fs
}

func TestCreateAuthenticate(t *testing.T) {
	svc, fs := newService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, "Erika", models.RoleEditor, "geheim123")
	require.NoError(t, err)
	require.NotEmpty(t, p.ID)

	got, err := svc.Authenticate(ctx, "erika", "geheim123")
	require.NoError(t, err)
	require.Equal(t, p, got)

	_, err = svc.Authenticate(ctx, "erika", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "nobody", "geheim123")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Create(ctx, "ERIKA", models.RoleAdmin, "another1")
	require.ErrorIs(t, err, ErrConflict)

	// only the hash is persisted
	raw, err := afero.ReadFile(fs, "/data/users.json")
	require.NoError(t, err)
	require.NotContains(t, string(raw), "geheim123")
	require.Contains(t, string(raw), "passwordHash")
}

func TestUpdateDelete(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, "anna", models.RoleEditor, "passwort1")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "bernd", models.RoleEditor, "passwort2")
	require.NoError(t, err)

	_, err = svc.Update(ctx, a.ID, "Bernd", models.RoleEditor, "")
	require.ErrorIs(t, err, ErrConflict)
	_, err = svc.Update(ctx, "missing", "x", models.RoleEditor, "")
	require.ErrorIs(t, err, ErrNotFound)

	// keeping the password
	u, err := svc.Update(ctx, a.ID, "Anna", models.RoleAdmin, "")
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, u.Role)
	_, err = svc.Authenticate(ctx, "anna", "passwort1")
	require.NoError(t, err)

	// changing it
	_, err = svc.Update(ctx, a.ID, "Anna", models.RoleAdmin, "neues-pw")
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, "anna", "passwort1")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	removed, err := svc.Delete(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, "Anna", removed.Username)
	_, err = svc.Delete(ctx, a.ID)
	require.ErrorIs(t, err, ErrNotFound)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "bernd", list[0].Username)
}

func TestEnsureAdmin(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	created, err := svc.EnsureAdmin(ctx, "admin", "first-pass", models.RoleAdmin)
	require.NoError(t, err)
	require.True(t, created)

	created, err = svc.EnsureAdmin(ctx, "admin", "second-pass", models.RoleAdmin)
	require.NoError(t, err)
	require.False(t, created)

	p, err := svc.Authenticate(ctx, "admin", "second-pass")
	require.NoError(t, err)
	require.Equal(t, "admin-admin", p.ID)
	require.Equal(t, models.RoleAdmin, p.Role)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
}
