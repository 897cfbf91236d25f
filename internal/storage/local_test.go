package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	owner, name, ok := Split("/uploads/abc/1.jpg")
	require.True(t, ok)
	require.Equal(t, "abc", owner)
	require.Equal(t, "1.jpg", name)

	for _, ref := range []string{
		"https://example.com/uploads/abc/1.jpg",
		"/uploads/abc",
		"/uploads/../data/users.json",
		"/uploads/abc/../../x",
		"/uploads/abc/sub/1.jpg",
		"/static/logo.png",
	} {
		_, _, ok := Split(ref)
		require.False(t, ok, ref)
	}
}

func TestLocalStorage_Lifecycle(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := NewLocalStorage(fs, "/public/uploads")
	ctx := context.Background()

	ref, err := s.Put(ctx, "owner-1", "a.jpg", strings.NewReader("jpeg"), 4, "image/jpeg")
	require.NoError(t, err)
	require.Equal(t, "/uploads/owner-1/a.jpg", ref)
	_, err = s.Put(ctx, "owner-2", "b.png", strings.NewReader("png"), 3, "image/png")
	require.NoError(t, err)

	exists, err := afero.Exists(fs, "/public/uploads/owner-1/a.jpg")
	require.NoError(t, err)
	require.True(t, exists)

	owners, err := s.Owners(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"owner-1", "owner-2"}, owners)

	require.NoError(t, s.Remove(ctx, ref))
	// already gone is fine
	require.NoError(t, s.Remove(ctx, ref))
	require.Error(t, s.Remove(ctx, "https://example.com/a.jpg"))

	require.NoError(t, s.RemoveOwner(ctx, "owner-2"))
	require.NoError(t, s.RemoveOwner(ctx, "owner-2"))
	exists, err = afero.DirExists(fs, "/public/uploads/owner-2")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestLocalStorage_OwnersOnMissingRoot(t *testing.T) {
	s := NewLocalStorage(afero.NewMemMapFs(), "/nowhere")
	owners, err := s.Owners(context.Background())
	require.NoError(t, err)
	require.Empty(t, owners)
}
