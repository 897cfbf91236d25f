package assets

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autokatalog/autokatalog/backend/go-services/internal/storage"
	"github.com/autokatalog/autokatalog/backend/go-services/pkg/metrics"
)

func TestResolve_OrderAndDedup(t *testing.T) {
	got := Resolve([]string{"a", "b"}, []string{"c"}, []string{"b", "d"})
	require.Equal(t, []string{"b", "d", "c", "a"}, got)
}

func TestResolve_Empty(t *testing.T) {
	require.Empty(t, Resolve(nil, nil, nil))
}

func TestFilterExternal(t *testing.T) {
	got := FilterExternal([]string{
		"https://cdn.example.com/a.jpg",
		" http://example.com/b.png ",
		"/uploads/x/c.jpg",
		"javascript:alert(1)",
		"relative/path.jpg",
		"//evil.example.com/x.jpg",
		"",
	})
	assert.Equal(t, []string{"https://cdn.example.com/a.jpg", "http://example.com/b.png", "/uploads/x/c.jpg"}, got)
}

func TestRetain(t *testing.T) {
	current := []string{"/uploads/e/1.jpg", "https://x/2.jpg"}
	assert.Equal(t, current, Retain(nil, current))
	assert.Empty(t, Retain([]string{}, current))
	// references the entry never had are not smuggled in
	assert.Equal(t, []string{"https://x/2.jpg"}, Retain([]string{"https://x/2.jpg", "/uploads/other/9.jpg"}, current))
}

func TestOrphans(t *testing.T) {
	assert.Equal(t, []string{"a", "c"}, Orphans([]string{"a", "b", "c"}, []string{"b", "d"}))
	assert.Nil(t, Orphans([]string{"a"}, []string{"a"}))
}

func newLocal(t *testing.T) (afero.Fs, *storage.LocalStorage) {
	t.Helper()
	fs := afero.NewMemMapFs()
	s := storage.NewLocalStorage(fs, "/public/uploads")
	for _, name := range []string{"1.jpg", "2.jpg"} {
		_, err := s.Put(context.Background(), "car-1", name, strings.NewReader("x"), 1, "image/jpeg")
		require.NoError(t, err)
	}
	return fs, s
}

func TestCleanup_RemovesOnlyLocalOrphans(t *testing.T) {
	fs, s := newLocal(t)
	r := NewReconciler(s, nil)

	previous := []string{"/uploads/car-1/1.jpg", "/uploads/car-1/2.jpg", "https://cdn.example.com/3.jpg"}
	final := []string{"/uploads/car-1/2.jpg"}
	require.Empty(t, r.Cleanup(context.Background(), previous, final))

	gone, err := afero.Exists(fs, "/public/uploads/car-1/1.jpg")
	require.NoError(t, err)
	require.False(t, gone)
	kept, err := afero.Exists(fs, "/public/uploads/car-1/2.jpg")
	require.NoError(t, err)
	require.True(t, kept)

	// running it again finds nothing left to delete and is still fine
	require.Empty(t, r.Cleanup(context.Background(), previous, final))
}

type failingRemover struct {
	removed []string
}

func (f *failingRemover) Remove(_ context.Context, ref string) error {
	if strings.Contains(ref, "locked") {
		return errors.New("permission denied")
	}
	f.removed = append(f.removed, ref)
	return nil
}

func (f *failingRemover) RemoveOwner(_ context.Context, owner string) error {
	return errors.New("device busy")
}

func (f *failingRemover) Owners(context.Context) ([]string, error) { return nil, nil }

func TestCleanup_FailuresAreReportedNotFatal(t *testing.T) {
	f := &failingRemover{}
	r := NewReconciler(f, nil)
	var observed []*CleanupError
	r.OnFailure(func(ce *CleanupError) { observed = append(observed, ce) })
	before := testutil.ToFloat64(metrics.AssetCleanupFailures)

	failed := r.Cleanup(context.Background(), []string{"/uploads/e/locked.jpg", "/uploads/e/ok.jpg"}, nil)
	require.Len(t, failed, 1)
	require.Equal(t, "/uploads/e/locked.jpg", failed[0].Ref)
	require.ErrorIs(t, failed[0], ErrAssetCleanupFailed)
	require.Equal(t, []string{"/uploads/e/ok.jpg"}, f.removed)
	require.Equal(t, failed, observed)

	ce := r.RemoveOwner(context.Background(), "e")
	require.NotNil(t, ce)
	require.Equal(t, "/uploads/e", ce.Ref)
	require.Equal(t, before+2, testutil.ToFloat64(metrics.AssetCleanupFailures))
}
