package docstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

type countingBackend struct {
	Backend
	mu    sync.Mutex
	saves int
}

func (c *countingBackend) Save(ctx context.Context, key string, data []byte) error {
	c.mu.Lock()
	c.saves++
	c.mu.Unlock()
	return c.Backend.Save(ctx, key, data)
}

type counter struct {
	Count int `json:"count"`
}

func TestRead_PersistsDefaultExactlyOnce(t *testing.T) {
	fs := afero.NewMemMapFs()
	b := &countingBackend{Backend: NewFileBackend(fs, "/data")}
	s := New(b, nil)
	ctx := context.Background()

	def := []string{"Audi", "BMW"}
	got, err := Read(ctx, s, "brands", def)
	require.NoError(t, err)
	require.Equal(t, def, got)

	got, err = Read(ctx, s, "brands", []string{})
	require.NoError(t, err)
	require.Equal(t, def, got)
	require.Equal(t, 1, b.saves)

	raw, err := afero.ReadFile(fs, "/data/brands.json")
	require.NoError(t, err)
	require.JSONEq(t, `["Audi","BMW"]`, string(raw))
	require.Equal(t, 0, s.Locks().Len())
}

func TestRead_EmptyFileReadsAsAbsent(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/data/pending.json", nil, 0o644))
	s := New(NewFileBackend(fs, "/data"), nil)

	got, err := Read(context.Background(), s, "pending", []int{})
	require.NoError(t, err)
	require.Empty(t, got)

	raw, err := afero.ReadFile(fs, "/data/pending.json")
	require.NoError(t, err)
	require.JSONEq(t, `[]`, string(raw))
}

func TestRead_CorruptDocumentIsSurfaced(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/data/cars.json", []byte("[{not json"), 0o644))
	s := New(NewFileBackend(fs, "/data"), nil)

	_, err := Read(context.Background(), s, "cars", []counter{})
	require.ErrorIs(t, err, ErrCorruptDocument)
	var cde *CorruptDocumentError
	require.True(t, errors.As(err, &cde))
	require.Equal(t, "cars", cde.Key)

	// the corrupt content is left in place
	raw, err := afero.ReadFile(fs, "/data/cars.json")
	require.NoError(t, err)
	require.Equal(t, "[{not json", string(raw))

	_, err = Update(context.Background(), s, "cars", func(c []counter) ([]counter, error) { return c, nil }, nil)
	require.ErrorIs(t, err, ErrCorruptDocument)
}

func TestUpdate_ConcurrentIncrementsAreNotLost(t *testing.T) {
	dir := t.TempDir()
	s := New(NewFileBackend(afero.NewOsFs(), dir), nil)
	ctx := context.Background()

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := Update(ctx, s, "counter", func(c counter) (counter, error) {
				c.Count++
				return c, nil
			}, counter{})
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := Read(ctx, s, "counter", counter{})
	require.NoError(t, err)
	require.Equal(t, n, got.Count)

	// only the document remains; no temp files are left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "counter.json", entries[0].Name())
}

func TestUpdate_UpdaterErrorWritesNothing(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := New(NewFileBackend(fs, "/data"), nil)
	boom := errors.New("no such entry")

	_, err := Update(context.Background(), s, "pending", func(c []counter) ([]counter, error) {
		return nil, boom
	}, []counter{})
	require.ErrorIs(t, err, boom)

	exists, err := afero.Exists(fs, "/data/pending.json")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestWrite_ReplacesContent(t *testing.T) {
	dir := t.TempDir()
	s := New(NewFileBackend(afero.NewOsFs(), dir), nil)
	ctx := context.Background()

	require.NoError(t, Write(ctx, s, "categories", []string{"SUV"}))
	require.NoError(t, Write(ctx, s, "categories", []string{"Coupe", "Cabrio"}))

	raw, err := os.ReadFile(filepath.Join(dir, "categories.json"))
	require.NoError(t, err)
	require.JSONEq(t, `["Coupe","Cabrio"]`, string(raw))
}

func TestFileBackend_ResolveIsCanonical(t *testing.T) {
	b := NewFileBackend(afero.NewMemMapFs(), "/data")
	require.Equal(t, b.Resolve("cars"), b.Resolve("x/../cars"))
}

func TestRedisBackend_ReadUpdate(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	s := New(NewRedisBackend(client, "test:"), nil)
	ctx := context.Background()

	got, err := Read(ctx, s, "brands", []string{})
	require.NoError(t, err)
	require.Empty(t, got)
	raw, err := m.Get("test:brands")
	require.NoError(t, err)
	require.JSONEq(t, `[]`, raw)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := Update(ctx, s, "counter", func(c counter) (counter, error) {
				c.Count++
				return c, nil
			}, counter{})
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	c, err := Read(ctx, s, "counter", counter{})
	require.NoError(t, err)
	require.Equal(t, 20, c.Count)
}
