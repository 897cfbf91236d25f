package keylock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func waitQueued(t *testing.T, r *Registry, key string, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		r.mu.Lock()
		defer r.mu.Unlock()
		q, ok := r.queues[key]
		return ok && q.waiting == n
	}, time.Second, time.Millisecond)
}

// hold occupies key until the returned func is called.
func hold(t *testing.T, r *Registry, key string) (release func(), finished <-chan struct{}) {
	t.Helper()
	started := make(chan struct{})
	unblock := make(chan struct{})
	fin := make(chan struct{})
	go func() {
		_ = r.Do(context.Background(), key, func() error {
			close(started)
			<-unblock
			return nil
		})
		close(fin)
	}()
	<-started
	return func() { close(unblock) }, fin
}

func TestDo_FIFOPerKey(t *testing.T) {
	r := New()
	release, _ := hold(t, r, "cars")

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	const n = 10
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = r.Do(context.Background(), "cars", func() error {
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
				return nil
			})
		}(i)
		// each goroutine is queued before the next is started
		waitQueued(t, r, "cars", i+2)
	}

	release()
	wg.Wait()
	require.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, order)
	require.Equal(t, 0, r.Len())
}

func TestDo_DifferentKeysDoNotWait(t *testing.T) {
	r := New()
	release, _ := hold(t, r, "pending")
	defer release()

	ran := false
	err := r.Do(context.Background(), "cars", func() error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	require.True(t, ran)
}

func TestDo_ErrorDoesNotPoisonQueue(t *testing.T) {
	r := New()
	boom := errors.New("boom")

	err := r.Do(context.Background(), "users", func() error { return boom })
	require.ErrorIs(t, err, boom)

	v, err := Run(context.Background(), r, "users", func() (int, error) { return 42, nil })
	require.NoError(t, err)
	require.Equal(t, 42, v)
	require.Equal(t, 0, r.Len())
}

func TestDo_MutualExclusion(t *testing.T) {
	r := New()
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.Do(context.Background(), "counter", func() error {
				cur := counter
				time.Sleep(10 * time.Microsecond)
				counter = cur + 1
				return nil
			})
		}()
	}
	wg.Wait()
	require.Equal(t, 200, counter)
}

func TestDo_CancelledBeforeTurnSkipsOperation(t *testing.T) {
	r := New()
	release, _ := hold(t, r, "brands")

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	ran := false
	go func() {
		errCh <- r.Do(ctx, "brands", func() error {
			ran = true
			return nil
		})
	}()
	waitQueued(t, r, "brands", 2)
	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)

	release()
	err := r.Do(context.Background(), "brands", func() error { return nil })
	require.NoError(t, err)
	require.False(t, ran)
	require.Eventually(t, func() bool { return r.Len() == 0 }, time.Second, time.Millisecond)
}

func TestDo_ReleasesAfterPanic(t *testing.T) {
	r := New()
	require.Panics(t, func() {
		_ = r.Do(context.Background(), "categories", func() error { panic("bad updater") })
	})
	require.NoError(t, r.Do(context.Background(), "categories", func() error { return nil }))
	require.Equal(t, 0, r.Len())
}
