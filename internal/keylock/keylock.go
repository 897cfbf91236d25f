// Package keylock gives each storage key its own ordered chain of turns.
//
// Operations on one key run one at a time in submission order; operations on
// different keys never wait for each other. A key's entry is dropped from the
// registry as soon as its last queued operation finishes.
package keylock

import (
	"context"
	"sync"
)

var ready = func() chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}()

type queue struct {
	tail    chan struct{}
	waiting int
}

// Registry maps keys to their turn chains. The zero value is not usable; call New.
type Registry struct {
	mu     sync.Mutex
	queues map[string]*queue
}

func New() *Registry {
	return &Registry{queues: make(map[string]*queue)}
}

// Do runs fn during key's next turn and returns its error.
//
// If ctx is done before the turn starts, fn never runs and ctx.Err() is
// returned; the reserved slot is handed on to the next operation once the
// predecessor finishes. Once fn has started it always runs to completion.
func (r *Registry) Do(ctx context.Context, key string, fn func() error) error {
	prev, done := r.enqueue(key)

	select {
	case <-prev:
	case <-ctx.Done():
		go func() {
			<-prev
			r.release(key, done)
		}()
		return ctx.Err()
	}

	defer r.release(key, done)
	return fn()
}

// Run is Do for operations that produce a value.
func Run[T any](ctx context.Context, r *Registry, key string, fn func() (T, error)) (T, error) {
	var out T
	err := r.Do(ctx, key, func() error {
		v, err := fn()
		out = v
		return err
	})
	return out, err
}

// Len reports how many keys currently have queued or running operations.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queues)
}

func (r *Registry) enqueue(key string) (prev <-chan struct{}, done chan struct{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.queues[key]
	if !ok {
		q = &queue{tail: ready}
		r.queues[key] = q
	}
	prev = q.tail
	done = make(chan struct{})
	q.tail = done
	q.waiting++
	return prev, done
}

func (r *Registry) release(key string, done chan struct{}) {
	close(done)
	r.mu.Lock()
	defer r.mu.Unlock()
	q := r.queues[key]
	q.waiting--
	if q.waiting == 0 {
		delete(r.queues, key)
	}
}
