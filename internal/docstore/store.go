// Package docstore persists named collections as JSON documents.
//
// Every read, write and read-modify-write on a key runs inside one turn of that
// key's queue, so concurrent updates to the same collection apply one after
// another and none is lost.
package docstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/autokatalog/autokatalog/backend/go-services/internal/keylock"
	"github.com/autokatalog/autokatalog/backend/go-services/pkg/logger"
	"github.com/autokatalog/autokatalog/backend/go-services/pkg/metrics"
)

// Store owns the lock registry for its backend's keys.
type Store struct {
	backend Backend
	locks   *keylock.Registry
	log     logger.Interface
}

func New(backend Backend, l logger.Interface) *Store {
	if l == nil {
		l = logger.Nop()
	}
	return &Store{backend: backend, locks: keylock.New(), log: l}
}

// Locks exposes the registry so tests can assert that idle keys are dropped.
func (s *Store) Locks() *keylock.Registry { return s.locks }

// Read returns the stored value for key. An absent key is initialised with def,
// which is persisted before it is returned.
func Read[T any](ctx context.Context, s *Store, key string, def T) (T, error) {
	v, err := keylock.Run(ctx, s.locks, s.backend.Resolve(key), func() (T, error) {
		ctx := context.WithoutCancel(ctx)
		cur, ok, err := load(ctx, s, key, def)
		if err != nil {
			return cur, err
		}
		if !ok {
			if err := s.save(ctx, key, def); err != nil {
				return def, err
			}
			s.log.Debugf("initialised %s with default", key)
		}
		return cur, nil
	})
	metrics.StoreOperations.WithLabelValues("read", metrics.Result(err)).Inc()
	return v, err
}

// Write replaces the content stored for key.
func Write[T any](ctx context.Context, s *Store, key string, value T) error {
	err := s.locks.Do(ctx, s.backend.Resolve(key), func() error {
		return s.save(context.WithoutCancel(ctx), key, value)
	})
	metrics.StoreOperations.WithLabelValues("write", metrics.Result(err)).Inc()
	return err
}

// Update reads key (def when absent, without persisting it), applies fn and
// stores the result, all within one turn. If fn fails nothing is written and
// its error is returned unchanged.
func Update[T any](ctx context.Context, s *Store, key string, fn func(T) (T, error), def T) (T, error) {
	v, err := keylock.Run(ctx, s.locks, s.backend.Resolve(key), func() (T, error) {
		ctx := context.WithoutCancel(ctx)
		cur, _, err := load(ctx, s, key, def)
		if err != nil {
			return cur, err
		}
		next, err := fn(cur)
		if err != nil {
			return next, err
		}
		if err := s.save(ctx, key, next); err != nil {
			return next, err
		}
		return next, nil
	})
	metrics.StoreOperations.WithLabelValues("update", metrics.Result(err)).Inc()
	return v, err
}

func load[T any](ctx context.Context, s *Store, key string, def T) (T, bool, error) {
	raw, ok, err := s.backend.Load(ctx, key)
	if err != nil {
		return def, false, fmt.Errorf("docstore: load %s: %w", key, err)
	}
	if !ok {
		return def, false, nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, true, &CorruptDocumentError{Key: key, Err: err}
	}
	return v, true, nil
}

func (s *Store) save(ctx context.Context, key string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("docstore: encode %s: %w", key, err)
	}
	if err := s.backend.Save(ctx, key, append(data, '\n')); err != nil {
		return fmt.Errorf("docstore: save %s: %w", key, err)
	}
	return nil
}
