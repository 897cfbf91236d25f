// Package assets decides which image references an entry ends up with and
// removes the local files that no entry references anymore.
package assets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/autokatalog/autokatalog/backend/go-services/internal/storage"
	"github.com/autokatalog/autokatalog/backend/go-services/pkg/logger"
	"github.com/autokatalog/autokatalog/backend/go-services/pkg/metrics"
)

var ErrAssetCleanupFailed = errors.New("asset cleanup failed")

// CleanupError reports one reference (or owner directory) that could not be removed.
type CleanupError struct {
	Ref string
	Err error
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("remove asset %s: %v", e.Ref, e.Err)
}

func (e *CleanupError) Unwrap() []error {
	return []error{ErrAssetCleanupFailed, e.Err}
}

// Resolve concatenates external, uploaded and kept, keeping the first
// occurrence of every reference.
func Resolve(kept, uploaded, external []string) []string {
	out := make([]string, 0, len(kept)+len(uploaded)+len(external))
	seen := make(map[string]struct{}, cap(out))
	for _, list := range [][]string{external, uploaded, kept} {
		for _, ref := range list {
			if _, dup := seen[ref]; dup {
				continue
			}
			seen[ref] = struct{}{}
			out = append(out, ref)
		}
	}
	return out
}

// FilterExternal drops everything that is neither an absolute http(s) URL
// nor a site-rooted path.
func FilterExternal(in []string) []string {
	var out []string
	for _, raw := range in {
		ref := strings.TrimSpace(raw)
		switch {
		case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		case strings.HasPrefix(ref, "/") && !strings.HasPrefix(ref, "//"):
		default:
			continue
		}
		out = append(out, ref)
	}
	return out
}

// Retain returns the members of kept that current still references. A nil
// kept means keep everything.
func Retain(kept, current []string) []string {
	if kept == nil {
		return append([]string{}, current...)
	}
	have := make(map[string]struct{}, len(current))
	for _, ref := range current {
		have[ref] = struct{}{}
	}
	out := make([]string, 0, len(kept))
	for _, ref := range kept {
		if _, ok := have[ref]; ok {
			out = append(out, ref)
		}
	}
	return out
}

// Orphans lists the references in previous that final no longer contains.
func Orphans(previous, final []string) []string {
	keep := make(map[string]struct{}, len(final))
	for _, ref := range final {
		keep[ref] = struct{}{}
	}
	var out []string
	for _, ref := range previous {
		if _, ok := keep[ref]; !ok {
			out = append(out, ref)
		}
	}
	return out
}

// Store is the part of storage.Storage the reconciler needs.
type Store interface {
	Remove(ctx context.Context, ref string) error
	RemoveOwner(ctx context.Context, owner string) error
	Owners(ctx context.Context) ([]string, error)
}

// Reconciler runs the post-commit file deletions. Failures are logged,
// counted and handed to the observer; they never fail the caller.
type Reconciler struct {
	store   Store
	log     logger.Interface
	observe func(*CleanupError)
}

func NewReconciler(store Store, l logger.Interface) *Reconciler {
	if l == nil {
		l = logger.Nop()
	}
	return &Reconciler{store: store, log: l}
}

// OnFailure registers fn to receive every cleanup failure.
func (r *Reconciler) OnFailure(fn func(*CleanupError)) {
	r.observe = fn
}

// Cleanup deletes the local files referenced by previous but not by final.
// External references are never touched.
func (r *Reconciler) Cleanup(ctx context.Context, previous, final []string) []*CleanupError {
	var failed []*CleanupError
	for _, ref := range Orphans(previous, final) {
		if !storage.IsLocal(ref) {
			continue
		}
		if err := r.store.Remove(ctx, ref); err != nil {
			failed = append(failed, r.fail(ref, err))
			continue
		}
		r.log.Debugf("removed orphaned asset %s", ref)
	}
	return failed
}

// RemoveOwner deletes the whole asset directory of owner.
func (r *Reconciler) RemoveOwner(ctx context.Context, owner string) *CleanupError {
	if owner == "" {
		return nil
	}
	if err := r.store.RemoveOwner(ctx, owner); err != nil {
		return r.fail(storage.RefPrefix+owner, err)
	}
	return nil
}

// Owners lists every owner that currently has an asset directory.
func (r *Reconciler) Owners(ctx context.Context) ([]string, error) {
	return r.store.Owners(ctx)
}

func (r *Reconciler) fail(ref string, err error) *CleanupError {
	ce := &CleanupError{Ref: ref, Err: err}
	metrics.AssetCleanupFailures.Inc()
	r.log.Warnf("%v", ce)
	if r.observe != nil {
		r.observe(ce)
	}
	return ce
}
