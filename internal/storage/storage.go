// Package storage keeps uploaded catalog images. Each image belongs to one
// owner (an entry or submission id) and is addressed by a public reference
// of the form /uploads/<owner>/<name>.
package storage

import (
	"context"
	"io"
	"path"
	"strings"
	"time"
)

// RefPrefix starts every reference to a locally owned asset.
const RefPrefix = "/uploads/"

// Storage is the asset tree. Removing something that is already gone is not an error.
type Storage interface {
	Put(ctx context.Context, owner, name string, r io.Reader, size int64, contentType string) (string, error)
	Remove(ctx context.Context, ref string) error
	RemoveOwner(ctx context.Context, owner string) error
	Owners(ctx context.Context) ([]string, error)
}

// Presigner is implemented by storages that serve assets through signed URLs.
type Presigner interface {
	PresignedURL(ctx context.Context, ref string, expires time.Duration) (string, error)
}

// Ref builds the public reference for owner/name.
func Ref(owner, name string) string {
	return RefPrefix + owner + "/" + name
}

// IsLocal reports whether ref points into the asset tree (as opposed to an external URL).
func IsLocal(ref string) bool {
	return strings.HasPrefix(ref, RefPrefix)
}

// Split returns the owner and file name of a local reference. Anything that
// could escape the owner directory is rejected.
func Split(ref string) (owner, name string, ok bool) {
	if !IsLocal(ref) {
		return "", "", false
	}
	rest := strings.TrimPrefix(ref, RefPrefix)
	if path.Clean(rest) != rest {
		return "", "", false
	}
	owner, name, found := strings.Cut(rest, "/")
	if !found || !validSegment(owner) || !validSegment(name) {
		return "", "", false
	}
	return owner, name, true
}

func validSegment(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`)
}
