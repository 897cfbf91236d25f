package handlers

import (
	"context"
	"fmt"
	"math/rand/v2"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/autokatalog/autokatalog/backend/go-services/internal/storage"
	"github.com/autokatalog/autokatalog/backend/go-services/pkg/logger"
)

// RequestError is a client error found while reading a request body.
type RequestError struct {
	Status int
	Msg    string
}

func (e *RequestError) Error() string { return e.Msg }

var allowedImageTypes = []string{"image/jpeg", "image/png"}

// Uploader stages multipart image files into asset storage.
type Uploader struct {
	store    storage.Storage
	maxSize  int64
	maxFiles int
}

func NewUploader(store storage.Storage, maxSize int64, maxFiles int) *Uploader {
	return &Uploader{store: store, maxSize: maxSize, maxFiles: maxFiles}
}

// Stage stores files under owner and returns their references. On failure
// nothing staged by this call is left behind; fresh marks an owner that has
// no other files, whose directory is then removed entirely.
func (u *Uploader) Stage(ctx context.Context, owner string, files []*multipart.FileHeader, fresh bool) ([]string, error) {
	if len(files) > u.maxFiles {
		return nil, &RequestError{Status: http.StatusBadRequest, Msg: fmt.Sprintf("at most %d images per request", u.maxFiles)}
	}
	var refs []string
	for _, fh := range files {
		ref, err := u.stageOne(ctx, owner, fh)
		if err != nil {
			u.discard(ctx, owner, refs, fresh)
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func (u *Uploader) stageOne(ctx context.Context, owner string, fh *multipart.FileHeader) (string, error) {
	if fh.Size > u.maxSize {
		return "", &RequestError{Status: http.StatusRequestEntityTooLarge, Msg: fmt.Sprintf("%s exceeds %d bytes", fh.Filename, u.maxSize)}
	}
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return "", err
	}
	if !mimetype.EqualsAny(mt.String(), allowedImageTypes...) {
		return "", &RequestError{Status: http.StatusBadRequest, Msg: fmt.Sprintf("%s: only JPEG and PNG images are accepted", fh.Filename)}
	}
	if _, err := f.Seek(0, 0); err != nil {
		return "", err
	}
	name := fmt.Sprintf("%d-%d%s", time.Now().UnixMilli(), rand.IntN(1_000_000), mt.Extension())
	return u.store.Put(ctx, owner, name, f, fh.Size, mt.String())
}

// discard removes staged files that will not be referenced.
func (u *Uploader) discard(ctx context.Context, owner string, refs []string, fresh bool) {
	if fresh {
		if err := u.store.RemoveOwner(ctx, owner); err != nil {
			logger.Warnf("discard staged uploads for %s: %v", owner, err)
		}
		return
	}
	for _, ref := range refs {
		if err := u.store.Remove(ctx, ref); err != nil {
			logger.Warnf("discard staged upload %s: %v", ref, err)
		}
	}
}

func multipartImages(form *multipart.Form) []*multipart.FileHeader {
	if form == nil {
		return nil
	}
	return form.File["images"]
}
