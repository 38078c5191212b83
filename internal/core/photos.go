package core

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	blobcore "wasteportal/internal/blob/core"
)

// PhotoPrefix is the blob key prefix of report photos.
const PhotoPrefix = "reports/photos/"

var photoExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// PhotoStore keeps report photos in a blob store. A PhotoStore without a
// blob store is disabled and photos stay inline as data URIs.
type PhotoStore struct {
	blob  blobcore.Store
	newID func() string
}

// NewPhotoStore returns a photo store over b; b may be nil.
func NewPhotoStore(b blobcore.Store) *PhotoStore {
	return &PhotoStore{blob: b, newID: func() string { return uuid.NewString() }}
}

// Enabled reports whether photos are written to a blob store.
func (p *PhotoStore) Enabled() bool { return p != nil && p.blob != nil }

// Save validates and stores data, returning the blob key.
func (p *PhotoStore) Save(ctx context.Context, contentType string, data []byte) (string, error) {
	if err := ValidatePhoto(contentType, int64(len(data))); err != nil {
		return "", err
	}
	if !p.Enabled() {
		return "", fmt.Errorf("photo storage disabled")
	}
	key := PhotoPrefix + p.newID() + photoExtensions[strings.ToLower(contentType)]
	if _, err := p.blob.Put(ctx, key, bytes.NewReader(data), blobcore.PutOptions{ContentType: contentType}); err != nil {
		return "", fmt.Errorf("store photo: %w", err)
	}
	return key, nil
}

// Open streams the photo referenced by ref, which is either a blob key or
// an inline data URI.
func (p *PhotoStore) Open(ctx context.Context, ref string) (contentType string, body io.ReadCloser, size int64, err error) {
	if IsDataURI(ref) {
		ct, data, err := DecodeDataURI(ref)
		if err != nil {
			return "", nil, 0, err
		}
		return ct, io.NopCloser(bytes.NewReader(data)), int64(len(data)), nil
	}
	if !IsPhotoKey(ref) || !p.Enabled() {
		return "", nil, 0, fmt.Errorf("photo %s: %w", ref, blobcore.ErrNotFound)
	}
	info, rc, err := p.blob.Get(ctx, ref)
	if err != nil {
		return "", nil, 0, err
	}
	return info.ContentType, rc, info.Size, nil
}

// Stat returns the content type and size of the photo referenced by ref
// without reading a stored blob.
func (p *PhotoStore) Stat(ctx context.Context, ref string) (contentType string, size int64, err error) {
	if IsDataURI(ref) {
		ct, data, err := DecodeDataURI(ref)
		if err != nil {
			return "", 0, err
		}
		return ct, int64(len(data)), nil
	}
	if !IsPhotoKey(ref) || !p.Enabled() {
		return "", 0, fmt.Errorf("photo %s: %w", ref, blobcore.ErrNotFound)
	}
	info, err := p.blob.Head(ctx, ref)
	if err != nil {
		return "", 0, err
	}
	return info.ContentType, info.Size, nil
}

// Delete removes the stored photo key. Inline photos and a disabled store
// are no-ops.
func (p *PhotoStore) Delete(ctx context.Context, key string) error {
	if !IsPhotoKey(key) || !p.Enabled() {
		return nil
	}
	if _, err := p.blob.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete photo %s: %w", key, err)
	}
	return nil
}

// Prune deletes stored photos that are not in keep and were written before
// cutoff. It returns the number of deleted blobs.
func (p *PhotoStore) Prune(ctx context.Context, keep map[string]bool, cutoff time.Time) (int, error) {
	if !p.Enabled() {
		return 0, nil
	}
	infos, err := p.blob.List(ctx, PhotoPrefix)
	if err != nil {
		return 0, fmt.Errorf("list photos: %w", err)
	}
	deleted := 0
	for _, info := range infos {
		if keep[info.Key] || !info.LastModified.Before(cutoff) {
			continue
		}
		ok, err := p.blob.Delete(ctx, info.Key)
		if err != nil {
			return deleted, fmt.Errorf("delete photo %s: %w", info.Key, err)
		}
		if ok {
			deleted++
		}
	}
	return deleted, nil
}

// IsPhotoKey reports whether ref names a stored photo blob.
func IsPhotoKey(ref string) bool {
	return strings.HasPrefix(ref, PhotoPrefix)
}

// EncodeDataURI renders data as a base64 data URI.
func EncodeDataURI(contentType string, data []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
