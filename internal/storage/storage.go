// Package storage is the object store for sighting images.
//
// The store deals in opaque bytes keyed by path; it knows nothing about
// sightings. Uploaded objects get a public URL that the rest of the app
// (and the map popups in the browser) can reference directly.
//
// Only one implementation exists — local disk, served at /media/ — but
// the Store interface keeps the handlers decoupled from where bytes
// actually live.
package storage

import (
	"context"
	"io"
)

// MaxUploadSize is the hard cap on a single image upload: 5 MiB.
// Oversized uploads are rejected before any bytes hit the disk.
const MaxUploadSize = 5 << 20

// allowedTypes maps accepted image content types to the file extension
// the stored object gets. Anything not listed here is rejected.
var allowedTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// Object describes a stored image.
type Object struct {
	// Key is the object's path relative to the store root,
	// e.g. "anonymous/1712345678901-cf3k2j...0.png".
	Key string `json:"key"`

	// URL is the public URL the object is served at, e.g. "/media/<key>".
	URL string `json:"url"`

	// Size is the object's size in bytes.
	Size int64 `json:"size"`
}

// Store is the image object store.
//
// Upload validates content type and declared size BEFORE reading any
// bytes, then streams the body to storage under a caller-scoped key.
// callerID namespaces the object ("anonymous" if blank). The returned
// Object carries the public URL to embed in a sighting's image_link.
//
// Delete takes the public URL (the only thing a sighting record holds)
// and removes the underlying object.
//
// List returns all objects stored by a given caller.
type Store interface {
	Upload(ctx context.Context, callerID, contentType string, size int64, r io.Reader) (*Object, error)
	Delete(ctx context.Context, publicURL string) error
	List(ctx context.Context, callerID string) ([]Object, error)
}
