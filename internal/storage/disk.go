package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/ghost-atlas/internal/apperror"
)

// DiskStore stores objects as plain files under a root directory.
// Objects are served by the HTTP server mounting the root at baseURL
// (e.g. /media/), so the public URL is just baseURL + key.
type DiskStore struct {
	root    string
	baseURL string
	now     func() time.Time
}

// NewDiskStore creates a DiskStore rooted at dir, publicly served at
// baseURL. The root directory is created if it doesn't exist.
func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: creating root %s: %w", dir, err)
	}
	return &DiskStore{
		root:    dir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		now:     time.Now,
	}, nil
}

// Upload validates and stores an image.
//
// Validation happens before any disk IO: an oversized or wrong-typed
// upload never touches the filesystem. The declared size is also
// enforced while streaming — a client that declares 1 KiB and sends
// 10 MiB gets cut off and the partial file is removed.
func (d *DiskStore) Upload(ctx context.Context, callerID, contentType string, size int64, r io.Reader) (*Object, error) {
	ext, ok := allowedTypes[strings.ToLower(contentType)]
	if !ok {
		return nil, apperror.ValidationFailed("image", fmt.Sprintf("unsupported image type %q (want jpeg, png, gif, or webp)", contentType))
	}
	if size > MaxUploadSize {
		return nil, apperror.ValidationFailed("image", fmt.Sprintf("image is %d bytes, the limit is %d", size, MaxUploadSize))
	}
	if size < 0 {
		return nil, apperror.ValidationFailed("image", "image size must be known up front")
	}

	caller := sanitizeCaller(callerID)
	key := path.Join(caller, fmt.Sprintf("%d-%s.%s", d.now().UnixMilli(), xid.New().String(), ext))

	dst := filepath.Join(d.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return nil, fmt.Errorf("storage: creating caller dir: %w", err)
	}

	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("storage: creating object %s: %w", key, err)
	}

	// Copy at most size+1 bytes so we can tell "exactly size" from
	// "more than declared" without trusting the client.
	written, err := io.Copy(f, io.LimitReader(r, size+1))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(dst)
		return nil, fmt.Errorf("storage: writing object %s: %w", key, err)
	}
	if written > size {
		os.Remove(dst)
		return nil, apperror.ValidationFailed("image", "image body exceeds its declared size")
	}

	return &Object{
		Key:  key,
		URL:  d.baseURL + "/" + key,
		Size: written,
	}, nil
}

// Delete removes the object behind a public URL.
// Deleting an object that doesn't exist is not an error.
func (d *DiskStore) Delete(ctx context.Context, publicURL string) error {
	key, err := d.keyFromURL(publicURL)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(d.root, filepath.FromSlash(key))); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: deleting object %s: %w", key, err)
	}
	return nil
}

// List returns every object the given caller has stored, most recent
// first (keys embed a millisecond timestamp, so reverse-lexicographic
// order within a caller is reverse-chronological).
func (d *DiskStore) List(ctx context.Context, callerID string) ([]Object, error) {
	caller := sanitizeCaller(callerID)
	dir := filepath.Join(d.root, caller)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Object{}, nil
		}
		return nil, fmt.Errorf("storage: listing objects for %s: %w", caller, err)
	}

	objects := make([]Object, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			if os.IsNotExist(err) {
				continue // removed between ReadDir and Info
			}
			return nil, fmt.Errorf("storage: stat %s: %w", e.Name(), err)
		}
		key := path.Join(caller, e.Name())
		objects = append(objects, Object{
			Key:  key,
			URL:  d.baseURL + "/" + key,
			Size: info.Size(),
		})
	}
	return objects, nil
}

// keyFromURL recovers the object key from a public URL and rejects
// anything that would escape the store root.
func (d *DiskStore) keyFromURL(publicURL string) (string, error) {
	// Accept both bare paths ("/media/a/b.png") and absolute URLs
	// ("https://host/media/a/b.png").
	p := publicURL
	if i := strings.Index(p, "://"); i >= 0 {
		rest := p[i+3:]
		if j := strings.Index(rest, "/"); j >= 0 {
			p = rest[j:]
		} else {
			p = "/"
		}
	}

	if !strings.HasPrefix(p, d.baseURL+"/") {
		return "", apperror.ValidationFailed("url", fmt.Sprintf("%q is not a stored object URL", publicURL))
	}
	key := path.Clean(strings.TrimPrefix(p, d.baseURL+"/"))
	if key == "." || key == ".." || strings.HasPrefix(key, "../") || path.IsAbs(key) {
		return "", apperror.ValidationFailed("url", fmt.Sprintf("%q is not a stored object URL", publicURL))
	}
	return key, nil
}

// sanitizeCaller turns a caller ID into a single safe path segment.
// Blank callers (anonymous submissions in public-write mode) share the
// "anonymous" namespace.
func sanitizeCaller(callerID string) string {
	caller := strings.TrimSpace(callerID)
	if caller == "" {
		return "anonymous"
	}
	var b strings.Builder
	for _, r := range caller {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// FS returns the store's contents as a read-only fs.FS, for mounting
// under the public baseURL with http.FileServerFS.
func (d *DiskStore) FS() fs.FS {
	return os.DirFS(d.root)
}
