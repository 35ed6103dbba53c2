package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

const (
	pagesPrefix   = "pages"
	htmlSuffix    = ".html"
	sidecarSuffix = ".meta.json"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// StoredPage describes a successful store operation.
type StoredPage struct {
	Path string `json:"path"`
	Size int    `json:"size"`
}

// RetrievedPage is a page read back from storage together with its sidecar
// metadata, if any.
type RetrievedPage struct {
	HTML         string         `json:"html"`
	Metadata     map[string]any `json:"metadata"`
	Size         int            `json:"size"`
	LastModified time.Time      `json:"last_modified"`
}

// PageEntry is one item of a site listing.
type PageEntry struct {
	Path         string         `json:"path"`
	Filename     string         `json:"filename"`
	Size         int            `json:"size"`
	LastModified time.Time      `json:"last_modified"`
	Metadata     map[string]any `json:"metadata"`
}

// PageStore maps (site, logical name) pairs onto a blob namespace of the form
// {site}/pages/{name}.html with optional {name}.meta.json sidecars. There is
// no versioning at this layer; history lives in the modification ledger.
type PageStore struct {
	objects ObjectStore
	log     *zap.Logger
}

// NewPageStore wraps a blob backend with the page addressing scheme.
func NewPageStore(objects ObjectStore, logger *zap.Logger) *PageStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PageStore{objects: objects, log: logger.Named("pagestore")}
}

// PagePath builds the canonical blob path for a site page. The logical name
// is normalized to end in ".html" exactly once.
func PagePath(siteName, filename string) string {
	name := strings.TrimSuffix(filename, htmlSuffix) + htmlSuffix
	return path.Join(siteName, pagesPrefix, name)
}

func sidecarPath(pagePath string) string {
	return strings.TrimSuffix(pagePath, htmlSuffix) + sidecarSuffix
}

// Store writes a page blob and, when metadata is present, its sidecar. The
// put is an overwrite-by-default operation. A failed sidecar write after a
// successful primary write is a recoverable inconsistency: it is logged as a
// warning, not surfaced.
func (s *PageStore) Store(ctx context.Context, siteName, filename, html string, metadata map[string]any) (StoredPage, error) {
	p := PagePath(siteName, filename)

	if err := s.objects.Put(ctx, p, []byte(html)); err != nil {
		return StoredPage{}, err
	}

	if len(metadata) > 0 {
		encoded, err := jsonAPI.MarshalIndent(metadata, "", "    ")
		if err == nil {
			err = s.objects.Put(ctx, sidecarPath(p), encoded)
		}
		if err != nil {
			s.log.Warn("Failed to write metadata sidecar",
				zap.String("path", sidecarPath(p)), zap.Error(err))
		}
	}

	return StoredPage{Path: p, Size: len(html)}, nil
}

// Retrieve reads a page and its metadata. A missing sidecar means "no
// metadata", never an error; a missing primary blob is an error.
func (s *PageStore) Retrieve(ctx context.Context, pagePath string) (RetrievedPage, error) {
	data, err := s.objects.Get(ctx, pagePath)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return RetrievedPage{}, fmt.Errorf("HTML file not found: %s", pagePath)
		}
		return RetrievedPage{}, err
	}

	out := RetrievedPage{
		HTML:     string(data),
		Metadata: map[string]any{},
		Size:     len(data),
	}

	if meta, err := s.loadSidecar(ctx, pagePath); err == nil {
		out.Metadata = meta
	}

	if ts, err := s.objects.LastModified(ctx, pagePath); err == nil {
		out.LastModified = ts
	} else {
		s.log.Warn("Failed to read last-modified timestamp",
			zap.String("path", pagePath), zap.Error(err))
	}

	return out, nil
}

// List enumerates the HTML pages of a site, newest layout details included.
// Sidecar blobs are folded into their page entries, never listed separately.
func (s *PageStore) List(ctx context.Context, siteName string) ([]PageEntry, error) {
	prefix := path.Join(siteName, pagesPrefix) + "/"
	keys, err := s.objects.List(ctx, prefix)
	if err != nil {
		return nil, err
	}

	entries := []PageEntry{}
	for _, key := range keys {
		if !strings.HasSuffix(key, htmlSuffix) {
			continue
		}

		entry := PageEntry{
			Path:     key,
			Filename: path.Base(key),
			Metadata: map[string]any{},
		}

		if data, err := s.objects.Get(ctx, key); err == nil {
			entry.Size = len(data)
		}
		if ts, err := s.objects.LastModified(ctx, key); err == nil {
			entry.LastModified = ts
		}
		if meta, err := s.loadSidecar(ctx, key); err == nil {
			entry.Metadata = meta
		}

		entries = append(entries, entry)
	}
	return entries, nil
}

// Delete removes a page and its sidecar. The primary blob goes first; a
// sidecar left behind after a primary deletion failure is an accepted,
// recoverable inconsistency.
func (s *PageStore) Delete(ctx context.Context, pagePath string) error {
	if err := s.objects.Delete(ctx, pagePath); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("HTML file not found: %s", pagePath)
		}
		return err
	}

	meta := sidecarPath(pagePath)
	if ok, err := s.objects.Exists(ctx, meta); err == nil && ok {
		if err := s.objects.Delete(ctx, meta); err != nil {
			s.log.Warn("Failed to delete metadata sidecar",
				zap.String("path", meta), zap.Error(err))
		}
	}
	return nil
}

// loadSidecar reads and decodes a page's metadata sidecar. Any failure
// (missing blob, corrupt JSON) degrades to "no metadata".
func (s *PageStore) loadSidecar(ctx context.Context, pagePath string) (map[string]any, error) {
	data, err := s.objects.Get(ctx, sidecarPath(pagePath))
	if err != nil {
		return nil, err
	}
	meta := map[string]any{}
	if err := jsonAPI.Unmarshal(data, &meta); err != nil {
		s.log.Warn("Corrupt metadata sidecar ignored",
			zap.String("path", sidecarPath(pagePath)), zap.Error(err))
		return map[string]any{}, nil
	}
	return meta, nil
}
