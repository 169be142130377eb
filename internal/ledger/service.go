// Package ledger implements the gallery metadata ledger: a single JSON
// document mapping asset keys to descriptive metadata, persisted next to
// the image blobs in a revisioned blob store. Consistency under concurrent
// admin uploads relies on the store's per-object revision check, not on
// any in-process lock.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"path"
	"strings"
	"time"

	"github.com/pgagates/gatesite/internal/store"
)

const (
	// GalleryPrefix is where image blobs live in the store.
	GalleryPrefix = "gallery"
	// LedgerPath is the well-known location of the ledger document,
	// sibling to the blobs.
	LedgerPath = "gallery/metadata.json"

	// mergeAttempts bounds the read-merge-write retry loop on the ledger
	// document. The blob write is never auto-retried: a stale blob token
	// most likely means a duplicate upload the caller should resolve.
	mergeAttempts = 3
)

// Asset is one gallery image joined with its metadata entry.
type Asset struct {
	Key   string `json:"key"`
	Path  string `json:"path"`
	Entry Entry  `json:"entry"`
}

// PutResult reports where an uploaded asset landed.
type PutResult struct {
	// Path is the public-facing path of the stored blob, e.g. "/gallery/gate-1.jpg".
	Path string `json:"path"`
	// Revision is the ledger document revision after the merge.
	Revision string `json:"revision"`
}

// Service provides the merge-and-persist operation for the shared metadata
// document, coordinated with a peer write of the raw image blob.
type Service struct {
	store  store.Store
	logger *slog.Logger
	now    func() time.Time
	sleep  func(time.Duration)
}

// NewService creates a ledger service over the given blob store.
func NewService(log *slog.Logger, blobStore store.Store) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store:  blobStore,
		logger: log.With(slog.String("service", "ledger")),
		now:    time.Now,
		sleep:  time.Sleep,
	}
}

// PutAsset stores the image bytes at the path derived from key and merges
// entry into the ledger document, both guarded by the store's revision
// tokens. On success both writes are durable; on failure the store is left
// either fully before or fully after — each individual write is atomic at
// the store level, so readers never observe a torn document.
func (s *Service) PutAsset(ctx context.Context, key string, content []byte, contentType string, entry Entry) (PutResult, error) {
	if s.store == nil {
		return PutResult{}, fmt.Errorf("%w: blob store not configured", ErrBackendUnavailable)
	}
	key = strings.TrimSpace(key)
	if key == "" || NormalizeKey(key) != key {
		return PutResult{}, fmt.Errorf("%w: key must be a normalized non-empty name", ErrValidation)
	}
	if len(content) == 0 {
		return PutResult{}, fmt.Errorf("%w: empty content", ErrValidation)
	}
	if ExtensionForType(contentType) == "" {
		return PutResult{}, fmt.Errorf("%w: %q (use JPG, PNG, WebP or GIF)", ErrUnsupportedMediaType, contentType)
	}
	entry = normalizeEntry(entry, s.now())
	if entry.Alt == "" {
		return PutResult{}, fmt.Errorf("%w: alt text is required", ErrValidation)
	}

	blobPath := path.Join(GalleryPrefix, key)
	if err := s.putBlob(ctx, blobPath, content); err != nil {
		return PutResult{}, err
	}

	revision, err := s.mergeEntry(ctx, key, entry)
	if err != nil {
		return PutResult{}, err
	}

	s.logger.Info("asset stored",
		slog.String("key", key),
		slog.String("path", blobPath),
		slog.Int("size", len(content)))
	return PutResult{Path: "/" + blobPath, Revision: revision}, nil
}

// GetAllAssets lists the gallery blobs and joins each with its ledger
// entry, synthesizing alt text from the key for blobs the ledger does not
// mention (the accepted inconsistency window: blob written, metadata merge
// abandoned). Read-only; output is sorted by key.
func (s *Service) GetAllAssets(ctx context.Context) ([]Asset, error) {
	if s.store == nil {
		return nil, fmt.Errorf("%w: blob store not configured", ErrBackendUnavailable)
	}
	paths, err := s.store.List(ctx, GalleryPrefix)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: list gallery: %v", ErrBackendUnavailable, err)
	}

	doc, _, err := s.readLedger(ctx)
	if err != nil {
		return nil, err
	}

	merged := Document{}
	for _, blobPath := range paths {
		key := path.Base(blobPath)
		if key == path.Base(LedgerPath) || ExtensionForKey(key) == "" {
			continue
		}
		entry, ok := doc[key]
		if !ok {
			entry = Entry{Alt: synthesizeAlt(key)}
		}
		merged[key] = entry
	}
	// Ledger entries whose blob vanished are dropped from the listing but
	// kept in the document; the next upload carries them forward.

	assets := make([]Asset, 0, len(merged))
	for _, key := range sortedKeys(merged) {
		assets = append(assets, Asset{
			Key:   key,
			Path:  "/" + path.Join(GalleryPrefix, key),
			Entry: merged[key],
		})
	}
	return assets, nil
}

// putBlob writes the image bytes, supplying the current revision when the
// blob already exists so the store detects a concurrent writer. Re-upload
// of an existing key is last-write-wins on the blob.
func (s *Service) putBlob(ctx context.Context, blobPath string, content []byte) error {
	expected := ""
	obj, err := s.store.Get(ctx, blobPath)
	switch {
	case err == nil:
		expected = obj.Revision
	case errors.Is(err, store.ErrNotFound):
		// First upload of this key; create.
	default:
		return fmt.Errorf("%w: stat blob: %v", ErrBackendUnavailable, err)
	}

	if _, err := s.store.Put(ctx, blobPath, content, expected); err != nil {
		if errors.Is(err, store.ErrRevisionMismatch) {
			return fmt.Errorf("%w: blob %s changed underneath us", ErrConcurrentModification, blobPath)
		}
		return fmt.Errorf("%w: write blob: %v", ErrBackendUnavailable, err)
	}
	return nil
}

// mergeEntry runs the read-modify-write loop on the ledger document. A
// stale revision means another upload merged first; re-read the winner's
// state and merge on top of it, bounded to mergeAttempts rounds.
func (s *Service) mergeEntry(ctx context.Context, key string, entry Entry) (string, error) {
	for attempt := 1; attempt <= mergeAttempts; attempt++ {
		doc, revision, err := s.readLedger(ctx)
		if err != nil {
			return "", err
		}
		doc[key] = entry

		raw, err := EncodeDocument(doc)
		if err != nil {
			return "", fmt.Errorf("%w: encode ledger: %v", ErrValidation, err)
		}
		newRevision, err := s.store.Put(ctx, LedgerPath, raw, revision)
		if err == nil {
			return newRevision, nil
		}
		if !errors.Is(err, store.ErrRevisionMismatch) {
			return "", fmt.Errorf("%w: write ledger: %v", ErrBackendUnavailable, err)
		}
		s.logger.Warn("ledger merge lost race, retrying",
			slog.String("key", key),
			slog.Int("attempt", attempt))
		if attempt < mergeAttempts {
			s.sleep(time.Duration(rand.Intn(50)+10) * time.Millisecond)
		}
	}
	return "", fmt.Errorf("%w: ledger merge exhausted %d attempts", ErrConcurrentModification, mergeAttempts)
}

// readLedger fetches the ledger document and its revision token. Absence
// and parse failure are both the defined empty state, not errors.
func (s *Service) readLedger(ctx context.Context) (Document, string, error) {
	obj, err := s.store.Get(ctx, LedgerPath)
	if errors.Is(err, store.ErrNotFound) {
		return Document{}, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("%w: read ledger: %v", ErrBackendUnavailable, err)
	}
	return DecodeDocument(obj.Content), obj.Revision, nil
}

// ExtensionForKey returns the image extension of an asset key, or empty if
// the key does not name a known raster format.
func ExtensionForKey(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".jpg", ".jpeg":
		return ".jpg"
	case ".png":
		return ".png"
	case ".webp":
		return ".webp"
	case ".gif":
		return ".gif"
	default:
		return ""
	}
}

// synthesizeAlt derives fallback alt text from an asset key, e.g.
// "iron-gate-1.jpg" -> "iron gate 1".
func synthesizeAlt(key string) string {
	base := strings.TrimSuffix(key, path.Ext(key))
	base = strings.NewReplacer("-", " ", "_", " ").Replace(base)
	return strings.Join(strings.Fields(base), " ")
}
