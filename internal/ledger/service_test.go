package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pgagates/gatesite/internal/store"
)

// fakeStore is an in-memory revisioned store. Revisions are per-path
// counters; Put enforces the compare-and-swap contract.
type fakeStore struct {
	mu      sync.Mutex
	objects map[string]store.Object
	seq     int
	puts    int

	// beforePut, when set, runs inside the lock just before a Put commits.
	// Used to interleave a concurrent writer.
	beforePut func(path string)
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string]store.Object{}}
}

func (f *fakeStore) Get(_ context.Context, path string) (store.Object, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[path]
	if !ok {
		return store.Object{}, store.ErrNotFound
	}
	return obj, nil
}

func (f *fakeStore) Put(_ context.Context, path string, content []byte, expectedRevision string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.beforePut != nil {
		hook := f.beforePut
		f.beforePut = nil
		hook(path)
	}
	current, exists := f.objects[path]
	if exists && current.Revision != expectedRevision {
		return "", store.ErrRevisionMismatch
	}
	if !exists && expectedRevision != "" {
		return "", store.ErrRevisionMismatch
	}
	f.seq++
	rev := fmt.Sprintf("rev-%d", f.seq)
	f.objects[path] = store.Object{Content: append([]byte(nil), content...), Revision: rev}
	f.puts++
	return rev, nil
}

func (f *fakeStore) List(_ context.Context, prefix string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var paths []string
	for p := range f.objects {
		if strings.HasPrefix(p, prefix) {
			paths = append(paths, p)
		}
	}
	return paths, nil
}

// putUnchecked seeds state without going through the CAS path.
func (f *fakeStore) putUnchecked(path string, content []byte) {
	f.seq++
	f.objects[path] = store.Object{Content: append([]byte(nil), content...), Revision: fmt.Sprintf("rev-%d", f.seq)}
}

func newTestService(fs *fakeStore) *Service {
	svc := NewService(slog.Default(), fs)
	svc.sleep = func(time.Duration) {}
	svc.now = func() time.Time { return time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestPutAssetThenGetAllAssets(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs)

	result, err := svc.PutAsset(context.Background(), "gate-1.jpg", []byte("jpegbytes"), "image/jpeg", Entry{Alt: "Iron gate"})
	if err != nil {
		t.Fatalf("PutAsset returned error: %v", err)
	}
	if result.Path != "/gallery/gate-1.jpg" {
		t.Fatalf("unexpected stored path: %q", result.Path)
	}
	if result.Revision == "" {
		t.Fatalf("expected a ledger revision")
	}

	assets, err := svc.GetAllAssets(context.Background())
	if err != nil {
		t.Fatalf("GetAllAssets returned error: %v", err)
	}
	if len(assets) != 1 {
		t.Fatalf("expected exactly one asset, got %d", len(assets))
	}
	if assets[0].Key != "gate-1.jpg" || assets[0].Entry.Alt != "Iron gate" {
		t.Fatalf("unexpected asset: %+v", assets[0])
	}
}

func TestPutAssetValidation(t *testing.T) {
	cases := []struct {
		name        string
		key         string
		content     []byte
		contentType string
		entry       Entry
		want        error
	}{
		{name: "missing alt", key: "gate-1.jpg", content: []byte("x"), contentType: "image/jpeg", entry: Entry{}, want: ErrValidation},
		{name: "empty key", key: "", content: []byte("x"), contentType: "image/jpeg", entry: Entry{Alt: "a"}, want: ErrValidation},
		{name: "unnormalized key", key: "My Gate.JPG", content: []byte("x"), contentType: "image/jpeg", entry: Entry{Alt: "a"}, want: ErrValidation},
		{name: "empty content", key: "gate-1.jpg", content: nil, contentType: "image/jpeg", entry: Entry{Alt: "a"}, want: ErrValidation},
		{name: "pdf", key: "gate-1.pdf", content: []byte("x"), contentType: "application/pdf", entry: Entry{Alt: "a"}, want: ErrUnsupportedMediaType},
		{name: "svg", key: "gate-1.svg", content: []byte("x"), contentType: "image/svg+xml", entry: Entry{Alt: "a"}, want: ErrUnsupportedMediaType},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fs := newFakeStore()
			svc := newTestService(fs)
			_, err := svc.PutAsset(context.Background(), tc.key, tc.content, tc.contentType, tc.entry)
			if !errors.Is(err, tc.want) {
				t.Fatalf("PutAsset error = %v, want %v", err, tc.want)
			}
			if fs.puts != 0 {
				t.Fatalf("rejected input must not write; store saw %d puts", fs.puts)
			}
		})
	}
}

func TestPutAssetUnsupportedTypeLeavesLedgerUntouched(t *testing.T) {
	fs := newFakeStore()
	fs.putUnchecked(LedgerPath, []byte(`{"gate-1.jpg":{"alt":"old"}}`))
	before := fs.objects[LedgerPath]
	svc := newTestService(fs)

	_, err := svc.PutAsset(context.Background(), "doc.pdf", []byte("%PDF"), "application/pdf", Entry{Alt: "doc"})
	if !errors.Is(err, ErrUnsupportedMediaType) {
		t.Fatalf("error = %v, want ErrUnsupportedMediaType", err)
	}
	after := fs.objects[LedgerPath]
	if after.Revision != before.Revision || string(after.Content) != string(before.Content) {
		t.Fatalf("ledger document changed on rejected upload")
	}
}

func TestPutAssetCreatesLedgerLazily(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs)

	if _, err := svc.PutAsset(context.Background(), "gate-1.jpg", []byte("bytes"), "image/jpeg", Entry{Alt: "Iron gate"}); err != nil {
		t.Fatalf("PutAsset on empty store failed: %v", err)
	}
	doc := DecodeDocument(fs.objects[LedgerPath].Content)
	if len(doc) != 1 || doc["gate-1.jpg"].Alt != "Iron gate" {
		t.Fatalf("unexpected ledger document: %+v", doc)
	}
}

func TestPutAssetRetriesLedgerMergeOnStaleRevision(t *testing.T) {
	fs := newFakeStore()
	fs.putUnchecked(LedgerPath, []byte(`{"gate-1.jpg":{"alt":"old"}}`))
	svc := newTestService(fs)

	// Interleave a competing merge between this upload's ledger read and
	// its ledger write: the first write must fail the CAS and the retry
	// must merge on top of the winner's state.
	fs.beforePut = func(path string) {
		if path != LedgerPath {
			// The first Put is the blob; re-arm for the ledger write.
			fs.beforePut = func(p string) {
				if p != LedgerPath {
					return
				}
				fs.putUnchecked(LedgerPath, []byte(`{"gate-1.jpg":{"alt":"winner"}}`))
			}
		}
	}

	if _, err := svc.PutAsset(context.Background(), "gate-2.jpg", []byte("bytes"), "image/png", Entry{Alt: "Wood gate"}); err != nil {
		t.Fatalf("PutAsset should survive one stale revision: %v", err)
	}

	doc := DecodeDocument(fs.objects[LedgerPath].Content)
	if len(doc) != 2 {
		t.Fatalf("expected merged ledger with both keys, got %+v", doc)
	}
	if doc["gate-1.jpg"].Alt != "winner" {
		t.Fatalf("retry must merge on top of the concurrent writer's state, got %+v", doc["gate-1.jpg"])
	}
	if doc["gate-2.jpg"].Alt != "Wood gate" {
		t.Fatalf("new entry lost in merge: %+v", doc)
	}
}

func TestPutAssetConcurrentDistinctKeys(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs)
	svc.sleep = func(time.Duration) {} // immediate retry keeps the test fast

	const writers = 8
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("gate-%d.jpg", i)
			_, errs[i] = svc.PutAsset(context.Background(), key, []byte("bytes"), "image/jpeg", Entry{Alt: key})
		}(i)
	}
	wg.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			if !errors.Is(err, ErrConcurrentModification) {
				t.Fatalf("unexpected error kind: %v", err)
			}
			failed++
		}
	}

	doc := DecodeDocument(fs.objects[LedgerPath].Content)
	for i, err := range errs {
		if err != nil {
			continue
		}
		key := fmt.Sprintf("gate-%d.jpg", i)
		if _, ok := doc[key]; !ok {
			t.Fatalf("successful upload %s missing from ledger: %+v", key, doc)
		}
	}
	if failed == len(errs) {
		t.Fatalf("no upload succeeded")
	}
}

func TestPutAssetConcurrentSameKey(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			entry := Entry{Alt: fmt.Sprintf("version %d", i)}
			// Same-key races may legitimately fail on the blob CAS.
			_, _ = svc.PutAsset(context.Background(), "gate-1.jpg", []byte(fmt.Sprintf("bytes-%d", i)), "image/jpeg", entry)
		}(i)
	}
	wg.Wait()

	doc := DecodeDocument(fs.objects[LedgerPath].Content)
	if len(doc) > 1 {
		t.Fatalf("same key must occupy a single ledger slot: %+v", doc)
	}
	if entry, ok := doc["gate-1.jpg"]; ok && !strings.HasPrefix(entry.Alt, "version ") {
		t.Fatalf("ledger entry corrupted: %+v", entry)
	}
}

func TestGetAllAssetsSynthesizesMissingMetadata(t *testing.T) {
	fs := newFakeStore()
	fs.putUnchecked("gallery/iron-gate-1.jpg", []byte("bytes"))
	svc := newTestService(fs)

	assets, err := svc.GetAllAssets(context.Background())
	if err != nil {
		t.Fatalf("GetAllAssets returned error: %v", err)
	}
	if len(assets) != 1 {
		t.Fatalf("expected one asset, got %d", len(assets))
	}
	if assets[0].Entry.Alt != "iron gate 1" {
		t.Fatalf("synthesized alt = %q, want %q", assets[0].Entry.Alt, "iron gate 1")
	}
}

func TestGetAllAssetsTreatsCorruptLedgerAsEmpty(t *testing.T) {
	fs := newFakeStore()
	fs.putUnchecked("gallery/gate-1.jpg", []byte("bytes"))
	fs.putUnchecked(LedgerPath, []byte("{not json"))
	svc := newTestService(fs)

	assets, err := svc.GetAllAssets(context.Background())
	if err != nil {
		t.Fatalf("corrupt ledger must read as empty, got error: %v", err)
	}
	if len(assets) != 1 || assets[0].Entry.Alt != "gate 1" {
		t.Fatalf("unexpected assets: %+v", assets)
	}
}

func TestGetAllAssetsStableOrder(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs)
	for _, key := range []string{"zinc-gate.jpg", "alpha-gate.jpg", "mid-gate.png"} {
		if _, err := svc.PutAsset(context.Background(), key, []byte("b"), "image/png", Entry{Alt: key}); err != nil {
			t.Fatalf("PutAsset(%s): %v", key, err)
		}
	}
	assets, err := svc.GetAllAssets(context.Background())
	if err != nil {
		t.Fatalf("GetAllAssets returned error: %v", err)
	}
	want := []string{"alpha-gate.jpg", "mid-gate.png", "zinc-gate.jpg"}
	for i, key := range want {
		if assets[i].Key != key {
			t.Fatalf("order not sorted by key: got %+v", assets)
		}
	}
}

func TestPutAssetSurfacesExhaustedRetries(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs)

	// Every ledger write loses: bump the document revision right before
	// each CAS commit.
	arm := func() {}
	arm = func() {
		fs.beforePut = func(p string) {
			if p == LedgerPath {
				fs.putUnchecked(LedgerPath, []byte("{}"))
			}
			arm()
		}
	}
	arm()

	_, err := svc.PutAsset(context.Background(), "gate-1.jpg", []byte("b"), "image/jpeg", Entry{Alt: "a"})
	if !errors.Is(err, ErrConcurrentModification) {
		t.Fatalf("error = %v, want ErrConcurrentModification", err)
	}
}

func TestPutAssetDefaultsCreatedAt(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs)
	if _, err := svc.PutAsset(context.Background(), "gate-1.jpg", []byte("b"), "image/jpeg", Entry{Alt: "a", Tags: []string{"iron", " iron ", "custom"}}); err != nil {
		t.Fatalf("PutAsset: %v", err)
	}
	doc := DecodeDocument(fs.objects[LedgerPath].Content)
	entry := doc["gate-1.jpg"]
	if entry.CreatedAt != "2026-03-14" {
		t.Fatalf("CreatedAt = %q, want upload date", entry.CreatedAt)
	}
	if len(entry.Tags) != 2 {
		t.Fatalf("tags not deduplicated: %v", entry.Tags)
	}
}
