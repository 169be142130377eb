package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/pgagates/gatesite/internal/ledger"
)

func newGalleryEnv() (*echo.Echo, *GalleryHandler, *memStore) {
	ms := newMemStore()
	h := NewGalleryHandler(slog.Default(), ledger.NewService(slog.Default(), ms), ms)
	e := echo.New()
	h.Register(e)
	return e, h, ms
}

func seedAsset(t *testing.T, ms *memStore, key, alt string) {
	t.Helper()
	svc := ledger.NewService(slog.Default(), ms)
	if _, err := svc.PutAsset(context.Background(), key, []byte("imagebytes"), "image/jpeg", ledger.Entry{Alt: alt}); err != nil {
		t.Fatalf("seed %s: %v", key, err)
	}
}

func TestGalleryList(t *testing.T) {
	e, _, ms := newGalleryEnv()
	seedAsset(t, ms, "gate-1.jpg", "Iron gate")
	seedAsset(t, ms, "gate-2.jpg", "Wood gate")

	req := httptest.NewRequest(http.MethodGet, "/api/gallery", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var assets []ledger.Asset
	if err := json.Unmarshal(rec.Body.Bytes(), &assets); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	if len(assets) != 2 || assets[0].Key != "gate-1.jpg" {
		t.Fatalf("unexpected listing: %+v", assets)
	}
	if cc := rec.Header().Get("Cache-Control"); cc == "" {
		t.Fatalf("listing must carry a Cache-Control header")
	}
}

func TestGalleryListServesCacheAfterRefresh(t *testing.T) {
	e, h, ms := newGalleryEnv()
	seedAsset(t, ms, "gate-1.jpg", "Iron gate")
	if err := h.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	seedAsset(t, ms, "gate-2.jpg", "Wood gate")

	req := httptest.NewRequest(http.MethodGet, "/api/gallery", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var assets []ledger.Asset
	if err := json.Unmarshal(rec.Body.Bytes(), &assets); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	// The second asset lands on the next refresh, not mid-window.
	if len(assets) != 1 {
		t.Fatalf("expected cached listing with 1 asset, got %+v", assets)
	}

	if err := h.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if err := json.Unmarshal(rec.Body.Bytes(), &assets); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	if len(assets) != 2 {
		t.Fatalf("refresh must pick up the new asset, got %+v", assets)
	}
}

func TestGalleryImage(t *testing.T) {
	e, _, ms := newGalleryEnv()
	seedAsset(t, ms, "gate-1.jpg", "Iron gate")

	req := httptest.NewRequest(http.MethodGet, "/gallery/gate-1.jpg", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != "image/jpeg" {
		t.Fatalf("content type = %q", ct)
	}
	if rec.Header().Get("ETag") == "" {
		t.Fatalf("image response must carry an ETag")
	}
	if rec.Body.String() != "imagebytes" {
		t.Fatalf("unexpected body: %q", rec.Body.String())
	}
}

func TestGalleryImageNotFound(t *testing.T) {
	e, _, _ := newGalleryEnv()
	for _, p := range []string{"/gallery/nope.jpg", "/gallery/metadata.json"} {
		req := httptest.NewRequest(http.MethodGet, p, nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("GET %s = %d, want 404", p, rec.Code)
		}
	}
}
