package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"path"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/robfig/cron/v3"

	"github.com/pgagates/gatesite/internal/ledger"
	"github.com/pgagates/gatesite/internal/store"
)

// GalleryHandler serves the public gallery: the JSON listing at
// GET /api/gallery and the image bytes at GET /gallery/:key. The listing is
// cached and refreshed on a schedule so page loads don't fan out to the
// blob store.
type GalleryHandler struct {
	ledgerService *ledger.Service
	blobStore     store.Store
	logger        *slog.Logger

	mu     sync.RWMutex
	cached []ledger.Asset
	asOf   time.Time

	cron *cron.Cron
}

// NewGalleryHandler creates the gallery handler.
func NewGalleryHandler(log *slog.Logger, ledgerService *ledger.Service, blobStore store.Store) *GalleryHandler {
	return &GalleryHandler{
		ledgerService: ledgerService,
		blobStore:     blobStore,
		logger:        log.With(slog.String("handler", "gallery")),
	}
}

// Register mounts the gallery routes on the Echo instance.
func (h *GalleryHandler) Register(e *echo.Echo) {
	e.GET("/api/gallery", h.List)
	e.GET("/gallery/:key", h.Image)
}

// Start primes the cache and schedules periodic refreshes.
func (h *GalleryHandler) Start(ctx context.Context) error {
	if err := h.Refresh(ctx); err != nil {
		// An unreachable store at boot is not fatal; the cache fills in
		// on the next tick or the first request.
		h.logger.Warn("initial gallery refresh failed", slog.Any("error", err))
	}
	h.cron = cron.New()
	if _, err := h.cron.AddFunc("@every 5m", func() {
		refreshCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := h.Refresh(refreshCtx); err != nil {
			h.logger.Warn("gallery refresh failed", slog.Any("error", err))
		}
	}); err != nil {
		return err
	}
	h.cron.Start()
	return nil
}

// Stop halts the refresh schedule.
func (h *GalleryHandler) Stop() {
	if h.cron != nil {
		h.cron.Stop()
	}
}

// Refresh re-reads the ledger and swaps the cached listing.
func (h *GalleryHandler) Refresh(ctx context.Context) error {
	assets, err := h.ledgerService.GetAllAssets(ctx)
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.cached = assets
	h.asOf = time.Now()
	h.mu.Unlock()
	return nil
}

// Assets returns the cached listing, falling back to a live read when the
// cache has never been filled.
func (h *GalleryHandler) Assets(ctx context.Context) ([]ledger.Asset, error) {
	h.mu.RLock()
	cached, asOf := h.cached, h.asOf
	h.mu.RUnlock()
	if !asOf.IsZero() {
		return cached, nil
	}
	if err := h.Refresh(ctx); err != nil {
		return nil, err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cached, nil
}

// List returns the gallery listing as JSON.
func (h *GalleryHandler) List(c echo.Context) error {
	assets, err := h.Assets(c.Request().Context())
	if err != nil {
		h.logger.Error("gallery listing failed", slog.Any("error", err))
		return echo.NewHTTPError(http.StatusBadGateway, "gallery unavailable")
	}
	c.Response().Header().Set("Cache-Control", "s-maxage=60, stale-while-revalidate=300")
	return c.JSON(http.StatusOK, assets)
}

// Image streams one gallery blob.
func (h *GalleryHandler) Image(c echo.Context) error {
	key := ledger.NormalizeKey(c.Param("key"))
	if key == "" || ledger.ExtensionForKey(key) == "" {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	}
	obj, err := h.blobStore.Get(c.Request().Context(), path.Join(ledger.GalleryPrefix, key))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "not found")
		}
		h.logger.Error("image fetch failed", slog.String("key", key), slog.Any("error", err))
		return echo.NewHTTPError(http.StatusBadGateway, "image unavailable")
	}
	c.Response().Header().Set("Cache-Control", "public, max-age=86400")
	c.Response().Header().Set("ETag", `"`+obj.Revision+`"`)
	return c.Blob(http.StatusOK, contentTypeForKey(key), obj.Content)
}

func contentTypeForKey(key string) string {
	switch ledger.ExtensionForKey(key) {
	case ".jpg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	default:
		return "application/octet-stream"
	}
}
