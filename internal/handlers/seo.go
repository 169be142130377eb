package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pgagates/gatesite/internal/seo"
)

// SEOHandler serves /sitemap.xml, /robots.txt, and /feed.xml.
type SEOHandler struct {
	seoService *seo.Service
	gallery    *GalleryHandler
	logger     *slog.Logger
}

// NewSEOHandler creates the SEO handler.
func NewSEOHandler(log *slog.Logger, seoService *seo.Service, gallery *GalleryHandler) *SEOHandler {
	return &SEOHandler{
		seoService: seoService,
		gallery:    gallery,
		logger:     log.With(slog.String("handler", "seo")),
	}
}

// Register mounts the SEO routes on the Echo instance.
func (h *SEOHandler) Register(e *echo.Echo) {
	e.GET("/sitemap.xml", h.Sitemap)
	e.GET("/robots.txt", h.Robots)
	e.GET("/feed.xml", h.Feed)
}

// Sitemap returns the urlset with gallery image annotations.
func (h *SEOHandler) Sitemap(c echo.Context) error {
	assets, err := h.gallery.Assets(c.Request().Context())
	if err != nil {
		// Crawlers still get the page URLs when the gallery is unreachable.
		h.logger.Warn("sitemap without gallery", slog.Any("error", err))
		assets = nil
	}
	raw, err := h.seoService.Sitemap(assets)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.Blob(http.StatusOK, "application/xml", raw)
}

// Robots returns robots.txt.
func (h *SEOHandler) Robots(c echo.Context) error {
	return c.Blob(http.StatusOK, "text/plain; charset=utf-8", h.seoService.Robots())
}

// Feed returns the RSS feed of recent projects.
func (h *SEOHandler) Feed(c echo.Context) error {
	assets, err := h.gallery.Assets(c.Request().Context())
	if err != nil {
		h.logger.Warn("feed without gallery", slog.Any("error", err))
		assets = nil
	}
	rss, err := h.seoService.Feed(assets)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.Blob(http.StatusOK, "application/rss+xml; charset=utf-8", []byte(rss))
}
