package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pgagates/gatesite/internal/site"
)

// SiteHandler serves the public marketing pages.
type SiteHandler struct {
	siteService *site.Service
	gallery     *GalleryHandler
	reviews     []site.Review
	logger      *slog.Logger
}

// NewSiteHandler creates the page handler.
func NewSiteHandler(log *slog.Logger, siteService *site.Service, gallery *GalleryHandler, reviews []site.Review) *SiteHandler {
	return &SiteHandler{
		siteService: siteService,
		gallery:     gallery,
		reviews:     reviews,
		logger:      log.With(slog.String("handler", "site")),
	}
}

// Register mounts the page routes on the Echo instance.
func (h *SiteHandler) Register(e *echo.Echo) {
	e.GET("/", h.page("home", "Custom Gate Installation"))
	e.GET("/services", h.page("services", "Services"))
	e.GET("/about", h.page("about", "About"))
	e.GET("/contact", h.page("contact", "Request a Quote"))
	e.GET("/reviews", h.page("reviews", "Reviews"))
	e.GET("/gallery", h.page("gallery", "Gallery"))
	e.GET("/service-areas", h.page("service-areas", "Service Areas"))
}

func (h *SiteHandler) page(name, title string) echo.HandlerFunc {
	return func(c echo.Context) error {
		data := site.PageData{Title: title, Reviews: h.reviews}
		if name == "home" || name == "gallery" {
			assets, err := h.gallery.Assets(c.Request().Context())
			if err != nil {
				// Render the page without images rather than 500 the
				// whole site when the store is down.
				h.logger.Warn("page without gallery", slog.String("page", name), slog.Any("error", err))
			}
			data.Assets = assets
		}
		c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
		c.Response().WriteHeader(http.StatusOK)
		return h.siteService.Render(c.Response(), name, data)
	}
}
