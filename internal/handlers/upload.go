package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/pgagates/gatesite/internal/ledger"
)

// MaxUploadBytes caps the accepted image size.
const MaxUploadBytes = 10 << 20

// UploadHandler serves POST /admin/api/upload: multipart image plus
// metadata fields, written through the ledger service.
type UploadHandler struct {
	ledgerService *ledger.Service
	logger        *slog.Logger
}

// UploadResponse reports where the asset landed.
type UploadResponse struct {
	OK       bool   `json:"ok"`
	Path     string `json:"path"`
	Revision string `json:"revision"`
	Message  string `json:"message"`
}

// NewUploadHandler creates the upload handler.
func NewUploadHandler(log *slog.Logger, ledgerService *ledger.Service) *UploadHandler {
	return &UploadHandler{
		ledgerService: ledgerService,
		logger:        log.With(slog.String("handler", "upload")),
	}
}

// Register mounts POST /admin/api/upload on the Echo instance.
func (h *UploadHandler) Register(e *echo.Echo) {
	e.POST("/admin/api/upload", h.Upload)
}

// Upload reads the multipart form, derives the asset key, and hands off to
// the ledger. Error kinds map to distinct status codes so the admin UI can
// tell "fix your input" from "try again".
func (h *UploadHandler) Upload(c echo.Context) error {
	if h.ledgerService == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "ledger service not configured")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing file")
	}
	if fileHeader.Size > MaxUploadBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "image exceeds 10MB")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "open upload: "+err.Error())
	}
	defer func() {
		_ = file.Close()
	}()
	content, err := io.ReadAll(io.LimitReader(file, MaxUploadBytes+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "read upload: "+err.Error())
	}
	if len(content) > MaxUploadBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "image exceeds 10MB")
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(content)
	}

	key := deriveKey(fileHeader.Filename, c.FormValue("filename"), contentType)
	entry := entryFromForm(c)

	result, err := h.ledgerService.PutAsset(c.Request().Context(), key, content, contentType, entry)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ledger.ErrUnsupportedMediaType):
			return echo.NewHTTPError(http.StatusUnsupportedMediaType, err.Error())
		case errors.Is(err, ledger.ErrConcurrentModification):
			return echo.NewHTTPError(http.StatusConflict, "another upload is in flight, retry")
		default:
			h.logger.Error("upload failed", slog.Any("error", err))
			return echo.NewHTTPError(http.StatusBadGateway, "upload failed")
		}
	}

	return c.JSON(http.StatusOK, UploadResponse{
		OK:       true,
		Path:     result.Path,
		Revision: result.Revision,
		Message:  "added to gallery and metadata index",
	})
}

// deriveKey picks the final asset key: an explicit override wins over the
// original filename; a missing extension is filled in from the content type.
func deriveKey(originalName, override, contentType string) string {
	name := strings.TrimSpace(override)
	if name == "" {
		name = originalName
	}
	key := ledger.NormalizeKey(name)
	if ledger.ExtensionForKey(key) == "" {
		key += ledger.ExtensionForType(contentType)
	}
	return key
}

// entryFromForm builds the metadata entry. "featured" is canonical;
// "hero" is tolerated as a legacy alias from older admin forms.
func entryFromForm(c echo.Context) ledger.Entry {
	var tags []string
	for _, tag := range strings.Split(c.FormValue("tags"), ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	featured := formFlag(c.FormValue("featured")) || formFlag(c.FormValue("hero"))
	return ledger.Entry{
		Alt:       c.FormValue("alt"),
		Caption:   c.FormValue("caption"),
		Tags:      tags,
		CreatedAt: c.FormValue("createdAt"),
		Location:  c.FormValue("location"),
		Featured:  featured,
	}
}

func formFlag(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "1", "yes":
		return true
	default:
		return false
	}
}
