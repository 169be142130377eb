// Package site renders the public marketing pages from embedded HTML
// templates. Presentation is deliberately thin: business identity comes
// from config, gallery content from the ledger, reviews from a YAML file.
package site

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"time"

	"github.com/pgagates/gatesite/internal/ledger"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Info is the business identity shown on every page.
type Info struct {
	Name         string
	Tagline      string
	Phone        string
	Email        string
	BaseURL      string
	ServiceAreas []string
}

// PageData is the payload handed to every page template.
type PageData struct {
	Site    Info
	Title   string
	Assets  []ledger.Asset
	Reviews []Review
	Year    int
}

// Service renders pages.
type Service struct {
	info      Info
	templates map[string]*template.Template
	logger    *slog.Logger
}

// Pages lists the renderable page names.
var Pages = []string{"home", "services", "about", "contact", "reviews", "gallery", "service-areas"}

// NewService parses the embedded templates.
func NewService(log *slog.Logger, info Info) (*Service, error) {
	if log == nil {
		log = slog.Default()
	}
	templates := make(map[string]*template.Template, len(Pages))
	for _, page := range Pages {
		tmpl, err := template.ParseFS(templateFS, "templates/layout.tmpl", "templates/"+page+".tmpl")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", page, err)
		}
		templates[page] = tmpl
	}
	return &Service{
		info:      info,
		templates: templates,
		logger:    log.With(slog.String("service", "site")),
	}, nil
}

// Render writes the named page to w.
func (s *Service) Render(w io.Writer, page string, data PageData) error {
	tmpl, ok := s.templates[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	data.Site = s.info
	if data.Year == 0 {
		data.Year = time.Now().Year()
	}
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		return fmt.Errorf("render %s: %w", page, err)
	}
	return nil
}
