// Package seo renders the crawler-facing artifacts: sitemap.xml, robots.txt,
// and the RSS feed of recent gallery projects.
package seo

import (
	"encoding/xml"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/feeds"

	"github.com/pgagates/gatesite/internal/ledger"
)

const feedItemCap = 50

// Service builds SEO artifacts from the site identity and the gallery ledger.
type Service struct {
	baseURL  string
	siteName string
	tagline  string
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates the SEO service.
func NewService(log *slog.Logger, baseURL, siteName, tagline string) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		baseURL:  strings.TrimRight(baseURL, "/"),
		siteName: siteName,
		tagline:  tagline,
		logger:   log.With(slog.String("service", "seo")),
		now:      time.Now,
	}
}

type sitemapImage struct {
	Loc string `xml:"image:loc"`
}

type sitemapURL struct {
	Loc      string         `xml:"loc"`
	LastMod  string         `xml:"lastmod"`
	Priority string         `xml:"priority"`
	Images   []sitemapImage `xml:"image:image,omitempty"`
}

type urlset struct {
	XMLName    xml.Name     `xml:"urlset"`
	Xmlns      string       `xml:"xmlns,attr"`
	XmlnsImage string       `xml:"xmlns:image,attr"`
	URLs       []sitemapURL `xml:"url"`
}

// pageRoutes are the crawlable routes with their priorities.
var pageRoutes = []struct {
	path     string
	priority string
}{
	{"/", "1.0"},
	{"/services", "0.9"},
	{"/gallery", "0.85"},
	{"/about", "0.7"},
	{"/contact", "0.7"},
	{"/service-areas", "0.7"},
	{"/reviews", "0.6"},
}

// Sitemap renders the urlset. Gallery images are attached to the homepage
// and the gallery listing only, for discovery without bloating every URL.
func (s *Service) Sitemap(assets []ledger.Asset) ([]byte, error) {
	now := s.now().UTC().Format(time.RFC3339)

	images := make([]sitemapImage, 0, len(assets))
	for _, asset := range assets {
		images = append(images, sitemapImage{Loc: s.assetURL(asset.Key)})
	}

	set := urlset{
		Xmlns:      "http://www.sitemaps.org/schemas/sitemap/0.9",
		XmlnsImage: "http://www.google.com/schemas/sitemap-image/1.1",
	}
	for _, route := range pageRoutes {
		entry := sitemapURL{
			Loc:      s.baseURL + route.path,
			LastMod:  now,
			Priority: route.priority,
		}
		if route.path == "/" || route.path == "/gallery" {
			entry.Images = images
		}
		set.URLs = append(set.URLs, entry)
	}

	raw, err := xml.Marshal(set)
	if err != nil {
		return nil, fmt.Errorf("marshal sitemap: %w", err)
	}
	return append([]byte(xml.Header), raw...), nil
}

// Robots renders robots.txt with the sitemap pointer.
func (s *Service) Robots() []byte {
	return []byte(fmt.Sprintf("User-agent: *\nAllow: /\n\nSitemap: %s/sitemap.xml\nHost: %s\n", s.baseURL, s.baseURL))
}

// Feed renders the RSS feed of recent projects, newest first, capped at 50
// items. Entry dates are the ledger's createdAt calendar dates.
func (s *Service) Feed(assets []ledger.Asset) (string, error) {
	sorted := make([]ledger.Asset, len(assets))
	copy(sorted, assets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return entryDate(sorted[i].Entry).After(entryDate(sorted[j].Entry))
	})
	if len(sorted) > feedItemCap {
		sorted = sorted[:feedItemCap]
	}

	updated := s.now()
	if len(sorted) > 0 {
		if d := entryDate(sorted[0].Entry); !d.IsZero() {
			updated = d
		}
	}

	feed := &feeds.Feed{
		Title:       fmt.Sprintf("%s — Recent Projects", s.siteName),
		Link:        &feeds.Link{Href: s.baseURL},
		Description: s.tagline,
		Created:     updated,
	}
	for _, asset := range sorted {
		desc := asset.Entry.Caption
		if desc == "" {
			desc = asset.Entry.Alt
		}
		if asset.Entry.Location != "" {
			desc += " — " + asset.Entry.Location
		}
		feed.Items = append(feed.Items, &feeds.Item{
			Title:       asset.Entry.Alt,
			Link:        &feeds.Link{Href: s.assetURL(asset.Key)},
			Id:          s.assetURL(asset.Key),
			Description: desc,
			Created:     entryDate(asset.Entry),
		})
	}

	rss, err := feed.ToRss()
	if err != nil {
		return "", fmt.Errorf("render rss: %w", err)
	}
	return rss, nil
}

func (s *Service) assetURL(key string) string {
	return s.baseURL + "/gallery/" + url.PathEscape(key)
}

func entryDate(entry ledger.Entry) time.Time {
	t, err := time.Parse("2006-01-02", entry.CreatedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}
