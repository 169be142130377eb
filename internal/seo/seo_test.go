package seo

import (
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/pgagates/gatesite/internal/ledger"
)

func newTestService() *Service {
	svc := NewService(slog.Default(), "https://pgagates.com/", "Precision Gates & Automation", "Custom gates across Colorado")
	svc.now = func() time.Time { return time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC) }
	return svc
}

func testAssets() []ledger.Asset {
	return []ledger.Asset{
		{Key: "gate-old.jpg", Path: "/gallery/gate-old.jpg", Entry: ledger.Entry{Alt: "Old gate", CreatedAt: "2025-01-01"}},
		{Key: "gate-new.jpg", Path: "/gallery/gate-new.jpg", Entry: ledger.Entry{Alt: "New gate", Caption: "Custom ironwork", Location: "Denver, CO", CreatedAt: "2026-02-20"}},
	}
}

func TestSitemap(t *testing.T) {
	raw, err := newTestService().Sitemap(testAssets())
	if err != nil {
		t.Fatalf("Sitemap: %v", err)
	}
	xml := string(raw)

	for _, want := range []string{
		"<loc>https://pgagates.com/</loc>",
		"<loc>https://pgagates.com/services</loc>",
		"<loc>https://pgagates.com/gallery</loc>",
		"<loc>https://pgagates.com/service-areas</loc>",
		"<image:loc>https://pgagates.com/gallery/gate-new.jpg</image:loc>",
		`xmlns:image="http://www.google.com/schemas/sitemap-image/1.1"`,
	} {
		if !strings.Contains(xml, want) {
			t.Fatalf("sitemap missing %q:\n%s", want, xml)
		}
	}

	// Images attach to the homepage and gallery URLs only.
	if got := strings.Count(xml, "<image:loc>https://pgagates.com/gallery/gate-old.jpg</image:loc>"); got != 2 {
		t.Fatalf("expected each image on exactly 2 pages, got %d", got)
	}
}

func TestRobots(t *testing.T) {
	body := string(newTestService().Robots())
	if !strings.Contains(body, "Sitemap: https://pgagates.com/sitemap.xml") {
		t.Fatalf("robots.txt missing sitemap pointer:\n%s", body)
	}
	if !strings.Contains(body, "Allow: /") {
		t.Fatalf("robots.txt missing allow rule:\n%s", body)
	}
}

func TestFeedNewestFirst(t *testing.T) {
	rss, err := newTestService().Feed(testAssets())
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	newIdx := strings.Index(rss, "New gate")
	oldIdx := strings.Index(rss, "Old gate")
	if newIdx < 0 || oldIdx < 0 {
		t.Fatalf("feed missing items:\n%s", rss)
	}
	if newIdx > oldIdx {
		t.Fatalf("feed not sorted newest first:\n%s", rss)
	}
	if !strings.Contains(rss, "Custom ironwork — Denver, CO") {
		t.Fatalf("feed item description missing caption and location:\n%s", rss)
	}
}

func TestFeedCapsItems(t *testing.T) {
	assets := make([]ledger.Asset, 0, feedItemCap+10)
	for i := 0; i < feedItemCap+10; i++ {
		assets = append(assets, ledger.Asset{
			Key:   "gate.jpg",
			Entry: ledger.Entry{Alt: "gate", CreatedAt: "2026-01-02"},
		})
	}
	rss, err := newTestService().Feed(assets)
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if got := strings.Count(rss, "<item>"); got != feedItemCap {
		t.Fatalf("feed has %d items, want %d", got, feedItemCap)
	}
}

func TestFeedEmptyLedger(t *testing.T) {
	rss, err := newTestService().Feed(nil)
	if err != nil {
		t.Fatalf("Feed on empty ledger: %v", err)
	}
	if !strings.Contains(rss, "Recent Projects") {
		t.Fatalf("empty feed missing channel title:\n%s", rss)
	}
}
