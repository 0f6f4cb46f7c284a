package sitemap

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"

	"seo-audit/pkg/config"
	"seo-audit/pkg/fetch"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	log := testLogger()
	opts := &config.Options{Timeout: 0, MaxRetries: 0}
	fetcher := fetch.NewFetcher(http.DefaultClient, opts, log)
	return NewResolver(fetcher, fetch.NewRateLimiter(0, log), "test-agent", log)
}

func urlset(urls ...string) string {
	body := `<?xml version="1.0" encoding="UTF-8"?><urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`
	for _, u := range urls {
		body += "<url><loc>" + u + "</loc></url>"
	}
	return body + "</urlset>"
}

func TestResolve_URLSet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url>
    <loc>https://example.com/</loc>
    <lastmod>2026-01-15</lastmod>
    <priority>1.0</priority>
    <changefreq>daily</changefreq>
  </url>
  <url><loc>https://example.com/about</loc></url>
</urlset>`)
	}))
	defer srv.Close()

	entries := newTestResolver(t).Resolve(context.Background(), srv.URL+"/sitemap.xml")
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	first := entries[0]
	if first.URL != "https://example.com/" {
		t.Errorf("entries[0].URL = %q", first.URL)
	}
	if first.LastModified != "2026-01-15" || first.Priority != "1.0" || first.ChangeFreq != "daily" {
		t.Errorf("entries[0] metadata = %+v, want lastmod/priority/changefreq populated", first)
	}
	if entries[1].Priority != "" {
		t.Errorf("entries[1].Priority = %q, want empty", entries[1].Priority)
	}
}

func TestResolve_IndexFlattening(t *testing.T) {
	// A sitemap index referencing two child sitemaps with 2 URLs each must
	// flatten to all 4 URLs in document order
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/sitemap.xml":
			fmt.Fprintf(w, `<?xml version="1.0"?><sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
<sitemap><loc>%s/pages.xml</loc></sitemap>
<sitemap><loc>%s/posts.xml</loc></sitemap>
</sitemapindex>`, srv.URL, srv.URL)
		case "/pages.xml":
			fmt.Fprint(w, urlset("https://example.com/", "https://example.com/about"))
		case "/posts.xml":
			fmt.Fprint(w, urlset("https://example.com/post-1", "https://example.com/post-2"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	entries := newTestResolver(t).Resolve(context.Background(), srv.URL+"/sitemap.xml")
	if len(entries) != 4 {
		t.Fatalf("got %d entries, want 4 flattened", len(entries))
	}
	want := []string{
		"https://example.com/",
		"https://example.com/about",
		"https://example.com/post-1",
		"https://example.com/post-2",
	}
	for i, w := range want {
		if entries[i].URL != w {
			t.Errorf("entries[%d].URL = %q, want %q", i, entries[i].URL, w)
		}
	}
}

func TestResolve_IndexCycle(t *testing.T) {
	// An index that references itself must terminate and still yield the
	// entries from its real children
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/sitemap.xml":
			fmt.Fprintf(w, `<?xml version="1.0"?><sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
<sitemap><loc>%s/sitemap.xml</loc></sitemap>
<sitemap><loc>%s/child.xml</loc></sitemap>
</sitemapindex>`, srv.URL, srv.URL)
		case "/child.xml":
			fmt.Fprint(w, urlset("https://example.com/a"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	entries := newTestResolver(t).Resolve(context.Background(), srv.URL+"/sitemap.xml")
	if len(entries) != 1 || entries[0].URL != "https://example.com/a" {
		t.Fatalf("got %v, want exactly the child entry", entries)
	}
}

func TestResolve_FetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	if entries := newTestResolver(t).Resolve(context.Background(), srv.URL+"/sitemap.xml"); len(entries) != 0 {
		t.Errorf("got %d entries from a 404 sitemap, want 0", len(entries))
	}
}

func TestResolve_InvalidXML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "this is not XML at all")
	}))
	defer srv.Close()

	if entries := newTestResolver(t).Resolve(context.Background(), srv.URL+"/sitemap.xml"); len(entries) != 0 {
		t.Errorf("got %d entries from invalid XML, want 0", len(entries))
	}
}

func TestResolve_SkipsUnusableLocs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, urlset("https://example.com/good", "javascript:alert(1)", ""))
	}))
	defer srv.Close()

	entries := newTestResolver(t).Resolve(context.Background(), srv.URL+"/sitemap.xml")
	if len(entries) != 1 || entries[0].URL != "https://example.com/good" {
		t.Fatalf("got %v, want only the http(s) entry", entries)
	}
}
