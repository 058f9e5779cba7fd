package news

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const rssBody = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Test Feed</title></channel></rss>`

// newTestResolver はhttptestサーバー向けに素のHTTPクライアントを使うリゾルバを返す。
// SSRF防護クライアントはループバックへの接続を拒否するため、テストでは差し替える。
func newTestResolver(server *httptest.Server) *SourceResolver {
	r := NewSourceResolver(nil, 5*time.Second, 1<<20)
	r.client = server.Client()
	return r
}

func TestResolve_DirectFeed_ReturnsInputURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(rssBody))
	}))
	defer server.Close()

	resolver := newTestResolver(server)

	got, err := resolver.Resolve(context.Background(), server.URL+"/feed.xml")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != server.URL+"/feed.xml" {
		t.Errorf("Resolve() = %q, want input URL", got)
	}
}

func TestResolve_GenericXMLContentType_SniffsBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/xml; charset=utf-8")
		w.Write([]byte(rssBody))
	}))
	defer server.Close()

	resolver := newTestResolver(server)

	got, err := resolver.Resolve(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != server.URL {
		t.Errorf("Resolve() = %q, want input URL", got)
	}
}

func TestResolve_HTMLPage_DiscoversAlternateLink(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><head>
			<link rel="alternate" type="application/rss+xml" href="/feed.xml">
		</head><body></body></html>`))
	}))
	defer server.Close()

	resolver := newTestResolver(server)

	got, err := resolver.Resolve(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	// 相対hrefが絶対URLに解決されること
	if got != server.URL+"/feed.xml" {
		t.Errorf("Resolve() = %q, want %q", got, server.URL+"/feed.xml")
	}
}

func TestResolve_NoFeedFound_ReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head><title>no feeds here</title></head><body></body></html>`))
	}))
	defer server.Close()

	resolver := newTestResolver(server)

	_, err := resolver.Resolve(context.Background(), server.URL)
	if err == nil {
		t.Fatal("expected error for page without feed links")
	}
}

func TestIsDirectFeed(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		want        bool
	}{
		{name: "rss content type", contentType: "application/rss+xml", body: "", want: true},
		{name: "atom content type with charset", contentType: "application/atom+xml; charset=utf-8", body: "", want: true},
		{name: "generic xml with rss body", contentType: "text/xml", body: rssBody, want: true},
		{name: "generic xml with atom body", contentType: "application/xml", body: `<feed xmlns="http://www.w3.org/2005/Atom"></feed>`, want: true},
		{name: "generic xml with unrelated body", contentType: "text/xml", body: "<config></config>", want: false},
		{name: "html", contentType: "text/html", body: "<html></html>", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isDirectFeed(tt.contentType, []byte(tt.body)); got != tt.want {
				t.Errorf("isDirectFeed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFeedLinksFromHTML_ResolvesAndFilters(t *testing.T) {
	html := `<html><head>
		<link rel="stylesheet" href="/style.css">
		<link rel="alternate" type="application/rss+xml" href="/rss.xml">
		<link rel="alternate" type="application/atom+xml" href="https://other.example.com/atom.xml">
		<link rel="alternate" type="text/html" href="/mobile">
	</head><body>
		<link rel="alternate" type="application/rss+xml" href="/in-body.xml">
	</body></html>`

	candidates := feedLinksFromHTML([]byte(html), "https://news.example.com/page")

	// body内のlinkは対象外
	if len(candidates) != 2 {
		t.Fatalf("candidate count = %d, want 2", len(candidates))
	}
	if candidates[0].url != "https://news.example.com/rss.xml" {
		t.Errorf("first candidate = %q", candidates[0].url)
	}
	if !candidates[1].isAtom {
		t.Error("expected second candidate to be atom")
	}
}

func TestPickCandidate_PrefersSameHostThenAtom(t *testing.T) {
	candidates := []feedCandidate{
		{url: "https://other.example.com/atom.xml", isAtom: true},
		{url: "https://news.example.com/rss.xml", isAtom: false},
		{url: "https://news.example.com/atom.xml", isAtom: true},
	}

	best := pickCandidate(candidates, "https://news.example.com/page")
	if best.url != "https://news.example.com/atom.xml" {
		t.Errorf("pickCandidate() = %q, want same-host atom feed", best.url)
	}

	// 同一ホスト候補がない場合はAtom優先
	best = pickCandidate(candidates[:1], "https://news.example.com/page")
	if !strings.Contains(best.url, "other.example.com") {
		t.Errorf("pickCandidate() = %q", best.url)
	}
}
