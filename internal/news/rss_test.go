package news

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kenta/newsstand/internal/security"
)

const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>Tech Today</title>
<link>https://example.com/tech-today</link>
<item>
<title>First &lt;b&gt;Post&lt;/b&gt;</title>
<link>https://example.com/articles/first</link>
<guid>guid-first</guid>
<description>A short description.</description>
<pubDate>Tue, 15 Apr 2025 10:30:00 GMT</pubDate>
</item>
<item>
<title>Second Post</title>
<link>https://example.com/articles/second</link>
<guid>guid-second</guid>
<description>&lt;p&gt;Body text&lt;/p&gt;&lt;script&gt;alert(1)&lt;/script&gt;</description>
<pubDate>Mon, 14 Apr 2025 09:00:00 GMT</pubDate>
</item>
</channel>
</rss>`

// newTestFeedProvider はhttptestサーバーをソースとするFeedProviderを返す。
// SSRF防護クライアントはループバックへの接続を拒否するため、テストでは差し替える。
func newTestFeedProvider(server *httptest.Server, category string, ttl time.Duration) *FeedProvider {
	p := NewFeedProvider(
		[]Source{{Category: category, URL: server.URL + "/feed.xml"}},
		nil,
		security.NewSanitizer(),
		slog.Default(),
		5*time.Second,
		1<<20,
		ttl,
	)
	p.client = server.Client()
	p.resolver.client = server.Client()
	return p
}

func newFeedServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(feedXML))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestFeedProvider_Headlines_ConvertsAndSanitizesItems(t *testing.T) {
	server := newFeedServer(t, nil)
	provider := newTestFeedProvider(server, "technology", time.Minute)

	articles, err := provider.Headlines(context.Background(), "")
	if err != nil {
		t.Fatalf("Headlines() error = %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("article count = %d, want 2", len(articles))
	}

	// 公開日時の降順で並ぶこと
	first := articles[0]
	if first.ID != "guid-first" {
		t.Errorf("first article ID = %q, want guid", first.ID)
	}
	if !first.PublishedAt.After(articles[1].PublishedAt) {
		t.Error("expected newest-first ordering")
	}

	// タイトルはプレーンテキスト化されること
	if first.Title != "First Post" {
		t.Errorf("title = %q, want %q", first.Title, "First Post")
	}

	// カテゴリとソースが付与されること
	if first.Category != "technology" {
		t.Errorf("category = %q, want %q", first.Category, "technology")
	}
	if first.Source.Name != "Tech Today" {
		t.Errorf("source name = %q, want %q", first.Source.Name, "Tech Today")
	}

	// scriptタグはサニタイズで除去されること
	second := articles[1]
	if strings.Contains(second.Content, "script") || strings.Contains(second.Content, "alert") {
		t.Errorf("content not sanitized: %q", second.Content)
	}
	if !strings.Contains(second.Content, "Body text") {
		t.Errorf("content lost during sanitization: %q", second.Content)
	}
}

func TestFeedProvider_CachesWithinTTL(t *testing.T) {
	var hits atomic.Int32
	server := newFeedServer(t, &hits)
	provider := newTestFeedProvider(server, "technology", time.Minute)
	ctx := context.Background()

	if _, err := provider.Headlines(ctx, ""); err != nil {
		t.Fatalf("Headlines() error = %v", err)
	}
	fetchesAfterFirst := hits.Load()

	if _, err := provider.Search(ctx, "post"); err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	// TTL内の再クエリはネットワークに出ない
	if hits.Load() != fetchesAfterFirst {
		t.Errorf("fetch count = %d, want %d (cached)", hits.Load(), fetchesAfterFirst)
	}
}

func TestFeedProvider_StaleCacheServedOnFetchFailure(t *testing.T) {
	var fail atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(feedXML))
	}))
	defer server.Close()

	provider := newTestFeedProvider(server, "technology", time.Nanosecond)
	ctx := context.Background()

	if _, err := provider.Headlines(ctx, ""); err != nil {
		t.Fatalf("Headlines() error = %v", err)
	}

	fail.Store(true)
	time.Sleep(time.Millisecond) // TTLを確実に失効させる

	articles, err := provider.Headlines(ctx, "")
	if err != nil {
		t.Fatalf("Headlines() with stale cache error = %v", err)
	}
	if len(articles) != 2 {
		t.Errorf("article count = %d, want 2 from stale cache", len(articles))
	}
}

func TestFeedProvider_AllSourcesFailWithoutCache_ReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	provider := newTestFeedProvider(server, "technology", time.Minute)

	_, err := provider.Headlines(context.Background(), "")
	if err == nil {
		t.Fatal("expected error when all sources fail with no cache")
	}
}

func TestFeedProvider_QueriesShareFilterSemantics(t *testing.T) {
	server := newFeedServer(t, nil)
	provider := newTestFeedProvider(server, "technology", time.Minute)
	ctx := context.Background()

	byCategory, err := provider.ByCategory(ctx, "Technology")
	if err != nil {
		t.Fatalf("ByCategory() error = %v", err)
	}
	if len(byCategory) != 2 {
		t.Errorf("category match count = %d, want 2", len(byCategory))
	}

	search, err := provider.Search(ctx, "second")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(search) != 1 {
		t.Errorf("search match count = %d, want 1", len(search))
	}

	recommended, err := provider.Recommended(ctx, []string{"technology"})
	if err != nil {
		t.Fatalf("Recommended() error = %v", err)
	}
	if len(recommended) != 2 {
		t.Errorf("recommendation count = %d, want 2", len(recommended))
	}
}

func TestParseSourceList(t *testing.T) {
	sources, err := ParseSourceList("technology=https://a.example.com/feed, science=https://b.example.com")
	if err != nil {
		t.Fatalf("ParseSourceList() error = %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("source count = %d, want 2", len(sources))
	}
	if sources[0].Category != "technology" || sources[0].URL != "https://a.example.com/feed" {
		t.Errorf("unexpected first source: %+v", sources[0])
	}
	if sources[1].Category != "science" {
		t.Errorf("unexpected second source: %+v", sources[1])
	}
}

func TestParseSourceList_InvalidEntries(t *testing.T) {
	cases := []string{"", "no-separator", "=https://a.example.com", "technology="}
	for _, raw := range cases {
		t.Run(fmt.Sprintf("%q", raw), func(t *testing.T) {
			if _, err := ParseSourceList(raw); err == nil {
				t.Errorf("ParseSourceList(%q) expected error", raw)
			}
		})
	}
}
