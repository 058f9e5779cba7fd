package news

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/kenta/newsstand/internal/model"
)

// userAgent はアウトバウンドHTTPリクエストで名乗るUA文字列。
const userAgent = "Newsstand/1.0 News Reader"

// descriptionMaxRunes は記事概要の最大長（rune数）。超過分は省略記号で切り詰める。
const descriptionMaxRunes = 200

// Source は設定で登録されたニュースソースを表す。
type Source struct {
	Category string
	URL      string
}

// ParseSourceList は "category=url,category=url" 形式のソース設定をパースする。
func ParseSourceList(raw string) ([]Source, error) {
	var sources []Source
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		category, feedURL, ok := strings.Cut(entry, "=")
		if !ok || category == "" || feedURL == "" {
			return nil, fmt.Errorf("invalid source entry: %q (want category=url)", entry)
		}
		sources = append(sources, Source{
			Category: strings.ToLower(strings.TrimSpace(category)),
			URL:      strings.TrimSpace(feedURL),
		})
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no sources configured")
	}
	return sources, nil
}

// HTMLSanitizer は記事HTMLのサニタイズインターフェース。
type HTMLSanitizer interface {
	SanitizeHTML(rawHTML string) string
	PlainText(rawHTML string) string
}

// FetchRecorder はソースフェッチのメトリクス記録インターフェース。
type FetchRecorder interface {
	RecordSourceFetch(category string, success bool, duration time.Duration)
}

// cachedSource はソースごとのフェッチ結果のキャッシュエントリ。
type cachedSource struct {
	articles  []model.Article
	fetchedAt time.Time
}

// FeedProvider は登録済みRSS/Atomフィードを取得源とするプロバイダー。
// ソースごとにTTL付きキャッシュを持ち、TTL内の再クエリはネットワークに出ない。
// フェッチに失敗したソースは期限切れキャッシュで代替し、
// 全ソースが失敗してキャッシュも無い場合のみエラーを返す。
type FeedProvider struct {
	sources   []Source
	resolver  *SourceResolver
	guard     OutboundGuard
	sanitizer HTMLSanitizer
	logger    *slog.Logger
	recorder  FetchRecorder

	timeout  time.Duration
	maxSize  int64
	cacheTTL time.Duration

	mu       sync.Mutex
	cache    map[string]cachedSource
	resolved map[string]string // ソースURL -> 解決済みフィードURL

	// テスト用のクライアント差し替えフック。nilの場合はguardから生成する。
	client *http.Client
}

// インターフェース実装の確認
var _ Provider = (*FeedProvider)(nil)

// NewFeedProvider はFeedProviderの新しいインスタンスを生成する。
func NewFeedProvider(
	sources []Source,
	guard OutboundGuard,
	sanitizer HTMLSanitizer,
	logger *slog.Logger,
	timeout time.Duration,
	maxSize int64,
	cacheTTL time.Duration,
) *FeedProvider {
	return &FeedProvider{
		sources:   sources,
		resolver:  NewSourceResolver(guard, timeout, maxSize),
		guard:     guard,
		sanitizer: sanitizer,
		logger:    logger,
		timeout:   timeout,
		maxSize:   maxSize,
		cacheTTL:  cacheTTL,
		cache:     make(map[string]cachedSource),
		resolved:  make(map[string]string),
	}
}

// SetRecorder はメトリクスレコーダーを設定する。
func (p *FeedProvider) SetRecorder(r FetchRecorder) {
	p.recorder = r
}

// Headlines はトップ見出しを返す。categoryが空でない場合はそのカテゴリに絞る。
func (p *FeedProvider) Headlines(ctx context.Context, category string) ([]model.Article, error) {
	articles, err := p.collect(ctx)
	if err != nil {
		return nil, err
	}
	if category == "" {
		return articles, nil
	}
	return matchCategory(articles, category), nil
}

// Search はタイトルまたは概要にクエリを含む記事を返す。
func (p *FeedProvider) Search(ctx context.Context, query string) ([]model.Article, error) {
	articles, err := p.collect(ctx)
	if err != nil {
		return nil, err
	}
	return matchQuery(articles, query), nil
}

// ByCategory は指定カテゴリの記事を返す。
func (p *FeedProvider) ByCategory(ctx context.Context, category string) ([]model.Article, error) {
	articles, err := p.collect(ctx)
	if err != nil {
		return nil, err
	}
	return matchCategory(articles, category), nil
}

// Recommended は嗜好語のいずれかに合致する記事を返す。
func (p *FeedProvider) Recommended(ctx context.Context, terms []string) ([]model.Article, error) {
	articles, err := p.collect(ctx)
	if err != nil {
		return nil, err
	}
	return matchTerms(articles, terms), nil
}

// collect は全ソースの記事を集約し、公開日時の降順で返す。
func (p *FeedProvider) collect(ctx context.Context) ([]model.Article, error) {
	var all []model.Article
	failed := 0

	for _, src := range p.sources {
		articles, err := p.sourceArticles(ctx, src)
		if err != nil {
			failed++
			p.logger.Warn("ソースの取得に失敗しました",
				slog.String("category", src.Category),
				slog.String("source_url", src.URL),
				slog.String("error", err.Error()),
			)
			continue
		}
		all = append(all, articles...)
	}

	if len(all) == 0 && failed == len(p.sources) {
		return nil, model.NewProviderFailedError("全ソースの取得に失敗しました")
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].PublishedAt.After(all[j].PublishedAt)
	})
	return all, nil
}

// sourceArticles はソース1件の記事スナップショットを返す。
// TTL内のキャッシュがあればそれを返し、フェッチ失敗時は
// 期限切れキャッシュがあればそれで代替する。
func (p *FeedProvider) sourceArticles(ctx context.Context, src Source) ([]model.Article, error) {
	p.mu.Lock()
	entry, cached := p.cache[src.URL]
	p.mu.Unlock()

	if cached && time.Since(entry.fetchedAt) < p.cacheTTL {
		return entry.articles, nil
	}

	articles, err := p.fetchSource(ctx, src)
	if err != nil {
		if cached {
			p.logger.Warn("期限切れキャッシュで代替します",
				slog.String("source_url", src.URL),
				slog.String("error", err.Error()),
			)
			return entry.articles, nil
		}
		return nil, err
	}

	p.mu.Lock()
	p.cache[src.URL] = cachedSource{articles: articles, fetchedAt: time.Now()}
	p.mu.Unlock()
	return articles, nil
}

// fetchSource はソースのフィードを取得・パースして記事列に変換する。
func (p *FeedProvider) fetchSource(ctx context.Context, src Source) ([]model.Article, error) {
	start := time.Now()
	articles, err := p.doFetch(ctx, src)
	if p.recorder != nil {
		p.recorder.RecordSourceFetch(src.Category, err == nil, time.Since(start))
	}
	return articles, err
}

func (p *FeedProvider) doFetch(ctx context.Context, src Source) ([]model.Article, error) {
	feedURL, err := p.feedURL(ctx, src.URL)
	if err != nil {
		return nil, err
	}

	if p.guard != nil {
		if err := p.guard.ValidateURL(feedURL); err != nil {
			return nil, fmt.Errorf("feed URL rejected: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid feed URL: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, */*")

	resp, err := p.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed fetch returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, p.maxSize))
	if err != nil {
		return nil, fmt.Errorf("feed read failed: %w", err)
	}

	parsed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("feed parse failed: %w", err)
	}

	return p.convertItems(parsed, src, feedURL), nil
}

// feedURL はソースURLの解決済みフィードURLを返す。解決結果はメモ化される。
func (p *FeedProvider) feedURL(ctx context.Context, sourceURL string) (string, error) {
	p.mu.Lock()
	resolved, ok := p.resolved[sourceURL]
	p.mu.Unlock()
	if ok {
		return resolved, nil
	}

	resolved, err := p.resolver.Resolve(ctx, sourceURL)
	if err != nil {
		return "", err
	}

	p.mu.Lock()
	p.resolved[sourceURL] = resolved
	p.mu.Unlock()
	return resolved, nil
}

// convertItems はgofeedの記事をmodel.Articleに変換する。
// 本文HTMLはサニタイズし、概要はプレーンテキスト化して切り詰める。
func (p *FeedProvider) convertItems(parsed *gofeed.Feed, src Source, feedURL string) []model.Article {
	sourceName := parsed.Title
	if sourceName == "" {
		sourceName = hostOf(feedURL)
	}
	sourceURL := parsed.Link
	if sourceURL == "" {
		sourceURL = src.URL
	}

	articles := make([]model.Article, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}

		link := item.Link
		if link == "" && isHTTPURL(item.GUID) {
			link = item.GUID
		}
		id := item.GUID
		if id == "" {
			id = link
		}
		if id == "" {
			continue
		}

		rawContent := item.Content
		if rawContent == "" {
			rawContent = item.Description
		}
		content := p.sanitizer.SanitizeHTML(rawContent)
		plain := p.sanitizer.PlainText(rawContent)

		description := p.sanitizer.PlainText(item.Description)
		if description == "" {
			description = plain
		}

		publishedAt := time.Now().UTC()
		if item.PublishedParsed != nil {
			publishedAt = item.PublishedParsed.UTC()
		} else if item.UpdatedParsed != nil {
			publishedAt = item.UpdatedParsed.UTC()
		}

		var image string
		if item.Image != nil {
			image = item.Image.URL
		}
		if image == "" {
			for _, enc := range item.Enclosures {
				if enc != nil && strings.HasPrefix(enc.Type, "image/") {
					image = enc.URL
					break
				}
			}
		}

		articles = append(articles, model.Article{
			ID:          id,
			Title:       p.sanitizer.PlainText(item.Title),
			Description: truncateRunes(description, descriptionMaxRunes),
			Content:     content,
			URL:         link,
			Image:       image,
			PublishedAt: publishedAt,
			Source: model.ArticleSource{
				Name: sourceName,
				URL:  sourceURL,
			},
			Category:           src.Category,
			ReadingTimeMinutes: ReadingTimeMinutes(plain),
		})
	}
	return articles
}

func (p *FeedProvider) httpClient() *http.Client {
	if p.client != nil {
		return p.client
	}
	if p.guard != nil {
		return p.guard.NewSafeClient(p.timeout)
	}
	return &http.Client{Timeout: p.timeout}
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// truncateRunes は文字列をmax runeに切り詰め、超過時は省略記号を付ける。
func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
