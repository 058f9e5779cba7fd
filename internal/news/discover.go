package news

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// OutboundGuard はアウトバウンドHTTPアクセスの防護インターフェース。
// security.SSRFGuardを抽象化してテスタビリティを向上させる。
type OutboundGuard interface {
	ValidateURL(rawURL string) error
	NewSafeClient(timeout time.Duration) *http.Client
}

// feedCandidate はHTMLから検出されたフィード候補を表す。
type feedCandidate struct {
	url    string
	isAtom bool
}

// SourceResolver はニュースソースURLからフィードURLを解決する。
// 入力URLがフィード本体ならそのまま返し、HTMLページなら
// headタグのalternateリンクからフィードを検出する。
type SourceResolver struct {
	guard   OutboundGuard
	timeout time.Duration
	maxSize int64

	// テスト用のクライアント差し替えフック。nilの場合はguardから生成する。
	client *http.Client
}

// NewSourceResolver はSourceResolverの新しいインスタンスを生成する。
func NewSourceResolver(guard OutboundGuard, timeout time.Duration, maxSize int64) *SourceResolver {
	return &SourceResolver{
		guard:   guard,
		timeout: timeout,
		maxSize: maxSize,
	}
}

// Resolve はソースURLをフィードURLに解決する。
// 1. SSRF検証を実行
// 2. URLにHTTPリクエストを送信
// 3. Content-Typeとボディからフィード本体かどうかを判定
// 4. HTMLの場合はheadタグからフィードリンクを検出し、優先順位で選択
func (r *SourceResolver) Resolve(ctx context.Context, rawURL string) (string, error) {
	if rawURL == "" {
		return "", fmt.Errorf("empty source URL")
	}
	if r.guard != nil {
		if err := r.guard.ValidateURL(rawURL); err != nil {
			return "", fmt.Errorf("source URL rejected: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("invalid source URL: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, text/html, */*")

	resp, err := r.httpClient().Do(req)
	if err != nil {
		return "", fmt.Errorf("source fetch failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, r.maxSize))
	if err != nil {
		return "", fmt.Errorf("source read failed: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if isDirectFeed(contentType, body) {
		return rawURL, nil
	}

	mediaType, _, _ := mime.ParseMediaType(contentType)
	if !strings.Contains(strings.ToLower(mediaType), "html") {
		return "", fmt.Errorf("no feed found at %s", rawURL)
	}

	candidates := feedLinksFromHTML(body, rawURL)
	if len(candidates) == 0 {
		return "", fmt.Errorf("no feed found at %s", rawURL)
	}
	return pickCandidate(candidates, rawURL).url, nil
}

func (r *SourceResolver) httpClient() *http.Client {
	if r.client != nil {
		return r.client
	}
	if r.guard != nil {
		return r.guard.NewSafeClient(r.timeout)
	}
	return &http.Client{Timeout: r.timeout}
}

// isDirectFeed はContent-Typeとボディを解析して、
// レスポンスがRSS/Atomフィード本体かどうかを判定する。
func isDirectFeed(contentType string, body []byte) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.TrimSpace(strings.Split(contentType, ";")[0])
	}
	mediaType = strings.ToLower(mediaType)

	switch mediaType {
	case "application/rss+xml", "application/atom+xml":
		return true
	case "text/xml", "application/xml":
		// 汎用XMLはボディの先頭部分を検査する
	default:
		return false
	}

	if len(body) == 0 {
		return false
	}
	checkSize := 4096
	if len(body) < checkSize {
		checkSize = len(body)
	}
	prefix := strings.ToLower(string(body[:checkSize]))
	if strings.Contains(prefix, "<rss") || strings.Contains(prefix, "<rdf:rdf") {
		return true
	}
	return strings.Contains(prefix, "<feed") && strings.Contains(prefix, "http://www.w3.org/2005/atom")
}

// feedLinksFromHTML はHTMLのheadタグからRSS/Atomフィードリンクを検出する。
// 相対URLはbaseURLを基準に絶対URLに解決される。
func feedLinksFromHTML(htmlBody []byte, baseURL string) []feedCandidate {
	var candidates []feedCandidate

	base, err := url.Parse(baseURL)
	if err != nil {
		return candidates
	}

	tokenizer := html.NewTokenizer(bytes.NewReader(htmlBody))
	inHead := false

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return candidates

		case html.StartTagToken, html.SelfClosingTagToken:
			tn, hasAttr := tokenizer.TagName()
			switch string(tn) {
			case "head":
				inHead = true
				continue
			case "body":
				return candidates
			case "link":
				if !inHead || !hasAttr {
					continue
				}
			default:
				continue
			}

			var rel, linkType, href string
			for {
				key, val, more := tokenizer.TagAttr()
				switch strings.ToLower(string(key)) {
				case "rel":
					rel = strings.ToLower(string(val))
				case "type":
					linkType = strings.ToLower(string(val))
				case "href":
					href = string(val)
				}
				if !more {
					break
				}
			}

			if rel != "alternate" || href == "" {
				continue
			}
			if linkType != "application/rss+xml" && linkType != "application/atom+xml" {
				continue
			}

			ref, err := url.Parse(href)
			if err != nil {
				continue
			}
			candidates = append(candidates, feedCandidate{
				url:    base.ResolveReference(ref).String(),
				isAtom: linkType == "application/atom+xml",
			})

		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			if string(tn) == "head" {
				return candidates
			}
		}
	}
}

// pickCandidate は複数のフィード候補から最適なものを選択する。
// 優先順位: 同一ホスト > Atom > 先頭
func pickCandidate(candidates []feedCandidate, inputURL string) feedCandidate {
	inputHost := hostOf(inputURL)

	bestIdx := 0
	bestScore := -1
	for i, c := range candidates {
		score := 0
		if hostOf(c.url) == inputHost {
			score += 100
		}
		if c.isAtom {
			score += 10
		}
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	return candidates[bestIdx]
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
