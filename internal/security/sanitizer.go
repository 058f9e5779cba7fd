// Package security はアプリケーションのセキュリティ機能を提供する。
//
// Sanitizer はRSSフィード由来の記事HTMLをサニタイズし、
// XSS攻撃などのセキュリティリスクからユーザーを保護する。
// bluemondayライブラリを使用した許可リストベースのポリシーで、
// 安全なタグと属性のみを通過させる。
package security

import (
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer はHTMLコンテンツのサニタイズ機能を提供する。
// 記事本文の保存前および概要テキストの抽出に使用される。
// スレッドセーフ。同一入力に対して常に同一出力を返す（冪等）。
type Sanitizer struct {
	content *bluemonday.Policy
	strip   *bluemonday.Policy
}

// NewSanitizer はSanitizerの新しいインスタンスを生成する。
// 本文ポリシーの内容:
//   - 許可タグ: p, br, a, ul, ol, li, blockquote, pre, code, strong, em, img
//   - script, iframe, style および全てのon*イベント属性は許可リスト外のため除去される
//   - imgのsrc属性はhttpsスキームのみ許可
//   - aタグには target="_blank" と rel="noreferrer noopener" を強制付与
func NewSanitizer() *Sanitizer {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"p", "br", "ul", "ol", "li",
		"blockquote", "pre", "code",
		"strong", "em",
	)

	p.AllowAttrs("href").OnElements("a")
	p.AllowRelativeURLs(false)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)

	p.AllowAttrs("src").OnElements("img")
	p.AllowAttrs("alt").OnElements("img")
	p.AllowURLSchemeWithCustomPolicy("https", func(u *url.URL) bool {
		return true
	})

	return &Sanitizer{
		content: p,
		strip:   bluemonday.StrictPolicy(),
	}
}

// SanitizeHTML は記事本文HTMLをサニタイズして安全なHTMLを返す。
// 空文字列の入力には空文字列を返す。
func (s *Sanitizer) SanitizeHTML(rawHTML string) string {
	return s.content.Sanitize(rawHTML)
}

// PlainText はHTMLから全タグを除去したプレーンテキストを返す。
// 記事の概要（description）と読了時間の算出に使用される。
// 連続する空白は1つにまとめられる。
func (s *Sanitizer) PlainText(rawHTML string) string {
	stripped := s.strip.Sanitize(rawHTML)
	return strings.Join(strings.Fields(stripped), " ")
}
