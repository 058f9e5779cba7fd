// Package news はコンテンツプロバイダーを提供する。
//
// Provider は見出し・カテゴリ別・検索・レコメンデーションの各クエリに
// 応答して有限の記事列を返す。コア層（セッション・お気に入り）からは
// ブラックボックスの外部コラボレーターとして扱われる。
// モックコーパス実装（Corpus）とRSSフィード実装（FeedProvider）の
// 2つの実装を持つ。
package news

import (
	"context"
	"strings"

	"github.com/kenta/newsstand/internal/model"
)

// Provider はコンテンツプロバイダーのインターフェース。
// すべてのメソッドは失敗しうる非同期呼び出しとして扱い、有限の記事列を返す。
type Provider interface {
	// Headlines はトップ見出しを返す。categoryが空でない場合はそのカテゴリに絞る。
	Headlines(ctx context.Context, category string) ([]model.Article, error)

	// Search はタイトルまたは概要にクエリを含む記事を返す。
	// 照合は大文字小文字を区別しない部分一致。
	Search(ctx context.Context, query string) ([]model.Article, error)

	// ByCategory は指定カテゴリの記事を返す。照合は大文字小文字を区別しない。
	ByCategory(ctx context.Context, category string) ([]model.Article, error)

	// Recommended は嗜好語のいずれかをカテゴリ・タイトル・概要に含む記事を返す。
	Recommended(ctx context.Context, terms []string) ([]model.Article, error)
}

// matchQuery はタイトルまたは概要にクエリを含む記事を抽出する。
func matchQuery(articles []model.Article, query string) []model.Article {
	q := strings.ToLower(query)
	out := make([]model.Article, 0, len(articles))
	for _, a := range articles {
		if strings.Contains(strings.ToLower(a.Title), q) ||
			strings.Contains(strings.ToLower(a.Description), q) {
			out = append(out, a)
		}
	}
	return out
}

// matchCategory は指定カテゴリの記事を抽出する。
func matchCategory(articles []model.Article, category string) []model.Article {
	c := strings.ToLower(category)
	out := make([]model.Article, 0, len(articles))
	for _, a := range articles {
		if strings.ToLower(a.Category) == c {
			out = append(out, a)
		}
	}
	return out
}

// matchTerms は嗜好語のいずれかをカテゴリ・タイトル・概要に含む記事を抽出する。
// termsが空の場合は空列を返す。
func matchTerms(articles []model.Article, terms []string) []model.Article {
	out := make([]model.Article, 0, len(articles))
	for _, a := range articles {
		category := strings.ToLower(a.Category)
		title := strings.ToLower(a.Title)
		description := strings.ToLower(a.Description)
		for _, term := range terms {
			t := strings.ToLower(term)
			if t == "" {
				continue
			}
			if strings.Contains(category, t) ||
				strings.Contains(title, t) ||
				strings.Contains(description, t) {
				out = append(out, a)
				break
			}
		}
	}
	return out
}
