// Package model はドメインモデルを定義する。
package model

import "time"

// ArticleSource は記事の配信元を表す。
type ArticleSource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Article はコンテンツプロバイダーから取得したニュース記事を表す。
// コア層では不変のスナップショットとして扱い、フィールドを編集しない。
type Article struct {
	ID                 string        `json:"id"`
	Title              string        `json:"title"`
	Description        string        `json:"description"`
	Content            string        `json:"content"`
	URL                string        `json:"url"`
	Image              string        `json:"image"`
	PublishedAt        time.Time     `json:"publishedAt"`
	Source             ArticleSource `json:"source"`
	Category           string        `json:"category"`
	ReadingTimeMinutes int           `json:"readingTimeMinutes"`
}

// Category はニュースのカテゴリ識別子を表す。
type Category string

// 定義済みカテゴリ
const (
	CategoryGeneral       Category = "general"
	CategoryTechnology    Category = "technology"
	CategoryScience       Category = "science"
	CategoryBusiness      Category = "business"
	CategoryHealth        Category = "health"
	CategoryEntertainment Category = "entertainment"
	CategoryPolitics      Category = "politics"
)
