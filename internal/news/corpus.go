package news

import (
	"context"
	"time"

	"github.com/kenta/newsstand/internal/model"
)

// Corpus は固定記事コーパスを返すモックプロバイダー。
// 外部ネットワークなしで全クエリ操作を提供し、デモおよびテストで利用する。
type Corpus struct {
	articles []model.Article
}

// インターフェース実装の確認
var _ Provider = (*Corpus)(nil)

// NewCorpus は組み込みのデモ記事コーパスでCorpusを生成する。
func NewCorpus() *Corpus {
	return &Corpus{articles: demoArticles()}
}

// Headlines はトップ見出しを返す。categoryが空でない場合はそのカテゴリに絞る。
func (c *Corpus) Headlines(_ context.Context, category string) ([]model.Article, error) {
	if category == "" {
		return append([]model.Article(nil), c.articles...), nil
	}
	return matchCategory(c.articles, category), nil
}

// Search はタイトルまたは概要にクエリを含む記事を返す。
func (c *Corpus) Search(_ context.Context, query string) ([]model.Article, error) {
	return matchQuery(c.articles, query), nil
}

// ByCategory は指定カテゴリの記事を返す。
func (c *Corpus) ByCategory(_ context.Context, category string) ([]model.Article, error) {
	return matchCategory(c.articles, category), nil
}

// Recommended は嗜好語のいずれかに合致する記事を返す。
func (c *Corpus) Recommended(_ context.Context, terms []string) ([]model.Article, error) {
	return matchTerms(c.articles, terms), nil
}

// demoArticles はデモ用の固定記事を構築する。IDには記事URLを用いる。
func demoArticles() []model.Article {
	raw := []model.Article{
		{
			Title:       "NASA's New Telescope Discovers Earth-like Planet",
			Description: "Scientists believe they have found a planet that could potentially support life.",
			Content:     "NASA's newest space telescope has discovered a planet that shares many characteristics with Earth, including a similar atmosphere and the potential presence of water. Scientists are calling this a major breakthrough in the search for extraterrestrial life.",
			URL:         "https://example.com/nasa-discovers-earth-like-planet",
			Image:       "https://images.pexels.com/photos/2150/sky-space-dark-galaxy.jpg",
			PublishedAt: time.Date(2025, 4, 15, 10, 30, 0, 0, time.UTC),
			Source: model.ArticleSource{
				Name: "Space News",
				URL:  "https://example.com/space-news",
			},
			Category: "science",
		},
		{
			Title:       "Global Tech Conference Unveils Next-Generation AI",
			Description: "Leading tech companies showcased their latest AI innovations at the annual Global Tech Summit.",
			Content:     "The Global Tech Summit saw major announcements from industry leaders regarding advancements in artificial intelligence. Companies demonstrated AI systems capable of complex reasoning, creative content generation, and unprecedented language understanding. Experts predict these technologies will transform industries from healthcare to entertainment within the next five years.",
			URL:         "https://example.com/tech-conference-ai",
			Image:       "https://images.pexels.com/photos/373543/pexels-photo-373543.jpeg",
			PublishedAt: time.Date(2025, 4, 14, 14, 45, 0, 0, time.UTC),
			Source: model.ArticleSource{
				Name: "Tech Today",
				URL:  "https://example.com/tech-today",
			},
			Category: "technology",
		},
		{
			Title:       "Economic Report Shows Strong Growth in Green Energy Sector",
			Description: "Investments in renewable energy hit record highs according to new economic data.",
			Content:     "The latest economic report reveals that the green energy sector has experienced unprecedented growth over the past quarter. Solar and wind energy companies have seen their stock prices surge as governments worldwide increase funding for renewable energy initiatives. Analysts predict this trend will continue as countries work to meet ambitious climate goals.",
			URL:         "https://example.com/green-energy-growth",
			Image:       "https://images.pexels.com/photos/414837/pexels-photo-414837.jpeg",
			PublishedAt: time.Date(2025, 4, 13, 9, 15, 0, 0, time.UTC),
			Source: model.ArticleSource{
				Name: "Financial Times",
				URL:  "https://example.com/financial-times",
			},
			Category: "business",
		},
		{
			Title:       "New Study Links Exercise to Improved Mental Health",
			Description: "Researchers find strong correlation between regular physical activity and reduced anxiety.",
			Content:     "A comprehensive study published in the Journal of Health Psychology has found that even moderate amounts of regular exercise can significantly reduce symptoms of anxiety and depression. The research, which followed over 5,000 participants for three years, showed that those who exercised at least three times per week reported 60% fewer mental health issues than those who were sedentary.",
			URL:         "https://example.com/exercise-mental-health",
			Image:       "https://images.pexels.com/photos/40751/running-runner-long-distance-fitness-40751.jpeg",
			PublishedAt: time.Date(2025, 4, 12, 16, 20, 0, 0, time.UTC),
			Source: model.ArticleSource{
				Name: "Health Journal",
				URL:  "https://example.com/health-journal",
			},
			Category: "health",
		},
		{
			Title:       "Major Film Festival Announces Diverse Lineup for 2025",
			Description: "This year's festival will feature films from over 50 countries and a record number of female directors.",
			Content:     "The International Film Festival has announced its most diverse lineup ever for the 2025 event. The selection includes productions from over 50 countries, with 45% of films directed by women and 30% by first-time directors. Festival organizers say this reflects their commitment to showcasing a wide range of voices and perspectives in cinema.",
			URL:         "https://example.com/film-festival-lineup",
			Image:       "https://images.pexels.com/photos/65128/pexels-photo-65128.jpeg",
			PublishedAt: time.Date(2025, 4, 11, 11, 50, 0, 0, time.UTC),
			Source: model.ArticleSource{
				Name: "Entertainment Weekly",
				URL:  "https://example.com/entertainment-weekly",
			},
			Category: "entertainment",
		},
		{
			Title:       "New Legislation Aims to Protect Consumer Privacy Online",
			Description: "Lawmakers propose comprehensive data protection bill to give users more control over personal information.",
			Content:     "A bipartisan group of legislators has introduced a new bill aimed at strengthening online privacy protections for consumers. The proposed legislation would require companies to obtain explicit consent before collecting personal data, provide clear explanations of how data will be used, and allow users to easily request deletion of their information. Tech industry representatives have expressed concerns about implementation costs.",
			URL:         "https://example.com/privacy-legislation",
			Image:       "https://images.pexels.com/photos/342520/pexels-photo-342520.jpeg",
			PublishedAt: time.Date(2025, 4, 10, 13, 40, 0, 0, time.UTC),
			Source: model.ArticleSource{
				Name: "Politics Daily",
				URL:  "https://example.com/politics-daily",
			},
			Category: "politics",
		},
	}

	for i := range raw {
		raw[i].ID = raw[i].URL
		raw[i].ReadingTimeMinutes = ReadingTimeMinutes(raw[i].Content)
	}
	return raw
}
