// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
// 認証サービス・お気に入りストア・コンテンツプロバイダーの
// 各レコーダーインターフェースを実装する。
type Collector struct {
	signInSuccess  prometheus.Counter
	signInFail     prometheus.Counter
	signUps        prometheus.Counter
	favoriteAdds   prometheus.Counter
	favoriteDels   prometheus.Counter
	corruptRecords prometheus.Counter
	sourceFetches  *prometheus.CounterVec
	fetchLatency   prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		signInSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newsstand_signin_success_total",
			Help: "サインイン成功の合計数",
		}),
		signInFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newsstand_signin_fail_total",
			Help: "サインイン失敗の合計数",
		}),
		signUps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newsstand_signup_total",
			Help: "サインアップ成功の合計数",
		}),
		favoriteAdds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newsstand_favorite_add_total",
			Help: "お気に入り追加の合計数",
		}),
		favoriteDels: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newsstand_favorite_remove_total",
			Help: "お気に入り削除の合計数",
		}),
		corruptRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newsstand_corrupt_record_total",
			Help: "破損レコード検出の合計数",
		}),
		sourceFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsstand_source_fetch_total",
			Help: "ソースフェッチの結果別合計数",
		}, []string{"category", "result"}),
		fetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "newsstand_source_fetch_latency_seconds",
			Help:    "ソースフェッチのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.signInSuccess,
		c.signInFail,
		c.signUps,
		c.favoriteAdds,
		c.favoriteDels,
		c.corruptRecords,
		c.sourceFetches,
		c.fetchLatency,
	)

	return c
}

// RecordSignInSuccess はサインイン成功を記録する。
func (c *Collector) RecordSignInSuccess() {
	c.signInSuccess.Inc()
}

// RecordSignInFailure はサインイン失敗を記録する。
func (c *Collector) RecordSignInFailure() {
	c.signInFail.Inc()
}

// RecordSignUp はサインアップ成功を記録する。
func (c *Collector) RecordSignUp() {
	c.signUps.Inc()
}

// RecordFavoriteAdded はお気に入り追加を記録する。
func (c *Collector) RecordFavoriteAdded() {
	c.favoriteAdds.Inc()
}

// RecordFavoriteRemoved はお気に入り削除を記録する。
func (c *Collector) RecordFavoriteRemoved() {
	c.favoriteDels.Inc()
}

// RecordCorruptRecord は破損レコードの検出を記録する。
func (c *Collector) RecordCorruptRecord() {
	c.corruptRecords.Inc()
}

// RecordSourceFetch はソースフェッチの結果とレイテンシを記録する。
func (c *Collector) RecordSourceFetch(category string, success bool, duration time.Duration) {
	result := "success"
	if !success {
		result = "fail"
	}
	c.sourceFetches.WithLabelValues(category, result).Inc()
	c.fetchLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
