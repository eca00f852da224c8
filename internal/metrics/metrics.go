// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
// auction.EventRecorder、auth.AuthRecorder、middleware.StatusRecorder を満たす。
type Collector struct {
	auctionsCreated prometheus.Counter
	bidsPlaced      prometheus.Counter
	bidsRejected    *prometheus.CounterVec
	authAttempts    *prometheus.CounterVec
	httpStatus      *prometheus.CounterVec
	cleanupDeleted  *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		auctionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sealedbid_auctions_created_total",
			Help: "作成されたオークションの合計数",
		}),
		bidsPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sealedbid_bids_placed_total",
			Help: "受理された入札の合計数",
		}),
		bidsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sealedbid_bids_rejected_total",
			Help: "拒否理由別の入札拒否数",
		}, []string{"reason"}),
		authAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sealedbid_auth_attempts_total",
			Help: "認証方式・結果別のログイン試行数",
		}, []string{"strategy", "outcome"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sealedbid_http_responses_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		cleanupDeleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sealedbid_cleanup_deleted_total",
			Help: "クリーンアップジョブで削除された行数",
		}, []string{"table"}),
	}

	reg.MustRegister(
		c.auctionsCreated,
		c.bidsPlaced,
		c.bidsRejected,
		c.authAttempts,
		c.httpStatus,
		c.cleanupDeleted,
	)

	return c
}

// RecordAuctionCreated はオークション作成を記録する。
func (c *Collector) RecordAuctionCreated() {
	c.auctionsCreated.Inc()
}

// RecordBidPlaced は入札の受理を記録する。
func (c *Collector) RecordBidPlaced() {
	c.bidsPlaced.Inc()
}

// RecordBidRejected は入札の拒否を理由（エラーコード）付きで記録する。
func (c *Collector) RecordBidRejected(reason string) {
	c.bidsRejected.WithLabelValues(reason).Inc()
}

// RecordAuthAttempt はログイン試行を記録する。
func (c *Collector) RecordAuthAttempt(strategy, outcome string) {
	c.authAttempts.WithLabelValues(strategy, outcome).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordCleanupDeleted はクリーンアップで削除した行数を記録する。
func (c *Collector) RecordCleanupDeleted(table string, count int64) {
	c.cleanupDeleted.WithLabelValues(table).Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
