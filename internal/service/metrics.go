package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	callerPage  = "page"
	callerStats = "stats"

	outcomeComplete = "complete"
	outcomeGuard    = "guard"
	outcomeError    = "error"
)

var (
	// keyStorePages 记录对 KeyStore 的分页读取次数
	keyStorePages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kvfiles",
			Name:      "keystore_pages_total",
			Help:      "Number of KeyStore list calls by caller",
		},
		[]string{"caller"},
	)

	// statsScans 按结束原因统计全量扫描次数
	statsScans = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kvfiles",
			Name:      "stats_scans_total",
			Help:      "Number of full key space stats scans by outcome",
		},
		[]string{"outcome"},
	)

	// statsScanPages 单次扫描读取的页数
	statsScanPages = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "kvfiles",
		Name:      "stats_scan_pages",
		Help:      "Pages fetched per stats scan",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
	})
)
