package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var aiFallbackTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "hiring",
		Subsystem: "ai",
		Name:      "fallback_total",
		Help:      "远程生成失败后改用本地兜底的次数。",
	},
	[]string{"operation"},
)

// ObserveAIFallback 记录一次本地兜底。
func ObserveAIFallback(operation string) {
	aiFallbackTotal.WithLabelValues(operation).Inc()
}
