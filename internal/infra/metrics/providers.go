package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(keywordSearchesTotal, creatorsSeenTotal, searchLatencyMs)
}

var keywordSearchesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "discovery_keyword_searches_total",
		Help: "Keyword search calls by platform and outcome.",
	},
	[]string{"platform", "outcome"}, // 'ok', 'transient', 'rate_limited', 'fatal'
)

var creatorsSeenTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "discovery_creators_seen_total",
		Help: "Candidate creators by platform and admission result.",
	},
	[]string{"platform", "result"}, // 'admitted', 'duplicate'
)

var searchLatencyMs = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "discovery_search_latency_ms",
		Help:    "Provider search latency distribution in milliseconds.",
		Buckets: []float64{25, 50, 100, 200, 400, 800, 1600, 3000, 5000, 10000},
	},
	[]string{"platform", "success"},
)

func IncKeywordSearch(platform, outcome string) {
	keywordSearchesTotal.WithLabelValues(norm(platform), norm(outcome)).Inc()
}

func IncCreatorSeen(platform, result string) {
	creatorsSeenTotal.WithLabelValues(norm(platform), norm(result)).Inc()
}

func AddCreatorsSeen(platform string, admitted, duplicate int) {
	creatorsSeenTotal.WithLabelValues(norm(platform), "admitted").Add(float64(admitted))
	creatorsSeenTotal.WithLabelValues(norm(platform), "duplicate").Add(float64(duplicate))
}

func ObserveSearchLatency(platform string, latencyMs int, success bool) {
	searchLatencyMs.WithLabelValues(norm(platform), strconv.FormatBool(success)).
		Observe(float64(latencyMs))
}
