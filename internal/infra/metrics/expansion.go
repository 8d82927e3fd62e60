package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(expansionTotal) }

var expansionTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "discovery_keyword_expansion_total",
		Help: "Keyword expansion attempts by result.",
	},
	[]string{"result"}, // 'expanded', 'not_needed', 'degraded'
)

func IncExpansion(result string) {
	expansionTotal.WithLabelValues(norm(result)).Inc()
}
