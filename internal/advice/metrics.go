// AngelaMos | 2026
// metrics.go

package advice

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	adviceGeneratedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "advice_generated_total",
		Help: "Voiced advice rows created, by sourcing branch",
	}, []string{"branch"})

	adviceSourcedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "advice_slips_sourced_total",
		Help: "Raw advice slips fetched and stored under the default persona",
	})

	adviceReuseFallbackTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "advice_reuse_fallback_total",
		Help: "Reuse requests where the persona had voiced every persisted slip",
	})

	adviceUpstreamFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "advice_upstream_failures_total",
		Help: "Failed calls to upstream services during generation",
	}, []string{"service"})
)
