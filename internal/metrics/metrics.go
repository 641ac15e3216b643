package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dojo"

// Engine holds the collectors updated by the bracket engine.
type Engine struct {
	MatchesStarted      prometheus.Counter
	MatchesCompleted    prometheus.Counter
	ResultDerivations   prometheus.Counter
	EngineErrors        *prometheus.CounterVec
	BracketBuildSeconds prometheus.Histogram
}

func NewEngine(reg prometheus.Registerer) *Engine {
	factory := promauto.With(reg)
	return &Engine{
		MatchesStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_started_total",
			Help:      "Matches moved to LIVE.",
		}),
		MatchesCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_completed_total",
			Help:      "Match outcomes recorded.",
		}),
		ResultDerivations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "result_derivations_total",
			Help:      "Result batches written for completed brackets.",
		}),
		EngineErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_errors_total",
			Help:      "Rejected engine operations by error kind.",
		}, []string{"kind"}),
		BracketBuildSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "bracket_build_seconds",
			Help:      "Time spent categorizing and building brackets for an event.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}
