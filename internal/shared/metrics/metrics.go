package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RouteQueries counts route requests by result
	// Labels: "ok", "identity", "unreachable", "not_found"
	RouteQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "floorplan_route_queries_total",
		Help: "Total route queries by result",
	}, []string{"result"})

	CongestionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "floorplan_congestion_duration_seconds",
		Help:    "Congestion aggregation duration",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})

	// CongestionCache counts cache lookups by outcome: "hit", "miss", "error"
	CongestionCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "floorplan_congestion_cache_total",
		Help: "Congestion cache lookups by outcome",
	}, []string{"outcome"})

	MapMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "floorplan_map_mutations_total",
		Help: "Map mutations by operation",
	}, []string{"operation"})

	SnappedEndpoints = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "floorplan_snapped_endpoints_total",
		Help: "Hallway endpoints resolved by the snapper, by outcome (snapped, created)",
	}, []string{"outcome"})
)
