package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Engine exposes allocation counters for scraping.
type Engine struct {
	registry *prometheus.Registry

	Allocations     *prometheus.CounterVec
	FilledSlots     *prometheus.CounterVec
	UnassignedSlots *prometheus.CounterVec
	StaleResults    *prometheus.CounterVec
	DegradedFetches *prometheus.CounterVec
	OverAllocations prometheus.Counter
	Replacements    *prometheus.CounterVec
	Swaps           *prometheus.CounterVec
}

// NewEngine registers the planner counters on a private registry together with
// the Go runtime collectors.
func NewEngine() *Engine {
	reg := prometheus.NewRegistry()
	e := &Engine{
		registry: reg,
		Allocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "meal_planner",
			Name:      "allocations_total",
			Help:      "Allocation passes applied, by phase.",
		}, []string{"phase"}),
		FilledSlots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "meal_planner",
			Name:      "filled_slots_total",
			Help:      "Slots filled by allocation, by phase.",
		}, []string{"phase"}),
		UnassignedSlots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "meal_planner",
			Name:      "unassigned_slots_total",
			Help:      "Open slots left without a candidate, by phase.",
		}, []string{"phase"}),
		StaleResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "meal_planner",
			Name:      "stale_results_total",
			Help:      "Allocation results discarded because a newer request superseded them.",
		}, []string{"phase"}),
		DegradedFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "meal_planner",
			Name:      "degraded_fetches_total",
			Help:      "Allocation inputs that could not be fetched, by source.",
		}, []string{"source"}),
		OverAllocations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "meal_planner",
			Name:      "over_allocations_total",
			Help:      "Leftover items found assigned beyond their quantity.",
		}),
		Replacements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "meal_planner",
			Name:      "replacements_total",
			Help:      "User overrides, by source kind.",
		}, []string{"kind"}),
		Swaps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "meal_planner",
			Name:      "swaps_total",
			Help:      "Dinner swaps, by target.",
		}, []string{"target"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		e.Allocations,
		e.FilledSlots,
		e.UnassignedSlots,
		e.StaleResults,
		e.DegradedFetches,
		e.OverAllocations,
		e.Replacements,
		e.Swaps,
	)
	return e
}

// Handler serves the registry in the Prometheus text format.
func (e *Engine) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{Registry: e.registry})
}
