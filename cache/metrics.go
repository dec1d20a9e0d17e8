package cache

import "github.com/prometheus/client_golang/prometheus"

var (
	hitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "courier",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "The total number of cache lookups returning a resident object",
	})

	missesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "courier",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "The total number of cache lookups returning absent",
	})

	admissionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "courier",
		Subsystem: "cache",
		Name:      "admissions_total",
		Help:      "The total number of objects inserted into the cache",
	})

	evictionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "courier",
		Subsystem: "cache",
		Name:      "evictions_total",
		Help:      "The total number of objects evicted to reclaim capacity",
	})

	dropsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "courier",
		Subsystem: "cache",
		Name:      "dropped_admissions_total",
		Help:      "The total number of admissions dropped without insertion",
	}, []string{"reason"})

	residentObjects = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "courier",
		Subsystem: "cache",
		Name:      "resident_objects",
		Help:      "Objects currently resident",
	})

	residentBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "courier",
		Subsystem: "cache",
		Name:      "resident_bytes",
		Help:      "Sum of resident object sizes",
	})
)

func init() {
	prometheus.MustRegister(hitsTotal, missesTotal, admissionsTotal,
		evictionsTotal, dropsTotal, residentObjects, residentBytes)
}
