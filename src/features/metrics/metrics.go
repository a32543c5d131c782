package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "soulsearch"

// Recorder counts what the search engine does. A nil *Recorder is valid and
// records nothing.
type Recorder struct {
	searches     *prometheus.CounterVec
	queries      *prometheus.CounterVec
	retries      *prometheus.CounterVec
	downloads    *prometheus.CounterVec
	cacheLookups *prometheus.CounterVec
	duration     *prometheus.HistogramVec
}

// NewRecorder creates the collectors and registers them on reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Track searches by mode and outcome.",
		}, []string{"mode", "outcome"}),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Search queries by status (matched, empty, duplicate, error).",
		}, []string{"status"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retries_total",
			Help:      "Retried external calls by operation.",
		}, []string{"operation"}),
		downloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "downloads_total",
			Help:      "Download enqueue attempts by outcome.",
		}, []string{"outcome"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Track link cache lookups by result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Wall time of a track search.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"mode"}),
	}
	reg.MustRegister(r.searches, r.queries, r.retries, r.downloads, r.cacheLookups, r.duration)
	return r
}

func (r *Recorder) SearchFinished(mode, outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.searches.WithLabelValues(mode, outcome).Inc()
	r.duration.WithLabelValues(mode).Observe(d.Seconds())
}

func (r *Recorder) Query(status string) {
	if r == nil {
		return
	}
	r.queries.WithLabelValues(status).Inc()
}

// Retry is shaped to be used as a retry.Policy OnRetry hook.
func (r *Recorder) Retry(op string, attempt int, delay time.Duration, err error) {
	if r == nil {
		return
	}
	r.retries.WithLabelValues(op).Inc()
}

func (r *Recorder) Download(outcome string) {
	if r == nil {
		return
	}
	r.downloads.WithLabelValues(outcome).Inc()
}

func (r *Recorder) CacheLookup(result string) {
	if r == nil {
		return
	}
	r.cacheLookups.WithLabelValues(result).Inc()
}
