package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var histogramBuckets = []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600}

// Recorder tracks pipeline stage durations on a private registry so a run
// can be flushed to a node_exporter textfile without a scrape endpoint.
type Recorder struct {
	registry      *prometheus.Registry
	stageDuration *prometheus.HistogramVec
	runs          *prometheus.CounterVec
}

func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "edgepack",
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each deployment pipeline stage",
			Buckets:   histogramBuckets,
		}, []string{"stage", "outcome"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "edgepack",
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Number of pipeline runs by framework and outcome",
		}, []string{"framework", "outcome"}),
	}

	r.registry.MustRegister(r.stageDuration, r.runs)
	return r
}

func (r *Recorder) ObserveStage(stage string, started time.Time, err error) {
	r.stageDuration.WithLabelValues(stage, outcome(err)).Observe(time.Since(started).Seconds())
}

func (r *Recorder) ObserveRun(framework string, err error) {
	r.runs.WithLabelValues(framework, outcome(err)).Inc()
}

func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile flushes the registry in text exposition format. An empty path is a no-op.
func (r *Recorder) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
