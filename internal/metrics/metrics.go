package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "yt_exporter"

// Registry holds every exporter metric. It is written to a node-exporter
// textfile at the end of a run rather than served over HTTP.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	APIRequests = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Total number of YouTube Data API requests",
		},
		[]string{"endpoint"},
	)

	APIErrors = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_errors_total",
			Help:      "Total number of failed YouTube Data API requests",
		},
		[]string{"endpoint"},
	)

	VideosExported = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "videos_exported_total",
			Help:      "Total number of video rows written",
		},
	)

	CommentsExported = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "comments_exported_total",
			Help:      "Total number of comment rows written",
		},
	)

	LastRunTimestamp = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last finished export run",
		},
	)
)

// WriteTextfile dumps the registry in the text exposition format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}
