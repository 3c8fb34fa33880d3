package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PhotosIndexed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "memorybook",
		Name:      "photos_indexed_total",
		Help:      "Total number of photos run through the face pipeline",
	})

	FacesDetected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "memorybook",
		Name:      "faces_detected_total",
		Help:      "Total number of faces surviving the size filter",
	})

	FacesAutoAssigned = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "memorybook",
		Name:      "faces_auto_assigned_total",
		Help:      "Total number of faces auto-assigned to a known person",
	})

	FacesNeedingInput = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "memorybook",
		Name:      "faces_needing_input_total",
		Help:      "Total number of faces queued for user confirmation",
	})

	FaceProcessFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "memorybook",
		Name:      "face_process_failures_total",
		Help:      "Total number of faces that failed mid-batch and were skipped",
	})

	ProviderCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "memorybook",
		Name:      "provider_call_duration_seconds",
		Help:      "Duration of vision provider calls",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
	}, []string{"operation"})

	CaptionsGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "memorybook",
		Name:      "captions_generated_total",
		Help:      "Total number of photo captions generated",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "memorybook",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "memorybook",
		Name:      "ws_connections",
		Help:      "Number of active WebSocket connections",
	})
)
