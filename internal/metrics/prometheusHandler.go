package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var HttpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "http_requests_total",
	Help: "Total number of requests labelled by path and status",
}, []string{"path", "status"})

var chatStreamsActive = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "chat_streams_active",
	Help: "Number of chat responses currently streaming",
})

var chatStreamBytes = promauto.NewCounter(prometheus.CounterOpts{
	Name: "chat_stream_bytes_total",
	Help: "Bytes relayed from the model to chat clients",
})

var embeddingCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "embedding_cache_lookups_total",
	Help: "Query embedding cache lookups labelled by result",
}, []string{"result"})

var indexedChunks = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "indexed_chunks",
	Help: "Number of chunks written by the last indexing run",
})

var dependencyLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "dependency_latency_seconds",
	Help:    "Latency of external service calls.",
	Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10, 30},
}, []string{"service"})

// HttpStatusRecorder keeps the written status for the request counter. It
// forwards Flush so streamed responses still reach the client chunk by chunk.
type HttpStatusRecorder struct {
	http.ResponseWriter
	Status int
}

func (r *HttpStatusRecorder) WriteHeader(code int) {
	r.Status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *HttpStatusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *HttpStatusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func StreamStarted() {
	chatStreamsActive.Inc()
}

func StreamEnded() {
	chatStreamsActive.Dec()
}

func AddStreamBytes(n int) {
	chatStreamBytes.Add(float64(n))
}

func CacheHit() {
	embeddingCacheLookups.WithLabelValues("hit").Inc()
}

func CacheMiss() {
	embeddingCacheLookups.WithLabelValues("miss").Inc()
}

func SetIndexedChunks(n int) {
	indexedChunks.Set(float64(n))
}

func CaptureExecutionMetrics(label string, timeElapsed time.Duration) {
	dependencyLatency.WithLabelValues(label).Observe(timeElapsed.Seconds())
}
