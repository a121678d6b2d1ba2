package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	generationStartedTotal   atomic.Uint64
	generationCompletedTotal atomic.Uint64
	generationFailedTotal    atomic.Uint64
	metadataDegradedTotal    atomic.Uint64
	persistenceFailedTotal   atomic.Uint64
	mailFailedTotal          atomic.Uint64
	mailJobsReceivedTotal    atomic.Uint64
	mailJobsDeliveredTotal   atomic.Uint64
	mailJobsDroppedTotal     atomic.Uint64

	generationDuration = newHistogram([]float64{500, 1000, 2500, 5000, 10000, 20000, 30000, 45000, 90000})
)

// IncGenerationStarted counts a generation request entering the pipeline.
func IncGenerationStarted() {
	generationStartedTotal.Add(1)
}

// IncGenerationCompleted counts a letter that was generated and stored.
func IncGenerationCompleted() {
	generationCompletedTotal.Add(1)
}

// IncGenerationFailed counts a request that ended in the failed state.
func IncGenerationFailed() {
	generationFailedTotal.Add(1)
}

// IncMetadataDegraded counts metadata passes that fell back to empty values.
func IncMetadataDegraded() {
	metadataDegradedTotal.Add(1)
}

// IncPersistenceFailed counts letters that were generated but not saved.
func IncPersistenceFailed() {
	persistenceFailedTotal.Add(1)
}

// IncMailFailed counts notification e-mails that could not be sent.
func IncMailFailed() {
	mailFailedTotal.Add(1)
}

// IncMailJobsReceived counts outbox messages picked up by the mail worker.
func IncMailJobsReceived() {
	mailJobsReceivedTotal.Add(1)
}

func IncMailJobsDelivered() {
	mailJobsDeliveredTotal.Add(1)
}

// IncMailJobsDropped counts outbox messages deleted without delivery.
func IncMailJobsDropped() {
	mailJobsDroppedTotal.Add(1)
}

// ObserveGenerationDurationMs records a pipeline duration in milliseconds.
func ObserveGenerationDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	generationDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "coverletter_generation_started_total", "Total cover letter generations started", generationStartedTotal.Load())
	writeCounter(&buf, "coverletter_generation_completed_total", "Total cover letters generated and stored", generationCompletedTotal.Load())
	writeCounter(&buf, "coverletter_generation_failed_total", "Total cover letter generations failed", generationFailedTotal.Load())
	writeCounter(&buf, "coverletter_metadata_degraded_total", "Total metadata passes that fell back to empty values", metadataDegradedTotal.Load())
	writeCounter(&buf, "coverletter_persistence_failed_total", "Total generated letters that could not be stored", persistenceFailedTotal.Load())
	writeCounter(&buf, "mail_failed_total", "Total notification e-mails that failed to send", mailFailedTotal.Load())
	writeCounter(&buf, "mail_jobs_received_total", "Total outbox messages received by the mail worker", mailJobsReceivedTotal.Load())
	writeCounter(&buf, "mail_jobs_delivered_total", "Total outbox messages delivered", mailJobsDeliveredTotal.Load())
	writeCounter(&buf, "mail_jobs_dropped_total", "Total outbox messages dropped without delivery", mailJobsDroppedTotal.Load())
	writeHistogram(&buf, "coverletter_generation_duration_ms", "Cover letter generation duration in milliseconds", generationDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

// Observe records value in the first bucket whose bound covers it.
// Render accumulates the per-bucket counts.
func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			break
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
