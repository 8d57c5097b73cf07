package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	slidesGeneratedTotal      atomic.Uint64
	slidesFailedTotal         atomic.Uint64
	slidesExampleTotal        atomic.Uint64
	consultantsDefaultedTotal atomic.Uint64
	bindingsFailedTotal       atomic.Uint64

	slidesByStrategy   = newCounterVec("strategy")
	rateLimitedByGroup = newCounterVec("group")

	generationDuration = newHistogram([]float64{50, 100, 250, 500, 1000, 2000, 5000, 10000, 30000})
)

// IncSlidesGenerated counts a slide built from the template.
func IncSlidesGenerated() {
	slidesGeneratedTotal.Add(1)
}

// IncSlidesFailed counts a generation that returned an error.
func IncSlidesFailed() {
	slidesFailedTotal.Add(1)
}

// IncSlidesExample counts a request answered with the pre-generated example.
func IncSlidesExample() {
	slidesExampleTotal.Add(1)
}

// AddConsultantsDefaulted counts consultants bound as placeholders.
func AddConsultantsDefaulted(n int) {
	if n > 0 {
		consultantsDefaultedTotal.Add(uint64(n))
	}
}

// AddBindingsFailed counts mutations that could not be applied.
func AddBindingsFailed(n int) {
	if n > 0 {
		bindingsFailedTotal.Add(uint64(n))
	}
}

// IncSlidesByStrategy counts a generated slide under the binding strategy that produced it.
func IncSlidesByStrategy(strategy string) {
	slidesByStrategy.Inc(strategy)
}

// IncRateLimited counts a request rejected by the rate limiter.
func IncRateLimited(group string) {
	rateLimitedByGroup.Inc(group)
}

// ObserveGenerationDurationMs records a generation duration in milliseconds.
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
	writeCounter(&buf, "slides_generated_total", "Total team slides generated from the template", slidesGeneratedTotal.Load())
	writeCounter(&buf, "slides_failed_total", "Total team slide generations that failed", slidesFailedTotal.Load())
	writeCounter(&buf, "slides_example_total", "Total requests served with the example slide", slidesExampleTotal.Load())
	writeCounter(&buf, "consultants_defaulted_total", "Total consultants bound with placeholder values", consultantsDefaultedTotal.Load())
	writeCounter(&buf, "bindings_failed_total", "Total template mutations that failed to apply", bindingsFailedTotal.Load())
	writeCounterVec(&buf, "slides_by_strategy_total", "Generated team slides by binding strategy", slidesByStrategy)
	writeCounterVec(&buf, "requests_rate_limited_total", "Requests rejected by the rate limiter", rateLimitedByGroup)
	writeHistogram(&buf, "generation_duration_ms", "Team slide generation duration in milliseconds", generationDuration.Snapshot())
	return buf.String()
}

// histogram keeps per-bucket counts; Render accumulates them.
type histogram struct {
	mu     sync.Mutex
	bounds []float64
	counts []uint64
	sum    float64
	total  uint64
}

type histogramSnapshot struct {
	bounds []float64
	counts []uint64
	sum    float64
	total  uint64
}

func newHistogram(bounds []float64) *histogram {
	sorted := append([]float64(nil), bounds...)
	sort.Float64s(sorted)
	return &histogram{bounds: sorted, counts: make([]uint64, len(sorted))}
}

func (h *histogram) Observe(value float64) {
	i := sort.SearchFloat64s(h.bounds, value)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.total++
	h.sum += value
	if i < len(h.counts) {
		h.counts[i]++
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		bounds: h.bounds,
		counts: append([]uint64(nil), h.counts...),
		sum:    h.sum,
		total:  h.total,
	}
}

// counterVec is a counter family keyed by a single label.
type counterVec struct {
	label  string
	mu     sync.Mutex
	values map[string]uint64
}

func newCounterVec(label string) *counterVec {
	return &counterVec{label: label, values: make(map[string]uint64)}
}

func (v *counterVec) Inc(value string) {
	if value == "" {
		value = "unknown"
	}
	v.mu.Lock()
	v.values[value]++
	v.mu.Unlock()
}

func (v *counterVec) snapshot() ([]string, map[string]uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make(map[string]uint64, len(v.values))
	keys := make([]string, 0, len(v.values))
	for k, n := range v.values {
		out[k] = n
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n# TYPE %s counter\n%s %d\n", name, help, name, name, value)
}

func writeCounterVec(buf *bytes.Buffer, name, help string, vec *counterVec) {
	fmt.Fprintf(buf, "# HELP %s %s\n# TYPE %s counter\n", name, help, name)
	keys, values := vec.snapshot()
	for _, k := range keys {
		fmt.Fprintf(buf, "%s{%s=%q} %d\n", name, vec.label, k, values[k])
	}
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n# TYPE %s histogram\n", name, help, name)
	var cumulative uint64
	for i, bound := range snap.bounds {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.total)
	fmt.Fprintf(buf, "%s_sum %s\n%s_count %d\n", name, formatFloat(snap.sum), name, snap.total)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// SinceMillis returns the milliseconds elapsed since start.
func SinceMillis(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}
