package observability

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Monitor records per-route request metrics. A route key is
// "METHOD status", e.g. "GET 200".
type Monitor struct {
	enabled  atomic.Bool
	handlers sync.Map
	global   struct {
		totalRequests atomic.Uint64
		totalErrors   atomic.Uint64
		totalDuration atomic.Uint64
	}
}

// HandlerMetrics stores per-route metrics
type HandlerMetrics struct {
	Name           string
	Count          atomic.Uint64
	Errors         atomic.Uint64
	TotalDuration  atomic.Uint64
	MinDuration    atomic.Uint64
	MaxDuration    atomic.Uint64
	latencyBuckets [10]atomic.Uint64
}

// Bottleneck is a route whose latency or error rate stands out
type Bottleneck struct {
	Type     string
	Location string
	Severity int
	Impact   float64
	Details  string
}

// NewMonitor creates an enabled monitor
func NewMonitor() *Monitor {
	m := &Monitor{}
	m.enabled.Store(true)
	return m
}

// SetEnabled turns recording on or off
func (m *Monitor) SetEnabled(on bool) {
	m.enabled.Store(on)
}

// RouteKey formats the metrics key for a method and status
func RouteKey(method string, status int) string {
	return fmt.Sprintf("%s %d", method, status)
}

// RecordRequest records one completed request
func (m *Monitor) RecordRequest(route string, duration time.Duration, isError bool) {
	if m == nil || !m.enabled.Load() {
		return
	}

	val, _ := m.handlers.LoadOrStore(route, &HandlerMetrics{Name: route})
	metrics := val.(*HandlerMetrics)

	metrics.Count.Add(1)
	if isError {
		metrics.Errors.Add(1)
		m.global.totalErrors.Add(1)
	}

	durationNs := uint64(duration.Nanoseconds())
	metrics.TotalDuration.Add(durationNs)
	updateMinMax(metrics, durationNs)
	metrics.latencyBuckets[bucketFor(durationNs)].Add(1)

	m.global.totalRequests.Add(1)
	m.global.totalDuration.Add(durationNs)
}

func updateMinMax(h *HandlerMetrics, d uint64) {
	for {
		min := h.MinDuration.Load()
		if min != 0 && d >= min {
			break
		}
		if h.MinDuration.CompareAndSwap(min, d) {
			break
		}
	}
	for {
		max := h.MaxDuration.Load()
		if d <= max {
			break
		}
		if h.MaxDuration.CompareAndSwap(max, d) {
			break
		}
	}
}

// bucket upper bounds in milliseconds; the last bucket is unbounded
var bucketBounds = [9]uint64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000}

func bucketFor(durationNs uint64) int {
	ms := durationNs / uint64(time.Millisecond)
	for i, bound := range bucketBounds {
		if ms < bound {
			return i
		}
	}
	return len(bucketBounds)
}

// RouteStats is a point-in-time copy of one route's metrics
type RouteStats struct {
	Route       string
	Count       uint64
	Errors      uint64
	AvgDuration time.Duration
	MinDuration time.Duration
	MaxDuration time.Duration
	Buckets     [10]uint64
}

// Snapshot is a point-in-time copy of all metrics
type Snapshot struct {
	TotalRequests uint64
	TotalErrors   uint64
	Routes        []RouteStats
}

// Snapshot returns the current metrics, routes sorted by key
func (m *Monitor) Snapshot() Snapshot {
	s := Snapshot{
		TotalRequests: m.global.totalRequests.Load(),
		TotalErrors:   m.global.totalErrors.Load(),
	}

	m.handlers.Range(func(_, value interface{}) bool {
		h := value.(*HandlerMetrics)
		rs := RouteStats{
			Route:       h.Name,
			Count:       h.Count.Load(),
			Errors:      h.Errors.Load(),
			MinDuration: time.Duration(h.MinDuration.Load()),
			MaxDuration: time.Duration(h.MaxDuration.Load()),
		}
		if rs.Count > 0 {
			rs.AvgDuration = time.Duration(h.TotalDuration.Load() / rs.Count)
		}
		for i := range h.latencyBuckets {
			rs.Buckets[i] = h.latencyBuckets[i].Load()
		}
		s.Routes = append(s.Routes, rs)
		return true
	})

	sort.Slice(s.Routes, func(i, j int) bool {
		return s.Routes[i].Route < s.Routes[j].Route
	})
	return s
}

// Bottlenecks reports routes averaging over 100ms or failing more than 5%
func (m *Monitor) Bottlenecks() []Bottleneck {
	bottlenecks := make([]Bottleneck, 0)

	for _, rs := range m.Snapshot().Routes {
		if rs.Count == 0 {
			continue
		}

		if rs.AvgDuration > 100*time.Millisecond {
			bottlenecks = append(bottlenecks, Bottleneck{
				Type:     "latency",
				Location: rs.Route,
				Severity: 8,
				Impact:   100.0,
				Details:  fmt.Sprintf("High latency (%v avg)", rs.AvgDuration),
			})
		}

		if rs.Errors > 0 && float64(rs.Errors)/float64(rs.Count) > 0.05 {
			rate := float64(rs.Errors) / float64(rs.Count) * 100
			bottlenecks = append(bottlenecks, Bottleneck{
				Type:     "errors",
				Location: rs.Route,
				Severity: 10,
				Impact:   rate,
				Details:  fmt.Sprintf("%.1f%% error rate", rate),
			})
		}
	}

	return bottlenecks
}

// StartTrace starts timing
func (m *Monitor) StartTrace() int64 {
	if m == nil || !m.enabled.Load() {
		return 0
	}
	return time.Now().UnixNano()
}

// EndTrace ends timing and records
func (m *Monitor) EndTrace(route string, startTime int64, isError bool) {
	if startTime == 0 {
		return
	}
	duration := time.Duration(time.Now().UnixNano() - startTime)
	m.RecordRequest(route, duration, isError)
}
