package core

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/searchktools/docroot-server/core/observability"
	"github.com/searchktools/docroot-server/core/pools"
)

// ServerStats represents statistics for the worker pool, the chunk buffer
// pool, the runtime and served requests
type ServerStats struct {
	Workers  WorkerStats  `json:"workers"`
	Buffers  BufferStats  `json:"buffers"`
	Runtime  RuntimeStats `json:"runtime"`
	Requests []RouteStats `json:"requests"`
}

type WorkerStats struct {
	Workers   int    `json:"workers"`
	Busy      int    `json:"busy"`
	Submitted uint64 `json:"submitted"`
	Completed uint64 `json:"completed"`
	Panicked  uint64 `json:"panicked"`
}

type BufferStats struct {
	Gets      uint64 `json:"gets"`
	Oversized uint64 `json:"oversized"`
}

type RuntimeStats struct {
	NumGC        uint32 `json:"num_gc"`
	AvgPauseNs   int64  `json:"avg_pause_ns"`
	AllocBytes   uint64 `json:"alloc_bytes"`
	NumGoroutine int    `json:"goroutines"`
}

type RouteStats struct {
	Route  string `json:"route"`
	Count  uint64 `json:"count"`
	Errors uint64 `json:"errors"`
	AvgNs  int64  `json:"avg_ns"`
	MaxNs  int64  `json:"max_ns"`
}

// GetStats returns a snapshot of the engine's statistics
func (e *Engine) GetStats() ServerStats {
	ws := e.pool.Stats()
	bs := pools.GlobalByteStats()
	gc := pools.GetGCStats()

	stats := ServerStats{
		Workers: WorkerStats{
			Workers:   ws.NumWorkers,
			Busy:      ws.Busy,
			Submitted: ws.TasksSubmitted,
			Completed: ws.TasksCompleted,
			Panicked:  ws.TasksPanicked,
		},
		Buffers: BufferStats{
			Gets:      bs.Gets,
			Oversized: bs.Oversized,
		},
		Runtime: RuntimeStats{
			NumGC:        gc.NumGC,
			AvgPauseNs:   int64(gc.AvgPause),
			AllocBytes:   gc.AllocBytes,
			NumGoroutine: gc.NumGoroutine,
		},
		Requests: routeStats(e.monitor.Snapshot()),
	}

	return stats
}

func routeStats(s observability.Snapshot) []RouteStats {
	routes := make([]RouteStats, 0, len(s.Routes))
	for _, rs := range s.Routes {
		routes = append(routes, RouteStats{
			Route:  rs.Route,
			Count:  rs.Count,
			Errors: rs.Errors,
			AvgNs:  int64(rs.AvgDuration),
			MaxNs:  int64(rs.MaxDuration),
		})
	}
	return routes
}

// GetStatsJSON returns statistics as JSON string
func (e *Engine) GetStatsJSON() string {
	stats := e.GetStats()
	data, _ := json.MarshalIndent(stats, "", "  ")
	return string(data)
}

// GetStatsText returns statistics as human-readable text
func (e *Engine) GetStatsText() string {
	stats := e.GetStats()

	var b strings.Builder
	fmt.Fprintf(&b, `Server Statistics
=================

Workers:
  Pool size: %d
  Busy:      %d
  Served:    %d / %d submitted
  Panicked:  %d

Chunk Buffers:
  Gets:      %d
  Oversized: %d

Runtime:
  GC runs:    %d
  Avg pause:  %d ns
  Goroutines: %d
`,
		stats.Workers.Workers, stats.Workers.Busy,
		stats.Workers.Completed, stats.Workers.Submitted, stats.Workers.Panicked,
		stats.Buffers.Gets, stats.Buffers.Oversized,
		stats.Runtime.NumGC, stats.Runtime.AvgPauseNs, stats.Runtime.NumGoroutine,
	)

	if len(stats.Requests) > 0 {
		b.WriteString("\nRequests:\n")
		for _, r := range stats.Requests {
			fmt.Fprintf(&b, "  %-10s %d (%d errors)\n", r.Route, r.Count, r.Errors)
		}
	}
	return b.String()
}
