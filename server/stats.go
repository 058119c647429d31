package server

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/lakeward/mcpserve/protocol"
)

// Statistics accumulates per-instance request counters. All methods are
// safe for concurrent use; the hot total counter is atomic, the keyed maps
// sit behind a mutex.
type Statistics struct {
	total atomic.Uint64

	mu             sync.Mutex
	byMethod       map[string]uint64
	errorsByCode   map[protocol.ErrorCode]uint64
	toolCalls      map[string]uint64
	totalLatency   time.Duration
	maxLatency     time.Duration
	latencySamples uint64
}

// StatsSnapshot is a point-in-time copy of the collected statistics.
type StatsSnapshot struct {
	TotalRequests    uint64                       `json:"totalRequests"`
	RequestsByMethod map[string]uint64            `json:"requestsByMethod"`
	ErrorsByCode     map[protocol.ErrorCode]uint64 `json:"errorsByCode"`
	TotalErrors      uint64                       `json:"totalErrors"`
	AverageLatency   time.Duration                `json:"averageLatency"`
	MaxLatency       time.Duration                `json:"maxLatency"`
	MostUsedTool     string                       `json:"mostUsedTool,omitempty"`
}

// NewStatistics creates an empty collector.
func NewStatistics() *Statistics {
	return &Statistics{
		byMethod:     make(map[string]uint64),
		errorsByCode: make(map[protocol.ErrorCode]uint64),
		toolCalls:    make(map[string]uint64),
	}
}

// RecordRequest registers one completed (or errored) request. errCode is
// nil for successful requests.
func (s *Statistics) RecordRequest(method string, duration time.Duration, errCode *protocol.ErrorCode) {
	s.total.Add(1)

	s.mu.Lock()
	defer s.mu.Unlock()
	if method != "" {
		s.byMethod[method]++
	}
	if errCode != nil {
		s.errorsByCode[*errCode]++
	}
	s.totalLatency += duration
	s.latencySamples++
	if duration > s.maxLatency {
		s.maxLatency = duration
	}
}

// RecordToolCall notes one invocation of the named tool, feeding the
// most-used-tool derivation.
func (s *Statistics) RecordToolCall(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toolCalls[name]++
}

// Snapshot returns a copy of the current counters.
func (s *Statistics) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := StatsSnapshot{
		TotalRequests:    s.total.Load(),
		RequestsByMethod: make(map[string]uint64, len(s.byMethod)),
		ErrorsByCode:     make(map[protocol.ErrorCode]uint64, len(s.errorsByCode)),
		MaxLatency:       s.maxLatency,
	}
	for m, c := range s.byMethod {
		snap.RequestsByMethod[m] = c
	}
	for code, c := range s.errorsByCode {
		snap.ErrorsByCode[code] = c
		snap.TotalErrors += c
	}
	if s.latencySamples > 0 {
		snap.AverageLatency = s.totalLatency / time.Duration(s.latencySamples)
	}

	var best string
	var bestCount uint64
	for name, c := range s.toolCalls {
		if c > bestCount || (c == bestCount && best != "" && name < best) {
			best, bestCount = name, c
		}
	}
	snap.MostUsedTool = best
	return snap
}

// Reset clears all counters. Used when an instance is force-rebuilt.
func (s *Statistics) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total.Store(0)
	s.byMethod = make(map[string]uint64)
	s.errorsByCode = make(map[protocol.ErrorCode]uint64)
	s.toolCalls = make(map[string]uint64)
	s.totalLatency = 0
	s.maxLatency = 0
	s.latencySamples = 0
}
