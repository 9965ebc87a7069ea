// Package metrics keeps in-process execution statistics per gateway.
package metrics

import (
	"maps"
	"math"
	"slices"
	"sync"
	"time"
)

const maxTrackedCodes = 100

// GatewayStats tracks executions of one gateway.
type GatewayStats struct {
	mu         sync.Mutex
	counts     int
	failures   int
	total      time.Duration
	mean       float64
	m2         float64
	respCodes  map[string]uint64
	failKinds  map[string]uint64
	lastSeenAt time.Time
}

func newGatewayStats() *GatewayStats {
	return &GatewayStats{
		respCodes: make(map[string]uint64),
		failKinds: make(map[string]uint64),
	}
}

// RecordExecution records a completed round trip and its response code.
func (s *GatewayStats) RecordExecution(duration time.Duration, respCode string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.observe(duration)
	if respCode == "" {
		return
	}
	s.respCodes[respCode]++

	// Evict the least frequent code once the map is full.
	if len(s.respCodes) > maxTrackedCodes {
		var minCode string
		minCount := ^uint64(0)
		for code, count := range s.respCodes {
			if count < minCount {
				minCount, minCode = count, code
			}
		}
		delete(s.respCodes, minCode)
	}
}

// RecordFailure records a round trip that ended with a transport error.
func (s *GatewayStats) RecordFailure(duration time.Duration, kind string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.observe(duration)
	s.failures++
	s.failKinds[kind]++
}

// observe updates the running mean and variance (Welford).
func (s *GatewayStats) observe(duration time.Duration) {
	s.counts++
	s.total += duration
	s.lastSeenAt = time.Now()

	x := float64(duration)
	delta := x - s.mean
	s.mean += delta / float64(s.counts)
	s.m2 += delta * (x - s.mean)
}

func (s *GatewayStats) ExecutionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts
}

func (s *GatewayStats) FailureCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures
}

func (s *GatewayStats) MeanExecutionTime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.counts == 0 {
		return 0
	}
	return s.total / time.Duration(s.counts)
}

// StandardDeviation is the population standard deviation of execution times.
func (s *GatewayStats) StandardDeviation() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.counts <= 1 {
		return 0
	}
	return time.Duration(math.Sqrt(s.m2 / float64(s.counts)))
}

// ResponseCodes returns a copy of the response code counters.
func (s *GatewayStats) ResponseCodes() map[string]uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.respCodes)
}

// FailureKinds returns a copy of the failure counters keyed by transport kind.
func (s *GatewayStats) FailureKinds() map[string]uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.failKinds)
}

// Registry hands out one GatewayStats per gateway name.
type Registry struct {
	mu    sync.Mutex
	stats map[string]*GatewayStats
}

func NewRegistry() *Registry {
	return &Registry{stats: make(map[string]*GatewayStats)}
}

func (r *Registry) Gateway(name string) *GatewayStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.stats[name]
	if !ok {
		s = newGatewayStats()
		r.stats[name] = s
	}
	return s
}

// Names returns the tracked gateway names, sorted.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Sorted(maps.Keys(r.stats))
}
