package observability

import (
	"sort"
	"strconv"
	"sync"
	"time"
)

type metricKey struct {
	route  string
	method string
	label  string
}

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu           sync.Mutex
	started      time.Time
	requestCount map[metricKey]int64
	errorCount   map[metricKey]int64
	latencyTotal map[metricKey]time.Duration
}

// Counter is one labelled counter in a snapshot.
type Counter struct {
	Route  string `json:"route"`
	Method string `json:"method"`
	Label  string `json:"label"`
	Count  int64  `json:"count"`
	// AvgMillis is only set for request counters.
	AvgMillis float64 `json:"avg_ms,omitempty"`
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	UptimeSeconds int64     `json:"uptime_seconds"`
	Requests      []Counter `json:"requests"`
	Errors        []Counter `json:"errors"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		started:      time.Now(),
		requestCount: make(map[metricKey]int64),
		errorCount:   make(map[metricKey]int64),
		latencyTotal: make(map[metricKey]time.Duration),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := metricKey{route, method, strconv.Itoa(status)}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
	m.latencyTotal[key] += duration
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	key := metricKey{route, method, code}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// Snapshot copies the current counters sorted by route, method and label.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{Requests: []Counter{}, Errors: []Counter{}}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		UptimeSeconds: int64(time.Since(m.started).Seconds()),
		Requests:      make([]Counter, 0, len(m.requestCount)),
		Errors:        make([]Counter, 0, len(m.errorCount)),
	}
	for key, count := range m.requestCount {
		avg := float64(m.latencyTotal[key].Microseconds()) / 1000 / float64(count)
		snap.Requests = append(snap.Requests, Counter{key.route, key.method, key.label, count, avg})
	}
	for key, count := range m.errorCount {
		snap.Errors = append(snap.Errors, Counter{Route: key.route, Method: key.method, Label: key.label, Count: count})
	}
	sortCounters(snap.Requests)
	sortCounters(snap.Errors)
	return snap
}

func sortCounters(cs []Counter) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].Route != cs[j].Route {
			return cs[i].Route < cs[j].Route
		}
		if cs[i].Method != cs[j].Method {
			return cs[i].Method < cs[j].Method
		}
		return cs[i].Label < cs[j].Label
	})
}
