// Package metrics collects request, tool and Spotify API statistics for the running server.
// file: internal/metrics/collector.go.
package metrics

import (
	"runtime"
	"sort"
	"sync"
	"time"
)

// Snapshot is a point-in-time copy of the collected metrics.
type Snapshot struct {
	StartTime     time.Time     `json:"startTime"`
	Uptime        time.Duration `json:"uptime"`
	GoVersion     string        `json:"goVersion"`
	NumGoroutines int           `json:"numGoroutines"`

	TotalRequests    int            `json:"totalRequests"`
	FailedRequests   int            `json:"failedRequests"`
	RequestLatencies map[string]int `json:"requestLatencies"` // Method to average ms.

	ToolCalls  map[string]int `json:"toolCalls"`
	ToolErrors map[string]int `json:"toolErrors"`

	SpotifyAPICallCount    int `json:"spotifyApiCallCount"`
	SpotifyAPIErrorCount   int `json:"spotifyApiErrorCount"`
	SpotifyAPIAvgLatencyMs int `json:"spotifyApiAvgLatencyMs"`
	TracksRequested        int `json:"tracksRequested"`
	TracksNotFound         int `json:"tracksNotFound"`

	TokenStorageMethod string `json:"tokenStorageMethod,omitempty"`

	LastErrors []ErrorInfo `json:"lastErrors,omitempty"`
}

// ErrorInfo describes one recorded error.
type ErrorInfo struct {
	Timestamp time.Time `json:"timestamp"`
	Component string    `json:"component"`
	Message   string    `json:"message"`
}

type latency struct {
	count int
	total time.Duration
}

// Collector accumulates metrics. It is safe for concurrent use; a nil
// *Collector ignores every call.
type Collector struct {
	mu sync.Mutex

	startTime time.Time
	snapshot  Snapshot
	latencies map[string]*latency
	apiTotal  time.Duration

	errorBuffer []ErrorInfo
	bufferSize  int
}

// NewCollector creates a collector keeping the last errorBufferSize errors.
func NewCollector(errorBufferSize int) *Collector {
	if errorBufferSize <= 0 {
		errorBufferSize = 1
	}
	now := time.Now()
	return &Collector{
		startTime: now,
		snapshot: Snapshot{
			StartTime:  now,
			GoVersion:  runtime.Version(),
			ToolCalls:  make(map[string]int),
			ToolErrors: make(map[string]int),
		},
		latencies:   make(map[string]*latency),
		errorBuffer: make([]ErrorInfo, 0, errorBufferSize),
		bufferSize:  errorBufferSize,
	}
}

// RecordRequest records one handled JSON-RPC message.
func (c *Collector) RecordRequest(method string, elapsed time.Duration, success bool) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.snapshot.TotalRequests++
	if !success {
		c.snapshot.FailedRequests++
	}
	l, ok := c.latencies[method]
	if !ok {
		l = &latency{}
		c.latencies[method] = l
	}
	l.count++
	l.total += elapsed
}

// RecordToolCall records one tools/call outcome. isError covers both Go
// errors and results flagged isError.
func (c *Collector) RecordToolCall(tool string, isError bool) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.snapshot.ToolCalls[tool]++
	if isError {
		c.snapshot.ToolErrors[tool]++
	}
}

// RecordSpotifyAPICall records one Web API round trip.
// requested is the number of ids sent, missing the number that came back null.
func (c *Collector) RecordSpotifyAPICall(elapsed time.Duration, requested, missing int, err error) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.snapshot.SpotifyAPICallCount++
	c.apiTotal += elapsed
	if err != nil {
		c.snapshot.SpotifyAPIErrorCount++
	}
	c.snapshot.TracksRequested += requested
	c.snapshot.TracksNotFound += missing
}

// SetTokenStorageMethod records which token cache is in use.
func (c *Collector) SetTokenStorageMethod(method string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot.TokenStorageMethod = method
}

// RecordError adds an error to the ring buffer.
func (c *Collector) RecordError(component, message string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.errorBuffer) >= c.bufferSize {
		c.errorBuffer = c.errorBuffer[1:]
	}
	c.errorBuffer = append(c.errorBuffer, ErrorInfo{Timestamp: time.Now(), Component: component, Message: message})
}

// Snapshot returns a copy of the current metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.snapshot
	s.Uptime = time.Since(c.startTime)
	s.NumGoroutines = runtime.NumGoroutine()

	s.RequestLatencies = make(map[string]int, len(c.latencies))
	for method, l := range c.latencies {
		s.RequestLatencies[method] = int((l.total / time.Duration(l.count)).Milliseconds())
	}
	if s.SpotifyAPICallCount > 0 {
		s.SpotifyAPIAvgLatencyMs = int((c.apiTotal / time.Duration(s.SpotifyAPICallCount)).Milliseconds())
	}

	s.ToolCalls = copyCounts(c.snapshot.ToolCalls)
	s.ToolErrors = copyCounts(c.snapshot.ToolErrors)
	if len(c.errorBuffer) > 0 {
		s.LastErrors = make([]ErrorInfo, len(c.errorBuffer))
		copy(s.LastErrors, c.errorBuffer)
	}
	return s
}

// LogFields flattens a snapshot into key/value pairs for a structured logger.
func (s Snapshot) LogFields() []any {
	fields := []any{
		"uptime", s.Uptime.Round(time.Second).String(),
		"total_requests", s.TotalRequests,
		"failed_requests", s.FailedRequests,
		"spotify_api_calls", s.SpotifyAPICallCount,
		"spotify_api_errors", s.SpotifyAPIErrorCount,
		"spotify_api_avg_latency_ms", s.SpotifyAPIAvgLatencyMs,
		"tracks_requested", s.TracksRequested,
		"tracks_not_found", s.TracksNotFound,
	}
	tools := make([]string, 0, len(s.ToolCalls))
	for name := range s.ToolCalls {
		tools = append(tools, name)
	}
	sort.Strings(tools)
	for _, name := range tools {
		fields = append(fields, "tool_calls."+name, s.ToolCalls[name])
	}
	return fields
}

func copyCounts(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
