package monitoring

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

const maxResponseSamples = 1000

// Metrics holds application metrics
type Metrics struct {
	RequestCount        int64
	ErrorCount          int64
	CacheHits           int64
	CacheMisses         int64
	AverageResponseTime int64 // in nanoseconds
	StartTime           time.Time

	// Scoring workflow counters
	SessionsCreated    int64
	SessionsEnded      int64
	RecordsAdded       int64
	ValidationWarnings int64
	ScoringRuns        int64
	EmptyScoringRuns   int64
	Clears             int64
	PreviewScores      int64
	RateLimitBlocks    int64

	ResponseTimes      []time.Duration
	ResponseTimesMutex sync.RWMutex

	RequestCountByStatus map[int]int64
	StatusMutex          sync.RWMutex

	// Cumulative score distribution, bucketed by tens
	ScoreBuckets [11]int64
}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	return &Metrics{
		StartTime:            time.Now(),
		ResponseTimes:        make([]time.Duration, 0, maxResponseSamples),
		RequestCountByStatus: make(map[int]int64),
	}
}

// IncrementRequest increments the request count
func (m *Metrics) IncrementRequest() {
	atomic.AddInt64(&m.RequestCount, 1)
}

// IncrementError increments the error count
func (m *Metrics) IncrementError() {
	atomic.AddInt64(&m.ErrorCount, 1)
}

// IncrementCacheHit increments cache hit count
func (m *Metrics) IncrementCacheHit() {
	atomic.AddInt64(&m.CacheHits, 1)
}

// IncrementCacheMiss increments cache miss count
func (m *Metrics) IncrementCacheMiss() {
	atomic.AddInt64(&m.CacheMisses, 1)
}

func (m *Metrics) IncrementSessionCreated() { atomic.AddInt64(&m.SessionsCreated, 1) }
func (m *Metrics) IncrementSessionEnded()   { atomic.AddInt64(&m.SessionsEnded, 1) }
func (m *Metrics) IncrementRecordAdded()    { atomic.AddInt64(&m.RecordsAdded, 1) }
func (m *Metrics) IncrementValidationWarning() {
	atomic.AddInt64(&m.ValidationWarnings, 1)
}
func (m *Metrics) IncrementEmptyScoringRun() { atomic.AddInt64(&m.EmptyScoringRuns, 1) }
func (m *Metrics) IncrementClear()           { atomic.AddInt64(&m.Clears, 1) }
func (m *Metrics) IncrementPreview()         { atomic.AddInt64(&m.PreviewScores, 1) }
func (m *Metrics) IncrementRateLimitBlock()  { atomic.AddInt64(&m.RateLimitBlocks, 1) }

// RecordScoringRun counts a scoring run and folds its scores into the distribution
func (m *Metrics) RecordScoringRun(scores []int) {
	atomic.AddInt64(&m.ScoringRuns, 1)
	for _, s := range scores {
		b := s / 10
		if b < 0 {
			b = 0
		}
		if b > 10 {
			b = 10
		}
		atomic.AddInt64(&m.ScoreBuckets[b], 1)
	}
}

// RecordResponseTime records response time for averaging and percentiles
func (m *Metrics) RecordResponseTime(duration time.Duration) {
	current := atomic.LoadInt64(&m.AverageResponseTime)
	newAverage := (current + duration.Nanoseconds()) / 2
	atomic.StoreInt64(&m.AverageResponseTime, newAverage)

	m.ResponseTimesMutex.Lock()
	m.ResponseTimes = append(m.ResponseTimes, duration)
	if len(m.ResponseTimes) > maxResponseSamples {
		m.ResponseTimes = m.ResponseTimes[1:]
	}
	m.ResponseTimesMutex.Unlock()
}

// RecordRequestByStatus records request count by HTTP status code
func (m *Metrics) RecordRequestByStatus(statusCode int) {
	m.StatusMutex.Lock()
	defer m.StatusMutex.Unlock()
	m.RequestCountByStatus[statusCode]++
}

// GetPercentileResponseTime calculates percentile response time
func (m *Metrics) GetPercentileResponseTime(percentile float64) time.Duration {
	m.ResponseTimesMutex.RLock()
	defer m.ResponseTimesMutex.RUnlock()

	if len(m.ResponseTimes) == 0 {
		return 0
	}

	times := make([]time.Duration, len(m.ResponseTimes))
	copy(times, m.ResponseTimes)
	sort.Slice(times, func(i, j int) bool {
		return times[i] < times[j]
	})

	index := int(float64(len(times)-1) * percentile / 100.0)
	if index >= len(times) {
		index = len(times) - 1
	}
	return times[index]
}

// GetStatusCodeDistribution returns request count by status code
func (m *Metrics) GetStatusCodeDistribution() map[int]int64 {
	m.StatusMutex.RLock()
	defer m.StatusMutex.RUnlock()

	distribution := make(map[int]int64, len(m.RequestCountByStatus))
	for code, count := range m.RequestCountByStatus {
		distribution[code] = count
	}
	return distribution
}

// GetScoringStats returns the workflow counters
func (m *Metrics) GetScoringStats() map[string]interface{} {
	buckets := make(map[string]int64, len(m.ScoreBuckets))
	for i := range m.ScoreBuckets {
		label := "100"
		if i < 10 {
			label = bucketLabel(i)
		}
		buckets[label] = atomic.LoadInt64(&m.ScoreBuckets[i])
	}

	return map[string]interface{}{
		"sessions_created":    atomic.LoadInt64(&m.SessionsCreated),
		"sessions_ended":      atomic.LoadInt64(&m.SessionsEnded),
		"records_added":       atomic.LoadInt64(&m.RecordsAdded),
		"validation_warnings": atomic.LoadInt64(&m.ValidationWarnings),
		"scoring_runs":        atomic.LoadInt64(&m.ScoringRuns),
		"empty_scoring_runs":  atomic.LoadInt64(&m.EmptyScoringRuns),
		"clears":              atomic.LoadInt64(&m.Clears),
		"preview_scores":      atomic.LoadInt64(&m.PreviewScores),
		"score_distribution":  buckets,
	}
}

func bucketLabel(i int) string {
	return fmt.Sprintf("%d-%d", i*10, i*10+9)
}

// GetStats returns current metrics statistics
func (m *Metrics) GetStats() map[string]interface{} {
	requests := atomic.LoadInt64(&m.RequestCount)
	errors := atomic.LoadInt64(&m.ErrorCount)
	cacheHits := atomic.LoadInt64(&m.CacheHits)
	cacheMisses := atomic.LoadInt64(&m.CacheMisses)
	avgResponseTime := atomic.LoadInt64(&m.AverageResponseTime)

	errorRate := float64(0)
	if requests > 0 {
		errorRate = float64(errors) / float64(requests) * 100
	}

	cacheHitRate := float64(0)
	if total := cacheHits + cacheMisses; total > 0 {
		cacheHitRate = float64(cacheHits) / float64(total) * 100
	}

	return map[string]interface{}{
		"uptime_seconds":         time.Since(m.StartTime).Seconds(),
		"total_requests":         requests,
		"error_count":            errors,
		"error_rate_percent":     errorRate,
		"cache_hits":             cacheHits,
		"cache_misses":           cacheMisses,
		"cache_hit_rate_percent": cacheHitRate,
		"rate_limit_blocks":      atomic.LoadInt64(&m.RateLimitBlocks),
		"avg_response_time_ms":   float64(avgResponseTime) / 1000000,
		"start_time":             m.StartTime.Format(time.RFC3339),

		"p50_response_time_ms":     float64(m.GetPercentileResponseTime(50)) / 1000000,
		"p95_response_time_ms":     float64(m.GetPercentileResponseTime(95)) / 1000000,
		"p99_response_time_ms":     float64(m.GetPercentileResponseTime(99)) / 1000000,
		"status_code_distribution": m.GetStatusCodeDistribution(),

		"scoring": m.GetScoringStats(),
	}
}

// Reset resets all metrics (useful for testing)
func (m *Metrics) Reset() {
	for _, p := range []*int64{
		&m.RequestCount, &m.ErrorCount, &m.CacheHits, &m.CacheMisses, &m.AverageResponseTime,
		&m.SessionsCreated, &m.SessionsEnded, &m.RecordsAdded, &m.ValidationWarnings,
		&m.ScoringRuns, &m.EmptyScoringRuns, &m.Clears, &m.PreviewScores, &m.RateLimitBlocks,
	} {
		atomic.StoreInt64(p, 0)
	}
	for i := range m.ScoreBuckets {
		atomic.StoreInt64(&m.ScoreBuckets[i], 0)
	}

	m.ResponseTimesMutex.Lock()
	m.ResponseTimes = m.ResponseTimes[:0]
	m.ResponseTimesMutex.Unlock()

	m.StatusMutex.Lock()
	m.RequestCountByStatus = make(map[int]int64)
	m.StatusMutex.Unlock()

	m.StartTime = time.Now()
}
