package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ZanzyTHEbar/clearance-scorer/internal/cache"
	"github.com/ZanzyTHEbar/clearance-scorer/internal/session"
)

// View names used in cache keys.
const (
	ViewOperations   = "operations"
	ViewEmployees    = "employees"
	ViewDaily        = "daily"
	ViewOverall      = "overall"
	ViewDailyChart   = "chart_daily"
	ViewOverallChart = "chart_overall"
)

// Service builds views from session snapshots. Built views are cached per
// session, generation and view; a new scoring run or a clear bumps the
// generation so stale entries are never served.
type Service struct {
	cache   *cache.Cache
	metrics cache.Metrics
	charts  ChartOptions
}

// NewService creates a report service backed by c. metrics may be nil.
func NewService(c *cache.Cache, metrics cache.Metrics, charts ChartOptions) *Service {
	return &Service{cache: c, metrics: metrics, charts: charts}
}

func viewKey(snap session.Snapshot, view string, args ...string) string {
	key := fmt.Sprintf("%s:%d:%s", snap.ID, snap.Generation, view)
	for _, a := range args {
		key += ":" + cache.Key(a)
	}
	return key
}

// cachedJSON serves out from the cache or fills it from build.
func cachedJSON[T any](s *Service, key string, build func() T) (T, error) {
	var out T
	data, hit, err := s.cache.GetOrCompute(key, s.metrics, func() ([]byte, error) {
		return json.Marshal(build())
	})
	if err != nil {
		return out, fmt.Errorf("build view %s: %w", key, err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		slog.Error("Failed to unmarshal cached view", "error", err, "key", key)
		s.cache.Delete(key)
		return build(), nil
	}
	if hit {
		slog.Debug("Report cache hit", "key", key)
	}
	return out, nil
}

// Records lists the entered records. Records change without a generation
// bump, so this view is never cached.
func (s *Service) Records(snap session.Snapshot) []RecordRow {
	return RecordTable(snap.Records)
}

// Operations returns the scored operation table.
func (s *Service) Operations(snap session.Snapshot) (TableView, error) {
	return cachedJSON(s, viewKey(snap, ViewOperations), func() TableView {
		return OperationTable(snap.Scored)
	})
}

// Employees returns the employee selection list for the daily chart.
func (s *Service) Employees(snap session.Snapshot) ([]string, error) {
	return cachedJSON(s, viewKey(snap, ViewEmployees), func() []string {
		return Employees(snap.Daily)
	})
}

// Daily returns one employee's daily series.
func (s *Service) Daily(snap session.Snapshot, employee string) (DailySeries, error) {
	return cachedJSON(s, viewKey(snap, ViewDaily, employee), func() DailySeries {
		return BuildDailySeries(snap.Daily, employee)
	})
}

// Overall returns the overall bar data.
func (s *Service) Overall(snap session.Snapshot) (OverallBars, error) {
	return cachedJSON(s, viewKey(snap, ViewOverall), func() OverallBars {
		return BuildOverallBars(snap.Overall)
	})
}

// DailyChart renders one employee's line chart. ok is false when the
// employee has no daily data.
func (s *Service) DailyChart(snap session.Snapshot, employee string) (page []byte, ok bool, err error) {
	series, err := s.Daily(snap, employee)
	if err != nil || series.NoData {
		return nil, false, err
	}
	page, _, err = s.cache.GetOrCompute(viewKey(snap, ViewDailyChart, employee), s.metrics, func() ([]byte, error) {
		var buf bytes.Buffer
		if err := RenderDailyChart(&buf, series, s.charts); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	})
	return page, err == nil, err
}

// OverallChart renders the overall bar chart. ok is false when there are no
// results.
func (s *Service) OverallChart(snap session.Snapshot) (page []byte, ok bool, err error) {
	bars, err := s.Overall(snap)
	if err != nil || bars.NoData {
		return nil, false, err
	}
	page, _, err = s.cache.GetOrCompute(viewKey(snap, ViewOverallChart), s.metrics, func() ([]byte, error) {
		var buf bytes.Buffer
		if err := RenderOverallChart(&buf, bars, s.charts); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	})
	return page, err == nil, err
}

// Invalidate drops every cached view of a session.
func (s *Service) Invalidate(sessionID string) {
	if n := s.cache.DeletePrefix(sessionID + ":"); n > 0 {
		slog.Debug("Report cache invalidated", "session_id", sessionID, "entries", n)
	}
}

// GetStats returns cache statistics
func (s *Service) GetStats() map[string]interface{} {
	return s.cache.Stats()
}
