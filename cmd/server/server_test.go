package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ZanzyTHEbar/clearance-scorer/internal/config"
	"github.com/ZanzyTHEbar/clearance-scorer/internal/middleware"
	"github.com/ZanzyTHEbar/clearance-scorer/internal/monitoring"
	"github.com/ZanzyTHEbar/clearance-scorer/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const drainLabel = "地漏: 清洁、液封"

func testConfig() *config.Config {
	sec := security.DefaultSecurityConfig()
	sec.MaxRequestsPerMin = 10000

	return &config.Config{
		Server:      config.ServerConfig{Port: 8080, Mode: gin.TestMode},
		Log:         config.LogConfig{Level: "error"},
		Session:     config.SessionConfig{TTL: time.Hour, MaxSessions: 100},
		Cache:       config.CacheConfig{TTL: time.Minute},
		Charts:      config.ChartsConfig{AssetsHost: "https://assets.example/"},
		Compression: middleware.DefaultCompressionConfig(),
		Security:    sec,
	}
}

func setupRouter(t *testing.T, cfg *config.Config) (*gin.Engine, *server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := newServer(cfg, monitoring.NewLoggerTo(io.Discard, slog.LevelError))
	s.now = func() time.Time { return time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC) }
	t.Cleanup(s.Close)

	r, err := s.router()
	require.NoError(t, err)
	return r, s
}

func do(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, _ := json.Marshal(b)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func createSession(t *testing.T, r http.Handler) string {
	t.Helper()
	w := do(r, http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id, _ := decode(t, w)["id"].(string)
	require.NotEmpty(t, id)
	return id
}

func addRecord(t *testing.T, r http.Handler, id string, entry map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()
	return do(r, http.MethodPost, "/api/sessions/"+id+"/records", entry)
}

func TestHealthEndpoint(t *testing.T) {
	r, _ := setupRouter(t, testConfig())

	tests := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
	}{
		{name: "GET /health returns OK status", method: http.MethodGet, path: "/health", expectedStatus: http.StatusOK},
		{name: "POST /health is not routed", method: http.MethodPost, path: "/health", expectedStatus: http.StatusNotFound},
		{name: "DELETE /health is not routed", method: http.MethodDelete, path: "/health", expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, tt.method, tt.path, nil)
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}

	body := decode(t, do(r, http.MethodGet, "/health", nil))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, version, body["version"])
	assert.Contains(t, body, "sessions")
	assert.Contains(t, body, "metrics")
}

func TestCatalogEndpoint(t *testing.T) {
	r, _ := setupRouter(t, testConfig())

	w := do(r, http.MethodGet, "/api/catalog", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Len(t, body["operations"], 10)
	assert.Len(t, body["error_types"], 14)
	assert.Equal(t, "安全隐患", body["severe"])
	assert.Equal(t, 80.0, body["default_completion"])
	assert.NotEmpty(t, w.Header().Get(monitoring.RequestIDHeader))
}

func TestScorePreview(t *testing.T) {
	r, _ := setupRouter(t, testConfig())

	tests := []struct {
		name           string
		body           interface{}
		expectedStatus int
		expectedScore  float64
		expectedRule   string
	}{
		{
			name:           "perfect",
			body:           map[string]interface{}{"completion_degree": 100},
			expectedStatus: http.StatusOK,
			expectedScore:  100,
			expectedRule:   "perfect",
		},
		{
			name:           "high floor lifts the raw score",
			body:           map[string]interface{}{"completion_degree": 92, "error_types": []string{"遗漏清点"}},
			expectedStatus: http.StatusOK,
			expectedScore:  85,
			expectedRule:   "high_floor",
		},
		{
			name:           "hazard disables the floor",
			body:           map[string]interface{}{"completion_degree": 92, "safety_hazard": true},
			expectedStatus: http.StatusOK,
			expectedScore:  62,
			expectedRule:   "none",
		},
		{
			name:           "low completion is capped",
			body:           map[string]interface{}{"completion_degree": 65},
			expectedStatus: http.StatusOK,
			expectedScore:  60,
			expectedRule:   "low_cap",
		},
		{
			name:           "default completion",
			body:           map[string]interface{}{},
			expectedStatus: http.StatusOK,
			expectedScore:  80,
			expectedRule:   "mid_floor",
		},
		{
			name:           "completion out of range",
			body:           map[string]interface{}{"completion_degree": 150},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown error type",
			body:           map[string]interface{}{"error_types": []string{"bogus"}},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "malformed json",
			body:           `{"completion_degree": 80,`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/api/score", tt.body)
			require.Equal(t, tt.expectedStatus, w.Code, w.Body.String())

			body := decode(t, w)
			if tt.expectedStatus != http.StatusOK {
				assert.Equal(t, "validation", body["category"])
				return
			}
			assert.Equal(t, tt.expectedScore, body["score"])
			breakdown := body["breakdown"].(map[string]interface{})
			assert.Equal(t, tt.expectedRule, breakdown["rule"])
		})
	}
}

func TestScorePreviewIsCached(t *testing.T) {
	r, s := setupRouter(t, testConfig())
	body := map[string]interface{}{"completion_degree": 88, "error_types": []string{"放置不当"}}

	first := do(r, http.MethodPost, "/api/score", body)
	second := do(r, http.MethodPost, "/api/score", body)

	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, int64(1), s.metrics.PreviewScores)
}

func TestSessionWorkflow(t *testing.T) {
	r, s := setupRouter(t, testConfig())
	id := createSession(t, r)
	base := "/api/sessions/" + id

	// Scoring an empty session is a precondition warning
	w := do(r, http.MethodPost, base+"/score", nil)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "没有可用于评分的数据。请先添加操作记录。", decode(t, w)["message"])

	entries := []map[string]interface{}{
		{"employee_id": "A", "date": "2024-01-01", "operation_description": drainLabel, "completion_degree": 100},
		{"employee_id": "A", "date": "2024-01-01", "operation_description": drainLabel, "completion_degree": 80, "error_types": []string{"放置不当"}},
		{"employee_id": "B", "date": "2024-01-01", "operation_description": drainLabel, "completion_degree": 60, "safety_hazard": true},
	}
	for _, e := range entries {
		w := addRecord(t, r, id, e)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Contains(t, decode(t, w)["message"], "已添加")
	}

	snap := decode(t, do(r, http.MethodGet, base, nil))
	assert.Len(t, snap["records"], 3)
	assert.Equal(t, false, snap["has_results"])

	w = do(r, http.MethodPost, base+"/score", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	out := decode(t, w)
	assert.Equal(t, "评分和图表数据已生成！", out["message"])
	assert.Equal(t, 1.0, out["generation"])

	table := decode(t, do(r, http.MethodGet, base+"/results/operations", nil))
	rows := table["rows"].([]interface{})
	require.Len(t, rows, 3)
	scores := make([]float64, len(rows))
	for i, row := range rows {
		scores[i] = row.(map[string]interface{})["score"].(float64)
	}
	assert.Equal(t, []float64{100, 75, 30}, scores)
	assert.Equal(t, "无", rows[0].(map[string]interface{})["errors"])

	employees := decode(t, do(r, http.MethodGet, base+"/results/employees", nil))
	assert.Equal(t, []interface{}{"A", "B"}, employees["employees"])

	daily := decode(t, do(r, http.MethodGet, base+"/results/daily?employee=A", nil))
	points := daily["points"].([]interface{})
	require.Len(t, points, 1)
	assert.Equal(t, 87.5, points[0].(map[string]interface{})["daily_avg_score"])

	overall := decode(t, do(r, http.MethodGet, base+"/results/overall", nil))
	bars := overall["bars"].([]interface{})
	require.Len(t, bars, 2)
	assert.Equal(t, 30.0, bars[1].(map[string]interface{})["overall_avg_score"])

	assert.Equal(t, int64(3), s.metrics.RecordsAdded)
	assert.Equal(t, int64(1), s.metrics.ScoringRuns)
	assert.Equal(t, int64(1), s.metrics.EmptyScoringRuns)
}

func TestDailyViewWithoutData(t *testing.T) {
	r, _ := setupRouter(t, testConfig())
	id := createSession(t, r)
	base := "/api/sessions/" + id

	daily := decode(t, do(r, http.MethodGet, base+"/results/daily?employee=nobody", nil))
	assert.Equal(t, true, daily["no_data"])
	assert.Equal(t, "no data", daily["message"])

	w := do(r, http.MethodGet, base+"/results/daily", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	employees := decode(t, do(r, http.MethodGet, base+"/results/employees", nil))
	assert.Equal(t, true, employees["no_data"])
}

func TestAddRecordValidation(t *testing.T) {
	r, s := setupRouter(t, testConfig())
	id := createSession(t, r)

	tests := []struct {
		name          string
		entry         interface{}
		expectedField string
	}{
		{
			name:          "missing employee",
			entry:         map[string]interface{}{"operation_description": drainLabel},
			expectedField: "employee_id",
		},
		{
			name:          "operation not in catalog",
			entry:         map[string]interface{}{"employee_id": "A", "operation_description": "made up"},
			expectedField: "operation_description",
		},
		{
			name:          "completion out of range",
			entry:         map[string]interface{}{"employee_id": "A", "operation_description": drainLabel, "completion_degree": -1},
			expectedField: "completion_degree",
		},
		{
			name:          "bad date",
			entry:         map[string]interface{}{"employee_id": "A", "operation_description": drainLabel, "date": "01/02/2024"},
			expectedField: "date",
		},
		{
			name:          "remark too long",
			entry:         map[string]interface{}{"employee_id": "A", "operation_description": drainLabel, "operation_remark": strings.Repeat("x", 500)},
			expectedField: "operation_remark",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := addRecord(t, r, id, tt.entry.(map[string]interface{}))
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

			body := decode(t, w)
			assert.Equal(t, "validation", body["category"])
			fields, _ := body["fields"].(map[string]interface{})
			assert.Contains(t, fields, tt.expectedField)
		})
	}

	snap := decode(t, do(r, http.MethodGet, "/api/sessions/"+id, nil))
	assert.Empty(t, snap["records"], "rejected entries must not change the store")
	assert.Equal(t, int64(len(tests)), s.metrics.ValidationWarnings)
}

func TestWarningResponseBodies(t *testing.T) {
	r, _ := setupRouter(t, testConfig())
	id := createSession(t, r)
	base := "/api/sessions/" + id

	tests := []struct {
		name     string
		method   string
		path     string
		body     interface{}
		status   int
		code     string
		category string
		message  string
		fields   map[string]interface{}
	}{
		{
			name:     "missing required fields",
			method:   http.MethodPost,
			path:     base + "/records",
			body:     map[string]interface{}{"operation_description": drainLabel},
			status:   http.StatusBadRequest,
			code:     "invalid_argument",
			category: "validation",
			message:  "员工ID和操作要点描述不能为空。",
			fields:   map[string]interface{}{"employee_id": "required"},
		},
		{
			name:     "preview out of range",
			method:   http.MethodPost,
			path:     "/api/score",
			body:     map[string]interface{}{"completion_degree": 120},
			status:   http.StatusBadRequest,
			code:     "invalid_argument",
			category: "validation",
			message:  "invalid score request",
			fields:   map[string]interface{}{"completion_degree": "must be between 0 and 100"},
		},
		{
			name:     "scoring an empty session",
			method:   http.MethodPost,
			path:     base + "/score",
			status:   http.StatusConflict,
			code:     "failed_precondition",
			category: "precondition",
			message:  "没有可用于评分的数据。请先添加操作记录。",
		},
		{
			name:     "unknown session",
			method:   http.MethodGet,
			path:     "/api/sessions/nope",
			status:   http.StatusNotFound,
			code:     "not_found",
			category: "not_found",
			message:  "session not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var w *httptest.ResponseRecorder
			require.NotPanics(t, func() { w = do(r, tt.method, tt.path, tt.body) })
			require.Equal(t, tt.status, w.Code, w.Body.String())

			body := decode(t, w)
			assert.Equal(t, tt.code, body["code"])
			assert.Equal(t, tt.category, body["category"])
			assert.Equal(t, tt.message, body["message"])
			assert.Equal(t, float64(tt.status), body["http_status"])
			assert.NotContains(t, body, "Cause")
			if tt.fields != nil {
				assert.Equal(t, tt.fields, body["fields"])
			} else {
				assert.NotContains(t, body, "fields")
			}
		})
	}

	t.Run("no data is informational", func(t *testing.T) {
		w := do(r, http.MethodGet, base+"/results/overall", nil)
		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.Equal(t, true, body["no_data"])
		assert.Equal(t, "no data", body["message"])
		assert.Empty(t, body["bars"])

		w = do(r, http.MethodGet, base+"/charts/daily?employee=A", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "no data", w.Body.String())
	})
}

func TestAddRecordDefaultsDateToToday(t *testing.T) {
	r, _ := setupRouter(t, testConfig())
	id := createSession(t, r)

	w := addRecord(t, r, id, map[string]interface{}{"employee_id": "A", "operation_description": drainLabel})
	require.Equal(t, http.StatusCreated, w.Code)

	record := decode(t, w)["record"].(map[string]interface{})
	assert.Equal(t, "2024-01-02", record["date"])
	assert.Equal(t, 80.0, record["completion_degree"])
}

func TestClearRecords(t *testing.T) {
	r, _ := setupRouter(t, testConfig())
	id := createSession(t, r)
	base := "/api/sessions/" + id

	addRecord(t, r, id, map[string]interface{}{"employee_id": "A", "operation_description": drainLabel})
	require.Equal(t, http.StatusOK, do(r, http.MethodPost, base+"/score", nil).Code)
	require.Equal(t, http.StatusOK, do(r, http.MethodGet, base+"/charts/overall", nil).Code)

	w := do(r, http.MethodDelete, base+"/records", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "所有记录已清空。", decode(t, w)["message"])

	table := decode(t, do(r, http.MethodGet, base+"/results/operations", nil))
	assert.Equal(t, true, table["no_data"])
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, base+"/charts/overall", nil).Code)
}

func TestCharts(t *testing.T) {
	r, _ := setupRouter(t, testConfig())
	id := createSession(t, r)
	base := "/api/sessions/" + id

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, base+"/charts/overall", nil).Code)

	addRecord(t, r, id, map[string]interface{}{"employee_id": "A", "date": "2024-01-01", "operation_description": drainLabel})
	addRecord(t, r, id, map[string]interface{}{"employee_id": "A", "date": "2024-01-03", "operation_description": drainLabel, "completion_degree": 95})
	require.Equal(t, http.StatusOK, do(r, http.MethodPost, base+"/score", nil).Code)

	w := do(r, http.MethodGet, base+"/charts/daily?employee=A", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "https://assets.example")
	assert.Contains(t, w.Body.String(), "每日操作表现折线图")

	w = do(r, http.MethodGet, base+"/charts/overall", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "所有员工总平均评分对比")

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, base+"/charts/daily?employee=Z", nil).Code)
}

func TestChartPageIsCompressed(t *testing.T) {
	r, s := setupRouter(t, testConfig())
	id := createSession(t, r)
	addRecord(t, r, id, map[string]interface{}{"employee_id": "A", "date": "2024-01-01", "operation_description": drainLabel})
	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/sessions/"+id+"/score", nil).Code)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/"+id+"/charts/overall", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
	assert.Equal(t, int64(1), s.compression.Stats()["compressed_requests"])
}

func TestUnknownSession(t *testing.T) {
	r, _ := setupRouter(t, testConfig())

	for _, path := range []string{
		"/api/sessions/nope",
		"/api/sessions/nope/results/operations",
		"/api/sessions/nope/charts/overall",
	} {
		w := do(r, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodDelete, "/api/sessions/nope", nil).Code)
}

func TestDeleteSession(t *testing.T) {
	r, s := setupRouter(t, testConfig())
	id := createSession(t, r)

	assert.Equal(t, http.StatusNoContent, do(r, http.MethodDelete, "/api/sessions/"+id, nil).Code)
	assert.Equal(t, 0, s.sessions.Len())
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/sessions/"+id, nil).Code)
}

func TestSessionCapacity(t *testing.T) {
	cfg := testConfig()
	cfg.Session.MaxSessions = 1
	r, _ := setupRouter(t, cfg)

	createSession(t, r)
	w := do(r, http.MethodPost, "/api/sessions", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRateLimitOnAPI(t *testing.T) {
	cfg := testConfig()
	cfg.Security.MaxRequestsPerMin = 10
	r, s := setupRouter(t, cfg)

	codes := make([]int, 0, 10)
	for i := 0; i < 10; i++ {
		codes = append(codes, do(r, http.MethodGet, "/api/catalog", nil).Code)
	}
	assert.Contains(t, codes, http.StatusTooManyRequests)
	assert.Greater(t, s.metrics.RateLimitBlocks, int64(0))

	// Operational endpoints are not rate limited
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/health", nil).Code)
}

func TestEntryPage(t *testing.T) {
	r, _ := setupRouter(t, testConfig())

	w := do(r, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "清场操作评分工具")
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "nonce-")
	assert.Equal(t, "SAMEORIGIN", w.Header().Get("X-Frame-Options"))

	css := do(r, http.MethodGet, "/assets/app.css", nil)
	assert.Equal(t, http.StatusOK, css.Code)
}

func TestMetricsAndCacheStats(t *testing.T) {
	r, _ := setupRouter(t, testConfig())
	do(r, http.MethodGet, "/api/catalog", nil)

	metrics := decode(t, do(r, http.MethodGet, "/metrics", nil))
	assert.Contains(t, metrics, "total_requests")
	assert.Contains(t, metrics, "scoring")

	stats := decode(t, do(r, http.MethodGet, "/cache/stats", nil))
	assert.Contains(t, stats, "total_items")
}

func TestUnknownContentTypeRejected(t *testing.T) {
	r, _ := setupRouter(t, testConfig())
	id := createSession(t, r)

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/records", strings.NewReader("employee_id=A"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}
