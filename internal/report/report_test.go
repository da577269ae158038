package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/ZanzyTHEbar/clearance-scorer/internal/analysis"
	"github.com/ZanzyTHEbar/clearance-scorer/internal/cache"
	"github.com/ZanzyTHEbar/clearance-scorer/internal/penalty"
	"github.com/ZanzyTHEbar/clearance-scorer/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scoredSnapshot(t *testing.T) session.Snapshot {
	t.Helper()

	var st session.State
	entries := []session.Entry{
		{EmployeeID: "A", Date: "2024-01-02", Operation: "地漏: 清洁、液封"},
		{EmployeeID: "A", Date: "2024-01-01", Operation: "地漏: 清洁、液封", ErrorCategories: []penalty.ErrorCategory{penalty.MissingStatusTag, penalty.Other}},
		{EmployeeID: "B", Date: "2024-01-01", Operation: "地漏: 清洁、液封", SafetyHazard: true},
	}
	for _, e := range entries {
		_, err := st.Apply(session.Command{Kind: session.AddRecord, Entry: e})
		require.NoError(t, err)
	}
	_, err := st.Apply(session.Command{Kind: session.RunScoring})
	require.NoError(t, err)

	snap := st.Snapshot()
	snap.ID = "s1"
	return snap
}

func TestJoinErrors(t *testing.T) {
	assert.Equal(t, "无", JoinErrors(nil))
	assert.Equal(t, "遗漏清点, 安全隐患", JoinErrors([]penalty.ErrorCategory{penalty.MissedCount, penalty.SafetyHazard}))
}

func TestOperationTable(t *testing.T) {
	snap := scoredSnapshot(t)

	view := OperationTable(snap.Scored)
	require.Len(t, view.Rows, 3)
	assert.False(t, view.NoData)

	assert.Equal(t, "无", view.Rows[0].Errors)
	assert.Equal(t, "未挂标识牌, 其他错误", view.Rows[1].Errors)
	assert.True(t, view.Rows[2].SafetyHazard)
	assert.Equal(t, 30, view.Rows[2].TotalPenalty)

	empty := OperationTable(nil)
	assert.True(t, empty.NoData)
	assert.Equal(t, NoDataMessage, empty.Message)
	assert.NotNil(t, empty.Rows)
}

func TestRecordTable(t *testing.T) {
	rows := RecordTable(scoredSnapshot(t).Records)
	require.Len(t, rows, 3)
	assert.Equal(t, "否", rows[0].SafetyHazard)
	assert.Equal(t, "是", rows[2].SafetyHazard)
	assert.Equal(t, session.DefaultCompletion, rows[0].CompletionDegree)
}

func TestBuildDailySeries(t *testing.T) {
	snap := scoredSnapshot(t)

	series := BuildDailySeries(snap.Daily, "A")
	require.Len(t, series.Points, 2)
	assert.Equal(t, analysis.Date("2024-01-01"), series.Points[0].Date)
	assert.Equal(t, analysis.Date("2024-01-02"), series.Points[1].Date)

	missing := BuildDailySeries(snap.Daily, "Z")
	assert.True(t, missing.NoData)
	assert.Equal(t, "no data", missing.Message)
}

func TestBuildOverallBarsAndEmployees(t *testing.T) {
	snap := scoredSnapshot(t)

	bars := BuildOverallBars(snap.Overall)
	require.Len(t, bars.Bars, 2)
	assert.Equal(t, "A", bars.Bars[0].EmployeeID)
	assert.Equal(t, 2, bars.Bars[0].Operations)

	assert.Equal(t, []string{"A", "B"}, Employees(snap.Daily))
	assert.Empty(t, Employees(nil))
	assert.True(t, BuildOverallBars(nil).NoData)
}

func TestRenderCharts(t *testing.T) {
	snap := scoredSnapshot(t)

	var line bytes.Buffer
	require.NoError(t, RenderDailyChart(&line, BuildDailySeries(snap.Daily, "A"), ChartOptions{}))
	assert.Contains(t, line.String(), "A 每日操作表现折线图")
	assert.Contains(t, line.String(), "2024-01-01")

	var bar bytes.Buffer
	require.NoError(t, RenderOverallChart(&bar, BuildOverallBars(snap.Overall), ChartOptions{AssetsHost: "https://assets.example/"}))
	assert.Contains(t, bar.String(), "所有员工总平均评分对比")
	assert.Contains(t, bar.String(), "https://assets.example/")

	assert.Error(t, RenderDailyChart(&line, BuildDailySeries(snap.Daily, "Z"), ChartOptions{}))
	assert.Error(t, RenderOverallChart(&bar, BuildOverallBars(nil), ChartOptions{}))
}

type counter struct{ hits, misses int }

func (c *counter) IncrementCacheHit()  { c.hits++ }
func (c *counter) IncrementCacheMiss() { c.misses++ }

func TestServiceCachesPerGeneration(t *testing.T) {
	c := cache.NewCache(time.Minute, 0)
	defer c.Close()
	m := &counter{}
	svc := NewService(c, m, ChartOptions{})

	snap := scoredSnapshot(t)

	first, err := svc.Operations(snap)
	require.NoError(t, err)
	second, err := svc.Operations(snap)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, m.hits)
	assert.Equal(t, 1, m.misses)

	snap.Generation++
	_, err = svc.Operations(snap)
	require.NoError(t, err)
	assert.Equal(t, 2, m.misses)

	employees, err := svc.Employees(snap)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, employees)

	page, ok, err := svc.DailyChart(snap, "A")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotEmpty(t, page)

	_, ok, err = svc.DailyChart(snap, "nobody")
	require.NoError(t, err)
	assert.False(t, ok)

	page, ok, err = svc.OverallChart(snap)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotEmpty(t, page)

	assert.Greater(t, c.Size(), 0)
	svc.Invalidate("s1")
	assert.Equal(t, 0, c.Size())
}

func TestServiceEmptySession(t *testing.T) {
	c := cache.NewCache(time.Minute, 0)
	defer c.Close()
	svc := NewService(c, nil, ChartOptions{})

	snap := session.Snapshot{ID: "empty"}

	table, err := svc.Operations(snap)
	require.NoError(t, err)
	assert.True(t, table.NoData)

	daily, err := svc.Daily(snap, "A")
	require.NoError(t, err)
	assert.True(t, daily.NoData)

	_, ok, err := svc.OverallChart(snap)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Empty(t, svc.Records(snap))
}
