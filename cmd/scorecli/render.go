package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/ZanzyTHEbar/clearance-scorer/internal/report"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
)

// scoreStyle colors a score the way the console legend does
func scoreStyle(score float64) lipgloss.Style {
	switch {
	case score >= 85:
		return cellStyle.Foreground(lipgloss.Color("10")) // green
	case score >= 60:
		return cellStyle.Foreground(lipgloss.Color("3")) // yellow
	default:
		return cellStyle.Foreground(lipgloss.Color("9")) // red
	}
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers(headers...)
}

func formatAverage(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func renderResult(w io.Writer, result scoreResult) {
	fmt.Fprintln(w, titleStyle.Render("操作评分"))
	if result.Operations.NoData {
		fmt.Fprintln(w, mutedStyle.Render(report.NoDataMessage))
	} else {
		rows := result.Operations.Rows
		t := newTable("员工ID", "日期", "得分", "操作要点", "错误类型", "安全隐患", "扣分", "规则")
		for _, r := range rows {
			t.Row(r.EmployeeID, string(r.Date), strconv.Itoa(r.Score), r.Operation, r.Errors,
				yesNo(r.SafetyHazard), strconv.Itoa(r.TotalPenalty), string(r.Rule))
		}
		t.StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 2 && row >= 0 && row < len(rows) {
				return scoreStyle(float64(rows[row].Score))
			}
			return cellStyle
		})
		fmt.Fprintln(w, t.String())
	}

	for _, series := range result.Daily {
		fmt.Fprintln(w, titleStyle.Render("每日平均得分 "+series.EmployeeID))
		if series.NoData {
			fmt.Fprintln(w, mutedStyle.Render(report.NoDataMessage))
			continue
		}
		points := series.Points
		t := newTable("日期", "平均得分", "操作数")
		for _, p := range points {
			t.Row(string(p.Date), formatAverage(p.AverageScore), strconv.Itoa(p.Operations))
		}
		t.StyleFunc(averageStyle(len(points), func(i int) float64 { return points[i].AverageScore }))
		fmt.Fprintln(w, t.String())
	}

	fmt.Fprintln(w, titleStyle.Render("总体平均得分"))
	if result.Overall.NoData {
		fmt.Fprintln(w, mutedStyle.Render(report.NoDataMessage))
		return
	}
	bars := result.Overall.Bars
	t := newTable("员工ID", "平均得分", "操作数")
	for _, b := range bars {
		t.Row(b.EmployeeID, formatAverage(b.AverageScore), strconv.Itoa(b.Operations))
	}
	t.StyleFunc(averageStyle(len(bars), func(i int) float64 { return bars[i].AverageScore }))
	fmt.Fprintln(w, t.String())
}

// averageStyle colors the second column of an average table
func averageStyle(n int, avg func(int) float64) table.StyleFunc {
	return func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return headerStyle
		}
		if col == 1 && row >= 0 && row < n {
			return scoreStyle(avg(row))
		}
		return cellStyle
	}
}

func renderCatalog(w io.Writer, result catalogResult) {
	fmt.Fprintln(w, titleStyle.Render("清场操作"))
	ops := newTable("项目", "要求")
	for _, op := range result.Operations {
		ops.Row(op.Item, op.Description)
	}
	ops.StyleFunc(plainStyle)
	fmt.Fprintln(w, ops.String())

	fmt.Fprintln(w, titleStyle.Render("扣分表"))
	pens := newTable("错误类型", "扣分", "严重")
	for _, e := range result.Penalties {
		pens.Row(string(e.Category), strconv.Itoa(e.Penalty), yesNo(e.Severe))
	}
	pens.StyleFunc(plainStyle)
	fmt.Fprintln(w, pens.String())
}

func plainStyle(row, col int) lipgloss.Style {
	if row == table.HeaderRow {
		return headerStyle
	}
	return cellStyle
}

func yesNo(b bool) string {
	if b {
		return "是"
	}
	return "否"
}
