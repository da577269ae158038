// Package report turns scored session state into the table and chart views
// the operator sees.
package report

import (
	"strings"

	"github.com/ZanzyTHEbar/clearance-scorer/internal/analysis"
	"github.com/ZanzyTHEbar/clearance-scorer/internal/penalty"
)

// NoDataMessage is shown wherever a view has nothing to display.
const NoDataMessage = "no data"

// NoErrors is the error column value for a clean operation.
const NoErrors = "无"

// JoinErrors renders an error list for display.
func JoinErrors(categories []penalty.ErrorCategory) string {
	if len(categories) == 0 {
		return NoErrors
	}
	parts := make([]string, len(categories))
	for i, c := range categories {
		parts[i] = string(c)
	}
	return strings.Join(parts, ", ")
}

func yesNo(b bool) string {
	if b {
		return "是"
	}
	return "否"
}

// RecordRow is one entered record before scoring.
type RecordRow struct {
	EmployeeID       string        `json:"employee_id"`
	Date             analysis.Date `json:"date"`
	Operation        string        `json:"operation_description"`
	Remark           string        `json:"operation_remark"`
	CompletionDegree float64       `json:"completion_degree"`
	Errors           string        `json:"errors"`
	OtherErrorRemark string        `json:"other_error_remark,omitempty"`
	SafetyHazard     string        `json:"safety_hazard"`
}

// RecordTable lists the entered records in entry order.
func RecordTable(records []analysis.OperationRecord) []RecordRow {
	rows := make([]RecordRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, RecordRow{
			EmployeeID:       r.EmployeeID,
			Date:             r.Date,
			Operation:        r.Operation,
			Remark:           r.Remark,
			CompletionDegree: r.CompletionDegree,
			Errors:           JoinErrors(r.ErrorCategories),
			OtherErrorRemark: r.OtherErrorRemark,
			SafetyHazard:     yesNo(r.HasSafetyHazard()),
		})
	}
	return rows
}

// OperationRow is one scored operation.
type OperationRow struct {
	EmployeeID   string        `json:"employee_id"`
	Date         analysis.Date `json:"date"`
	Score        int           `json:"score"`
	Operation    string        `json:"operation_description"`
	Errors       string        `json:"errors"`
	SafetyHazard bool          `json:"safety_hazard"`
	TotalPenalty int           `json:"total_penalty"`
	Rule         analysis.Rule `json:"rule"`
}

// TableView is the per-operation score table.
type TableView struct {
	Rows    []OperationRow `json:"rows"`
	NoData  bool           `json:"no_data"`
	Message string         `json:"message,omitempty"`
}

// OperationTable builds the score table in scoring order.
func OperationTable(scored []analysis.ScoredOperation) TableView {
	if len(scored) == 0 {
		return TableView{Rows: []OperationRow{}, NoData: true, Message: NoDataMessage}
	}
	rows := make([]OperationRow, 0, len(scored))
	for _, s := range scored {
		rows = append(rows, OperationRow{
			EmployeeID:   s.EmployeeID,
			Date:         s.Date,
			Score:        s.Score,
			Operation:    s.Operation,
			Errors:       JoinErrors(s.ErrorCategories),
			SafetyHazard: s.Breakdown.Severe,
			TotalPenalty: s.Breakdown.TotalPenalty,
			Rule:         s.Breakdown.Rule,
		})
	}
	return TableView{Rows: rows}
}

// DailyPoint is one point of an employee's daily line.
type DailyPoint struct {
	Date         analysis.Date `json:"date"`
	AverageScore float64       `json:"daily_avg_score"`
	Operations   int           `json:"operations"`
}

// DailySeries is the line-chart data for one employee.
type DailySeries struct {
	EmployeeID string       `json:"employee_id"`
	Points     []DailyPoint `json:"points"`
	NoData     bool         `json:"no_data"`
	Message    string       `json:"message,omitempty"`
}

// BuildDailySeries selects one employee's daily averages, oldest first.
func BuildDailySeries(daily []analysis.DailyEmployeeScore, employee string) DailySeries {
	rows := analysis.DailyFor(daily, employee)
	if len(rows) == 0 {
		return DailySeries{EmployeeID: employee, Points: []DailyPoint{}, NoData: true, Message: NoDataMessage}
	}
	points := make([]DailyPoint, len(rows))
	for i, r := range rows {
		points[i] = DailyPoint{Date: r.Date, AverageScore: r.AverageScore, Operations: r.Operations}
	}
	return DailySeries{EmployeeID: employee, Points: points}
}

// OverallBar is one employee's bar.
type OverallBar struct {
	EmployeeID   string  `json:"employee_id"`
	AverageScore float64 `json:"overall_avg_score"`
	Operations   int     `json:"operations"`
}

// OverallBars is the bar-chart data across employees.
type OverallBars struct {
	Bars    []OverallBar `json:"bars"`
	NoData  bool         `json:"no_data"`
	Message string       `json:"message,omitempty"`
}

// BuildOverallBars lists one bar per employee in employee order.
func BuildOverallBars(overall []analysis.OverallEmployeeScore) OverallBars {
	if len(overall) == 0 {
		return OverallBars{Bars: []OverallBar{}, NoData: true, Message: NoDataMessage}
	}
	bars := make([]OverallBar, len(overall))
	for i, o := range overall {
		bars[i] = OverallBar{EmployeeID: o.EmployeeID, AverageScore: o.AverageScore, Operations: o.Operations}
	}
	return OverallBars{Bars: bars}
}

// Employees returns the distinct employees present in the daily set, in the
// order they first appear.
func Employees(daily []analysis.DailyEmployeeScore) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, d := range daily {
		if _, ok := seen[d.EmployeeID]; ok {
			continue
		}
		seen[d.EmployeeID] = struct{}{}
		out = append(out, d.EmployeeID)
	}
	return out
}
