package analysis

import (
	"fmt"
	"time"

	"github.com/ZanzyTHEbar/clearance-scorer/internal/penalty"
)

// DateLayout is the calendar-day format used on every boundary.
const DateLayout = "2006-01-02"

// Date is a calendar day in YYYY-MM-DD form. The layout sorts lexically in
// chronological order.
type Date string

// ParseDate validates s as a calendar day.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date(t.Format(DateLayout)), nil
}

// DateOf returns the calendar day of t in t's location.
func DateOf(t time.Time) Date {
	return Date(t.Format(DateLayout))
}

// OperationRecord is one observed clearance operation as entered by the operator.
type OperationRecord struct {
	EmployeeID       string                  `json:"employee_id"`
	Date             Date                    `json:"date"`
	Operation        string                  `json:"operation_description"`
	Remark           string                  `json:"operation_remark,omitempty"`
	CompletionDegree float64                 `json:"completion_degree"`
	ErrorCategories  []penalty.ErrorCategory `json:"error_types"`
	OtherErrorRemark string                  `json:"other_error_remark,omitempty"`
}

// HasSafetyHazard is the display flag for the severe category.
func (r OperationRecord) HasSafetyHazard() bool {
	return penalty.ContainsSevere(r.ErrorCategories)
}

// Rule names the threshold branch that produced a score.
type Rule string

const (
	RulePerfect   Rule = "perfect"
	RuleHighFloor Rule = "high_floor"
	RuleMidFloor  Rule = "mid_floor"
	RuleLowCap    Rule = "low_cap"
	RuleNone      Rule = "none"
)

// Breakdown explains how a score was reached.
type Breakdown struct {
	TotalPenalty int     `json:"total_penalty"`
	RawScore     float64 `json:"raw_score"`
	Severe       bool    `json:"severe"`
	Rule         Rule    `json:"rule"`
}

// ScoreResult is the output of the scoring engine for one operation.
type ScoreResult struct {
	Score     int       `json:"score"`
	Breakdown Breakdown `json:"breakdown"`
}

// ScoredOperation is a record paired with its computed score.
type ScoredOperation struct {
	OperationRecord
	Score     int       `json:"score"`
	Breakdown Breakdown `json:"breakdown"`
}

// DailyEmployeeScore is the mean score of one employee on one day.
type DailyEmployeeScore struct {
	EmployeeID   string  `json:"employee_id"`
	Date         Date    `json:"date"`
	AverageScore float64 `json:"daily_avg_score"`
	Operations   int     `json:"operations"`
}

// OverallEmployeeScore is the mean score of one employee across all days.
type OverallEmployeeScore struct {
	EmployeeID   string  `json:"employee_id"`
	AverageScore float64 `json:"overall_avg_score"`
	Operations   int     `json:"operations"`
}
