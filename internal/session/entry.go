package session

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/clearance-scorer/internal/analysis"
	"github.com/ZanzyTHEbar/clearance-scorer/internal/catalog"
	"github.com/ZanzyTHEbar/clearance-scorer/internal/penalty"
)

// DefaultCompletion is used when an entry leaves the completion degree unset.
const DefaultCompletion = 80.0

var (
	// ErrInvalidEntry is wrapped by every entry validation failure.
	ErrInvalidEntry = errors.New("invalid operation entry")
	// ErrNothingToScore is returned when scoring is requested on an empty store.
	ErrNothingToScore = errors.New("没有可用于评分的数据。请先添加操作记录。")
)

// Entry is the raw form submission for one operation.
type Entry struct {
	EmployeeID       string                  `json:"employee_id" yaml:"employee_id"`
	Date             string                  `json:"date,omitempty" yaml:"date"`
	Operation        string                  `json:"operation_description" yaml:"operation"`
	Remark           string                  `json:"operation_remark,omitempty" yaml:"remark"`
	CompletionDegree *float64                `json:"completion_degree,omitempty" yaml:"completion_degree"`
	ErrorCategories  []penalty.ErrorCategory `json:"error_types,omitempty" yaml:"errors"`
	SafetyHazard     bool                    `json:"safety_hazard" yaml:"safety_hazard"`
	OtherErrorRemark string                  `json:"other_error_remark,omitempty" yaml:"other_error_remark"`
}

// ValidationError lists the entry fields that were rejected.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return fmt.Sprintf("%s (%s)", e.Message, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrInvalidEntry }

// NewRecord validates an entry and turns it into an operation record.
// today is used when the entry carries no date.
func NewRecord(e Entry, today analysis.Date) (analysis.OperationRecord, error) {
	fields := make(map[string]string)
	message := "invalid operation entry"

	employee := strings.TrimSpace(e.EmployeeID)
	operation := strings.TrimSpace(e.Operation)
	if employee == "" || operation == "" {
		message = "员工ID和操作要点描述不能为空。"
		if employee == "" {
			fields["employee_id"] = "required"
		}
		if operation == "" {
			fields["operation_description"] = "required"
		}
	} else if !catalog.Contains(operation) {
		fields["operation_description"] = "not a catalog operation"
	}

	date := today
	if raw := strings.TrimSpace(e.Date); raw != "" {
		d, err := analysis.ParseDate(raw)
		if err != nil {
			fields["date"] = "expected YYYY-MM-DD"
		}
		date = d
	}

	completion := DefaultCompletion
	if e.CompletionDegree != nil {
		completion = *e.CompletionDegree
		if math.IsNaN(completion) || completion < 0 || completion > 100 {
			fields["completion_degree"] = "must be between 0 and 100"
		}
	}

	categories := make([]penalty.ErrorCategory, 0, len(e.ErrorCategories)+1)
	for _, c := range e.ErrorCategories {
		if !penalty.IsSelectable(c) {
			fields["error_types"] = fmt.Sprintf("unknown error type %q", c)
			continue
		}
		categories = append(categories, c)
	}
	if e.SafetyHazard {
		categories = append(categories, penalty.Severe)
	}

	if len(fields) > 0 {
		return analysis.OperationRecord{}, &ValidationError{Message: message, Fields: fields}
	}

	rec := analysis.OperationRecord{
		EmployeeID:       employee,
		Date:             date,
		Operation:        operation,
		Remark:           strings.TrimSpace(e.Remark),
		CompletionDegree: completion,
		ErrorCategories:  categories,
	}
	for _, c := range categories {
		if c == penalty.Other {
			rec.OtherErrorRemark = strings.TrimSpace(e.OtherErrorRemark)
			break
		}
	}
	return rec, nil
}
