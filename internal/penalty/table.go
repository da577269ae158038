// Package penalty holds the fixed error-category taxonomy and the penalty
// points each category costs an operation.
package penalty

import "sort"

// ErrorCategory is one label from the fixed taxonomy of procedural deficiencies.
type ErrorCategory string

const (
	SafetyHazard        ErrorCategory = "安全隐患"
	ImproperWaste       ErrorCategory = "未按规定处理废弃物"
	MissingHandover     ErrorCategory = "未做好交接/记录"
	MissingStatusTag    ErrorCategory = "未挂标识牌"
	FailedLiquidSeal    ErrorCategory = "液封不合格"
	WrongParameters     ErrorCategory = "参数设置错误"
	WrongSequence       ErrorCategory = "操作顺序错误"
	MissedCount         ErrorCategory = "遗漏清点"
	ImproperPlacement   ErrorCategory = "放置不当"
	NotCompletedInTime  ErrorCategory = "未及时完成"
	IncompleteCleaning  ErrorCategory = "清洁不彻底"
	NonStandardPractice ErrorCategory = "操作不规范"
	ToolsNotReturned    ErrorCategory = "工具/器具未归位"
	PoorDocumentation   ErrorCategory = "文件记录不规范"
	Other               ErrorCategory = "其他错误"
)

// Severe is the category that also disables the score floors.
const Severe = SafetyHazard

var penalties = map[ErrorCategory]int{
	SafetyHazard:        30,
	ImproperWaste:       15,
	MissingHandover:     12,
	MissingStatusTag:    10,
	FailedLiquidSeal:    10,
	WrongParameters:     10,
	WrongSequence:       8,
	MissedCount:         8,
	ImproperPlacement:   7,
	NotCompletedInTime:  7,
	IncompleteCleaning:  6,
	NonStandardPractice: 5,
	ToolsNotReturned:    4,
	PoorDocumentation:   3,
	Other:               5,
}

// selectable is the order operators see in the error multiselect.
var selectable = []ErrorCategory{
	MissedCount,
	ImproperPlacement,
	MissingHandover,
	MissingStatusTag,
	IncompleteCleaning,
	ImproperWaste,
	ToolsNotReturned,
	FailedLiquidSeal,
	PoorDocumentation,
	WrongSequence,
	WrongParameters,
	NonStandardPractice,
	NotCompletedInTime,
	Other,
}

// Entry is a row of the penalty table.
type Entry struct {
	Category ErrorCategory `json:"category"`
	Penalty  int           `json:"penalty"`
	Severe   bool          `json:"severe"`
}

// Lookup returns the penalty for category. Categories outside the table
// cost the same as Other.
func Lookup(category ErrorCategory) int {
	if p, ok := penalties[category]; ok {
		return p
	}
	return penalties[Other]
}

// Known reports whether category is part of the taxonomy.
func Known(category ErrorCategory) bool {
	_, ok := penalties[category]
	return ok
}

// IsSevere reports whether category is the severe category.
func IsSevere(category ErrorCategory) bool {
	return category == Severe
}

// IsSelectable reports whether category may be picked from the general
// error catalog (everything except the severe category).
func IsSelectable(category ErrorCategory) bool {
	for _, c := range selectable {
		if c == category {
			return true
		}
	}
	return false
}

// Selectable returns the 14 categories offered in the general error catalog.
func Selectable() []ErrorCategory {
	out := make([]ErrorCategory, len(selectable))
	copy(out, selectable)
	return out
}

// All returns the full table ordered by descending penalty, ties broken by
// catalog order with the severe category first.
func All() []Entry {
	order := append([]ErrorCategory{Severe}, selectable...)
	rank := make(map[ErrorCategory]int, len(order))
	for i, c := range order {
		rank[c] = i
	}

	entries := make([]Entry, 0, len(penalties))
	for c, p := range penalties {
		entries = append(entries, Entry{Category: c, Penalty: p, Severe: IsSevere(c)})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Penalty != entries[j].Penalty {
			return entries[i].Penalty > entries[j].Penalty
		}
		return rank[entries[i].Category] < rank[entries[j].Category]
	})
	return entries
}

// Normalize drops repeated categories while keeping first-seen order, so a
// category selected twice (e.g. the severe category via both the catalog and
// the hazard toggle) is only penalized once.
func Normalize(categories []ErrorCategory) []ErrorCategory {
	if len(categories) == 0 {
		return nil
	}
	seen := make(map[ErrorCategory]struct{}, len(categories))
	out := make([]ErrorCategory, 0, len(categories))
	for _, c := range categories {
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// Total sums the penalties of the normalized category set.
func Total(categories []ErrorCategory) int {
	total := 0
	for _, c := range Normalize(categories) {
		total += Lookup(c)
	}
	return total
}

// ContainsSevere reports whether the severe category is present.
func ContainsSevere(categories []ErrorCategory) bool {
	for _, c := range categories {
		if IsSevere(c) {
			return true
		}
	}
	return false
}
