// Package session owns the per-operator record store and the derived score
// sets, and applies the form commands to them.
package session

import (
	"fmt"
	"time"

	"github.com/ZanzyTHEbar/clearance-scorer/internal/analysis"
)

// CommandKind enumerates the operator actions.
type CommandKind string

const (
	AddRecord  CommandKind = "add_record"
	ClearAll   CommandKind = "clear_all"
	RunScoring CommandKind = "run_scoring"
)

// Command is one operator action. Entry is only read by AddRecord; Today
// supplies the default date for entries without one.
type Command struct {
	Kind  CommandKind
	Entry Entry
	Today analysis.Date
}

// Outcome reports what a command did.
type Outcome struct {
	Kind       CommandKind               `json:"kind"`
	Message    string                    `json:"message"`
	Record     *analysis.OperationRecord `json:"record,omitempty"`
	Records    int                       `json:"records"`
	Generation uint64                    `json:"generation"`
}

// State is the record store plus the sets derived from the last scoring run.
// The derived sets are replaced together and never patched in place. Adding
// or clearing records leaves them as they were until the next RunScoring,
// except ClearAll which empties everything.
type State struct {
	records    []analysis.OperationRecord
	scored     []analysis.ScoredOperation
	daily      []analysis.DailyEmployeeScore
	overall    []analysis.OverallEmployeeScore
	generation uint64
	scoredAt   time.Time
}

// Apply runs cmd to completion. A failed command leaves the state unchanged.
func (s *State) Apply(cmd Command) (Outcome, error) {
	switch cmd.Kind {
	case AddRecord:
		today := cmd.Today
		if today == "" {
			today = analysis.DateOf(time.Now())
		}
		rec, err := NewRecord(cmd.Entry, today)
		if err != nil {
			return Outcome{Kind: cmd.Kind, Records: len(s.records), Generation: s.generation}, err
		}
		s.records = append(s.records, rec)
		return Outcome{
			Kind:       cmd.Kind,
			Message:    fmt.Sprintf("已添加 '%s' 在 %s 的操作记录。", rec.EmployeeID, rec.Date),
			Record:     &rec,
			Records:    len(s.records),
			Generation: s.generation,
		}, nil

	case ClearAll:
		s.records = nil
		s.scored = nil
		s.daily = nil
		s.overall = nil
		s.scoredAt = time.Time{}
		s.generation++
		return Outcome{Kind: cmd.Kind, Message: "所有记录已清空。", Generation: s.generation}, nil

	case RunScoring:
		if len(s.records) == 0 {
			return Outcome{Kind: cmd.Kind, Generation: s.generation}, ErrNothingToScore
		}
		scored := analysis.EvaluateAll(s.records)
		s.scored = scored
		s.daily = analysis.DailyAverages(scored)
		s.overall = analysis.OverallAverages(scored)
		s.scoredAt = time.Now()
		s.generation++
		return Outcome{
			Kind:       cmd.Kind,
			Message:    "评分和图表数据已生成！",
			Records:    len(s.records),
			Generation: s.generation,
		}, nil
	}

	return Outcome{Kind: cmd.Kind}, fmt.Errorf("unknown command %q", cmd.Kind)
}

// Snapshot is a detached copy of a session's state.
type Snapshot struct {
	ID         string                          `json:"id"`
	Records    []analysis.OperationRecord      `json:"records"`
	Scored     []analysis.ScoredOperation      `json:"scored"`
	Daily      []analysis.DailyEmployeeScore   `json:"daily"`
	Overall    []analysis.OverallEmployeeScore `json:"overall"`
	Generation uint64                          `json:"generation"`
	ScoredAt   *time.Time                      `json:"scored_at,omitempty"`
}

// HasResults reports whether a scoring run has produced derived sets.
func (s Snapshot) HasResults() bool {
	return len(s.Scored) > 0
}

// Snapshot copies the state so callers can read it without holding a lock.
func (s *State) Snapshot() Snapshot {
	snap := Snapshot{
		Records:    make([]analysis.OperationRecord, len(s.records)),
		Scored:     make([]analysis.ScoredOperation, len(s.scored)),
		Daily:      make([]analysis.DailyEmployeeScore, len(s.daily)),
		Overall:    make([]analysis.OverallEmployeeScore, len(s.overall)),
		Generation: s.generation,
	}
	for i, r := range s.records {
		snap.Records[i] = cloneRecord(r)
	}
	for i, op := range s.scored {
		op.OperationRecord = cloneRecord(op.OperationRecord)
		snap.Scored[i] = op
	}
	copy(snap.Daily, s.daily)
	copy(snap.Overall, s.overall)
	if !s.scoredAt.IsZero() {
		t := s.scoredAt
		snap.ScoredAt = &t
	}
	return snap
}

func cloneRecord(r analysis.OperationRecord) analysis.OperationRecord {
	if r.ErrorCategories != nil {
		r.ErrorCategories = append(r.ErrorCategories[:0:0], r.ErrorCategories...)
	}
	return r
}
