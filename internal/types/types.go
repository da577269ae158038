// Package types holds the request and response bodies of the HTTP API.
package types

import (
	"time"

	"github.com/ZanzyTHEbar/clearance-scorer/internal/analysis"
	"github.com/ZanzyTHEbar/clearance-scorer/internal/catalog"
	"github.com/ZanzyTHEbar/clearance-scorer/internal/penalty"
	"github.com/ZanzyTHEbar/clearance-scorer/internal/report"
	"github.com/ZanzyTHEbar/clearance-scorer/internal/session"
)

// ScoreRequest asks for a one-off score without touching any session
type ScoreRequest struct {
	CompletionDegree *float64                `json:"completion_degree" example:"92"`
	ErrorTypes       []penalty.ErrorCategory `json:"error_types"`
	SafetyHazard     bool                    `json:"safety_hazard"`
}

// Categories returns the requested categories with the severe flag folded in
func (r ScoreRequest) Categories() []penalty.ErrorCategory {
	out := append([]penalty.ErrorCategory(nil), r.ErrorTypes...)
	if r.SafetyHazard {
		out = append(out, penalty.Severe)
	}
	return penalty.Normalize(out)
}

// Completion returns the requested completion or the form default
func (r ScoreRequest) Completion() float64 {
	if r.CompletionDegree == nil {
		return session.DefaultCompletion
	}
	return *r.CompletionDegree
}

// ScoreResponse is the preview result
type ScoreResponse struct {
	Score      int                     `json:"score"`
	Breakdown  analysis.Breakdown      `json:"breakdown"`
	Completion float64                 `json:"completion_degree"`
	Categories []penalty.ErrorCategory `json:"error_types"`
}

// CatalogResponse is everything the entry form needs to render its choices
type CatalogResponse struct {
	Operations        []string                `json:"operations"`
	Items             []catalog.Operation     `json:"items"`
	ErrorTypes        []penalty.ErrorCategory `json:"error_types"`
	Severe            penalty.ErrorCategory   `json:"severe"`
	Other             penalty.ErrorCategory   `json:"other"`
	Penalties         []penalty.Entry         `json:"penalties"`
	DefaultCompletion float64                 `json:"default_completion"`
}

// NewCatalogResponse assembles the catalog from the fixed tables
func NewCatalogResponse() CatalogResponse {
	return CatalogResponse{
		Operations:        catalog.Labels(),
		Items:             catalog.Operations(),
		ErrorTypes:        penalty.Selectable(),
		Severe:            penalty.Severe,
		Other:             penalty.Other,
		Penalties:         penalty.All(),
		DefaultCompletion: session.DefaultCompletion,
	}
}

// SessionResponse describes a session and its entered records
type SessionResponse struct {
	ID         string             `json:"id"`
	CreatedAt  time.Time          `json:"created_at"`
	Generation uint64             `json:"generation"`
	Records    []report.RecordRow `json:"records"`
	HasResults bool               `json:"has_results"`
	ScoredAt   *time.Time         `json:"scored_at,omitempty"`
}

// NewSessionResponse renders a snapshot taken from a session created at createdAt
func NewSessionResponse(snap session.Snapshot, createdAt time.Time) SessionResponse {
	return SessionResponse{
		ID:         snap.ID,
		CreatedAt:  createdAt,
		Generation: snap.Generation,
		Records:    report.RecordTable(snap.Records),
		HasResults: snap.HasResults(),
		ScoredAt:   snap.ScoredAt,
	}
}

// EmployeesResponse is the employee selection list for the daily chart
type EmployeesResponse struct {
	Employees []string `json:"employees"`
	NoData    bool     `json:"no_data"`
	Message   string   `json:"message,omitempty"`
}

// NewEmployeesResponse wraps the list and flags it when empty
func NewEmployeesResponse(employees []string) EmployeesResponse {
	if len(employees) == 0 {
		return EmployeesResponse{Employees: []string{}, NoData: true, Message: report.NoDataMessage}
	}
	return EmployeesResponse{Employees: employees}
}

// MessageResponse is a plain acknowledgement
type MessageResponse struct {
	Message string `json:"message"`
}
