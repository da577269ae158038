package main

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/clearance-scorer/internal/analysis"
	apperrors "github.com/ZanzyTHEbar/clearance-scorer/internal/errors"
	"github.com/ZanzyTHEbar/clearance-scorer/internal/penalty"
	"github.com/ZanzyTHEbar/clearance-scorer/internal/report"
	"github.com/ZanzyTHEbar/clearance-scorer/internal/session"
	"github.com/ZanzyTHEbar/clearance-scorer/internal/types"
	"github.com/gin-gonic/gin"
)

func (s *server) handleMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, s.metrics.GetStats())
}

func (s *server) handleCacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.reports.GetStats())
}

// handleCatalog godoc
// @Summary  Operations, selectable error types and the penalty table
// @Tags     catalog
// @Produce  json
// @Success  200 {object} types.CatalogResponse
// @Router   /api/catalog [get]
func (s *server) handleCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, types.NewCatalogResponse())
}

// handleScore godoc
// @Summary  Score one operation without storing it
// @Tags     scoring
// @Accept   json
// @Produce  json
// @Param    request body types.ScoreRequest true "completion and errors"
// @Success  200 {object} types.ScoreResponse
// @Failure  400 {object} apperrors.AppError
// @Router   /api/score [post]
func (s *server) handleScore(c *gin.Context) {
	var req types.ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Abort(c, apperrors.NewValidationError("invalid request body", err.Error()))
		return
	}

	fields := make(map[string]string)
	completion := req.Completion()
	if math.IsNaN(completion) || completion < 0 || completion > 100 {
		fields["completion_degree"] = "must be between 0 and 100"
	}
	for _, category := range req.ErrorTypes {
		if !penalty.IsSelectable(category) {
			fields["error_types"] = fmt.Sprintf("unknown error type %q", category)
		}
	}
	if len(fields) > 0 {
		s.metrics.IncrementValidationWarning()
		apperrors.Abort(c, apperrors.NewValidationErrorWithMap("invalid score request", fields))
		return
	}

	categories := req.Categories()
	res := analysis.Evaluate(completion, categories)
	s.metrics.IncrementPreview()

	if categories == nil {
		categories = []penalty.ErrorCategory{}
	}
	c.JSON(http.StatusOK, types.ScoreResponse{
		Score:      res.Score,
		Breakdown:  res.Breakdown,
		Completion: completion,
		Categories: categories,
	})
}

// handleCreateSession godoc
// @Summary  Open an operator session
// @Tags     sessions
// @Produce  json
// @Success  201 {object} types.SessionResponse
// @Failure  503 {object} apperrors.AppError
// @Router   /api/sessions [post]
func (s *server) handleCreateSession(c *gin.Context) {
	sess, err := s.sessions.Create()
	if err != nil {
		apperrors.Abort(c, err)
		return
	}

	s.metrics.IncrementSessionCreated()
	s.logger.SessionLogger("created", sess.ID, "active", s.sessions.Len())
	c.JSON(http.StatusCreated, types.NewSessionResponse(sess.Snapshot(), sess.CreatedAt))
}

// lookupSession resolves the :id parameter or aborts with 404
func (s *server) lookupSession(c *gin.Context) (*session.Session, bool) {
	id := c.Param("id")
	sess, err := s.sessions.Get(id)
	if err != nil {
		apperrors.Abort(c, apperrors.NewNotFoundError("session", id))
		return nil, false
	}
	return sess, true
}

func (s *server) handleGetSession(c *gin.Context) {
	sess, ok := s.lookupSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, types.NewSessionResponse(sess.Snapshot(), sess.CreatedAt))
}

func (s *server) handleDeleteSession(c *gin.Context) {
	id := c.Param("id")
	if !s.sessions.Delete(id) {
		apperrors.Abort(c, apperrors.NewNotFoundError("session", id))
		return
	}

	s.reports.Invalidate(id)
	s.metrics.IncrementSessionEnded()
	s.logger.SessionLogger("ended", id)
	c.Status(http.StatusNoContent)
}

// handleAddRecord godoc
// @Summary  Add an operation record
// @Tags     sessions
// @Accept   json
// @Produce  json
// @Param    id    path string        true "session id"
// @Param    entry body session.Entry true "operation record"
// @Success  201 {object} session.Outcome
// @Failure  400 {object} apperrors.AppError
// @Router   /api/sessions/{id}/records [post]
func (s *server) handleAddRecord(c *gin.Context) {
	sess, ok := s.lookupSession(c)
	if !ok {
		return
	}

	var entry session.Entry
	if err := c.ShouldBindJSON(&entry); err != nil {
		s.metrics.IncrementValidationWarning()
		apperrors.Abort(c, apperrors.NewValidationError("invalid request body", err.Error()))
		return
	}
	if err := s.security.SanitizeEntry(&entry); err != nil {
		s.metrics.IncrementValidationWarning()
		apperrors.Abort(c, err)
		return
	}

	out, err := sess.Apply(session.Command{
		Kind:  session.AddRecord,
		Entry: entry,
		Today: analysis.DateOf(s.now()),
	})
	if err != nil {
		if errors.Is(err, session.ErrInvalidEntry) {
			s.metrics.IncrementValidationWarning()
		}
		apperrors.Abort(c, err)
		return
	}

	s.metrics.IncrementRecordAdded()
	c.JSON(http.StatusCreated, out)
}

func (s *server) handleClearRecords(c *gin.Context) {
	sess, ok := s.lookupSession(c)
	if !ok {
		return
	}

	out, err := sess.Apply(session.Command{Kind: session.ClearAll})
	if err != nil {
		apperrors.Abort(c, err)
		return
	}

	s.reports.Invalidate(sess.ID)
	s.metrics.IncrementClear()
	s.logger.SessionLogger("cleared", sess.ID, "generation", out.Generation)
	c.JSON(http.StatusOK, out)
}

// handleRunScoring godoc
// @Summary  Score every record and rebuild the aggregates
// @Tags     sessions
// @Produce  json
// @Param    id path string true "session id"
// @Success  200 {object} session.Outcome
// @Failure  409 {object} apperrors.AppError
// @Router   /api/sessions/{id}/score [post]
func (s *server) handleRunScoring(c *gin.Context) {
	sess, ok := s.lookupSession(c)
	if !ok {
		return
	}

	start := time.Now()
	out, err := sess.Apply(session.Command{Kind: session.RunScoring})
	if err != nil {
		if errors.Is(err, session.ErrNothingToScore) {
			s.metrics.IncrementEmptyScoringRun()
		}
		apperrors.Abort(c, err)
		return
	}

	snap := sess.Snapshot()
	scores := make([]int, len(snap.Scored))
	days := make(map[analysis.Date]struct{})
	for i, op := range snap.Scored {
		scores[i] = op.Score
		days[op.Date] = struct{}{}
	}

	s.reports.Invalidate(sess.ID)
	s.metrics.RecordScoringRun(scores)
	s.logger.ScoringLogger(sess.ID, len(snap.Records), len(snap.Overall), len(days), out.Generation, time.Since(start))

	c.JSON(http.StatusOK, out)
}

func (s *server) handleOperations(c *gin.Context) {
	sess, ok := s.lookupSession(c)
	if !ok {
		return
	}

	view, err := s.reports.Operations(sess.Snapshot())
	if err != nil {
		apperrors.Abort(c, apperrors.NewInternalError("failed to build operations view", err))
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *server) handleEmployees(c *gin.Context) {
	sess, ok := s.lookupSession(c)
	if !ok {
		return
	}

	employees, err := s.reports.Employees(sess.Snapshot())
	if err != nil {
		apperrors.Abort(c, apperrors.NewInternalError("failed to build employee list", err))
		return
	}
	c.JSON(http.StatusOK, types.NewEmployeesResponse(employees))
}

// employeeParam reads the required employee query or aborts with 400
func employeeParam(c *gin.Context) (string, bool) {
	employee := strings.TrimSpace(c.Query("employee"))
	if employee == "" {
		apperrors.Abort(c, apperrors.NewValidationErrorWithMap("employee is required", map[string]string{
			"employee": "required",
		}))
		return "", false
	}
	return employee, true
}

func (s *server) handleDaily(c *gin.Context) {
	sess, ok := s.lookupSession(c)
	if !ok {
		return
	}
	employee, ok := employeeParam(c)
	if !ok {
		return
	}

	series, err := s.reports.Daily(sess.Snapshot(), employee)
	if err != nil {
		apperrors.Abort(c, apperrors.NewInternalError("failed to build daily view", err))
		return
	}
	c.JSON(http.StatusOK, series)
}

func (s *server) handleOverall(c *gin.Context) {
	sess, ok := s.lookupSession(c)
	if !ok {
		return
	}

	bars, err := s.reports.Overall(sess.Snapshot())
	if err != nil {
		apperrors.Abort(c, apperrors.NewInternalError("failed to build overall view", err))
		return
	}
	c.JSON(http.StatusOK, bars)
}

func (s *server) handleDailyChart(c *gin.Context) {
	sess, ok := s.lookupSession(c)
	if !ok {
		return
	}
	employee, ok := employeeParam(c)
	if !ok {
		return
	}

	page, found, err := s.reports.DailyChart(sess.Snapshot(), employee)
	s.writeChart(c, page, found, err)
}

func (s *server) handleOverallChart(c *gin.Context) {
	sess, ok := s.lookupSession(c)
	if !ok {
		return
	}

	page, found, err := s.reports.OverallChart(sess.Snapshot())
	s.writeChart(c, page, found, err)
}

func (s *server) writeChart(c *gin.Context, page []byte, found bool, err error) {
	switch {
	case err != nil:
		apperrors.Abort(c, apperrors.NewInternalError("failed to render chart", err))
	case !found:
		c.String(http.StatusNotFound, report.NoDataMessage)
	default:
		c.Header("Cache-Control", "no-cache")
		c.Data(http.StatusOK, "text/html; charset=utf-8", page)
	}
}
