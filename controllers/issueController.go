package controllers

import (
	"context"
	"errors"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nairobify-be/dashboard"
	"nairobify-be/geo"
	"nairobify-be/logger"
	"nairobify-be/middlewares"
	"nairobify-be/models"
	"nairobify-be/projector"
	"nairobify-be/services"
	"nairobify-be/store"
)

const defaultWriteTimeout = 10 * time.Second

// IssueController serves the citizen form, the dashboard and the map. Reads
// come from the projected snapshot; writes go through the services.
type IssueController struct {
	issues      *projector.Projector
	submissions *services.SubmissionService
	statuses    *services.StatusService

	PageSize     int
	MapLimit     int
	WriteTimeout time.Duration
}

func NewIssueController(issues *projector.Projector, submissions *services.SubmissionService, statuses *services.StatusService) *IssueController {
	return &IssueController{
		issues:       issues,
		submissions:  submissions,
		statuses:     statuses,
		PageSize:     dashboard.DefaultPageSize,
		MapLimit:     geo.DefaultMarkerLimit,
		WriteTimeout: defaultWriteTimeout,
	}
}

type listQuery struct {
	dashboard.Criteria
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

type statusInput struct {
	Status models.IssueStatus `json:"status" binding:"required"`
}

// CreateIssue handles a citizen submission
func (ic *IssueController) CreateIssue(c *gin.Context) {
	var input models.Submission
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), ic.WriteTimeout)
	defer cancel()

	id, err := ic.submissions.Submit(ctx, middlewares.ReporterID(c), input)
	var subErr *services.SubmissionError
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, gin.H{"id": id})
	case errors.Is(err, services.ErrInvalidSubmission):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrDuplicateSubmission):
		c.JSON(http.StatusConflict, gin.H{"error": "You already submitted this issue"})
	case errors.As(err, &subErr):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": subErr.Message})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create issue"})
	}
}

// ListIssues returns one page of the filtered dashboard view
func (ic *IssueController) ListIssues(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	pageSize := ic.PageSize
	if q.Limit > 0 && q.Limit <= 100 {
		pageSize = q.Limit
	}

	snap := ic.issues.Snapshot()
	page := dashboard.Paginate(dashboard.Filter(snap.Issues, q.Criteria), pageSize, q.Page)

	c.JSON(http.StatusOK, gin.H{
		"issues":      page.Items,
		"totalIssues": page.Total,
		"totalPages":  page.PageCount,
		"currentPage": page.Page,
		"pageSize":    page.PageSize,
		"hasNext":     page.HasNext(),
		"hasPrev":     page.HasPrev(),
		"version":     snap.Version,
		"ready":       ic.issues.Ready(),
	})
}

// GetIssueAnalytics returns the metrics of the filtered view
func (ic *IssueController) GetIssueAnalytics(c *gin.Context) {
	var criteria dashboard.Criteria
	if err := c.ShouldBindQuery(&criteria); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snap := ic.issues.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"metrics": roundMetrics(dashboard.Aggregate(dashboard.Filter(snap.Issues, criteria))),
		"version": snap.Version,
	})
}

// RecentIssues places the latest issues on the map
func (ic *IssueController) RecentIssues(c *gin.Context) {
	var q struct {
		Limit int `form:"limit"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	limit := ic.MapLimit
	if q.Limit > 0 {
		limit = q.Limit
	}

	c.JSON(http.StatusOK, gin.H{
		"center":  geo.CityCentroid,
		"markers": geo.Markers(ic.issues.Snapshot().Issues, limit),
	})
}

// GetIssue returns one issue from the current snapshot
func (ic *IssueController) GetIssue(c *gin.Context) {
	id := c.Param("id")
	for _, issue := range ic.issues.Snapshot().Issues {
		if issue.ID == id {
			c.JSON(http.StatusOK, issue)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
}

// UpdateIssueStatus is the operator status control
func (ic *IssueController) UpdateIssueStatus(c *gin.Context) {
	var input statusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), ic.WriteTimeout)
	defer cancel()

	id := c.Param("id")
	err := ic.statuses.SetStatus(ctx, id, input.Status)
	var statusErr *services.StatusUpdateError
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"id": id, "status": input.Status})
	case errors.Is(err, services.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
	case errors.Is(err, store.ErrIssueNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
	case errors.Is(err, services.ErrIllegalTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &statusErr):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": statusErr.Message})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update issue"})
	}
}

// StreamIssues pushes the dashboard view for the request's criteria every
// time the snapshot changes. A slow client only ever sees the newest view.
func (ic *IssueController) StreamIssues(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	pageSize := ic.PageSize
	if q.Limit > 0 && q.Limit <= 100 {
		pageSize = q.Limit
	}

	updates := make(chan projector.Snapshot, 1)
	sub := ic.issues.Subscribe(func(s projector.Snapshot) {
		// Single producer: after the drain the send cannot block.
		select {
		case <-updates:
		default:
		}
		updates <- s
	})
	defer sub.Unsubscribe()

	ctx := c.Request.Context()
	log := logger.FromContext(ctx)
	log.Debug("dashboard stream opened")

	c.Stream(func(io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case snap := <-updates:
			view := dashboard.Build(snap.Issues, q.Criteria, pageSize, q.Page)
			view.Version = snap.Version
			view.Metrics = roundMetrics(view.Metrics)
			c.SSEvent("dashboard", view)
			return true
		}
	})
	log.Debug("dashboard stream closed", zap.Error(ctx.Err()))
}

// The dashboard shows the average response time with one decimal.
func roundMetrics(m dashboard.Metrics) dashboard.Metrics {
	m.AvgResponseHours = math.Round(m.AvgResponseHours*10) / 10
	return m
}
