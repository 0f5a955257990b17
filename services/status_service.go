package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"nairobify-be/models"
	"nairobify-be/projector"
	"nairobify-be/store"
)

var (
	ErrInvalidStatus     = errors.New("unknown status")
	ErrIllegalTransition = errors.New("status transition not allowed")
)

// StatusUpdateError is a failed status write. Message is safe to show to the operator.
type StatusUpdateError struct {
	IssueID string
	Message string
	Err     error
}

func (e *StatusUpdateError) Error() string {
	return fmt.Sprintf("update status of issue %s: %v", e.IssueID, e.Err)
}

func (e *StatusUpdateError) Unwrap() error { return e.Err }

const statusFailedMessage = "Failed to update status. Please try again."

// SnapshotReader exposes the latest projected issues.
type SnapshotReader interface {
	Snapshot() projector.Snapshot
}

// StatusService is the only path through which an issue's status changes.
type StatusService struct {
	writer   store.Writer
	snapshot SnapshotReader
	strict   bool
	logger   *zap.Logger
	now      func() time.Time
}

// NewStatusService returns a gateway that accepts any known status. With
// strict set, moves are checked against models.IssueStatus.CanTransition
// using the current projected status.
func NewStatusService(writer store.Writer, snapshot SnapshotReader, strict bool, logger *zap.Logger) *StatusService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusService{
		writer:   writer,
		snapshot: snapshot,
		strict:   strict,
		logger:   logger.Named("status"),
		now:      time.Now,
	}
}

// SetStatus writes status and a fresh updatedAt for issueID. The new value
// reaches readers through the next snapshot, not through this call.
func (s *StatusService) SetStatus(ctx context.Context, issueID string, status models.IssueStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	if s.strict && s.snapshot != nil {
		if current, ok := findIssue(s.snapshot.Snapshot().Issues, issueID); ok && !current.Status.CanTransition(status) {
			return fmt.Errorf("%w: %s to %s", ErrIllegalTransition, current.Status, status)
		}
	}

	err := s.writer.UpdateStatus(ctx, issueID, status, s.now())
	switch {
	case err == nil:
		s.logger.Info("status updated", zap.String("issue_id", issueID), zap.String("status", string(status)))
		return nil
	case errors.Is(err, store.ErrIssueNotFound):
		return err
	default:
		s.logger.Error("status update failed",
			zap.String("issue_id", issueID),
			zap.String("status", string(status)),
			zap.Error(err),
		)
		return &StatusUpdateError{IssueID: issueID, Message: statusFailedMessage, Err: err}
	}
}

func findIssue(issues []models.Issue, id string) (models.Issue, bool) {
	for _, issue := range issues {
		if issue.ID == id {
			return issue, true
		}
	}
	return models.Issue{}, false
}
