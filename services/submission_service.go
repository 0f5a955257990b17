// Package services holds the write paths of the engine: citizen submissions
// and operator status changes.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"nairobify-be/models"
	"nairobify-be/reporter"
	"nairobify-be/store"
)

var (
	ErrInvalidSubmission   = errors.New("invalid submission")
	ErrDuplicateSubmission = errors.New("this issue was already submitted")
)

// SubmissionError is a failed store write. Message is safe to show to the citizen.
type SubmissionError struct {
	Message string
	Err     error
}

func (e *SubmissionError) Error() string { return fmt.Sprintf("submit issue: %v", e.Err) }
func (e *SubmissionError) Unwrap() error { return e.Err }

const submitFailedMessage = "Failed to submit issue. Please try again."

const releaseTimeout = 2 * time.Second

// SubmissionService accepts citizen reports.
type SubmissionService struct {
	writer   store.Writer
	ledger   reporter.Ledger
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time
}

func NewSubmissionService(writer store.Writer, ledger reporter.Ledger, logger *zap.Logger) *SubmissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionService{
		writer:   writer,
		ledger:   ledger,
		validate: validator.New(),
		logger:   logger.Named("submissions"),
		now:      time.Now,
	}
}

// Submit stores s as a new reported issue and returns its tracking id.
// A submission identical to the reporter's last accepted one is rejected
// with ErrDuplicateSubmission and nothing is written. The fingerprint is
// reserved before the write, so a double click yields exactly one issue.
func (s *SubmissionService) Submit(ctx context.Context, reporterID string, sub models.Submission) (string, error) {
	if err := s.validate.Struct(sub); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSubmission, err)
	}

	fp := reporter.Fingerprint(sub)
	prev, err := s.ledger.Reserve(ctx, reporterID, fp)
	reserved := err == nil
	if err != nil {
		// A ledger outage does not block reporting.
		s.logger.Warn("fingerprint reservation failed", zap.String("reporter_id", reporterID), zap.Error(err))
	}
	if reporter.IsDuplicate(fp, prev) {
		s.logger.Info("duplicate submission rejected", zap.String("reporter_id", reporterID))
		return "", ErrDuplicateSubmission
	}

	id, err := s.writer.Create(ctx, models.NewIssueFromSubmission(sub, reporterID, s.now()))
	if err != nil {
		s.logger.Error("create issue failed", zap.String("reporter_id", reporterID), zap.Error(err))
		if reserved {
			s.release(reporterID, fp, prev)
		}
		return "", &SubmissionError{Message: submitFailedMessage, Err: err}
	}

	s.logger.Info("issue submitted",
		zap.String("issue_id", id),
		zap.String("ward", sub.Ward),
		zap.String("category", sub.Category),
	)
	return id, nil
}

// release hands the reporter's ledger entry back after a failed write so the
// same report can be retried. It runs detached from the request, whose
// deadline may be what failed the write.
func (s *SubmissionService) release(reporterID, fp, prev string) {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()
	if err := s.ledger.Release(ctx, reporterID, fp, prev); err != nil {
		s.logger.Warn("release fingerprint failed", zap.String("reporter_id", reporterID), zap.Error(err))
	}
}
