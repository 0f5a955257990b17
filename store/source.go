// Package store connects the engine to the issue record store.
package store

import (
	"context"
	"errors"
	"time"

	"nairobify-be/models"
)

// ErrIssueNotFound is returned when a status update targets an unknown id.
var ErrIssueNotFound = errors.New("issue not found")

// SnapshotFunc receives the complete set of issues, newest first.
type SnapshotFunc func(issues []models.Issue)

// ErrorFunc receives upstream errors. The subscription stays open.
type ErrorFunc func(err error)

// Subscription releases an upstream subscription. Unsubscribe is idempotent.
type Subscription interface {
	Unsubscribe()
}

// Writer is the write side of the issue store.
type Writer interface {
	Create(ctx context.Context, issue models.NewIssue) (string, error)
	UpdateStatus(ctx context.Context, id string, status models.IssueStatus, at time.Time) error
}

// Source is the issue stream: it delivers a full ordered snapshot on
// subscribe and again after every change.
type Source interface {
	Writer
	Subscribe(ctx context.Context, onSnapshot SnapshotFunc, onError ErrorFunc) (Subscription, error)
}
