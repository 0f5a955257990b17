package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"nairobify-be/models"
)

// MemorySource is an in-process issue store. It backs tests and the
// "memory" store driver.
type MemorySource struct {
	mu       sync.Mutex
	issues   []models.Issue
	index    map[string]int
	subs     map[int]*memorySubscription
	nextSub  int
	writeErr error

	// notifyMu keeps snapshot deliveries in write order.
	notifyMu sync.Mutex
}

func NewMemorySource(seed ...models.Issue) *MemorySource {
	s := &MemorySource{
		index: make(map[string]int),
		subs:  make(map[int]*memorySubscription),
	}
	for _, issue := range seed {
		s.put(issue)
	}
	return s
}

type memorySubscription struct {
	source     *MemorySource
	id         int
	onSnapshot SnapshotFunc
	onError    ErrorFunc
	once       sync.Once
}

func (m *memorySubscription) Unsubscribe() {
	m.once.Do(func() {
		m.source.mu.Lock()
		delete(m.source.subs, m.id)
		m.source.mu.Unlock()
	})
}

func (s *MemorySource) Subscribe(_ context.Context, onSnapshot SnapshotFunc, onError ErrorFunc) (Subscription, error) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	sub := &memorySubscription{source: s, id: s.nextSub, onSnapshot: onSnapshot, onError: onError}
	s.subs[sub.id] = sub
	s.nextSub++
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	onSnapshot(snapshot)
	return sub, nil
}

func (s *MemorySource) Create(_ context.Context, issue models.NewIssue) (string, error) {
	s.mu.Lock()
	if s.writeErr != nil {
		err := s.writeErr
		s.mu.Unlock()
		return "", err
	}
	id := primitive.NewObjectID().Hex()
	s.put(models.Issue{
		ID:           id,
		Category:     issue.Category,
		Ward:         issue.Ward,
		Description:  issue.Description,
		LocationText: issue.LocationText,
		Status:       issue.Status,
		ReporterID:   issue.ReporterID,
		CreatedAt:    issue.CreatedAt,
		UpdatedAt:    issue.UpdatedAt,
	})
	s.mu.Unlock()

	s.notify()
	return id, nil
}

func (s *MemorySource) UpdateStatus(_ context.Context, id string, status models.IssueStatus, at time.Time) error {
	s.mu.Lock()
	if s.writeErr != nil {
		err := s.writeErr
		s.mu.Unlock()
		return err
	}
	i, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return ErrIssueNotFound
	}
	s.issues[i].Status = status
	s.issues[i].UpdatedAt = at
	s.mu.Unlock()

	s.notify()
	return nil
}

// Put inserts or replaces an issue as if another client had written it.
func (s *MemorySource) Put(issue models.Issue) {
	s.mu.Lock()
	s.put(issue)
	s.mu.Unlock()
	s.notify()
}

// FailWrites makes every following write return err; nil restores writes.
func (s *MemorySource) FailWrites(err error) {
	s.mu.Lock()
	s.writeErr = err
	s.mu.Unlock()
}

// EmitError reports err to every subscriber, as a dropped connection would.
func (s *MemorySource) EmitError(err error) {
	s.mu.Lock()
	subs := s.subscribersLocked()
	s.mu.Unlock()
	for _, sub := range subs {
		if sub.onError != nil {
			sub.onError(err)
		}
	}
}

// Subscribers returns the number of open subscriptions.
func (s *MemorySource) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func (s *MemorySource) put(issue models.Issue) {
	if i, ok := s.index[issue.ID]; ok {
		s.issues[i] = issue
		return
	}
	s.index[issue.ID] = len(s.issues)
	s.issues = append(s.issues, issue)
}

func (s *MemorySource) notify() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	snapshot := s.snapshotLocked()
	subs := s.subscribersLocked()
	s.mu.Unlock()

	for _, sub := range subs {
		sub.onSnapshot(snapshot)
	}
}

func (s *MemorySource) subscribersLocked() []*memorySubscription {
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	subs := make([]*memorySubscription, 0, len(ids))
	for _, id := range ids {
		subs = append(subs, s.subs[id])
	}
	return subs
}

func (s *MemorySource) snapshotLocked() []models.Issue {
	snapshot := make([]models.Issue, len(s.issues))
	copy(snapshot, s.issues)
	sort.SliceStable(snapshot, func(i, j int) bool {
		return snapshot[i].CreatedAt.After(snapshot[j].CreatedAt)
	})
	return snapshot
}
