// Package projector keeps the live, ordered snapshot of all issues and fans
// it out to local consumers.
package projector

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"nairobify-be/models"
	"nairobify-be/store"
)

var ErrAlreadyStarted = errors.New("projector already started")

// Snapshot is the complete set of issues, newest first. Issues must be
// treated as read-only: the slice is shared by every consumer.
type Snapshot struct {
	Issues     []models.Issue
	Version    uint64
	ReceivedAt time.Time
}

// Projector republishes the upstream issue stream. Create it at the
// composition root, Start it once and Close it on shutdown.
type Projector struct {
	source store.Source
	logger *zap.Logger

	mu       sync.RWMutex
	current  Snapshot
	ready    bool
	lastErr  error
	subs     map[uint64]*Subscription
	nextID   uint64
	upstream store.Subscription
	started  bool
	closed   bool

	closeOnce sync.Once
}

func New(source store.Source, logger *zap.Logger) *Projector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Projector{
		source: source,
		logger: logger.Named("projector"),
		subs:   make(map[uint64]*Subscription),
	}
}

// Start opens the upstream subscription.
func (p *Projector) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return ErrAlreadyStarted
	}
	p.started = true
	p.mu.Unlock()

	upstream, err := p.source.Subscribe(ctx, p.publish, p.observeError)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.upstream = upstream
	closed := p.closed
	p.mu.Unlock()

	// Close raced with Start: release what we just opened.
	if closed {
		upstream.Unsubscribe()
	}
	return nil
}

// Close releases the upstream subscription exactly once and stops every
// local subscriber. The last snapshot stays readable.
func (p *Projector) Close() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		upstream := p.upstream
		subs := make([]*Subscription, 0, len(p.subs))
		for _, s := range p.subs {
			subs = append(subs, s)
		}
		p.mu.Unlock()

		if upstream != nil {
			upstream.Unsubscribe()
		}
		for _, s := range subs {
			s.Unsubscribe()
		}
		p.logger.Info("issue stream closed")
	})
}

// Snapshot returns the latest snapshot; Version is 0 until the first one arrives.
func (p *Projector) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// Version is the number of snapshots received so far.
func (p *Projector) Version() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current.Version
}

// Ready reports whether at least one snapshot has been received.
func (p *Projector) Ready() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.ready
}

// LastError returns the most recent upstream error, cleared by the next snapshot.
func (p *Projector) LastError() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastErr
}

// Subscribe registers fn for the current snapshot (if any) and every later
// one. Snapshots published while fn is busy are coalesced: fn always gets the
// newest, never a backlog.
func (p *Projector) Subscribe(fn func(Snapshot)) *Subscription {
	s := &Subscription{
		projector: p,
		fn:        fn,
		wake:      make(chan struct{}, 1),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		s.once.Do(func() { close(s.stop); close(s.done) })
		return s
	}
	s.id = p.nextID
	p.nextID++
	p.subs[s.id] = s
	current, ready := p.current, p.ready
	p.mu.Unlock()

	go s.loop()
	if ready {
		s.offer(current)
	}
	return s
}

func (p *Projector) publish(issues []models.Issue) {
	if issues == nil {
		issues = []models.Issue{}
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.current = Snapshot{
		Issues:     issues,
		Version:    p.current.Version + 1,
		ReceivedAt: time.Now(),
	}
	p.ready = true
	p.lastErr = nil
	snap := p.current
	subs := make([]*Subscription, 0, len(p.subs))
	for _, s := range p.subs {
		subs = append(subs, s)
	}
	p.mu.Unlock()

	p.logger.Debug("snapshot received", zap.Uint64("version", snap.Version), zap.Int("issues", len(issues)))
	for _, s := range subs {
		s.offer(snap)
	}
}

func (p *Projector) observeError(err error) {
	p.logger.Error("issue stream error, keeping last snapshot", zap.Error(err))
	p.mu.Lock()
	p.lastErr = err
	p.mu.Unlock()
}

func (p *Projector) remove(id uint64) {
	p.mu.Lock()
	delete(p.subs, id)
	p.mu.Unlock()
}

// Subscription is a local consumer of the projector.
type Subscription struct {
	projector *Projector
	id        uint64
	fn        func(Snapshot)

	mu      sync.Mutex
	pending *Snapshot
	wake    chan struct{}
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
}

// Unsubscribe is idempotent. Once it returns no further callbacks run. It
// waits for an in-flight callback, so it must not be called from inside fn.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.projector.remove(s.id)
		close(s.stop)
		<-s.done
	})
}

func (s *Subscription) offer(snap Snapshot) {
	s.mu.Lock()
	if s.pending == nil || s.pending.Version < snap.Version {
		s.pending = &snap
	}
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Subscription) loop() {
	defer close(s.done)
	var delivered uint64

	for {
		select {
		case <-s.stop:
			return
		case <-s.wake:
		}

		s.mu.Lock()
		snap := s.pending
		s.pending = nil
		s.mu.Unlock()

		if snap == nil || (delivered != 0 && snap.Version <= delivered) {
			continue
		}
		select {
		case <-s.stop:
			return
		default:
		}
		delivered = snap.Version
		s.fn(*snap)
	}
}
