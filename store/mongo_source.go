package store

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"nairobify-be/models"
)

const (
	defaultPollInterval = 5 * time.Second
	queryTimeout        = 10 * time.Second
)

// MongoSource streams the issues collection. Live updates come from a change
// stream; servers without change streams (standalone mongod) are polled.
type MongoSource struct {
	collection   *mongo.Collection
	pollInterval time.Duration
	logger       *zap.Logger
}

func NewMongoSource(collection *mongo.Collection, pollInterval time.Duration, logger *zap.Logger) *MongoSource {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MongoSource{collection: collection, pollInterval: pollInterval, logger: logger}
}

// EnsureIndexes creates the createdAt index the snapshot query sorts on
func (s *MongoSource) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	indexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}},
	}
	_, err := s.collection.Indexes().CreateOne(ctx, indexModel)
	return err
}

func (s *MongoSource) Create(ctx context.Context, issue models.NewIssue) (string, error) {
	result, err := s.collection.InsertOne(ctx, issue)
	if err != nil {
		return "", fmt.Errorf("insert issue: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		return oid.Hex(), nil
	}
	return fmt.Sprint(result.InsertedID), nil
}

func (s *MongoSource) UpdateStatus(ctx context.Context, id string, status models.IssueStatus, at time.Time) error {
	result, err := s.collection.UpdateOne(ctx, idFilter(id), bson.M{"$set": bson.M{
		"status":    status,
		"updatedAt": at,
	}})
	if err != nil {
		return fmt.Errorf("update issue %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return ErrIssueNotFound
	}
	return nil
}

// Documents written by other clients may carry string ids.
func idFilter(id string) bson.M {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"_id": oid}
	}
	return bson.M{"_id": id}
}

type mongoSubscription struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Unsubscribe stops the stream and waits for the reader goroutine. It must
// not be called from inside the snapshot callback.
func (m *mongoSubscription) Unsubscribe() {
	m.once.Do(func() {
		m.cancel()
		<-m.done
	})
}

func (s *MongoSource) Subscribe(ctx context.Context, onSnapshot SnapshotFunc, onError ErrorFunc) (Subscription, error) {
	if onError == nil {
		onError = func(error) {}
	}
	ctx, cancel := context.WithCancel(ctx)
	sub := &mongoSubscription{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(sub.done)
		s.run(ctx, onSnapshot, onError)
	}()
	return sub, nil
}

func (s *MongoSource) run(ctx context.Context, onSnapshot SnapshotFunc, onError ErrorFunc) {
	for {
		stream, err := s.collection.Watch(ctx, mongo.Pipeline{})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Warn("change stream unavailable, falling back to polling",
				zap.Error(err), zap.Duration("interval", s.pollInterval))
			s.poll(ctx, onSnapshot, onError)
			return
		}

		err = s.follow(ctx, stream, onSnapshot, onError)
		_ = stream.Close(context.Background())
		if ctx.Err() != nil {
			return
		}
		onError(fmt.Errorf("change stream closed: %w", err))

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.pollInterval):
		}
	}
}

// follow emits a snapshot, then a fresh one after each burst of change events.
func (s *MongoSource) follow(ctx context.Context, stream *mongo.ChangeStream, onSnapshot SnapshotFunc, onError ErrorFunc) error {
	s.reload(ctx, onSnapshot, onError)

	for stream.Next(ctx) {
		// Drain whatever else is already buffered; one reload covers it all.
		for stream.RemainingBatchLength() > 0 && stream.TryNext(ctx) {
		}
		s.reload(ctx, onSnapshot, onError)
	}
	return stream.Err()
}

func (s *MongoSource) poll(ctx context.Context, onSnapshot SnapshotFunc, onError ErrorFunc) {
	var last []models.Issue
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		issues, err := s.load(ctx)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return
			}
			onError(err)
		case last == nil || !reflect.DeepEqual(last, issues):
			last = issues
			onSnapshot(issues)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *MongoSource) reload(ctx context.Context, onSnapshot SnapshotFunc, onError ErrorFunc) {
	issues, err := s.load(ctx)
	if err != nil {
		if ctx.Err() == nil {
			onError(err)
		}
		return
	}
	onSnapshot(issues)
}

func (s *MongoSource) load(ctx context.Context) ([]models.Issue, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.collection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("find issues: %w", err)
	}
	defer cursor.Close(ctx)

	issues := make([]models.Issue, 0)
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			s.logger.Warn("skipping undecodable issue document", zap.Error(err))
			continue
		}
		issues = append(issues, models.DecodeIssue(raw))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("read issues: %w", err)
	}
	return issues, nil
}
