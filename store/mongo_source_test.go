package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"nairobify-be/models"
)

const issuesNS = "nairobify.issues"

func newMockSource(mt *mtest.T) *MongoSource {
	return NewMongoSource(mt.Coll, 10*time.Millisecond, nil)
}

func issueDoc(id primitive.ObjectID, ward string, createdAt time.Time) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "category", Value: "roads"},
		{Key: "ward", Value: ward},
		{Key: "description", Value: "Pothole"},
		{Key: "status", Value: "in_progress"},
		{Key: "createdAt", Value: primitive.NewDateTimeFromTime(createdAt)},
	}
}

// snapshotRecorder collects snapshots delivered from the reader goroutine.
type snapshotRecorder struct {
	mu    sync.Mutex
	got   [][]models.Issue
	calls chan struct{}
}

func newSnapshotRecorder() *snapshotRecorder {
	return &snapshotRecorder{calls: make(chan struct{}, 16)}
}

func (r *snapshotRecorder) record(issues []models.Issue) {
	r.mu.Lock()
	r.got = append(r.got, issues)
	r.mu.Unlock()
	select {
	case r.calls <- struct{}{}:
	default:
	}
}

func (r *snapshotRecorder) snapshots() [][]models.Issue {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]models.Issue(nil), r.got...)
}

func TestMongoSource_Create(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("returns the generated object id", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		src := newMockSource(mt)

		id, err := src.Create(context.Background(), models.NewIssue{Category: "roads", Ward: "Karen", Status: models.Reported})
		require.NoError(t, err)

		_, err = primitive.ObjectIDFromHex(id)
		assert.NoError(t, err, "id %q is not an object id", id)

		evt := mt.GetStartedEvent()
		require.NotNil(t, evt)
		assert.Equal(t, "insert", evt.CommandName)
		assert.Equal(t, "Karen", evt.Command.Lookup("documents", "0", "ward").StringValue())
	})

	mt.Run("wraps write errors", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key"}))
		src := newMockSource(mt)

		_, err := src.Create(context.Background(), models.NewIssue{Category: "roads"})
		assert.ErrorContains(t, err, "insert issue")
	})
}

func TestMongoSource_UpdateStatus(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	at := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	oid := primitive.NewObjectID()

	mt.Run("matched", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))
		src := newMockSource(mt)

		require.NoError(t, src.UpdateStatus(context.Background(), oid.Hex(), models.Resolved, at))

		evt := mt.GetStartedEvent()
		require.NotNil(t, evt)
		assert.Equal(t, "update", evt.CommandName)
		assert.Equal(t, oid, evt.Command.Lookup("updates", "0", "q", "_id").ObjectID())
		assert.Equal(t, "resolved", evt.Command.Lookup("updates", "0", "u", "$set", "status").StringValue())
	})

	mt.Run("no document matched", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))
		src := newMockSource(mt)

		err := src.UpdateStatus(context.Background(), oid.Hex(), models.Resolved, at)
		assert.ErrorIs(t, err, ErrIssueNotFound)
	})

	mt.Run("string id", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		src := newMockSource(mt)

		require.NoError(t, src.UpdateStatus(context.Background(), "legacy-7", models.InProgress, at))
		evt := mt.GetStartedEvent()
		require.NotNil(t, evt)
		assert.Equal(t, "legacy-7", evt.Command.Lookup("updates", "0", "q", "_id").StringValue())
	})
}

func TestMongoSource_Load(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	mt.Run("decodes newest first with defaults", func(mt *mtest.T) {
		newer, older := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, issuesNS, mtest.FirstBatch,
			issueDoc(newer, "Karen", base.Add(time.Hour)),
			// Written by another client: string id, no status, wrong field types.
			bson.D{
				{Key: "_id", Value: "legacy-1"},
				{Key: "ward", Value: 42},
				{Key: "createdAt", Value: primitive.NewDateTimeFromTime(base)},
			},
			issueDoc(older, "Kilimani", base.Add(-time.Hour)),
		))
		src := newMockSource(mt)

		issues, err := src.load(context.Background())
		require.NoError(t, err)
		require.Len(t, issues, 3)

		assert.Equal(t, newer.Hex(), issues[0].ID)
		assert.Equal(t, models.InProgress, issues[0].Status)
		assert.Equal(t, base.Add(time.Hour), issues[0].CreatedAt)

		assert.Equal(t, "legacy-1", issues[1].ID)
		assert.Equal(t, models.Reported, issues[1].Status)
		assert.Empty(t, issues[1].Ward)

		assert.Equal(t, older.Hex(), issues[2].ID)

		evt := mt.GetStartedEvent()
		require.NotNil(t, evt)
		assert.Equal(t, "find", evt.CommandName)
		order, err := evt.Command.LookupErr("sort", "createdAt")
		require.NoError(t, err)
		assert.Equal(t, int64(-1), order.AsInt64())
	})

	mt.Run("empty collection", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, issuesNS, mtest.FirstBatch))
		src := newMockSource(mt)

		issues, err := src.load(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, issues)
		assert.Empty(t, issues)
	})

	mt.Run("query error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    13,
			Name:    "Unauthorized",
			Message: "not authorized",
		}))
		src := newMockSource(mt)

		_, err := src.load(context.Background())
		assert.ErrorContains(t, err, "find issues")
	})
}

func TestMongoSource_PollingSkipsUnchangedSnapshots(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	mt.Run("standalone server", func(mt *mtest.T) {
		first, second := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(
			// Standalone servers reject $changeStream.
			mtest.CreateCommandErrorResponse(mtest.CommandError{
				Code:    40573,
				Name:    "Location40573",
				Message: "The $changeStream stage is only supported on replica sets",
			}),
			mtest.CreateCursorResponse(0, issuesNS, mtest.FirstBatch, issueDoc(first, "Karen", base)),
			mtest.CreateCursorResponse(0, issuesNS, mtest.FirstBatch, issueDoc(first, "Karen", base)),
			mtest.CreateCursorResponse(0, issuesNS, mtest.FirstBatch,
				issueDoc(second, "Kibra", base.Add(time.Hour)),
				issueDoc(first, "Karen", base),
			),
		)
		src := newMockSource(mt)
		rec := newSnapshotRecorder()

		// Once the scripted responses run out every poll reports an error.
		pollErrs := make(chan error, 64)
		sub, err := src.Subscribe(context.Background(), rec.record, func(err error) {
			select {
			case pollErrs <- err:
			default:
			}
		})
		require.NoError(t, err)

		select {
		case <-pollErrs:
		case <-time.After(5 * time.Second):
			t.Fatal("polling never consumed the scripted responses")
		}
		sub.Unsubscribe()

		got := rec.snapshots()
		require.Len(t, got, 2, "the repeated identical read must not be delivered")
		assert.Len(t, got[0], 1)
		require.Len(t, got[1], 2)
		assert.Equal(t, second.Hex(), got[1][0].ID)
	})
}

func TestMongoSource_ChangeStreamRereadsOnEvent(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	mt.Run("replica set", func(mt *mtest.T) {
		first, second := primitive.NewObjectID(), primitive.NewObjectID()
		event := bson.D{
			{Key: "_id", Value: bson.D{{Key: "_data", Value: "8263f0a1"}}},
			{Key: "operationType", Value: "insert"},
			{Key: "documentKey", Value: bson.D{{Key: "_id", Value: second}}},
		}
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, issuesNS, mtest.FirstBatch),
			mtest.CreateCursorResponse(0, issuesNS, mtest.FirstBatch, issueDoc(first, "Karen", base)),
			mtest.CreateCursorResponse(1, issuesNS, mtest.NextBatch, event),
			mtest.CreateCursorResponse(0, issuesNS, mtest.FirstBatch,
				issueDoc(second, "Kibra", base.Add(time.Hour)),
				issueDoc(first, "Karen", base),
			),
		)
		src := newMockSource(mt)
		rec := newSnapshotRecorder()

		sub, err := src.Subscribe(context.Background(), rec.record, nil)
		require.NoError(t, err)

		deadline := time.After(5 * time.Second)
		for len(rec.snapshots()) < 2 {
			select {
			case <-rec.calls:
			case <-deadline:
				t.Fatalf("got %d snapshots, want 2", len(rec.snapshots()))
			}
		}
		sub.Unsubscribe()

		got := rec.snapshots()
		assert.Len(t, got[0], 1)
		require.Len(t, got[1], 2, "a change event triggers a full re-read")
		assert.Equal(t, second.Hex(), got[1][0].ID)
	})
}
