package storage

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"waitline/internal/models"
)

var _ Store = (*MongoStore)(nil)

// MongoStore keeps queues and entries in two collections. WithinQueue needs a
// replica set or sharded cluster because it relies on multi-document
// transactions.
type MongoStore struct {
	client  *mongo.Client
	queues  *mongo.Collection
	entries *mongo.Collection
}

func NewMongoStore(client *mongo.Client, database string) *MongoStore {
	db := client.Database(database)
	return &MongoStore{
		client:  client,
		queues:  db.Collection("queues"),
		entries: db.Collection("queue_entries"),
	}
}

// Migrate creates the indexes the engine depends on.
func (s *MongoStore) Migrate(ctx context.Context) error {
	_, err := s.queues.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "business_id", Value: 1}, {Key: "created_at", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create queue index: %w", err)
	}

	_, err = s.entries.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "queue_id", Value: 1}, {Key: "status", Value: 1}, {Key: "position", Value: 1}}},
		{Keys: bson.D{{Key: "queue_id", Value: 1}, {Key: "user_id", Value: 1}, {Key: "joined_at", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
		{
			Keys: bson.D{{Key: "queue_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().
				SetName("waiting_user_unique").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": models.StatusWaiting}),
		},
	})
	if err != nil {
		return fmt.Errorf("create entry indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

func (s *MongoStore) CreateQueue(ctx context.Context, q *models.Queue) error {
	if err := q.BeforeCreate(nil); err != nil {
		return err
	}
	if _, err := s.queues.InsertOne(ctx, q); err != nil {
		return fmt.Errorf("create queue: %w", err)
	}
	return nil
}

func (s *MongoStore) GetQueue(ctx context.Context, queueID string) (*models.Queue, error) {
	var q models.Queue
	if err := s.queues.FindOne(ctx, bson.M{"_id": queueID}).Decode(&q); err != nil {
		return nil, mongoErr("get queue", err)
	}
	return &q, nil
}

func (s *MongoStore) ListQueues(ctx context.Context, businessID string) ([]models.Queue, error) {
	return s.findQueues(ctx, bson.M{"business_id": businessID})
}

func (s *MongoStore) AllQueues(ctx context.Context) ([]models.Queue, error) {
	return s.findQueues(ctx, bson.M{})
}

func (s *MongoStore) findQueues(ctx context.Context, filter bson.M) ([]models.Queue, error) {
	cur, err := s.queues.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find queues: %w", err)
	}
	var queues []models.Queue
	if err := cur.All(ctx, &queues); err != nil {
		return nil, fmt.Errorf("decode queues: %w", err)
	}
	return queues, nil
}

func (s *MongoStore) LatestEntry(ctx context.Context, queueID, userID string) (*models.QueueEntry, error) {
	return mongoLatestEntry(ctx, s.entries, queueID, userID)
}

func (s *MongoStore) WaitingEntries(ctx context.Context, queueID string) ([]models.QueueEntry, error) {
	return s.findEntries(ctx,
		bson.M{"queue_id": queueID, "status": models.StatusWaiting},
		bson.D{{Key: "position", Value: 1}})
}

func (s *MongoStore) UserEntries(ctx context.Context, userID string) ([]models.QueueEntry, error) {
	return s.findEntries(ctx, bson.M{"user_id": userID}, bson.D{{Key: "joined_at", Value: 1}})
}

func (s *MongoStore) findEntries(ctx context.Context, filter bson.M, sort bson.D) ([]models.QueueEntry, error) {
	cur, err := s.entries.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, fmt.Errorf("find entries: %w", err)
	}
	var entries []models.QueueEntry
	if err := cur.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("decode entries: %w", err)
	}
	return entries, nil
}

func (s *MongoStore) CountByStatus(ctx context.Context, queueID string) (StatusCounts, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"queue_id": queueID}}},
		{{Key: "$group", Value: bson.M{"_id": "$status", "n": bson.M{"$sum": 1}}}},
	}
	cur, err := s.entries.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	var rows []struct {
		Status models.Status `bson:"_id"`
		N      int           `bson:"n"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode counts: %w", err)
	}
	counts := make(StatusCounts, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.N
	}
	return counts, nil
}

// WithinQueue bumps a counter on the queue document first, so two
// transactions on the same queue always write-conflict and one of them is
// retried by the driver.
func (s *MongoStore) WithinQueue(ctx context.Context, queueID string, fn func(tx Tx) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		res := s.queues.FindOneAndUpdate(sc, bson.M{"_id": queueID}, bson.M{"$inc": bson.M{"lock_seq": 1}})
		if err := res.Err(); err != nil {
			return nil, mongoErr("lock queue", err)
		}
		return nil, fn(&mongoTx{ctx: sc, entries: s.entries, queueID: queueID})
	})
	return err
}

type mongoTx struct {
	ctx     context.Context
	entries *mongo.Collection
	queueID string
}

func (t *mongoTx) LatestEntry(userID string) (*models.QueueEntry, error) {
	return mongoLatestEntry(t.ctx, t.entries, t.queueID, userID)
}

func (t *mongoTx) CountWaiting() (int, error) {
	n, err := t.entries.CountDocuments(t.ctx, bson.M{"queue_id": t.queueID, "status": models.StatusWaiting})
	if err != nil {
		return 0, fmt.Errorf("count waiting: %w", err)
	}
	return int(n), nil
}

func (t *mongoTx) WaitingAt(position int) (*models.QueueEntry, error) {
	var e models.QueueEntry
	err := t.entries.FindOne(t.ctx, bson.M{
		"queue_id": t.queueID,
		"status":   models.StatusWaiting,
		"position": position,
	}).Decode(&e)
	if err != nil {
		return nil, mongoErr("waiting at", err)
	}
	return &e, nil
}

func (t *mongoTx) InsertEntry(e *models.QueueEntry) error {
	if err := e.BeforeCreate(nil); err != nil {
		return err
	}
	if _, err := t.entries.InsertOne(t.ctx, e); err != nil {
		return mongoErr("insert entry", err)
	}
	return nil
}

func (t *mongoTx) SetStatus(entryID string, from, to models.Status) error {
	res, err := t.entries.UpdateOne(t.ctx,
		bson.M{"_id": entryID, "queue_id": t.queueID, "status": from},
		bson.M{"$set": bson.M{"status": to}})
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrConflict
	}
	return nil
}

func (t *mongoTx) CloseGap(vacated int) (int, error) {
	if vacated < 1 {
		return 0, nil
	}
	if _, err := t.WaitingAt(vacated); err == nil {
		return 0, nil
	} else if !errors.Is(err, ErrNotFound) {
		return 0, err
	}
	res, err := t.entries.UpdateMany(t.ctx,
		bson.M{"queue_id": t.queueID, "status": models.StatusWaiting, "position": bson.M{"$gt": vacated}},
		bson.M{"$inc": bson.M{"position": -1}})
	if err != nil {
		return 0, fmt.Errorf("close gap: %w", err)
	}
	return int(res.ModifiedCount), nil
}

func mongoLatestEntry(ctx context.Context, coll *mongo.Collection, queueID, userID string) (*models.QueueEntry, error) {
	var e models.QueueEntry
	err := coll.FindOne(ctx,
		bson.M{"queue_id": queueID, "user_id": userID},
		options.FindOne().SetSort(bson.D{
			{Key: "joined_at", Value: -1},
			{Key: "status", Value: -1},
			{Key: "_id", Value: -1},
		}),
	).Decode(&e)
	if err != nil {
		return nil, mongoErr("latest entry", err)
	}
	return &e, nil
}

func mongoErr(op string, err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	}
	return fmt.Errorf("%s: %w", op, err)
}
