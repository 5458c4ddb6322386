package repo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Hritabrataghosh/neon-tasks/internal/domain"
)

// TaskRepo provides owner-scoped task persistence. Implementations return
// mongo.ErrNoDocuments when an id does not match a document for the owner;
// the service maps that to its NotFound error.
type TaskRepo interface {
	Create(ctx context.Context, t domain.Task) (domain.Task, error)
	GetByID(ctx context.Context, owner, id primitive.ObjectID) (domain.Task, error)
	List(ctx context.Context, owner primitive.ObjectID, f ListFilter) ([]domain.Task, error)
	Replace(ctx context.Context, owner, id primitive.ObjectID, patch domain.Task) (domain.Task, error)
	Delete(ctx context.Context, owner, id primitive.ObjectID) error
	Toggle(ctx context.Context, owner, id primitive.ObjectID) (domain.Task, error)
	DeleteCompleted(ctx context.Context, owner primitive.ObjectID) (int64, error)

	Overview(ctx context.Context, owner primitive.ObjectID, now time.Time) (domain.Overview, error)
	GroupByField(ctx context.Context, owner primitive.ObjectID, field string) ([]domain.Bucket, error)
	Activity(ctx context.Context, owner primitive.ObjectID, since time.Time) ([]domain.DayCount, error)
}

// MongoTaskRepo implements TaskRepo on a Mongo collection.
type MongoTaskRepo struct {
	coll *mongo.Collection
}

func NewMongoTaskRepo(db *mongo.Database) *MongoTaskRepo {
	return &MongoTaskRepo{coll: db.Collection("tasks")}
}

// EnsureIndexes creates the indexes the list and stats queries rely on.
func (r *MongoTaskRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "completed", Value: 1}}},
	})
	return err
}

func (r *MongoTaskRepo) Create(ctx context.Context, t domain.Task) (domain.Task, error) {
	res, err := r.coll.InsertOne(ctx, t)
	if err != nil {
		return domain.Task{}, err
	}
	t.ID = res.InsertedID.(primitive.ObjectID)
	return t, nil
}

func (r *MongoTaskRepo) GetByID(ctx context.Context, owner, id primitive.ObjectID) (domain.Task, error) {
	var t domain.Task
	err := r.coll.FindOne(ctx, bson.M{"_id": id, "owner": owner}).Decode(&t)
	return t, err
}

func (r *MongoTaskRepo) List(ctx context.Context, owner primitive.ObjectID, f ListFilter) ([]domain.Task, error) {
	cur, err := r.coll.Aggregate(ctx, buildListPipeline(owner, f))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var list []domain.Task
	if err := cur.All(ctx, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Replace overwrites the editable fields of the task matching {id, owner}
// and refreshes updatedAt. Owner, createdAt and completed are untouched.
func (r *MongoTaskRepo) Replace(ctx context.Context, owner, id primitive.ObjectID, patch domain.Task) (domain.Task, error) {
	update := bson.M{
		"$set": bson.M{
			"title":       patch.Title,
			"description": patch.Description,
			"priority":    patch.Priority,
			"category":    patch.Category,
			"dueDate":     patch.DueDate,
			"tags":        patch.Tags,
			"updatedAt":   time.Now().UTC(),
		},
	}
	return r.findOneAndUpdate(ctx, owner, id, update)
}

func (r *MongoTaskRepo) Delete(ctx context.Context, owner, id primitive.ObjectID) error {
	res := r.coll.FindOneAndDelete(ctx, bson.M{"_id": id, "owner": owner})
	return res.Err()
}

// Toggle flips completed in a single atomic update via a pipeline update,
// so two concurrent toggles cannot both read the same prior value.
func (r *MongoTaskRepo) Toggle(ctx context.Context, owner, id primitive.ObjectID) (domain.Task, error) {
	update := mongo.Pipeline{
		bson.D{{Key: "$set", Value: bson.M{
			"completed": bson.M{"$not": "$completed"},
			"updatedAt": time.Now().UTC(),
		}}},
	}
	return r.findOneAndUpdate(ctx, owner, id, update)
}

func (r *MongoTaskRepo) DeleteCompleted(ctx context.Context, owner primitive.ObjectID) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"owner": owner, "completed": true})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *MongoTaskRepo) findOneAndUpdate(ctx context.Context, owner, id primitive.ObjectID, update interface{}) (domain.Task, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var t domain.Task
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id, "owner": owner}, update, opts).Decode(&t)
	return t, err
}

// Overview computes the headline counts with four count queries.
// Overdue means incomplete with a due date strictly before now; tasks
// without a due date never count as overdue.
func (r *MongoTaskRepo) Overview(ctx context.Context, owner primitive.ObjectID, now time.Time) (domain.Overview, error) {
	var o domain.Overview
	var err error

	if o.Total, err = r.coll.CountDocuments(ctx, bson.M{"owner": owner}); err != nil {
		return domain.Overview{}, err
	}
	if o.Completed, err = r.coll.CountDocuments(ctx, bson.M{"owner": owner, "completed": true}); err != nil {
		return domain.Overview{}, err
	}
	o.Pending = o.Total - o.Completed

	highPriority := bson.M{
		"owner":     owner,
		"completed": false,
		"priority":  bson.M{"$in": bson.A{domain.PriorityHigh, domain.PriorityCritical}},
	}
	if o.HighPriority, err = r.coll.CountDocuments(ctx, highPriority); err != nil {
		return domain.Overview{}, err
	}

	overdue := bson.M{
		"owner":     owner,
		"completed": false,
		"dueDate":   bson.M{"$lt": now},
	}
	if o.Overdue, err = r.coll.CountDocuments(ctx, overdue); err != nil {
		return domain.Overview{}, err
	}
	return o, nil
}

// GroupByField groups the owner's tasks by the stored values of field
// ("category" or "priority"). Grouping is data driven: every distinct
// stored value becomes a bucket, not just the nominal sets.
func (r *MongoTaskRepo) GroupByField(ctx context.Context, owner primitive.ObjectID, field string) ([]domain.Bucket, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"owner": owner}}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":   "$" + field,
			"count": bson.M{"$sum": 1},
		}}},
	}
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	buckets := []domain.Bucket{}
	if err := cur.All(ctx, &buckets); err != nil {
		return nil, err
	}
	return buckets, nil
}

// Activity counts tasks created since the given instant, grouped by UTC
// calendar day and ordered by day ascending. Zero-count days are absent.
func (r *MongoTaskRepo) Activity(ctx context.Context, owner primitive.ObjectID, since time.Time) ([]domain.DayCount, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{
			"owner":     owner,
			"createdAt": bson.M{"$gte": since},
		}}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id": bson.M{"$dateToString": bson.M{
				"format": "%Y-%m-%d",
				"date":   "$createdAt",
			}},
			"count": bson.M{"$sum": 1},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	days := []domain.DayCount{}
	if err := cur.All(ctx, &days); err != nil {
		return nil, err
	}
	return days, nil
}
