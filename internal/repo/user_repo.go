package repo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Hritabrataghosh/neon-tasks/internal/domain"
)

// UserRepo provides user persistence.
type UserRepo interface {
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	Create(ctx context.Context, u domain.User) (domain.User, error)
}

// MongoUserRepo implements UserRepo on a Mongo collection.
type MongoUserRepo struct {
	coll *mongo.Collection
}

// NewMongoUserRepo returns a new MongoUserRepo.
func NewMongoUserRepo(db *mongo.Database) *MongoUserRepo {
	return &MongoUserRepo{coll: db.Collection("users")}
}

// EnsureIndexes creates the unique email index that Create relies on.
func (r *MongoUserRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// GetByEmail returns the user by email.
func (r *MongoUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	var u domain.User
	err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&u)
	return u, err
}

// Create inserts a new user and returns it with its assigned id.
func (r *MongoUserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	res, err := r.coll.InsertOne(ctx, u)
	if err != nil {
		return domain.User{}, err
	}
	u.ID = res.InsertedID.(primitive.ObjectID)
	return u, nil
}

// IsDuplicateEmail reports whether err is the unique-index violation for
// an already registered email.
func IsDuplicateEmail(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}
