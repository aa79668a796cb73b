package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore handles users, topics and posts in MongoDB.
type MongoStore struct {
	client *mongo.Client
	users  *mongo.Collection
	topics *mongo.Collection
	posts  *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		client: db.Client(),
		users:  db.Collection("users"),
		topics: db.Collection("topics"),
		posts:  db.Collection("posts"),
	}
}

// EnsureIndexes creates the indexes the handlers rely on. Search needs the
// text index to exist before the first $text query.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	if _, err := s.topics.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "title", Value: "text"}, {Key: "description", Value: "text"}},
		Options: options.Index().SetName("topics_text"),
	}); err != nil {
		return fmt.Errorf("topics text index: %w", err)
	}
	if _, err := s.posts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "topic", Value: 1}, {Key: "date", Value: 1}},
	}); err != nil {
		return fmt.Errorf("posts topic index: %w", err)
	}
	// Lookup key only; uniqueness is not enforced by the store.
	if _, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}},
	}); err != nil {
		return fmt.Errorf("users email index: %w", err)
	}
	return nil
}

// withTransaction runs fn inside a multi-document transaction. The server
// must be a replica set member.
func (s *MongoStore) withTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("mongo start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w %q: %v", ErrInvalidID, id, err)
	}
	return oid, nil
}

func findOne(ctx context.Context, col *mongo.Collection, filter interface{}, out interface{}) error {
	err := col.FindOne(ctx, filter).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("mongo find %s: %w", col.Name(), err)
	}
	return nil
}

func insertedHex(res *mongo.InsertOneResult) string {
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		return oid.Hex()
	}
	return fmt.Sprint(res.InsertedID)
}
