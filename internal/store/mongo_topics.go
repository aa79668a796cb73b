package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/discussion-forum/internal/models"
)

func (s *MongoStore) ListTopics(ctx context.Context) ([]models.Topic, error) {
	return s.findTopics(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "date", Value: -1}}))
}

// SearchTopics runs a $text query with q passed through unchanged.
func (s *MongoStore) SearchTopics(ctx context.Context, q string) ([]models.Topic, error) {
	return s.findTopics(ctx, bson.M{"$text": bson.M{"$search": q}})
}

func (s *MongoStore) findTopics(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Topic, error) {
	cur, err := s.topics.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("mongo find topics: %w", err)
	}
	defer cur.Close(ctx)

	var topics []models.Topic
	if err := cur.All(ctx, &topics); err != nil {
		return nil, fmt.Errorf("mongo decode topics: %w", err)
	}
	return topics, nil
}

func (s *MongoStore) InsertTopic(ctx context.Context, t *models.Topic) (string, error) {
	res, err := s.topics.InsertOne(ctx, t)
	if err != nil {
		return "", fmt.Errorf("mongo insert topic: %w", err)
	}
	id := insertedHex(res)
	t.ID, _ = objectID(id)
	return id, nil
}

func (s *MongoStore) GetTopic(ctx context.Context, id string) (*models.Topic, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var t models.Topic
	if err := findOne(ctx, s.topics, bson.M{"_id": oid}, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTopic replaces title and description only.
func (s *MongoStore) UpdateTopic(ctx context.Context, id, title, description string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := s.topics.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"title":       title,
		"description": description,
	}})
	if err != nil {
		return fmt.Errorf("mongo update topic: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTopic does not touch the topic's posts.
func (s *MongoStore) DeleteTopic(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	if _, err := s.topics.DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		return fmt.Errorf("mongo delete topic: %w", err)
	}
	return nil
}

func incPosts(ctx context.Context, col *mongo.Collection, id string, delta int) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	if _, err := col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$inc": bson.M{"posts": delta}}); err != nil {
		return fmt.Errorf("mongo inc %s posts: %w", col.Name(), err)
	}
	return nil
}
