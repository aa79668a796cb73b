package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/discussion-forum/internal/models"
)

// ListPosts returns the posts whose topic field equals topicID, oldest first.
func (s *MongoStore) ListPosts(ctx context.Context, topicID string) ([]models.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})
	cur, err := s.posts.Find(ctx, bson.M{"topic": topicID}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo find posts: %w", err)
	}
	defer cur.Close(ctx)

	var posts []models.Post
	if err := cur.All(ctx, &posts); err != nil {
		return nil, fmt.Errorf("mongo decode posts: %w", err)
	}
	return posts, nil
}

func (s *MongoStore) GetPost(ctx context.Context, id string) (*models.Post, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var p models.Post
	if err := findOne(ctx, s.posts, bson.M{"_id": oid}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePost inserts p and bumps the topic and author counters in one
// transaction.
func (s *MongoStore) CreatePost(ctx context.Context, p *models.Post) (string, error) {
	var id string
	err := s.withTransaction(ctx, func(sc mongo.SessionContext) error {
		res, err := s.posts.InsertOne(sc, p)
		if err != nil {
			return fmt.Errorf("mongo insert post: %w", err)
		}
		id = insertedHex(res)
		if err := incPosts(sc, s.topics, p.Topic, 1); err != nil {
			return err
		}
		return incPosts(sc, s.users, p.Author, 1)
	})
	if err != nil {
		return "", err
	}
	p.ID, _ = objectID(id)
	return id, nil
}

// UpdatePost replaces the body only.
func (s *MongoStore) UpdatePost(ctx context.Context, id, body string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := s.posts.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"post": body}})
	if err != nil {
		return fmt.Errorf("mongo update post: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePost decrements both counters and removes the post in one
// transaction. p must have been loaded with GetPost.
func (s *MongoStore) DeletePost(ctx context.Context, p *models.Post) error {
	return s.withTransaction(ctx, func(sc mongo.SessionContext) error {
		if err := incPosts(sc, s.topics, p.Topic, -1); err != nil {
			return err
		}
		if err := incPosts(sc, s.users, p.Author, -1); err != nil {
			return err
		}
		res, err := s.posts.DeleteOne(sc, bson.M{"_id": p.ID})
		if err != nil {
			return fmt.Errorf("mongo delete post: %w", err)
		}
		if res.DeletedCount == 0 {
			return ErrNotFound
		}
		return nil
	})
}
