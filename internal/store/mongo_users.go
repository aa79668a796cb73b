package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/ayush/discussion-forum/internal/models"
)

// CreateUser inserts u and returns the new id in hex. u.ID is set.
func (s *MongoStore) CreateUser(ctx context.Context, u *models.User) (string, error) {
	res, err := s.users.InsertOne(ctx, u)
	if err != nil {
		return "", fmt.Errorf("mongo insert user: %w", err)
	}
	id := insertedHex(res)
	u.ID, _ = objectID(id)
	return id, nil
}

// GetUserByEmail expects email to be lowercased by the caller.
func (s *MongoStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := findOne(ctx, s.users, bson.M{"email": email}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *MongoStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var u models.User
	if err := findOne(ctx, s.users, bson.M{"_id": oid}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateProfile sets the editable profile fields. Email, password and the
// posts counter are left as stored.
func (s *MongoStore) UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"rank":            upd.Rank,
		"display_name":    upd.DisplayName,
		"password_status": upd.PasswordStatus,
	}})
	if err != nil {
		return fmt.Errorf("mongo update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
