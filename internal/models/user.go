package models

import "go.mongodb.org/mongo-driver/bson/primitive"

const (
	RankUser          = "user"
	PasswordStatusSet = "set"
)

// User is a document in the users collection.
type User struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Rank           string             `bson:"rank"`
	DisplayName    string             `bson:"display_name"`
	Email          string             `bson:"email"`
	Password       string             `bson:"password"`
	Posts          int                `bson:"posts"`
	PasswordStatus string             `bson:"password_status"`
}

// RegisterRequest is the form body of POST /register.
type RegisterRequest struct {
	DisplayName string
	Email       string
	Password    string
}

// LoginRequest is the form body of POST /login.
type LoginRequest struct {
	Email    string
	Password string
}

// ProfileUpdate holds the fields POST /edit_profile replaces.
type ProfileUpdate struct {
	Rank           string
	DisplayName    string
	PasswordStatus string
}
