package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Topic is a forum thread. Author is the author's user id in hex and
// AuthorName is copied from the session at creation time.
type Topic struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Author      string             `bson:"author"`
	AuthorName  string             `bson:"author_name"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Posts       int                `bson:"posts"`
	Date        time.Time          `bson:"date"`
}

// Post is a reply. Topic holds the parent topic id as a hex string, not a
// typed reference.
type Post struct {
	ID     primitive.ObjectID `bson:"_id,omitempty"`
	Topic  string             `bson:"topic"`
	Author string             `bson:"author"`
	Date   time.Time          `bson:"date"`
	Post   string             `bson:"post"`
}
