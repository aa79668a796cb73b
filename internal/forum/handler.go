package forum

import (
	"context"
	"errors"
	"net/http"

	"github.com/ayush/discussion-forum/internal/logger"
	"github.com/ayush/discussion-forum/internal/models"
	"github.com/ayush/discussion-forum/internal/store"
)

// TopicStore defines the interface for topic persistence.
type TopicStore interface {
	ListTopics(ctx context.Context) ([]models.Topic, error)
	SearchTopics(ctx context.Context, q string) ([]models.Topic, error)
	InsertTopic(ctx context.Context, t *models.Topic) (string, error)
	GetTopic(ctx context.Context, id string) (*models.Topic, error)
	UpdateTopic(ctx context.Context, id, title, description string) error
	DeleteTopic(ctx context.Context, id string) error
}

// PostStore defines the interface for post persistence. CreatePost and
// DeletePost also maintain the topic and author counters.
type PostStore interface {
	ListPosts(ctx context.Context, topicID string) ([]models.Post, error)
	GetPost(ctx context.Context, id string) (*models.Post, error)
	CreatePost(ctx context.Context, p *models.Post) (string, error)
	UpdatePost(ctx context.Context, id, body string) error
	DeletePost(ctx context.Context, p *models.Post) error
}

// Session is what the forum handlers read from and write to the session.
type Session interface {
	UserID(ctx context.Context) string
	DisplayName(ctx context.Context) string
	Flash(ctx context.Context, msg string)
}

// Renderer executes a page template.
type Renderer interface {
	Render(w http.ResponseWriter, r *http.Request, page string, data any)
}

// IndexPage backs index.html for both the listing and search results.
type IndexPage struct {
	Topics []models.Topic
	Query  string
}

// DiscussionPage backs discussion.html.
type DiscussionPage struct {
	Topic *models.Topic
	Posts []models.Post
}

// Handler holds topic, post and search handlers.
type Handler struct {
	topics   TopicStore
	posts    PostStore
	sessions Session
	views    Renderer
}

func NewHandler(topics TopicStore, posts PostStore, sessions Session, views Renderer) *Handler {
	return &Handler{topics: topics, posts: posts, sessions: sessions, views: views}
}

// lookupFailed answers 404 for unknown or malformed ids and 500 otherwise.
func lookupFailed(w http.ResponseWriter, r *http.Request, what string, err error) {
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrInvalidID) {
		http.NotFound(w, r)
		return
	}
	logger.FromRequest(r).Err(err).Msgf("%s lookup failed", what)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func serverError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	logger.FromRequest(r).Err(err).Msg(msg)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
