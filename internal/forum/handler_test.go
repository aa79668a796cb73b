package forum

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ayush/discussion-forum/internal/models"
	"github.com/ayush/discussion-forum/internal/store"
	"github.com/ayush/discussion-forum/internal/store/storetest"
)

type stubSession struct {
	userID, name string
	flashes      []string
}

func (s *stubSession) UserID(context.Context) string       { return s.userID }
func (s *stubSession) DisplayName(context.Context) string  { return s.name }
func (s *stubSession) Flash(_ context.Context, msg string) { s.flashes = append(s.flashes, msg) }

type captured struct {
	page string
	data any
}

type captureRenderer struct{ last *captured }

func (c *captureRenderer) Render(w http.ResponseWriter, _ *http.Request, page string, data any) {
	c.last = &captured{page: page, data: data}
	w.WriteHeader(http.StatusOK)
}

type forumEnv struct {
	db     *storetest.Memory
	sess   *stubSession
	views  *captureRenderer
	router chi.Router
	user   models.User
}

func newForumEnv(t *testing.T) *forumEnv {
	t.Helper()
	db := storetest.NewMemory()
	user := models.User{DisplayName: "Ann", Email: "ann@example.com"}
	_, err := db.CreateUser(context.Background(), &user)
	require.NoError(t, err)

	sess := &stubSession{userID: user.ID.Hex(), name: user.DisplayName}
	views := &captureRenderer{}
	h := NewHandler(db, db, sess, views)

	r := chi.NewRouter()
	r.Get("/index", h.Index)
	r.Post("/index", h.CreateTopic)
	r.HandleFunc("/edit_topic/{topic}", h.EditTopic)
	r.Get("/delete_topic/{topic}", h.DeleteTopic)
	r.Get("/discussion/{topic}", h.Discussion)
	r.Post("/discussion/{topic}", h.CreatePost)
	r.HandleFunc("/edit_post/{post}", h.EditPost)
	r.Get("/delete_post/{post}", h.DeletePost)
	r.HandleFunc("/search", h.Search)

	return &forumEnv{db: db, sess: sess, views: views, router: r, user: user}
}

func (e *forumEnv) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *forumEnv) seedTopic(t *testing.T, title, description string, date time.Time) models.Topic {
	t.Helper()
	topic := models.Topic{Author: e.user.ID.Hex(), AuthorName: "Ann", Title: title, Description: description, Date: date}
	_, err := e.db.InsertTopic(context.Background(), &topic)
	require.NoError(t, err)
	return topic
}

func (e *forumEnv) user0(t *testing.T) models.User {
	t.Helper()
	u, err := e.db.GetUserByID(context.Background(), e.user.ID.Hex())
	require.NoError(t, err)
	return *u
}

func TestCreateTopic(t *testing.T) {
	env := newForumEnv(t)

	rec := env.do(http.MethodPost, "/index", url.Values{"title": {"T1"}, "description": {"D1"}})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/index", rec.Header().Get("Location"))
	assert.Equal(t, []string{"Topic Successfully Created"}, env.sess.flashes)

	topics, err := env.db.ListTopics(context.Background())
	require.NoError(t, err)
	require.Len(t, topics, 1)
	assert.Equal(t, "T1", topics[0].Title)
	assert.Equal(t, "D1", topics[0].Description)
	assert.Equal(t, env.user.ID.Hex(), topics[0].Author)
	assert.Equal(t, "Ann", topics[0].AuthorName)
	assert.Zero(t, topics[0].Posts)
	assert.WithinDuration(t, time.Now(), topics[0].Date, time.Minute)
}

func TestIndex_NewestFirst(t *testing.T) {
	env := newForumEnv(t)
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	env.seedTopic(t, "old", "", base)
	env.seedTopic(t, "new", "", base.Add(time.Hour))

	rec := env.do(http.MethodGet, "/index", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, env.views.last)
	assert.Equal(t, "index.html", env.views.last.page)
	page := env.views.last.data.(IndexPage)
	require.Len(t, page.Topics, 2)
	assert.Equal(t, "new", page.Topics[0].Title)
	assert.Equal(t, "old", page.Topics[1].Title)
}

func TestPostLifecycle_KeepsCounters(t *testing.T) {
	env := newForumEnv(t)
	topic := env.seedTopic(t, "T1", "D1", time.Now().UTC())
	tid := topic.ID.Hex()

	rec := env.do(http.MethodPost, "/discussion/"+tid, url.Values{"post": {"hello"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/discussion/"+tid, rec.Header().Get("Location"))

	posts, err := env.db.ListPosts(context.Background(), tid)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "hello", posts[0].Post)
	assert.Equal(t, env.user.ID.Hex(), posts[0].Author)

	got, err := env.db.GetTopic(context.Background(), tid)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Posts)
	assert.Equal(t, 1, env.user0(t).Posts)

	pid := posts[0].ID.Hex()
	rec = env.do(http.MethodPost, "/edit_post/"+pid, url.Values{"post_edit_" + pid: {"edited"}})
	assert.Equal(t, "/discussion/"+tid, rec.Header().Get("Location"))
	edited, err := env.db.GetPost(context.Background(), pid)
	require.NoError(t, err)
	assert.Equal(t, "edited", edited.Post)

	rec = env.do(http.MethodGet, "/delete_post/"+pid, nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/discussion/"+tid, rec.Header().Get("Location"))

	got, err = env.db.GetTopic(context.Background(), tid)
	require.NoError(t, err)
	assert.Zero(t, got.Posts)
	assert.Zero(t, env.user0(t).Posts)
	assert.Equal(t, []string{"Post Successfully Updated", "Post has been deleted."}, env.sess.flashes)
}

func TestDiscussion(t *testing.T) {
	env := newForumEnv(t)
	topic := env.seedTopic(t, "T1", "D1", time.Now().UTC())
	tid := topic.ID.Hex()
	env.do(http.MethodPost, "/discussion/"+tid, url.Values{"post": {"first"}})

	rec := env.do(http.MethodGet, "/discussion/"+tid, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "discussion.html", env.views.last.page)
	page := env.views.last.data.(DiscussionPage)
	assert.Equal(t, "T1", page.Topic.Title)
	require.Len(t, page.Posts, 1)
	assert.Equal(t, "first", page.Posts[0].Post)
}

func TestEditTopic(t *testing.T) {
	env := newForumEnv(t)
	topic := env.seedTopic(t, "T1", "D1", time.Now().UTC())
	tid := topic.ID.Hex()

	t.Run("GET only redirects", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/edit_topic/"+tid, nil)

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/discussion/"+tid, rec.Header().Get("Location"))
		got, err := env.db.GetTopic(context.Background(), tid)
		require.NoError(t, err)
		assert.Equal(t, "T1", got.Title)
	})

	t.Run("POST replaces title and description", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/edit_topic/"+tid, url.Values{"topic_title": {"T2"}, "topic_description": {"D2"}})

		assert.Equal(t, "/discussion/"+tid, rec.Header().Get("Location"))
		got, err := env.db.GetTopic(context.Background(), tid)
		require.NoError(t, err)
		assert.Equal(t, "T2", got.Title)
		assert.Equal(t, "D2", got.Description)
		assert.Equal(t, topic.Author, got.Author)
		assert.Contains(t, env.sess.flashes, "Topic Successfully Updated")
	})
}

func TestDeleteTopic_LeavesPosts(t *testing.T) {
	env := newForumEnv(t)
	topic := env.seedTopic(t, "T1", "D1", time.Now().UTC())
	tid := topic.ID.Hex()
	env.do(http.MethodPost, "/discussion/"+tid, url.Values{"post": {"orphan"}})

	rec := env.do(http.MethodGet, "/delete_topic/"+tid, nil)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/index", rec.Header().Get("Location"))
	assert.Contains(t, env.sess.flashes, "Topic has been deleted.")
	_, err := env.db.GetTopic(context.Background(), tid)
	assert.Error(t, err)
	posts, err := env.db.ListPosts(context.Background(), tid)
	require.NoError(t, err)
	assert.Len(t, posts, 1)
}

func TestDeleteTopic_UnknownIDStillRedirects(t *testing.T) {
	env := newForumEnv(t)

	rec := env.do(http.MethodGet, "/delete_topic/not-an-id", nil)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/index", rec.Header().Get("Location"))
}

func TestSearch(t *testing.T) {
	env := newForumEnv(t)
	now := time.Now().UTC()
	env.seedTopic(t, "Gardening tips", "soil", now)
	env.seedTopic(t, "Cooking", "pasta", now)

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		t.Run(method, func(t *testing.T) {
			target := "/search"
			var form url.Values
			if method == http.MethodGet {
				target += "?search=garden"
			} else {
				form = url.Values{"search": {"garden"}}
			}

			rec := env.do(method, target, form)

			require.Equal(t, http.StatusOK, rec.Code)
			page := env.views.last.data.(IndexPage)
			assert.Equal(t, "garden", page.Query)
			require.Len(t, page.Topics, 1)
			assert.Equal(t, "Gardening tips", page.Topics[0].Title)
		})
	}
}

func TestMissingDocuments(t *testing.T) {
	missing := primitive.NewObjectID().Hex()
	tests := []struct {
		name   string
		method string
		target string
		want   int
	}{
		{name: "discussion unknown", method: http.MethodGet, target: "/discussion/" + missing, want: http.StatusNotFound},
		{name: "discussion malformed", method: http.MethodGet, target: "/discussion/xyz", want: http.StatusNotFound},
		{name: "reply to unknown topic", method: http.MethodPost, target: "/discussion/" + missing, want: http.StatusNotFound},
		{name: "edit unknown topic", method: http.MethodPost, target: "/edit_topic/" + missing, want: http.StatusNotFound},
		{name: "edit unknown post", method: http.MethodPost, target: "/edit_post/" + missing, want: http.StatusNotFound},
		{name: "delete unknown post", method: http.MethodGet, target: "/delete_post/" + missing, want: http.StatusNotFound},
		{name: "delete malformed post", method: http.MethodGet, target: "/delete_post/xyz", want: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newForumEnv(t)

			rec := env.do(tt.method, tt.target, url.Values{})

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestStoreFailure(t *testing.T) {
	env := newForumEnv(t)
	env.db.Err = errors.New("connection reset")

	assert.Equal(t, http.StatusInternalServerError, env.do(http.MethodGet, "/index", nil).Code)
	assert.Equal(t, http.StatusInternalServerError, env.do(http.MethodGet, "/search?search=x", nil).Code)
	assert.Equal(t, http.StatusInternalServerError, env.do(http.MethodGet, "/discussion/"+primitive.NewObjectID().Hex(), nil).Code)
}

// vanishingPosts loses every post between lookup and delete.
type vanishingPosts struct {
	*storetest.Memory
}

func (vanishingPosts) DeletePost(context.Context, *models.Post) error {
	return fmt.Errorf("mongo delete post: %w", store.ErrNotFound)
}

func TestDeletePost_VanishedPostIsNotFound(t *testing.T) {
	db := storetest.NewMemory()
	author := models.User{DisplayName: "Ann"}
	_, err := db.CreateUser(context.Background(), &author)
	require.NoError(t, err)
	topic := models.Topic{Title: "T1", Date: time.Now().UTC()}
	_, err = db.InsertTopic(context.Background(), &topic)
	require.NoError(t, err)
	post := models.Post{Topic: topic.ID.Hex(), Author: author.ID.Hex(), Post: "gone soon"}
	_, err = db.CreatePost(context.Background(), &post)
	require.NoError(t, err)

	sess := &stubSession{userID: author.ID.Hex()}
	h := NewHandler(db, vanishingPosts{db}, sess, &captureRenderer{})
	r := chi.NewRouter()
	r.Get("/delete_post/{post}", h.DeletePost)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/delete_post/"+post.ID.Hex(), nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, sess.flashes)
}
