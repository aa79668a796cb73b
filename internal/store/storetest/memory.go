// Package storetest provides an in-memory stand-in for store.MongoStore
// with the same error contract, for handler tests.
package storetest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ayush/discussion-forum/internal/models"
	"github.com/ayush/discussion-forum/internal/store"
)

// Memory keeps users, topics and posts in maps keyed by hex id.
// Setting Err makes every call fail with it.
type Memory struct {
	mu     sync.Mutex
	users  map[string]models.User
	topics map[string]models.Topic
	posts  map[string]models.Post

	Err error
}

func NewMemory() *Memory {
	return &Memory{
		users:  make(map[string]models.User),
		topics: make(map[string]models.Topic),
		posts:  make(map[string]models.Post),
	}
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w %q", store.ErrInvalidID, id)
	}
	return oid, nil
}

// ---- users ----

func (m *Memory) CreateUser(_ context.Context, u *models.User) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	u.ID = primitive.NewObjectID()
	m.users[u.ID.Hex()] = *u
	return u.ID.Hex(), nil
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *Memory) GetUserByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if _, err := parseID(id); err != nil {
		return nil, err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (m *Memory) UpdateProfile(_ context.Context, id string, upd models.ProfileUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if _, err := parseID(id); err != nil {
		return err
	}
	u, ok := m.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.Rank = upd.Rank
	u.DisplayName = upd.DisplayName
	u.PasswordStatus = upd.PasswordStatus
	m.users[id] = u
	return nil
}

// Users returns a snapshot of every stored user.
func (m *Memory) Users() []models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	return out
}

// ---- topics ----

func (m *Memory) ListTopics(_ context.Context) ([]models.Topic, error) {
	return m.filterTopics(func(models.Topic) bool { return true })
}

// SearchTopics approximates $text: a topic matches when any word of q
// appears in its title or description, ignoring case.
func (m *Memory) SearchTopics(_ context.Context, q string) ([]models.Topic, error) {
	terms := strings.Fields(strings.ToLower(q))
	return m.filterTopics(func(t models.Topic) bool {
		text := strings.ToLower(t.Title + " " + t.Description)
		for _, term := range terms {
			if strings.Contains(text, term) {
				return true
			}
		}
		return false
	})
}

func (m *Memory) filterTopics(keep func(models.Topic) bool) ([]models.Topic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []models.Topic
	for _, t := range m.topics {
		if keep(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (m *Memory) InsertTopic(_ context.Context, t *models.Topic) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	t.ID = primitive.NewObjectID()
	m.topics[t.ID.Hex()] = *t
	return t.ID.Hex(), nil
}

func (m *Memory) GetTopic(_ context.Context, id string) (*models.Topic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if _, err := parseID(id); err != nil {
		return nil, err
	}
	t, ok := m.topics[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &t, nil
}

func (m *Memory) UpdateTopic(_ context.Context, id, title, description string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if _, err := parseID(id); err != nil {
		return err
	}
	t, ok := m.topics[id]
	if !ok {
		return store.ErrNotFound
	}
	t.Title = title
	t.Description = description
	m.topics[id] = t
	return nil
}

func (m *Memory) DeleteTopic(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if _, err := parseID(id); err != nil {
		return err
	}
	delete(m.topics, id)
	return nil
}

// ---- posts ----

func (m *Memory) ListPosts(_ context.Context, topicID string) ([]models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []models.Post
	for _, p := range m.posts {
		if p.Topic == topicID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].ID.Hex() < out[j].ID.Hex()
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

func (m *Memory) GetPost(_ context.Context, id string) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if _, err := parseID(id); err != nil {
		return nil, err
	}
	p, ok := m.posts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

// CreatePost applies the insert and both counter bumps under one lock,
// matching the transactional Mongo implementation.
func (m *Memory) CreatePost(_ context.Context, p *models.Post) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	if err := m.bump(p.Topic, p.Author, 1); err != nil {
		return "", err
	}
	p.ID = primitive.NewObjectID()
	m.posts[p.ID.Hex()] = *p
	return p.ID.Hex(), nil
}

func (m *Memory) UpdatePost(_ context.Context, id, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if _, err := parseID(id); err != nil {
		return err
	}
	p, ok := m.posts[id]
	if !ok {
		return store.ErrNotFound
	}
	p.Post = body
	m.posts[id] = p
	return nil
}

func (m *Memory) DeletePost(_ context.Context, p *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.posts[p.ID.Hex()]; !ok {
		return store.ErrNotFound
	}
	if err := m.bump(p.Topic, p.Author, -1); err != nil {
		return err
	}
	delete(m.posts, p.ID.Hex())
	return nil
}

// bump mirrors $inc on a filter that may match nothing: unknown documents
// are skipped, malformed ids fail. Caller holds mu.
func (m *Memory) bump(topicID, authorID string, delta int) error {
	if _, err := parseID(topicID); err != nil {
		return err
	}
	if _, err := parseID(authorID); err != nil {
		return err
	}
	if t, ok := m.topics[topicID]; ok {
		t.Posts += delta
		m.topics[topicID] = t
	}
	if u, ok := m.users[authorID]; ok {
		u.Posts += delta
		m.users[authorID] = u
	}
	return nil
}
