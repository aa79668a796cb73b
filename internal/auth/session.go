package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/redis/go-redis/v9"
)

const (
	SessionCookie = "session"

	keyUserID      = "user_id"
	keyDisplayName = "display_name"
	keyFlash       = "flash"
)

// Sessions wraps an scs session manager with the keys the forum uses:
// the logged-in user's id and display name, and pending flash messages.
type Sessions struct {
	sm *scs.SessionManager
}

// NewSessions builds the session manager on top of store.
func NewSessions(store scs.Store, lifetime time.Duration, secure bool) *Sessions {
	sm := scs.New()
	sm.Store = store
	sm.Lifetime = lifetime
	sm.Cookie.Name = SessionCookie
	sm.Cookie.HttpOnly = true
	sm.Cookie.Path = "/"
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = secure
	return &Sessions{sm: sm}
}

// LoadAndSave must wrap every route that reads or writes the session.
func (s *Sessions) LoadAndSave(next http.Handler) http.Handler {
	return s.sm.LoadAndSave(next)
}

// Establish logs the user in. The token is renewed to prevent fixation.
func (s *Sessions) Establish(ctx context.Context, userID, displayName string) error {
	if err := s.sm.RenewToken(ctx); err != nil {
		return err
	}
	s.sm.Put(ctx, keyUserID, userID)
	s.sm.Put(ctx, keyDisplayName, displayName)
	return nil
}

// Clear removes the identity keys but keeps pending flashes.
func (s *Sessions) Clear(ctx context.Context) {
	s.sm.Remove(ctx, keyUserID)
	s.sm.Remove(ctx, keyDisplayName)
}

// UserID is empty for anonymous visitors.
func (s *Sessions) UserID(ctx context.Context) string {
	return s.sm.GetString(ctx, keyUserID)
}

func (s *Sessions) DisplayName(ctx context.Context) string {
	return s.sm.GetString(ctx, keyDisplayName)
}

func (s *Sessions) SetDisplayName(ctx context.Context, name string) {
	s.sm.Put(ctx, keyDisplayName, name)
}

// Flash queues msg for the next rendered page.
func (s *Sessions) Flash(ctx context.Context, msg string) {
	pending, _ := s.sm.Get(ctx, keyFlash).([]string)
	s.sm.Put(ctx, keyFlash, append(pending, msg))
}

// Flashes returns and clears the queued messages.
func (s *Sessions) Flashes(ctx context.Context) []string {
	pending, _ := s.sm.Pop(ctx, keyFlash).([]string)
	return pending
}

// RedisStore is an scs store keeping encoded sessions in Redis. Tokens are
// passed through HMAC-SHA256 before becoming keys, so the keyspace does not
// reveal usable cookies.
type RedisStore struct {
	rdb    redis.Cmdable
	secret []byte
}

func NewRedisStore(rdb redis.Cmdable, secret string) *RedisStore {
	return &RedisStore{rdb: rdb, secret: []byte(secret)}
}

func (s *RedisStore) key(token string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(token))
	return "session:" + hex.EncodeToString(mac.Sum(nil))
}

func (s *RedisStore) FindCtx(ctx context.Context, token string) ([]byte, bool, error) {
	b, err := s.rdb.Get(ctx, s.key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (s *RedisStore) CommitCtx(ctx context.Context, token string, b []byte, expiry time.Time) error {
	return s.rdb.Set(ctx, s.key(token), b, time.Until(expiry)).Err()
}

func (s *RedisStore) DeleteCtx(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, s.key(token)).Err()
}

func (s *RedisStore) Find(token string) ([]byte, bool, error) {
	return s.FindCtx(context.Background(), token)
}

func (s *RedisStore) Commit(token string, b []byte, expiry time.Time) error {
	return s.CommitCtx(context.Background(), token, b, expiry)
}

func (s *RedisStore) Delete(token string) error {
	return s.DeleteCtx(context.Background(), token)
}
