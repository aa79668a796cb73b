package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/ayush/discussion-forum/internal/logger"
	"github.com/ayush/discussion-forum/internal/models"
	"github.com/ayush/discussion-forum/internal/store"
)

const (
	msgAccountExists   = "Account already exists"
	msgPasswordTooLong = "Password must be at most 72 bytes"
	msgRegistered      = "Registration Successful!"
	msgBadCredentials  = "Incorrect Email and/or Password"
	msgLoggedOut       = "You have been logged out."
	msgWelcome         = "Welcome, "
)

// UserStore defines the interface for user persistence.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) (string, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// AvatarStore copies the default avatar for new accounts.
type AvatarStore interface {
	Copy(ctx context.Context, src, dst string) error
}

// Renderer executes a page template.
type Renderer interface {
	Render(w http.ResponseWriter, r *http.Request, page string, data any)
}

// Handler holds auth-related HTTP handlers.
type Handler struct {
	users    UserStore
	avatars  AvatarStore
	sessions *Sessions
	views    Renderer
}

func NewHandler(users UserStore, avatars AvatarStore, sessions *Sessions, views Renderer) *Handler {
	return &Handler{users: users, avatars: avatars, sessions: sessions, views: views}
}

func (h *Handler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	h.views.Render(w, r, "register.html", nil)
}

// Register creates a new user, seeds their avatar and logs them in.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	req := models.RegisterRequest{
		DisplayName: r.FormValue("display_name"),
		Email:       strings.ToLower(r.FormValue("email")),
		Password:    r.FormValue("password"),
	}

	_, err := h.users.GetUserByEmail(ctx, req.Email)
	switch {
	case err == nil:
		h.sessions.Flash(ctx, msgAccountExists)
		http.Redirect(w, r, "/register", http.StatusSeeOther)
		return
	case !errors.Is(err, store.ErrNotFound):
		log.Err(err).Msg("lookup of existing account failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	hashed, err := HashPassword(req.Password)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		h.sessions.Flash(ctx, msgPasswordTooLong)
		http.Redirect(w, r, "/register", http.StatusSeeOther)
		return
	}
	if err != nil {
		log.Err(err).Msg("password hashing failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	user := &models.User{
		Rank:           models.RankUser,
		DisplayName:    req.DisplayName,
		Email:          req.Email,
		Password:       hashed,
		Posts:          0,
		PasswordStatus: models.PasswordStatusSet,
	}
	userID, err := h.users.CreateUser(ctx, user)
	if err != nil {
		log.Err(err).Msg("user insert failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	// The account exists at this point; a missing avatar only shows as a
	// broken image, so the request goes on.
	if err := h.avatars.Copy(ctx, store.DefaultAvatar, userID); err != nil {
		log.Err(err).Str("user_id", userID).Msg("default avatar copy failed")
	}

	if err := h.sessions.Establish(ctx, userID, user.DisplayName); err != nil {
		log.Err(err).Msg("session creation failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	log.Info().Str("user_id", userID).Msg("user registered")
	h.sessions.Flash(ctx, msgRegistered)
	http.Redirect(w, r, "/profile/"+userID, http.StatusSeeOther)
}

func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.views.Render(w, r, "login.html", nil)
}

// Login authenticates a user and creates a session. Unknown email and
// wrong password produce the same response.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	req := models.LoginRequest{
		Email:    strings.ToLower(r.FormValue("email")),
		Password: r.FormValue("password"),
	}

	user, err := h.users.GetUserByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Err(err).Msg("user lookup failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	ok := false
	if user != nil {
		ok, err = VerifyPassword(user.Password, req.Password)
		if err != nil {
			log.Err(err).Str("user_id", user.ID.Hex()).Msg("stored password hash is unreadable")
		}
	}
	if !ok {
		h.sessions.Flash(ctx, msgBadCredentials)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	userID := user.ID.Hex()
	if err := h.sessions.Establish(ctx, userID, user.DisplayName); err != nil {
		log.Err(err).Msg("session creation failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.sessions.Flash(ctx, msgWelcome+user.DisplayName)
	http.Redirect(w, r, "/profile/"+userID, http.StatusSeeOther)
}

// Logout drops the identity keys from the session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.sessions.Clear(ctx)
	h.sessions.Flash(ctx, msgLoggedOut)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
