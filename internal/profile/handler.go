package profile

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ayush/discussion-forum/internal/logger"
	"github.com/ayush/discussion-forum/internal/models"
	"github.com/ayush/discussion-forum/internal/store"
)

// maxAvatarBytes caps the whole edit_profile request body.
const maxAvatarBytes = 5 << 20

// UserStore defines the interface for profile persistence.
type UserStore interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) error
}

// AvatarStore reads and replaces profile images keyed by user id.
type AvatarStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Download(ctx context.Context, key string) ([]byte, string, error)
}

type Session interface {
	UserID(ctx context.Context) string
	SetDisplayName(ctx context.Context, name string)
	Flash(ctx context.Context, msg string)
}

// Renderer executes a page template.
type Renderer interface {
	Render(w http.ResponseWriter, r *http.Request, page string, data any)
}

// Page backs profile.html and edit_profile.html. User is nil when the id
// does not resolve.
type Page struct {
	User *models.User
}

// Handler holds profile and avatar handlers.
type Handler struct {
	users    UserStore
	avatars  AvatarStore
	sessions Session
	views    Renderer
}

func NewHandler(users UserStore, avatars AvatarStore, sessions Session, views Renderer) *Handler {
	return &Handler{users: users, avatars: avatars, sessions: sessions, views: views}
}

func (h *Handler) loadUser(r *http.Request, id string) *models.User {
	user, err := h.users.GetUserByID(r.Context(), id)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) && !errors.Is(err, store.ErrInvalidID) {
			logger.FromRequest(r).Err(err).Str("user_id", id).Msg("user lookup failed")
		}
		return nil
	}
	return user
}

// Profile renders a user's public page.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	h.views.Render(w, r, "profile.html", Page{User: h.loadUser(r, chi.URLParam(r, "id"))})
}

// EditProfilePage shows the edit form to the profile owner.
func (h *Handler) EditProfilePage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id != h.sessions.UserID(r.Context()) {
		http.Redirect(w, r, "/index", http.StatusSeeOther)
		return
	}
	h.views.Render(w, r, "edit_profile.html", Page{User: h.loadUser(r, id)})
}

// EditProfile stores an optional new avatar and replaces the display name.
// Only the owner gets past the first check; nothing is written otherwise.
func (h *Handler) EditProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	id := chi.URLParam(r, "id")
	userID := h.sessions.UserID(ctx)
	if id != userID {
		log.Warn().Str("user_id", userID).Str("target", id).Msg("edit of another user's profile refused")
		http.Redirect(w, r, "/index", http.StatusSeeOther)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarBytes)
	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("profile_picture")
	switch {
	case err == nil:
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			http.Error(w, "invalid upload", http.StatusBadRequest)
			return
		}
		contentType := header.Header.Get("Content-Type")
		if contentType == "" {
			contentType = http.DetectContentType(data)
		}
		if err := h.avatars.Upload(ctx, userID, data, contentType); err != nil {
			log.Err(err).Str("user_id", userID).Msg("avatar upload failed")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		// keep the current avatar
	default:
		http.Error(w, "invalid upload", http.StatusBadRequest)
		return
	}

	name := r.FormValue("display_name")
	upd := models.ProfileUpdate{
		Rank:           models.RankUser,
		DisplayName:    name,
		PasswordStatus: models.PasswordStatusSet,
	}
	if err := h.users.UpdateProfile(ctx, userID, upd); err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrInvalidID) {
			http.NotFound(w, r)
			return
		}
		log.Err(err).Str("user_id", userID).Msg("profile update failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.sessions.SetDisplayName(ctx, name)
	h.sessions.Flash(ctx, "Profile Successfully Updated")
	http.Redirect(w, r, "/profile/"+userID, http.StatusSeeOther)
}

// SendFile serves an avatar by name. No access control.
func (h *Handler) SendFile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")

	data, contentType, err := h.avatars.Download(r.Context(), name)
	if errors.Is(err, store.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		logger.FromRequest(r).Err(err).Str("file", name).Msg("avatar download failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(data)
}
