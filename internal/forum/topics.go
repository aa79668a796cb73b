package forum

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ayush/discussion-forum/internal/logger"
	"github.com/ayush/discussion-forum/internal/models"
)

// Index lists every topic.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	topics, err := h.topics.ListTopics(r.Context())
	if err != nil {
		serverError(w, r, err, "list topics failed")
		return
	}
	h.views.Render(w, r, "index.html", IndexPage{Topics: topics})
}

// CreateTopic inserts a topic owned by the session user. Routed behind
// RequireAuth.
func (h *Handler) CreateTopic(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	topic := &models.Topic{
		Author:      h.sessions.UserID(ctx),
		AuthorName:  h.sessions.DisplayName(ctx),
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Posts:       0,
		Date:        time.Now().UTC(),
	}
	id, err := h.topics.InsertTopic(ctx, topic)
	if err != nil {
		serverError(w, r, err, "insert topic failed")
		return
	}

	logger.FromRequest(r).Info().Str("topic_id", id).Msg("topic created")
	h.sessions.Flash(ctx, "Topic Successfully Created")
	http.Redirect(w, r, "/index", http.StatusSeeOther)
}

// EditTopic replaces title and description. Anyone holding the id may
// edit; author, counter and date are kept. GET only redirects.
func (h *Handler) EditTopic(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "topic")

	topic, err := h.topics.GetTopic(ctx, id)
	if err != nil {
		lookupFailed(w, r, "topic", err)
		return
	}
	back := "/discussion/" + topic.ID.Hex()

	if r.Method == http.MethodPost {
		if err := h.topics.UpdateTopic(ctx, id, r.FormValue("topic_title"), r.FormValue("topic_description")); err != nil {
			lookupFailed(w, r, "topic", err)
			return
		}
		h.sessions.Flash(ctx, "Topic Successfully Updated")
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
}

// DeleteTopic removes the topic without checking ownership or existence.
// Its posts are left in place.
func (h *Handler) DeleteTopic(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "topic")

	if err := h.topics.DeleteTopic(ctx, id); err != nil {
		logger.FromRequest(r).Warn().Err(err).Str("topic_id", id).Msg("delete topic failed")
	}
	h.sessions.Flash(ctx, "Topic has been deleted.")
	http.Redirect(w, r, "/index", http.StatusSeeOther)
}

// Search runs a text search with the raw "search" form value and reuses
// the index template.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.FormValue("search")
	topics, err := h.topics.SearchTopics(r.Context(), q)
	if err != nil {
		serverError(w, r, err, "search topics failed")
		return
	}
	h.views.Render(w, r, "index.html", IndexPage{Topics: topics, Query: q})
}
