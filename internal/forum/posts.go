package forum

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ayush/discussion-forum/internal/models"
)

// Discussion shows a topic with its replies.
func (h *Handler) Discussion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "topic")

	topic, err := h.topics.GetTopic(ctx, id)
	if err != nil {
		lookupFailed(w, r, "topic", err)
		return
	}
	posts, err := h.posts.ListPosts(ctx, id)
	if err != nil {
		serverError(w, r, err, "list posts failed")
		return
	}
	h.views.Render(w, r, "discussion.html", DiscussionPage{Topic: topic, Posts: posts})
}

// CreatePost adds a reply by the session user. Routed behind RequireAuth.
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "topic")

	if _, err := h.topics.GetTopic(ctx, id); err != nil {
		lookupFailed(w, r, "topic", err)
		return
	}

	post := &models.Post{
		Topic:  id,
		Author: h.sessions.UserID(ctx),
		Date:   time.Now().UTC(),
		Post:   r.FormValue("post"),
	}
	if _, err := h.posts.CreatePost(ctx, post); err != nil {
		serverError(w, r, err, "create post failed")
		return
	}
	http.Redirect(w, r, "/discussion/"+id, http.StatusSeeOther)
}

// EditPost replaces the body of a reply from the post_edit_<id> field.
// No ownership check. GET only redirects.
func (h *Handler) EditPost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "post")

	post, err := h.posts.GetPost(ctx, id)
	if err != nil {
		lookupFailed(w, r, "post", err)
		return
	}

	if r.Method == http.MethodPost {
		if err := h.posts.UpdatePost(ctx, id, r.FormValue("post_edit_"+id)); err != nil {
			lookupFailed(w, r, "post", err)
			return
		}
		h.sessions.Flash(ctx, "Post Successfully Updated")
	}
	http.Redirect(w, r, "/discussion/"+post.Topic, http.StatusSeeOther)
}

// DeletePost removes a reply and decrements the topic and author counters.
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "post")

	post, err := h.posts.GetPost(ctx, id)
	if err != nil {
		lookupFailed(w, r, "post", err)
		return
	}
	if err := h.posts.DeletePost(ctx, post); err != nil {
		lookupFailed(w, r, "post", err)
		return
	}

	h.sessions.Flash(ctx, "Post has been deleted.")
	http.Redirect(w, r, "/discussion/"+post.Topic, http.StatusSeeOther)
}
