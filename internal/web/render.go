// Package web renders the forum's HTML pages from embedded templates.
package web

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"time"

	"github.com/ayush/discussion-forum/internal/logger"
)

const layoutFile = "templates/layout.html"

//go:embed templates/*.html
var files embed.FS

// SessionReader is the part of the session the layout needs.
type SessionReader interface {
	UserID(ctx context.Context) string
	DisplayName(ctx context.Context) string
	Flashes(ctx context.Context) []string
}

// View is the value every page template executes against. Data carries
// the page-specific payload.
type View struct {
	Flashes     []string
	UserID      string
	DisplayName string
	Data        any
}

var funcs = template.FuncMap{
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("02 Jan 2006 15:04")
	},
}

// Renderer holds one parsed template set per page, each combined with the
// shared layout.
type Renderer struct {
	pages    map[string]*template.Template
	sessions SessionReader
}

func NewRenderer(sessions SessionReader) (*Renderer, error) {
	names, err := fs.Glob(files, "templates/*.html")
	if err != nil {
		return nil, err
	}

	pages := make(map[string]*template.Template, len(names))
	for _, name := range names {
		if name == layoutFile {
			continue
		}
		t, err := template.New(path.Base(layoutFile)).Funcs(funcs).ParseFS(files, layoutFile, name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		pages[path.Base(name)] = t
	}
	return &Renderer{pages: pages, sessions: sessions}, nil
}

// Render writes page with a 200 status. Pending flashes are consumed.
func (rd *Renderer) Render(w http.ResponseWriter, r *http.Request, page string, data any) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	t, ok := rd.pages[page]
	if !ok {
		log.Error().Str("page", page).Msg("unknown template")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	view := View{
		Flashes:     rd.sessions.Flashes(ctx),
		UserID:      rd.sessions.UserID(ctx),
		DisplayName: rd.sessions.DisplayName(ctx),
		Data:        data,
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", view); err != nil {
		log.Err(err).Str("page", page).Msg("template execution failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}
