package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/rcliao/wikiserve/internal/model"
	"github.com/rcliao/wikiserve/internal/render"
)

//go:embed templates/*.html
var templateFS embed.FS

var viewNames = []string{"page", "search", "edit", "history", "pages", "error"}

var templateFuncs = template.FuncMap{
	"shortID": func(id string) string {
		if len(id) > 7 {
			return id[:7]
		}
		return id
	},
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.UTC().Format("2006-01-02 15:04 MST")
	},
}

// views holds one parsed template set per page kind. Sets are parsed once
// and only executed afterwards, so they are shared by all requests.
type views struct {
	sets map[string]*template.Template
}

func loadViews() (*views, error) {
	v := &views{sets: make(map[string]*template.Template, len(viewNames))}
	for _, name := range viewNames {
		t, err := template.New(name).Funcs(templateFuncs).ParseFS(templateFS,
			"templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		v.sets[name] = t
	}
	return v, nil
}

// renderView executes a view into a buffer first so that a template error
// can still become a clean 500.
func (s *Server) renderView(w http.ResponseWriter, r *http.Request, status int, name string, data interface{}) {
	t, ok := s.views.sets[name]
	if !ok {
		http.Error(w, "unknown view "+name, http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		s.log.HTTPLogger(GetRequestID(r.Context())).Error("Template failed").
			Str("view", name).
			Err(err).
			Send()
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		s.log.HTTPLogger(GetRequestID(r.Context())).Debug("Response write failed").
			Str("view", name).
			Err(err).
			Send()
	}
}

// layout is the data every view shares.
type layout struct {
	Scope   requestScope
	Title   string
	Query   string
	CSS     bool
	MathJax bool
}

func (s *Server) layout(sc requestScope, title string) layout {
	return layout{
		Scope:   sc,
		Title:   title,
		CSS:     s.cfg.Wiki.CSS,
		MathJax: s.cfg.Wiki.MathJax,
	}
}

type section struct {
	Name    string
	Content template.HTML
	EditURL string
}

type pageView struct {
	layout
	Page       *model.Page
	Content    template.HTML
	TOC        []render.Heading
	Header     *section
	Footer     *section
	Sidebar    *section
	Editable   bool
	Pinned     bool
	Version    string
	EditURL    string
	HistoryURL string
	LatestURL  string
}

type searchResult struct {
	Name  string
	Count int
	URL   string
}

type searchView struct {
	layout
	Results []searchResult
}

type editView struct {
	layout
	Create  bool
	Action  string
	Name    string
	Dir     string
	Format  model.Format
	Formats []model.Format
	Content string
	Version string
}

type historyEntry struct {
	ID      string
	Message string
	Author  model.Author
	Date    time.Time
	Deleted bool
	URL     string
}

type historyView struct {
	layout
	Page    *model.Page
	PageURL string
	Entries []historyEntry
}

type pageEntry struct {
	Name      string
	Dir       string
	Format    model.Format
	UpdatedAt time.Time
	URL       string
}

type pagesView struct {
	layout
	Dir   string
	Pages []pageEntry
}

type errorView struct {
	layout
	Status  int
	Message string
}
