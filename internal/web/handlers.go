package web

import (
	"net/http"
	"strings"

	"github.com/rcliao/wikiserve/internal/model"
	"github.com/rcliao/wikiserve/internal/store"
	"github.com/rcliao/wikiserve/internal/wiki"
	"github.com/rcliao/wikiserve/internal/wikipath"
)

const historyLimit = 50

var newlines = strings.NewReplacer("\r\n", "\n", "\r", "\n")

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	sc := newScope(r, s.cfg.BasePath)
	http.Redirect(w, r, sc.PageURL(s.cfg.DefaultPage), http.StatusFound)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	sc := newScope(r, s.cfg.BasePath)
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	hits, err := wiki.Search(r.Context(), s.store, query)
	if err != nil {
		s.writeError(w, r, sc, err)
		return
	}
	s.metrics.RecordSearch(len(hits))

	view := searchView{layout: s.layout(sc, "Search")}
	view.Query = query
	for _, h := range hits {
		view.Results = append(view.Results, searchResult{
			Name:  h.Name,
			Count: h.Count,
			URL:   sc.PageURL(h.Name),
		})
	}
	s.renderView(w, r, http.StatusOK, "search", view)
}

func (s *Server) handlePages(w http.ResponseWriter, r *http.Request) {
	sc := newScope(r, s.cfg.BasePath)
	dir := s.cfg.Wiki.PageFileDir
	if d := r.URL.Query().Get("dir"); d != "" {
		dir = underPageDir(s.cfg.Wiki.PageFileDir, d)
	}

	pages, err := s.store.ListPages(r.Context(), store.ListParams{Dir: dir})
	if err != nil {
		s.writeError(w, r, sc, err)
		return
	}

	view := pagesView{layout: s.layout(sc, "All pages"), Dir: dir}
	for i := range pages {
		p := &pages[i]
		view.Pages = append(view.Pages, pageEntry{
			Name:      p.Name,
			Dir:       p.Dir,
			Format:    p.Format,
			UpdatedAt: p.UpdatedAt,
			URL:       sc.PageURL(p.URLPath()),
		})
	}
	s.renderView(w, r, http.StatusOK, "pages", view)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sc := newScope(r, s.cfg.BasePath)
	page, ok := s.targetPage(w, r, sc)
	if !ok {
		return
	}

	revs, err := s.store.History(r.Context(), store.HistoryParams{Path: page.Path, Limit: historyLimit})
	if err != nil {
		s.writeError(w, r, sc, err)
		return
	}

	view := historyView{
		layout:  s.layout(sc, "History of "+page.Name),
		Page:    page,
		PageURL: sc.PageURL(page.URLPath()),
	}
	for _, rev := range revs {
		e := historyEntry{
			ID:      rev.ID,
			Message: rev.Message,
			Author:  rev.Author,
			Date:    rev.CreatedAt,
			Deleted: rev.Deleted,
		}
		if !rev.Deleted {
			e.URL = sc.VersionURL(page.URLPath(), rev.ID)
		}
		view.Entries = append(view.Entries, e)
	}
	s.renderView(w, r, http.StatusOK, "history", view)
}

// handleEditForm shows the editor for an existing page, or the create form
// when nothing lives at the path yet.
func (s *Server) handleEditForm(w http.ResponseWriter, r *http.Request) {
	sc := newScope(r, s.cfg.BasePath)
	name, dir := s.pageLocation(r.PathValue("path"))
	if name == "" {
		s.notFound(w, r, sc)
		return
	}

	page, found, err := s.locator.Locate(r.Context(), name, &dir, "", true)
	if err != nil {
		s.writeError(w, r, sc, err)
		return
	}

	view := editView{Formats: model.Formats()}
	if found {
		view.layout = s.layout(sc, "Editing "+page.Name)
		view.Action = sc.URL("edit", page.URLPath())
		view.Name = page.Name
		view.Dir = page.Dir
		view.Format = page.Format
		view.Content = page.RawData
		view.Version = page.Version
	} else {
		view.layout = s.layout(sc, "Create "+name)
		view.Create = true
		view.Action = sc.URL("create")
		view.Name = name
		view.Dir = dir
		view.Format = model.DefaultFormat
	}
	s.renderView(w, r, http.StatusOK, "edit", view)
}

// handleEdit commits a change to an existing page. A form without a
// content field keeps the current content, and a missing format keeps the
// current format.
func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	sc := newScope(r, s.cfg.BasePath)
	page, ok := s.targetPage(w, r, sc)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		s.writeError(w, r, sc, badRequest("parse form: %v", err))
		return
	}

	var edit wiki.Edit
	if vals, ok := r.PostForm["content"]; ok && len(vals) > 0 {
		content := newlines.Replace(vals[0])
		edit.Content = &content
	}
	if f := model.Format(r.PostFormValue("format")); f != "" {
		if !model.ValidFormat(f) {
			s.writeError(w, r, sc, badRequest("unknown format %q", f))
			return
		}
		edit.Format = f
	}
	rename := strings.TrimSpace(r.PostFormValue("rename"))
	if strings.Contains(rename, wikipath.Separator) {
		s.writeError(w, r, sc, badRequest("page names cannot contain %q", wikipath.Separator))
		return
	}
	edit.Name = rename

	res, err := s.editor.Update(r.Context(), page, edit, wiki.CommitMeta(r.Context(), r.PostFormValue("message")))
	if err != nil {
		s.metrics.RecordEdit("failed")
		s.writeError(w, r, sc, err)
		return
	}
	s.metrics.RecordEdit(res.Status.String())

	s.log.HTTPLogger(GetRequestID(r.Context())).Debug("Edit handled").
		Str("page", page.Path).
		Str("status", res.Status.String()).
		Str("version", res.Version).
		Send()

	name := page.Name
	if res.Status == wiki.Committed && rename != "" {
		name = rename
	}
	http.Redirect(w, r, sc.PageURL(wikipath.Join(page.Dir, name)), http.StatusSeeOther)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	sc := newScope(r, s.cfg.BasePath)
	if err := r.ParseForm(); err != nil {
		s.writeError(w, r, sc, badRequest("parse form: %v", err))
		return
	}

	name := strings.TrimSpace(r.PostFormValue("page"))
	dir := underPageDir(s.cfg.Wiki.PageFileDir, r.PostFormValue("path"))
	format := model.Format(r.PostFormValue("format"))
	if format != "" && !model.ValidFormat(format) {
		s.writeError(w, r, sc, badRequest("unknown format %q", format))
		return
	}
	content := newlines.Replace(r.PostFormValue("content"))

	_, err := s.editor.Create(r.Context(), dir, name, format, content, wiki.CommitMeta(r.Context(), r.PostFormValue("message")))
	if err != nil {
		s.metrics.RecordEdit("failed")
		s.writeError(w, r, sc, err)
		return
	}
	s.metrics.RecordEdit(wiki.Committed.String())
	http.Redirect(w, r, sc.PageURL(wikipath.Join(dir, name)), http.StatusSeeOther)
}

// targetPage finds the page named by the {path} wildcard. It writes a 404
// and reports false when there is none.
func (s *Server) targetPage(w http.ResponseWriter, r *http.Request, sc requestScope) (*model.Page, bool) {
	name, dir := s.pageLocation(r.PathValue("path"))
	if name == "" {
		s.notFound(w, r, sc)
		return nil, false
	}
	page, found, err := s.locator.Locate(r.Context(), name, &dir, "", true)
	if err != nil {
		s.writeError(w, r, sc, err)
		return nil, false
	}
	if !found {
		s.notFound(w, r, sc)
		return nil, false
	}
	return page, true
}

// requireSupported rejects clients the compatibility gate does not accept.
func (s *Server) requireSupported(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ua := r.UserAgent()
		if !s.gate.Supported(ua) {
			s.metrics.UnsupportedClients.Inc()
			s.log.HTTPLogger(GetRequestID(r.Context())).Warn("Unsupported browser").
				Str("user_agent", ua).
				Send()
			s.writeError(w, r, newScope(r, s.cfg.BasePath), errUnsupportedBrowser)
			return
		}
		h(w, r)
	}
}
