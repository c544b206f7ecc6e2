package web

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rcliao/wikiserve/internal/model"
	"github.com/rcliao/wikiserve/internal/store"
	"github.com/rcliao/wikiserve/internal/wikipath"
)

// assetPrefixes are reserved for the static bundle and never resolve to
// wiki content.
var assetPrefixes = map[string]bool{
	"javascript": true,
	"css":        true,
	"images":     true,
}

// Dispatch outcomes, also used as metric labels.
const (
	outcomeAsset    = "asset"
	outcomePinned   = "pinned"
	outcomePage     = "page"
	outcomeFile     = "file"
	outcomeNotFound = "not_found"
	outcomeError    = "error"
)

// handleDispatch resolves the catch-all route. Each request moves through
// the states once: reserved asset prefix, version-pinned page, page, raw
// file, not found.
func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	sc := newScope(r, s.cfg.BasePath)
	outcome, err := s.dispatch(w, r, sc, strings.TrimPrefix(r.URL.Path, "/"))
	if err != nil {
		outcome = outcomeError
		s.writeError(w, r, sc, err)
	}
	s.metrics.RecordDispatch(outcome)
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, sc requestScope, raw string) (string, error) {
	ctx := r.Context()

	if first, _, _ := strings.Cut(raw, wikipath.Separator); assetPrefixes[first] {
		s.notFound(w, r, sc)
		return outcomeAsset, nil
	}

	if pagePath, version, ok := splitPinned(raw); ok {
		name, dir := s.pageLocation(pagePath)
		page, found, err := s.locator.Locate(ctx, name, &dir, version, true)
		if err != nil {
			return "", err
		}
		if !found {
			s.notFound(w, r, sc)
			return outcomeNotFound, nil
		}
		return outcomePinned, s.showPage(w, r, sc, page, version)
	}

	name, dir := s.pageLocation(raw)
	if name != "" {
		page, found, err := s.locator.Locate(ctx, name, &dir, "", true)
		if err != nil {
			return "", err
		}
		if found {
			return outcomePage, s.showPage(w, r, sc, page, "")
		}
	}

	file, err := s.store.ResolveFile(ctx, raw, "")
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.notFound(w, r, sc)
		return outcomeNotFound, nil
	case err != nil:
		return "", err
	}
	w.Header().Set("Content-Type", file.MimeType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(file.RawData); err != nil {
		s.log.HTTPLogger(GetRequestID(ctx)).Debug("File write failed").
			Str("path", file.Path).
			Err(err).
			Send()
	}
	return outcomeFile, nil
}

// splitPinned splits "<page path>/<commit id>" into its two parts.
func splitPinned(raw string) (string, string, bool) {
	i := strings.LastIndex(raw, wikipath.Separator)
	if i <= 0 || !store.IsVersion(raw[i+1:]) {
		return "", "", false
	}
	return raw[:i], raw[i+1:], true
}

// pageLocation splits a request path into a page name and the directory it
// is looked up in. The directory is placed under the configured page
// directory unless it already is.
func (s *Server) pageLocation(raw string) (string, string) {
	loc := wikipath.Resolve(raw)
	return loc.Name, underPageDir(s.cfg.Wiki.PageFileDir, loc.DirOr(""))
}

func underPageDir(pageDir, dir string) string {
	dir = strings.Trim(dir, wikipath.Separator)
	if pageDir == "" || dir == pageDir || strings.HasPrefix(dir, pageDir+wikipath.Separator) {
		return dir
	}
	return wikipath.Join(pageDir, dir)
}

// showPage renders a page view. A page pinned to a version is read-only and
// its section pages come from the same commit.
func (s *Server) showPage(w http.ResponseWriter, r *http.Request, sc requestScope, page *model.Page, version string) error {
	pinned := version != ""
	doc, err := s.renderer.Render(page.Format, page.RawData)
	if err != nil {
		return err
	}

	title := page.Name
	if doc.Title != "" {
		title = doc.Title
	}

	view := pageView{
		layout:     s.layout(sc, title),
		Page:       page,
		Content:    doc.HTML,
		Editable:   !pinned,
		Pinned:     pinned,
		Version:    version,
		EditURL:    sc.URL("edit", page.URLPath()),
		HistoryURL: sc.URL("history", page.URLPath()),
		LatestURL:  sc.PageURL(page.URLPath()),
	}
	if s.cfg.Wiki.UniversalTOC {
		view.TOC = doc.TOC
	}

	if !wikipath.IsReserved(page.Name) {
		if view.Header, err = s.section(r.Context(), sc, "_Header", page.Dir, version); err != nil {
			return err
		}
		if view.Footer, err = s.section(r.Context(), sc, "_Footer", page.Dir, version); err != nil {
			return err
		}
		if view.Sidebar, err = s.section(r.Context(), sc, "_Sidebar", page.Dir, version); err != nil {
			return err
		}
	}

	s.renderView(w, r, http.StatusOK, "page", view)
	return nil
}

func (s *Server) section(ctx context.Context, sc requestScope, name, dir, version string) (*section, error) {
	page, found, err := s.locator.Subpage(ctx, name, dir, version)
	if err != nil || !found {
		return nil, err
	}
	doc, err := s.renderer.Render(page.Format, page.RawData)
	if err != nil {
		return nil, err
	}
	return &section{
		Name:    name,
		Content: doc.HTML,
		EditURL: sc.URL("edit", wikipath.Join(page.Dir, wikipath.URLName(page.Name))),
	}, nil
}
