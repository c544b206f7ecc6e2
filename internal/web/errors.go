package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/rcliao/wikiserve/internal/store"
	"github.com/rcliao/wikiserve/internal/wiki"
)

var (
	errUnsupportedBrowser = errors.New("this browser is too old to edit the wiki")
	errBadRequest         = errors.New("bad request")
)

func badRequest(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// statusFor maps an error to the HTTP status it is reported with.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound // 404
	case errors.Is(err, errUnsupportedBrowser):
		return http.StatusForbidden // 403
	case errors.Is(err, errBadRequest),
		errors.Is(err, wiki.ErrInvalidName),
		errors.Is(err, store.ErrInvalidPath):
		return http.StatusBadRequest // 400
	case errors.Is(err, store.ErrExists):
		return http.StatusConflict // 409
	default:
		return http.StatusInternalServerError // 500
	}
}

// writeError renders err as an error page. Server errors are logged and
// their details kept from the client.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, sc requestScope, err error) {
	status := statusFor(err)
	msg := err.Error()
	switch status {
	case http.StatusInternalServerError:
		s.log.HTTPLogger(GetRequestID(r.Context())).Error("Request failed").
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Err(err).
			Send()
		msg = "Something went wrong while handling this request."
	case http.StatusNotFound:
		msg = fmt.Sprintf("Nothing lives at %s.", r.URL.Path)
	}

	s.renderView(w, r, status, "error", errorView{
		layout:  s.layout(sc, http.StatusText(status)),
		Status:  status,
		Message: msg,
	})
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request, sc requestScope) {
	s.writeError(w, r, sc, store.ErrNotFound)
}
