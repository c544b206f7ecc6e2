package store

import (
	"context"
	"errors"
	"time"

	"github.com/rcliao/wikiserve/internal/logger"
	"github.com/rcliao/wikiserve/internal/model"
)

// Observer receives the outcome of every store call.
type Observer interface {
	RecordStoreOperation(operation string, err error, duration time.Duration)
}

// Instrumented wraps a Store, timing each call and reporting it to an
// Observer and a logger. Misses (ErrNotFound) count as successful calls.
type Instrumented struct {
	next Store
	obs  Observer
	log  *logger.Logger
}

// Instrument wraps next. obs and log may be nil.
func Instrument(next Store, obs Observer, log *logger.Logger) *Instrumented {
	if log == nil {
		log = logger.Nop()
	}
	return &Instrumented{next: next, obs: obs, log: log}
}

func (s *Instrumented) observe(op string, start time.Time, err error) {
	if errors.Is(err, ErrNotFound) {
		err = nil
	}
	d := time.Since(start)
	if s.obs != nil {
		s.obs.RecordStoreOperation(op, err, d)
	}
	s.log.LogStoreOperation(op, d, err)
}

func (s *Instrumented) ResolvePage(ctx context.Context, name string, dir *string, exact bool, version string) (*model.Page, error) {
	start := time.Now()
	p, err := s.next.ResolvePage(ctx, name, dir, exact, version)
	s.observe("resolve_page", start, err)
	return p, err
}

func (s *Instrumented) ResolveFile(ctx context.Context, path string, version string) (*model.File, error) {
	start := time.Now()
	f, err := s.next.ResolveFile(ctx, path, version)
	s.observe("resolve_file", start, err)
	return f, err
}

func (s *Instrumented) Search(ctx context.Context, query string) ([]model.SearchHit, error) {
	start := time.Now()
	hits, err := s.next.Search(ctx, query)
	s.observe("search", start, err)
	return hits, err
}

func (s *Instrumented) UpdatePage(ctx context.Context, page *model.Page, name string, format model.Format, content string, meta model.CommitMeta) (string, error) {
	start := time.Now()
	v, err := s.next.UpdatePage(ctx, page, name, format, content, meta)
	s.observe("update_page", start, err)
	return v, err
}

func (s *Instrumented) WritePage(ctx context.Context, dir, name string, format model.Format, content string, meta model.CommitMeta) (string, error) {
	start := time.Now()
	v, err := s.next.WritePage(ctx, dir, name, format, content, meta)
	s.observe("write_page", start, err)
	return v, err
}

func (s *Instrumented) Commit(ctx context.Context, meta model.CommitMeta, changes []Change) (string, error) {
	start := time.Now()
	v, err := s.next.Commit(ctx, meta, changes)
	s.observe("commit", start, err)
	return v, err
}

func (s *Instrumented) History(ctx context.Context, p HistoryParams) ([]model.Revision, error) {
	start := time.Now()
	revs, err := s.next.History(ctx, p)
	s.observe("history", start, err)
	return revs, err
}

func (s *Instrumented) ListPages(ctx context.Context, p ListParams) ([]model.Page, error) {
	start := time.Now()
	pages, err := s.next.ListPages(ctx, p)
	s.observe("list_pages", start, err)
	return pages, err
}

func (s *Instrumented) Close() error {
	return s.next.Close()
}
