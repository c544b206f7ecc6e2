package wiki

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rcliao/wikiserve/internal/model"
	"github.com/rcliao/wikiserve/internal/session"
	"github.com/rcliao/wikiserve/internal/wikipath"
)

// ErrInvalidName is returned when creating a page with an unusable name.
var ErrInvalidName = errors.New("wiki: invalid page name")

// Status is the outcome of an edit.
type Status int

const (
	// Skipped means the edit changed nothing and no commit was made.
	Skipped Status = iota
	// Committed means the edit was written as one commit.
	Committed
)

func (s Status) String() string {
	if s == Committed {
		return "committed"
	}
	return "skipped"
}

// Result reports what Update did. Version is set only for Committed.
type Result struct {
	Status  Status
	Version string
}

// Edit is a requested change to an existing page. Zero values mean
// "keep what the page has": an empty Name keeps the name, an empty Format
// keeps the format and a nil Content keeps the content.
type Edit struct {
	Name    string
	Format  model.Format
	Content *string
}

// PageWriter is the part of the store edits are committed through.
type PageWriter interface {
	UpdatePage(ctx context.Context, page *model.Page, name string, format model.Format, content string, meta model.CommitMeta) (string, error)
	WritePage(ctx context.Context, dir, name string, format model.Format, content string, meta model.CommitMeta) (string, error)
}

// Editor turns edits into commits.
type Editor struct {
	pages PageWriter
}

// NewEditor returns an Editor writing through pages.
func NewEditor(pages PageWriter) *Editor {
	return &Editor{pages: pages}
}

// Noop reports whether applying edit to target would change nothing.
func Noop(target *model.Page, edit Edit) bool {
	if target == nil {
		return true
	}
	sameContent := edit.Content == nil || *edit.Content == target.RawData
	sameFormat := edit.Format == "" || edit.Format == target.Format
	return sameContent && sameFormat
}

// Update commits edit against target. Edits that would not change the
// page's content or format are skipped, so submitting the same edit twice
// produces one commit.
func (e *Editor) Update(ctx context.Context, target *model.Page, edit Edit, meta model.CommitMeta) (Result, error) {
	if Noop(target, edit) {
		return Result{Status: Skipped}, nil
	}

	name := edit.Name
	if name == "" {
		name = target.Name
	}
	format := edit.Format
	if format == "" {
		format = target.Format
	}
	content := target.RawData
	if edit.Content != nil {
		content = *edit.Content
	}

	version, err := e.pages.UpdatePage(ctx, target, name, format, content, meta)
	if err != nil {
		return Result{}, fmt.Errorf("update %s: %w", target.Path, err)
	}
	return Result{Status: Committed, Version: version}, nil
}

// Create commits a new page named name in dir.
func (e *Editor) Create(ctx context.Context, dir, name string, format model.Format, content string, meta model.CommitMeta) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.Contains(name, wikipath.Separator) {
		return "", fmt.Errorf("%q: %w", name, ErrInvalidName)
	}
	if format == "" {
		format = model.DefaultFormat
	}
	version, err := e.pages.WritePage(ctx, dir, name, format, content, meta)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", wikipath.Join(dir, name), err)
	}
	return version, nil
}

// CommitMeta builds commit metadata for a request. The message comes from
// the request; the author comes only from the session in ctx.
func CommitMeta(ctx context.Context, message string) model.CommitMeta {
	meta := model.CommitMeta{Message: message}
	if a, ok := session.AuthorFrom(ctx); ok {
		meta.Author = a
	}
	return meta
}
