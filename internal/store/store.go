// Package store provides the versioned wiki content store and its SQLite implementation.
package store

import (
	"context"
	"errors"

	"github.com/rcliao/wikiserve/internal/model"
)

var (
	// ErrNotFound is returned when no page, file or commit matches a lookup.
	ErrNotFound = errors.New("store: not found")
	// ErrExists is returned when creating a page whose path is already taken.
	ErrExists = errors.New("store: already exists")
	// ErrEmptyCommit is returned for a commit with no changes.
	ErrEmptyCommit = errors.New("store: empty commit")
	// ErrInvalidPath is returned for paths that escape the wiki root.
	ErrInvalidPath = errors.New("store: invalid path")
)

// Change is one path written or removed by a commit.
type Change struct {
	Path   string
	Data   []byte
	Delete bool
}

// HistoryParams holds parameters for listing a path's revisions.
type HistoryParams struct {
	Path  string
	Limit int
}

// ListParams holds parameters for listing pages.
type ListParams struct {
	Dir     string // "" lists every directory
	Version string // "" means latest
	Limit   int
}

// Store defines the content store the wiki front end consumes.
type Store interface {
	// ResolvePage finds a page by name. A nil dir matches any directory
	// unless exact is set, in which case it means the root. An empty
	// version means the latest commit.
	ResolvePage(ctx context.Context, name string, dir *string, exact bool, version string) (*model.Page, error)

	// ResolveFile finds a stored file by its full path.
	ResolveFile(ctx context.Context, path string, version string) (*model.File, error)

	// Search returns every latest page whose content matches query, with
	// the number of matching lines.
	Search(ctx context.Context, query string) ([]model.SearchHit, error)

	// UpdatePage commits a new revision of page, renaming it when name or
	// format differ from the current ones. Renaming onto a name another page
	// in the same directory answers to fails with ErrExists. Returns the
	// commit id.
	UpdatePage(ctx context.Context, page *model.Page, name string, format model.Format, content string, meta model.CommitMeta) (string, error)

	// WritePage creates a new page.
	WritePage(ctx context.Context, dir, name string, format model.Format, content string, meta model.CommitMeta) (string, error)

	// Commit applies changes as one atomic commit.
	Commit(ctx context.Context, meta model.CommitMeta, changes []Change) (string, error)

	// History lists the revisions of one path, newest first.
	History(ctx context.Context, p HistoryParams) ([]model.Revision, error)

	// ListPages lists pages present at a version.
	ListPages(ctx context.Context, p ListParams) ([]model.Page, error)

	// Close closes the store.
	Close() error
}
