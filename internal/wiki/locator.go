// Package wiki holds the page-level operations the web layer builds on:
// locating pages, ranking search hits and turning edits into commits.
package wiki

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/rcliao/wikiserve/internal/model"
	"github.com/rcliao/wikiserve/internal/store"
	"github.com/rcliao/wikiserve/internal/wikipath"
)

// PageResolver is the part of the store the Locator reads from.
type PageResolver interface {
	ResolvePage(ctx context.Context, name string, dir *string, exact bool, version string) (*model.Page, error)
}

// Locator resolves names to pages.
type Locator struct {
	pages PageResolver
}

// NewLocator returns a Locator reading from pages.
func NewLocator(pages PageResolver) *Locator {
	return &Locator{pages: pages}
}

// Locate finds the page called name. With exact unset the page may live in
// any directory; with exact set it must live in dir, and a nil dir means
// the wiki root. An empty version means the latest commit.
//
// A missing page is reported as found == false with a nil error.
func (l *Locator) Locate(ctx context.Context, name string, dir *string, version string, exact bool) (*model.Page, bool, error) {
	if dir == nil && exact {
		root := wikipath.Separator
		dir = &root
	}

	page, err := l.pages.ResolvePage(ctx, name, dir, exact, version)
	if errors.Is(err, store.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("locate %q: %w", name, err)
	}
	return page, true, nil
}

// Subpage finds the section page name (such as _Sidebar) that applies to
// pages in dir: the one in dir itself, else the nearest one in a parent
// directory, else the one at the root.
func (l *Locator) Subpage(ctx context.Context, name, dir, version string) (*model.Page, bool, error) {
	d := dir
	for {
		cur := d
		page, found, err := l.Locate(ctx, name, &cur, version, true)
		if err != nil || found {
			return page, found, err
		}
		if d == "" || d == wikipath.Separator {
			return nil, false, nil
		}
		d = path.Dir(d)
		if d == "." {
			d = ""
		}
	}
}
