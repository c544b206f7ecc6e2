// Package model defines the core wiki data types.
package model

import (
	"path"
	"strings"
	"time"
)

// Format is the markup language a page is stored in.
type Format string

const (
	FormatMarkdown  Format = "markdown"
	FormatText      Format = "txt"
	FormatHTML      Format = "html"
	FormatOrg       Format = "org"
	FormatRST       Format = "rst"
	FormatTextile   Format = "textile"
	FormatAsciiDoc  Format = "asciidoc"
	FormatCreole    Format = "creole"
	FormatMediaWiki Format = "mediawiki"
	FormatPod       Format = "pod"
	FormatRDoc      Format = "rdoc"
)

// DefaultFormat is used when a new page names no format.
const DefaultFormat = FormatMarkdown

// formatExt maps each format to the file extension pages of that format are stored under.
var formatExt = map[Format]string{
	FormatMarkdown:  ".md",
	FormatText:      ".txt",
	FormatHTML:      ".html",
	FormatOrg:       ".org",
	FormatRST:       ".rst",
	FormatTextile:   ".textile",
	FormatAsciiDoc:  ".asciidoc",
	FormatCreole:    ".creole",
	FormatMediaWiki: ".mediawiki",
	FormatPod:       ".pod",
	FormatRDoc:      ".rdoc",
}

// extAliases are additional extensions recognized when reading a tree.
var extAliases = map[string]Format{
	".markdown": FormatMarkdown,
	".mkd":      FormatMarkdown,
	".mkdn":     FormatMarkdown,
	".mdown":    FormatMarkdown,
	".htm":      FormatHTML,
	".adoc":     FormatAsciiDoc,
	".wiki":     FormatMediaWiki,
}

// Formats lists every page format in a stable order.
func Formats() []Format {
	return []Format{
		FormatMarkdown, FormatText, FormatHTML, FormatOrg, FormatRST, FormatTextile,
		FormatAsciiDoc, FormatCreole, FormatMediaWiki, FormatPod, FormatRDoc,
	}
}

// ValidFormat reports whether f is a known page format.
func ValidFormat(f Format) bool {
	_, ok := formatExt[f]
	return ok
}

// Ext returns the canonical file extension for the format.
func (f Format) Ext() string {
	return formatExt[f]
}

// FormatForPath returns the page format implied by a file path's extension.
// ok is false for paths that are raw files rather than pages.
func FormatForPath(p string) (Format, bool) {
	ext := strings.ToLower(path.Ext(p))
	if ext == "" {
		return "", false
	}
	if f, ok := extAliases[ext]; ok {
		return f, true
	}
	for f, e := range formatExt {
		if e == ext {
			return f, true
		}
	}
	return "", false
}

// Author identifies who made a commit.
type Author struct {
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email" yaml:"email"`
}

// CommitMeta is the metadata attached to one commit.
type CommitMeta struct {
	Message string `json:"message" yaml:"message"`
	Author
}

// Commit is one atomic write against the content store.
type Commit struct {
	ID        string    `json:"id" yaml:"id"`
	Parent    string    `json:"parent,omitempty" yaml:"parent,omitempty"`
	Message   string    `json:"message" yaml:"message"`
	Author    Author    `json:"author" yaml:"author"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	Paths     []string  `json:"paths,omitempty" yaml:"paths,omitempty"`
}

// Page is a named wiki page at one revision.
type Page struct {
	Name      string    `json:"name"`
	Dir       string    `json:"dir"`
	Path      string    `json:"path"`
	Format    Format    `json:"format"`
	RawData   string    `json:"raw_data"`
	Version   string    `json:"version"`
	Message   string    `json:"message,omitempty"`
	Author    Author    `json:"author"`
	UpdatedAt time.Time `json:"updated_at"`
}

// URLPath is the page path without its extension, as it appears in URLs.
func (p *Page) URLPath() string {
	if p.Dir == "" {
		return p.Name
	}
	return p.Dir + "/" + p.Name
}

// File is a raw stored file at one revision.
type File struct {
	Path     string `json:"path"`
	MimeType string `json:"mime_type"`
	RawData  []byte `json:"-"`
	Version  string `json:"version"`
}

// SearchHit is one page matching a search query.
type SearchHit struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Revision is a single entry in a path's history.
type Revision struct {
	Path    string `json:"path"`
	Deleted bool   `json:"deleted,omitempty"`
	Commit
}
