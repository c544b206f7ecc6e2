// Package wikipath splits request paths into page names and directories and
// builds URL-safe page names.
package wikipath

import (
	"regexp"
	"strings"
)

// Separator delimits directory segments in request and storage paths.
const Separator = "/"

// Location is a request path split into a page name and its directory.
// Dir is nil when the path has no directory part.
type Location struct {
	Name string
	Dir  *string
}

// DirOr returns the directory, or def when there is none.
func (l Location) DirOr(def string) string {
	if l.Dir == nil {
		return def
	}
	return *l.Dir
}

// Resolve splits raw into its final segment and the directory before it.
//
// A leading separator and repeated separators are collapsed. A trailing
// separator marks raw as directory-terminated: the directory keeps every
// segment and Name is empty, so "a/b/" resolves to Name "" and Dir "a/b".
// Callers that mean "the page b inside a" must use ResolveDir instead.
func Resolve(raw string) Location {
	if raw == "" {
		return Location{Name: raw}
	}
	segs := segments(raw)
	if strings.HasSuffix(raw, Separator) {
		if len(segs) == 0 {
			return Location{}
		}
		dir := strings.Join(segs, Separator)
		return Location{Dir: &dir}
	}
	return split(segs)
}

// ResolveDir is Resolve for a reference the caller knows is
// directory-terminated: the trailing separator is dropped before splitting,
// so "a/b/" resolves to Name "b" and Dir "a".
func ResolveDir(raw string) Location {
	if raw == "" {
		return Location{Name: raw}
	}
	return split(segments(raw))
}

func split(segs []string) Location {
	switch len(segs) {
	case 0:
		return Location{}
	case 1:
		return Location{Name: segs[0]}
	}
	dir := strings.Join(segs[:len(segs)-1], Separator)
	return Location{Name: segs[len(segs)-1], Dir: &dir}
}

func segments(raw string) []string {
	parts := strings.Split(raw, Separator)
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Join builds a storage path from a directory and a name, ignoring empty parts.
func Join(dir, name string) string {
	dir = strings.Trim(dir, Separator)
	switch {
	case dir == "":
		return name
	case name == "":
		return dir
	}
	return dir + Separator + name
}

// reserved are the section pages rendered around every page view.
var reserved = map[string]bool{
	"_Header":  true,
	"_Footer":  true,
	"_Sidebar": true,
}

// IsReserved reports whether name is one of the section page names.
func IsReserved(name string) bool {
	return reserved[name]
}

var (
	slugSpace   = regexp.MustCompile(`\s+`)
	slugInvalid = regexp.MustCompile(`[^a-z0-9\-_./]+`)
	slugDashes  = regexp.MustCompile(`-{2,}`)
)

// Slug lower-cases name, turns whitespace runs into hyphens and drops
// characters that are not safe in a URL path.
func Slug(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = slugSpace.ReplaceAllString(s, "-")
	s = slugInvalid.ReplaceAllString(s, "")
	s = slugDashes.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// URLName is the name used when generating links: section pages keep their
// exact name, every other page is slugged.
func URLName(name string) string {
	if IsReserved(name) {
		return name
	}
	return Slug(name)
}
