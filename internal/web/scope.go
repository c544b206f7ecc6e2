package web

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/rcliao/wikiserve/internal/config"
	"github.com/rcliao/wikiserve/internal/wikipath"
)

// ForwardedPrefixHeader is set by reverse proxies that mount the wiki
// under a sub-path and strip it before forwarding. It is removed from
// requests that do not come from a trusted proxy.
const ForwardedPrefixHeader = "X-Forwarded-Prefix"

// requestScope is the per-request view of where the wiki is mounted. It is
// derived from each request and passed explicitly to everything that builds
// URLs, so concurrent requests behind different mounts never share it.
type requestScope struct {
	base string
}

func newScope(r *http.Request, configured string) requestScope {
	if p := r.Header.Get(ForwardedPrefixHeader); p != "" {
		return requestScope{base: config.NormalizeBasePath(p)}
	}
	return requestScope{base: configured}
}

// URL joins path parts under the mount point. Parts are escaped segment by
// segment.
func (s requestScope) URL(parts ...string) string {
	var segs []string
	for _, p := range parts {
		for _, seg := range strings.Split(p, wikipath.Separator) {
			if seg != "" {
				segs = append(segs, url.PathEscape(seg))
			}
		}
	}
	return s.base + "/" + strings.Join(segs, "/")
}

// PageURL links to a page by its URL path (directory plus name).
func (s requestScope) PageURL(urlPath string) string {
	return s.URL(linkName(urlPath))
}

// VersionURL links to a page pinned at version.
func (s requestScope) VersionURL(urlPath, version string) string {
	return s.URL(linkName(urlPath), version)
}

// linkName applies URLName when doing so only changes case and spacing.
// Names the slug would lose characters from are linked verbatim so the
// link still resolves.
func linkName(p string) string {
	u := wikipath.URLName(p)
	if u != "" && foldName(u) == foldName(p) {
		return u
	}
	return p
}

func foldName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(strings.ReplaceAll(s, "-", " ")), " "))
}
