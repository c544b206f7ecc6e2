// Package session carries the identity of the person making a request.
//
// Authentication happens in front of this server. A trusted proxy puts the
// author's name and email in request headers; Middleware copies them into the
// request context where commit code reads them back with AuthorFrom. The same
// headers arriving from any other address are dropped.
package session

import (
	"context"
	"fmt"
	"net/http"
	"net/netip"
	"strings"

	"github.com/rcliao/wikiserve/internal/model"
)

type contextKey struct{}

// WithAuthor returns a copy of ctx carrying author.
func WithAuthor(ctx context.Context, author model.Author) context.Context {
	return context.WithValue(ctx, contextKey{}, author)
}

// AuthorFrom returns the author stored in ctx. ok is false when the request
// carried no identity.
func AuthorFrom(ctx context.Context) (model.Author, bool) {
	a, ok := ctx.Value(contextKey{}).(model.Author)
	if !ok || (a.Name == "" && a.Email == "") {
		return model.Author{}, false
	}
	return a, true
}

// Headers names the request headers a trusted proxy fills in. Forwarded
// lists further proxy-set headers that are only honored from a trusted
// proxy.
type Headers struct {
	Name      string
	Email     string
	Forwarded []string
}

// Proxies is the set of networks whose requests may carry proxy headers.
// The zero value trusts nobody.
type Proxies struct {
	prefixes []netip.Prefix
}

// ParseProxies parses CIDR blocks. A bare address is taken as a single
// host.
func ParseProxies(cidrs []string) (Proxies, error) {
	var p Proxies
	for _, c := range cidrs {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if !strings.Contains(c, "/") {
			addr, err := netip.ParseAddr(c)
			if err != nil {
				return Proxies{}, fmt.Errorf("trusted proxy %q: %w", c, err)
			}
			addr = addr.Unmap().WithZone("")
			p.prefixes = append(p.prefixes, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}
		prefix, err := netip.ParsePrefix(c)
		if err != nil {
			return Proxies{}, fmt.Errorf("trusted proxy %q: %w", c, err)
		}
		p.prefixes = append(p.prefixes, prefix.Masked())
	}
	return p, nil
}

// Trusts reports whether remoteAddr, as found in http.Request.RemoteAddr,
// belongs to a trusted proxy.
func (p Proxies) Trusts(remoteAddr string) bool {
	if len(p.prefixes) == 0 {
		return false
	}
	host := remoteAddr
	if ap, err := netip.ParseAddrPort(remoteAddr); err == nil {
		host = ap.Addr().String()
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	addr = addr.Unmap().WithZone("")
	for _, prefix := range p.prefixes {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// Middleware populates the request context from the configured headers.
// Requests that do not come from a trusted proxy have every configured
// header removed and carry no author.
func Middleware(h Headers, proxies Proxies) func(http.Handler) http.Handler {
	names := append([]string{h.Name, h.Email}, h.Forwarded...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !proxies.Trusts(r.RemoteAddr) {
				r = strip(r, names)
				next.ServeHTTP(w, r)
				return
			}

			var a model.Author
			if h.Name != "" {
				a.Name = strings.TrimSpace(r.Header.Get(h.Name))
			}
			if h.Email != "" {
				a.Email = strings.TrimSpace(r.Header.Get(h.Email))
			}
			if a.Name != "" || a.Email != "" {
				r = r.WithContext(WithAuthor(r.Context(), a))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// strip returns r without the named headers, copying it only when one is
// present.
func strip(r *http.Request, names []string) *http.Request {
	var present bool
	for _, n := range names {
		if n != "" && len(r.Header.Values(n)) > 0 {
			present = true
			break
		}
	}
	if !present {
		return r
	}
	r = r.Clone(r.Context())
	for _, n := range names {
		if n != "" {
			r.Header.Del(n)
		}
	}
	return r
}
