// Package compat decides whether a browser is recent enough to use the
// editing interface.
package compat

import (
	"strconv"
	"strings"

	"github.com/mssola/useragent"
	"golang.org/x/mod/semver"
)

// Minimum is the oldest supported version of one browser family.
type Minimum struct {
	Family  string `mapstructure:"family" json:"family"`
	Version string `mapstructure:"version" json:"version"`
}

// Client is the browser identity parsed from a User-Agent header.
type Client struct {
	Family  string
	Version string
}

// DefaultMinimums is the stock minimum browser table.
func DefaultMinimums() []Minimum {
	return []Minimum{
		{Family: "Internet Explorer", Version: "10.0"},
		{Family: "Chrome", Version: "7.0"},
		{Family: "Firefox", Version: "4.0"},
	}
}

// Gate checks clients against an immutable minimum-version table.
// A Gate is safe for concurrent use.
type Gate struct {
	mins []Minimum
}

// NewGate copies mins into a new Gate.
func NewGate(mins []Minimum) *Gate {
	cp := make([]Minimum, len(mins))
	copy(cp, mins)
	return &Gate{mins: cp}
}

// Parse extracts the browser family and version from a User-Agent header.
func Parse(userAgent string) Client {
	if strings.TrimSpace(userAgent) == "" {
		return Client{}
	}
	name, version := useragent.New(userAgent).Browser()
	return Client{Family: name, Version: version}
}

// Supported reports whether the client behind userAgent may use the editor.
// Clients whose family is not in the table are always supported; only a
// known family with a readable version older than its minimum is rejected.
func (g *Gate) Supported(userAgent string) bool {
	return g.SupportedClient(Parse(userAgent))
}

// SupportedClient is Supported for an already parsed client.
func (g *Gate) SupportedClient(c Client) bool {
	if canonical(c.Version) == "" {
		return true
	}
	known := false
	for _, m := range g.mins {
		if !strings.EqualFold(m.Family, c.Family) {
			continue
		}
		known = true
		if compareVersions(c.Version, m.Version) >= 0 {
			return true
		}
	}
	return !known
}

// compareVersions compares dotted browser versions numerically. A version
// that cannot be read sorts below every readable one.
func compareVersions(a, b string) int {
	va, vb := canonical(a), canonical(b)
	switch {
	case va == "" && vb == "":
		return 0
	case va == "":
		return -1
	case vb == "":
		return 1
	}
	return semver.Compare(va, vb)
}

// canonical turns "7.0.517.44" into "v7.0.517", the form semver compares.
func canonical(v string) string {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	parts := strings.Split(v, ".")
	nums := make([]string, 0, 3)
	for _, p := range parts {
		if len(nums) == 3 {
			break
		}
		end := 0
		for end < len(p) && p[end] >= '0' && p[end] <= '9' {
			end++
		}
		if end == 0 {
			break
		}
		n, err := strconv.Atoi(p[:end])
		if err != nil {
			break
		}
		nums = append(nums, strconv.Itoa(n))
		if end < len(p) {
			break
		}
	}
	if len(nums) == 0 {
		return ""
	}
	for len(nums) < 3 {
		nums = append(nums, "0")
	}
	c := "v" + strings.Join(nums, ".")
	if !semver.IsValid(c) {
		return ""
	}
	return c
}
