package render

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// droppedElements are removed from stored HTML along with their content.
var droppedElements = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Iframe:   true,
	atom.Object:   true,
	atom.Embed:    true,
	atom.Frame:    true,
	atom.Frameset: true,
	atom.Base:     true,
	atom.Meta:     true,
	atom.Link:     true,
}

// urlAttrs hold URLs and must not carry script.
var urlAttrs = map[string]bool{
	"href":       true,
	"src":        true,
	"action":     true,
	"formaction": true,
	"xlink:href": true,
}

// Sanitize strips active content from an HTML fragment: script-bearing
// elements, event handler attributes and javascript: URLs.
func Sanitize(src string) (string, error) {
	context := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(src), context)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	for _, n := range nodes {
		if n.Type == html.ElementNode && droppedElements[n.DataAtom] {
			continue
		}
		clean(n)
		if err := html.Render(&buf, n); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

func clean(n *html.Node) {
	if n.Type == html.ElementNode {
		attrs := n.Attr[:0]
		for _, a := range n.Attr {
			key := strings.ToLower(a.Key)
			if strings.HasPrefix(key, "on") {
				continue
			}
			if urlAttrs[key] && unsafeURL(a.Val) {
				continue
			}
			attrs = append(attrs, a)
		}
		n.Attr = attrs
	}

	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode && droppedElements[c.DataAtom] {
			n.RemoveChild(c)
		} else {
			clean(c)
		}
		c = next
	}
}

func unsafeURL(v string) bool {
	v = strings.ToLower(strings.Join(strings.Fields(v), ""))
	return strings.HasPrefix(v, "javascript:") || strings.HasPrefix(v, "vbscript:") ||
		(strings.HasPrefix(v, "data:") && !strings.HasPrefix(v, "data:image/"))
}

// FirstHeading returns the text of the first h1 in an HTML fragment, or ""
// when there is none.
func FirstHeading(fragment string) string {
	z := html.NewTokenizer(strings.NewReader(fragment))
	depth := 0
	var sb strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			name, _ := z.TagName()
			if atom.Lookup(name) == atom.H1 {
				depth++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if atom.Lookup(name) == atom.H1 && depth > 0 {
				return strings.Join(strings.Fields(sb.String()), " ")
			}
		case html.TextToken:
			if depth > 0 {
				sb.Write(z.Text())
			}
		}
	}
}
