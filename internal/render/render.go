// Package render turns stored page markup into HTML for the web views.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/rcliao/wikiserve/internal/model"
)

// Options controls optional rendering behavior.
type Options struct {
	// H1Title takes the page title from its first level-one heading.
	H1Title bool
}

// Heading is one entry in a page's table of contents.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
	ID    string `json:"id"`
}

// Document is a rendered page.
type Document struct {
	HTML  template.HTML
	TOC   []Heading
	Title string // empty unless H1Title found a heading
}

// Renderer renders pages. It is safe for concurrent use.
type Renderer struct {
	opts Options
}

// New returns a Renderer with the given options.
func New(opts Options) *Renderer {
	return &Renderer{opts: opts}
}

var (
	markdownInstance goldmark.Markdown
	markdownOnce     sync.Once
)

func getMarkdown() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdownInstance = goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.DefinitionList,
				extension.Footnote,
			),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(
				renderer.WithNodeRenderers(util.Prioritized(&codeRenderer{}, 100)),
			),
		)
	})
	return markdownInstance
}

// Render converts raw markup in the given format to HTML.
func (r *Renderer) Render(format model.Format, raw string) (*Document, error) {
	var doc *Document
	var err error
	switch format {
	case model.FormatMarkdown:
		doc, err = renderMarkdown(raw)
	case model.FormatHTML:
		var out string
		out, err = Sanitize(raw)
		doc = &Document{HTML: template.HTML(out)}
	default:
		doc = &Document{HTML: preformatted(format, raw)}
	}
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	if r.opts.H1Title {
		doc.Title = FirstHeading(string(doc.HTML))
	}
	return doc, nil
}

func renderMarkdown(raw string) (*Document, error) {
	md := getMarkdown()
	source := []byte(raw)
	document := md.Parser().Parse(text.NewReader(source))

	var buf bytes.Buffer
	if err := md.Renderer().Render(&buf, source, document); err != nil {
		return nil, err
	}
	return &Document{
		HTML: template.HTML(buf.String()),
		TOC:  collectHeadings(document, source),
	}, nil
}

func collectHeadings(document ast.Node, source []byte) []Heading {
	var toc []Heading
	ast.Walk(document, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		entry := Heading{Level: h.Level, Text: nodeText(h, source)}
		if id, ok := h.AttributeString("id"); ok {
			if b, ok := id.([]byte); ok {
				entry.ID = string(b)
			}
		}
		toc = append(toc, entry)
		return ast.WalkSkipChildren, nil
	})
	return toc
}

// nodeText concatenates the text segments below n.
func nodeText(n ast.Node, source []byte) string {
	var sb strings.Builder
	ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}

// preformatted shows markup this server has no renderer for as escaped text.
func preformatted(format model.Format, raw string) template.HTML {
	return template.HTML(fmt.Sprintf(`<pre class="markup markup-%s">%s</pre>`,
		template.HTMLEscapeString(string(format)), template.HTMLEscapeString(raw)))
}
