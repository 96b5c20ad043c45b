// Package htmldoc extracts ordered blocks from ZIP archives of HTML pages.
//
// The archive is expanded into a private scratch directory. Every .html
// or .htm file is then visited in a fixed order: a directory's files,
// sorted by name, before its subdirectories, also sorted. Each page
// contributes a [model.Meta] block naming its path inside the archive,
// followed by blocks for the direct children of its <body>:
//
//   - p, div, span, h1, h2 and h3 become one Text block each
//   - img is resolved against the page's directory and recognized
//   - anything else is skipped
package htmldoc

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"
)

// ElementKind classifies a body child the extractor acts on.
type ElementKind int

const (
	// ElementText is a text-bearing element.
	ElementText ElementKind = iota
	// ElementImage is an <img>.
	ElementImage
)

// Element is one direct child of <body> the extractor keeps.
type Element struct {
	Kind ElementKind
	Text string // stripped text content for ElementText
	Src  string // raw src attribute for ElementImage
}

// Reader provides access to an HTML page's body.
type Reader struct {
	doc *html.Node
}

// Open opens an HTML file for reading.
func Open(filename string) (*Reader, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	return OpenReader(f)
}

// OpenReader parses HTML from an io.Reader. The character set is taken
// from a byte order mark or <meta> declaration, falling back to UTF-8 when
// the content is valid UTF-8 and windows-1252 otherwise.
func OpenReader(r io.Reader) (*Reader, error) {
	utf8Reader, err := charset.NewReader(r, "")
	if err != nil {
		return nil, fmt.Errorf("detecting charset: %w", err)
	}

	doc, err := html.Parse(utf8Reader)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return &Reader{doc: doc}, nil
}

// Elements returns the body's direct children that carry content, in
// document order. Deeper nesting is only used for text content.
func (r *Reader) Elements() []Element {
	body := findElement(r.doc, atom.Body)
	if body == nil {
		return nil
	}

	var out []Element
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.DataAtom {
		case atom.P, atom.Div, atom.Span, atom.H1, atom.H2, atom.H3:
			if text := getStrippedText(c); text != "" {
				out = append(out, Element{Kind: ElementText, Text: text})
			}
		case atom.Img:
			out = append(out, Element{Kind: ElementImage, Src: getAttr(c, "src")})
		}
	}
	return out
}

// shouldSkipElement reports elements whose content is never visible text.
func shouldSkipElement(a atom.Atom) bool {
	switch a {
	case atom.Script, atom.Style, atom.Noscript, atom.Template:
		return true
	}
	return false
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if result := findElement(c, a); result != nil {
			return result
		}
	}
	return nil
}

// getStrippedText concatenates every descendant text node, each trimmed
// of surrounding whitespace, with nothing in between.
func getStrippedText(n *html.Node) string {
	var result strings.Builder
	getStrippedTextRecursive(n, &result)
	return result.String()
}

func getStrippedTextRecursive(n *html.Node, result *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		result.WriteString(strings.TrimSpace(n.Data))
		return
	case html.ElementNode:
		if shouldSkipElement(n.DataAtom) {
			return
		}
	case html.CommentNode:
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		getStrippedTextRecursive(c, result)
	}
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
