// Package extract pulls translatable snippets out of HTML pages and writes
// translations back. It mirrors what a page-side script sends to the
// translate endpoint, so a page can be checked offline.
package extract

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/ZaguanLabs/tlproxy"
)

// IgnoredTags contains HTML tags whose content is never sent for translation.
var IgnoredTags = map[string]bool{
	"script":   true,
	"style":    true,
	"code":     true,
	"pre":      true,
	"textarea": true,
	"noscript": true,
	"svg":      true,
}

// TranslatableAttrs lists attributes whose values are user-visible text.
var TranslatableAttrs = []string{"title", "alt", "placeholder", "aria-label"}

// Snippet is one distinct piece of page text.
type Snippet struct {
	Text    string `json:"text"`              // Normalized text, as sent to the endpoint
	Tag     string `json:"tag"`               // Enclosing element
	Attr    string `json:"attr,omitempty"`    // Attribute name when the text is an attribute value
	Context string `json:"context,omitempty"` // Where the text sits, for humans reading a dry run
}

// Extractor finds snippets in HTML documents.
type Extractor struct {
	ignoredTags map[string]bool
	maxRunes    int
}

// NewExtractor creates an extractor with the default ignored tags.
func NewExtractor() *Extractor {
	return &Extractor{ignoredTags: IgnoredTags}
}

// NewExtractorWithIgnoredTags creates an extractor with custom ignored tags.
func NewExtractorWithIgnoredTags(tags []string) *Extractor {
	ignored := make(map[string]bool)
	for _, tag := range tags {
		ignored[strings.ToLower(tag)] = true
	}
	return &Extractor{ignoredTags: ignored}
}

// WithMaxTextLength makes e truncate snippet texts to n runes, the same way a
// Sanitizer with MaxItemLength n does, so that Apply finds translations for
// long texts under their truncated key. Zero keeps texts whole.
func (e *Extractor) WithMaxTextLength(n int) *Extractor {
	e.maxRunes = n
	return e
}

// Document is a parsed page ready to receive translations.
type Document struct {
	doc       *goquery.Document
	extractor *Extractor
}

// Extract parses r and returns the page with its distinct snippets in
// document order.
func (e *Extractor) Extract(r io.Reader) (*Document, []Snippet, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing HTML: %w", err)
	}

	var snippets []Snippet
	seen := make(map[string]bool)
	add := func(s Snippet) {
		if s.Text == "" || seen[s.Text] {
			return
		}
		seen[s.Text] = true
		snippets = append(snippets, s)
	}

	e.walk(doc, func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			tag := ""
			if n.Parent != nil {
				tag = n.Parent.Data
			}
			add(Snippet{
				Text:    tlproxy.Normalize(n.Data, e.maxRunes),
				Tag:     tag,
				Context: buildContext(n.Parent),
			})
		case html.ElementNode:
			for _, attr := range n.Attr {
				if isTranslatableAttr(attr.Key) {
					add(Snippet{
						Text:    tlproxy.Normalize(attr.Val, e.maxRunes),
						Tag:     n.Data,
						Attr:    attr.Key,
						Context: buildContext(n),
					})
				}
			}
		}
	})

	return &Document{doc: doc, extractor: e}, snippets, nil
}

// Texts returns the snippet texts, ready to go into a translate request body.
func Texts(snippets []Snippet) []string {
	texts := make([]string, len(snippets))
	for i, s := range snippets {
		texts[i] = s.Text
	}
	return texts
}

// Apply replaces every text node and translatable attribute whose normalized
// value has a translation, keeping the original surrounding whitespace, and
// returns the rendered page.
func (d *Document) Apply(translations map[string]string) (string, error) {
	d.extractor.walk(d.doc, func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if translated, ok := translations[tlproxy.Normalize(n.Data, d.extractor.maxRunes)]; ok {
				n.Data = preserveWhitespace(n.Data, translated)
			}
		case html.ElementNode:
			for i, attr := range n.Attr {
				if !isTranslatableAttr(attr.Key) {
					continue
				}
				if translated, ok := translations[tlproxy.Normalize(attr.Val, d.extractor.maxRunes)]; ok {
					n.Attr[i].Val = translated
				}
			}
		}
	})

	out, err := d.doc.Html()
	if err != nil {
		return "", fmt.Errorf("rendering HTML: %w", err)
	}
	return out, nil
}

// walk visits every node outside ignored and data-no-translate subtrees.
func (e *Extractor) walk(doc *goquery.Document, visit func(*html.Node)) {
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			// Skip ignored tags
			if e.ignoredTags[strings.ToLower(n.Data)] {
				return
			}

			// Skip elements with data-no-translate attribute
			for _, attr := range n.Attr {
				if attr.Key == "data-no-translate" {
					return
				}
			}
		}

		visit(n)

		// Recurse into children
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	doc.Each(func(i int, s *goquery.Selection) {
		for _, n := range s.Nodes {
			walk(n)
		}
	})
}

func isTranslatableAttr(key string) bool {
	for _, a := range TranslatableAttrs {
		if key == a {
			return true
		}
	}
	return false
}

// buildContext describes an element and up to two of its ancestors,
// e.g. `nav > ul > li class="active"`.
func buildContext(el *html.Node) string {
	if el == nil || el.Type != html.ElementNode {
		return ""
	}

	desc := el.Data
	for _, attr := range el.Attr {
		if attr.Key == "class" && attr.Val != "" {
			desc = fmt.Sprintf("%s class=%q", el.Data, attr.Val)
			break
		}
		if attr.Key == "id" && attr.Val != "" {
			desc = fmt.Sprintf("%s id=%q", el.Data, attr.Val)
		}
	}

	parts := []string{desc}
	ancestor := el.Parent
	for i := 0; i < 2 && ancestor != nil; i++ {
		if ancestor.Type == html.ElementNode && ancestor.Data != "html" && ancestor.Data != "body" {
			parts = append(parts, ancestor.Data)
		}
		ancestor = ancestor.Parent
	}

	// Reverse to show outer to inner
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, " > ")
}

// preserveWhitespace preserves the original leading/trailing whitespace.
func preserveWhitespace(original, translated string) string {
	// Find leading whitespace
	leadingLen := len(original) - len(strings.TrimLeft(original, " \t\n\r"))
	leading := original[:leadingLen]

	// Find trailing whitespace
	trailingLen := len(original) - len(strings.TrimRight(original, " \t\n\r"))
	trailing := ""
	if trailingLen > 0 {
		trailing = original[len(original)-trailingLen:]
	}

	return leading + translated + trailing
}
