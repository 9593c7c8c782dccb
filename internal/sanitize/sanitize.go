// Package sanitize turns recipe instruction markup into plain text.
package sanitize

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Placeholder is returned for missing or empty instructions
const Placeholder = "No instructions available"

var (
	tagRe   = regexp.MustCompile(`<[^>]+>`)
	spaceRe = regexp.MustCompile(`\s+`)
)

// Instructions strips tags and collapses whitespace. This is the form that
// gets stored; it does not depend on an HTML parser.
func Instructions(markup string) string {
	if markup == "" {
		return Placeholder
	}
	cleaned := tagRe.ReplaceAllString(markup, "")
	cleaned = strings.TrimSpace(spaceRe.ReplaceAllString(cleaned, " "))
	if cleaned == "" {
		return Placeholder
	}
	return cleaned
}

// Steps renders instructions for display, one block element per line.
// Entities are decoded. Falls back to Instructions if the markup does not parse.
func Steps(markup string) string {
	if strings.TrimSpace(markup) == "" {
		return Placeholder
	}
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return Instructions(markup)
	}

	var lines []string
	var cur strings.Builder
	flush := func() {
		if line := strings.Join(strings.Fields(cur.String()), " "); line != "" {
			lines = append(lines, line)
		}
		cur.Reset()
	}

	// Tags to skip (non-content)
	skipTags := map[string]bool{"script": true, "style": true, "noscript": true}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skipTags[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			cur.WriteString(n.Data)
			cur.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode {
			switch n.Data {
			case "p", "div", "li", "br", "h1", "h2", "h3", "h4", "ol", "ul":
				flush()
			}
		}
	}
	walk(doc)
	flush()

	if len(lines) == 0 {
		return Placeholder
	}
	return strings.Join(lines, "\n")
}
