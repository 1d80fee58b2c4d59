package catalog

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Elements whose text never belongs in an excerpt
var skipTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "iframe": true,
}

// PlainText strips markup from a description and collapses whitespace.
// Descriptions are usually plain already; this keeps the odd <em> or <br>
// out of terminal output.
func PlainText(description string) string {
	if !strings.ContainsAny(description, "<&") {
		return strings.Join(strings.Fields(description), " ")
	}

	nodes, err := html.ParseFragment(strings.NewReader(description), &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	})
	if err != nil {
		return strings.Join(strings.Fields(description), " ")
	}

	var sb strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.ElementNode && skipTags[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	for _, n := range nodes {
		extract(n)
	}

	return strings.Join(strings.Fields(sb.String()), " ")
}

// Excerpt returns PlainText(description) cut to at most max runes
func Excerpt(description string, max int) string {
	r := []rune(PlainText(description))
	if len(r) <= max || max < 4 {
		return string(r)
	}
	return string(r[:max-3]) + "..."
}
