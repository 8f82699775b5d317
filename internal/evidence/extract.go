package evidence

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// skippedElements are elements whose text content is invisible to the user
// and useless (or misleading) as phishing evidence.
//
// Design decision: We parse with golang.org/x/net/html rather than regex
// because it correctly handles the malformed HTML that phishing pages are
// full of, and it lets us drop script/style bodies instead of feeding
// minified JavaScript to the text classifier.
var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"head":     true,
}

// PageText extracts the visible text of an HTML document, collapsed to
// single spaces and trimmed. This mirrors what a user actually reads on the
// page, which is what the content classifier scores.
//
// It never fails: unparseable input yields "".
func PageText(r io.Reader) string {
	doc, err := html.Parse(r)
	if err != nil {
		return ""
	}

	var sb strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skippedElements[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	// Collapse runs of whitespace to single spaces, as the browser-side
	// extractor does with innerText.
	return strings.Join(strings.Fields(sb.String()), " ")
}
