package normalize

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// contentRoots are tried in order; the first selector with non-empty text
// wins. Print view, interactive document view and older commentary pages
// each use a different root.
var contentRoots = []string{"#printContent", "#dokument", ".doc-content"}

// chrome selectors removed from the content root before conversion. None
// of these carry document text.
var stripSelectors = []string{
	"#breadcrumb",
	".doknav",
	"#footer",
	"footer",
	"script",
	"style",
	"noscript",
}

var (
	reLeadingRn    = regexp.MustCompile(`(?m)^\[(\d+)\]`)
	reNewlineRuns  = regexp.MustCompile(`\n{3,}`)
	reDigits       = regexp.MustCompile(`\d+`)
	nullLinkMarker = "[](null)"
)

// ToDocument converts rendered HTML into title + markdown body. An empty
// body is a valid outcome meaning the page carried no extractable content;
// the caller decides whether that is an access problem (see
// IsAccessDenied) or a genuinely empty page.
func (n *Normalizer) ToDocument(rawHTML string) (Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return Document{}, fmt.Errorf("parse html: %w", err)
	}

	title := resolveTitle(doc)

	root := findContentRoot(doc)
	if root == nil {
		return Document{Title: title}, nil
	}

	for _, sel := range stripSelectors {
		root.Find(sel).Remove()
	}
	// The title heading was extracted above; keeping it would duplicate it
	// as body text. Only the first one supplied the title, later section
	// headings stay in the body.
	root.Find("h2.paragr").First().Remove()
	// Pure in-page jump targets.
	root.Find("a[name]:not([href])").Remove()

	var b strings.Builder
	for _, node := range root.Nodes {
		n.render(node, &b)
	}

	body := b.String()
	body = reLeadingRn.ReplaceAllString(body, "**[Rn. $1]**")
	body = reNewlineRuns.ReplaceAllString(body, "\n\n")
	body = strings.ReplaceAll(body, nullLinkMarker, "")
	body = strings.TrimSpace(body)

	return Document{Title: title, Body: body}, nil
}

// resolveTitle prefers the paragraph heading over the page-level heading
// over the <title> metadata. First non-empty match wins.
func resolveTitle(doc *goquery.Document) string {
	for _, sel := range []string{"h2.paragr", "h1", "title"} {
		if text := strings.TrimSpace(doc.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

func findContentRoot(doc *goquery.Document) *goquery.Selection {
	for _, sel := range contentRoots {
		root := doc.Find(sel).First()
		if root.Length() > 0 && strings.TrimSpace(root.Text()) != "" {
			return root
		}
	}
	return nil
}

// nodeRule is one (predicate, transform) pair. Rules are evaluated in
// order per element; the first match renders the node and stops.
type nodeRule struct {
	match  func(node *html.Node) bool
	render func(n *Normalizer, node *html.Node, b *strings.Builder)
}

var nodeRules []nodeRule

// Assigned in init: the li rule recurses through render, which consults
// nodeRules, so a direct var initializer would be cyclic.
func init() {
	nodeRules = []nodeRule{
		// Statute paragraph marker "(1)", "(2)" — bold on its own line.
		{
			match: classMatcher("absnr"),
			render: func(_ *Normalizer, node *html.Node, b *strings.Builder) {
				b.WriteString("\n**" + strings.TrimSpace(nodeText(node)) + "**")
			},
		},
		// Sentence marker: exists only to be unwrapped.
		{
			match: classMatcher("satz"),
			render: func(_ *Normalizer, node *html.Node, b *strings.Builder) {
				b.WriteString(nodeText(node))
			},
		},
		// Enumeration number, rendered inline-prefixed on its own line.
		{
			match: classMatcher("aufznr"),
			render: func(_ *Normalizer, node *html.Node, b *strings.Builder) {
				b.WriteString("\n" + strings.TrimSpace(nodeText(node)) + " ")
			},
		},
		// Margin number (Randnummer), inline and outline sidebar variants.
		// Without a nested number element the marker contributes nothing.
		{
			match: anyClassMatcher("rdnr", "rnr"),
			render: func(_ *Normalizer, node *html.Node, b *strings.Builder) {
				if num := findMarginNumber(node); num != "" {
					b.WriteString("\n\n**[Rn. " + num + "]**")
				}
			},
		},
		{
			match:  elementMatcher("a"),
			render: renderAnchor,
		},
		{
			match:  elementMatcher("p"),
			render: renderParagraph,
		},
		{
			match: elementMatcher("br"),
			render: func(_ *Normalizer, _ *html.Node, b *strings.Builder) {
				b.WriteString("\n")
			},
		},
		{
			match:  headingMatcher,
			render: renderHeading,
		},
		{
			match: elementMatcher("li"),
			render: func(n *Normalizer, node *html.Node, b *strings.Builder) {
				b.WriteString("\n- ")
				n.renderChildren(node, b)
			},
		},
	}
}

// blockElements get a newline before their children so sibling blocks do
// not run together; the collapse pass bounds the accumulation.
var blockElements = map[string]bool{
	"div": true, "section": true, "article": true, "table": true,
	"tr": true, "ul": true, "ol": true, "blockquote": true, "dl": true,
}

func (n *Normalizer) render(node *html.Node, b *strings.Builder) {
	switch node.Type {
	case html.TextNode:
		b.WriteString(node.Data)
	case html.ElementNode:
		for _, rule := range nodeRules {
			if rule.match(node) {
				rule.render(n, node, b)
				return
			}
		}
		if blockElements[node.Data] {
			b.WriteString("\n")
		}
		n.renderChildren(node, b)
	case html.DocumentNode:
		n.renderChildren(node, b)
	}
}

func (n *Normalizer) renderChildren(node *html.Node, b *strings.Builder) {
	for c := node.FirstChild; c != nil; c = c.NextSibling {
		n.render(c, b)
	}
}

// renderAnchor handles the portal's link quirks: disabled links still
// render as <a href="null">, and internal links are root-relative.
func renderAnchor(n *Normalizer, node *html.Node, b *strings.Builder) {
	text := strings.TrimSpace(nodeText(node))
	href := attrValue(node, "href")
	if href == "" || href == "null" {
		b.WriteString(text)
		return
	}
	if strings.HasPrefix(href, "/") {
		href = n.origin + href
	}
	b.WriteString("[" + text + "](" + href + ")")
}

// renderParagraph suppresses empty paragraphs so they cannot pile up as
// blank lines.
func renderParagraph(n *Normalizer, node *html.Node, b *strings.Builder) {
	if strings.TrimSpace(nodeText(node)) == "" {
		return
	}
	b.WriteString("\n\n")
	n.renderChildren(node, b)
}

func renderHeading(n *Normalizer, node *html.Node, b *strings.Builder) {
	level := int(node.Data[1] - '0')
	b.WriteString("\n\n" + strings.Repeat("#", level) + " " + strings.TrimSpace(nodeText(node)) + "\n\n")
}

func headingMatcher(node *html.Node) bool {
	switch node.Data {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return true
	}
	return false
}

func elementMatcher(name string) func(*html.Node) bool {
	return func(node *html.Node) bool { return node.Data == name }
}

func classMatcher(class string) func(*html.Node) bool {
	return func(node *html.Node) bool { return hasClass(node, class) }
}

func anyClassMatcher(classes ...string) func(*html.Node) bool {
	return func(node *html.Node) bool {
		for _, class := range classes {
			if hasClass(node, class) {
				return true
			}
		}
		return false
	}
}

func hasClass(node *html.Node, class string) bool {
	for _, field := range strings.Fields(attrValue(node, "class")) {
		if field == class {
			return true
		}
	}
	return false
}

func attrValue(node *html.Node, name string) string {
	for _, attr := range node.Attr {
		if attr.Key == name {
			return attr.Val
		}
	}
	return ""
}

func nodeText(node *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(node)
	return b.String()
}

// findMarginNumber returns the digits of a nested number element, or the
// empty string when the marker has none.
func findMarginNumber(node *html.Node) string {
	var found string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != "" {
			return
		}
		if n.Type == html.ElementNode && n != node && hasClass(n, "nr") {
			found = strings.TrimSpace(nodeText(n))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(node)
	return reDigits.FindString(found)
}
