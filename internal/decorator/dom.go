package decorator

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// parseFragment parses cooked post HTML as the children of a <body>
func parseFragment(cooked string) ([]*html.Node, error) {
	return html.ParseFragment(strings.NewReader(cooked), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
}

// renderFragment serializes the fragment nodes back to HTML
func renderFragment(nodes []*html.Node) (string, error) {
	var sb strings.Builder
	for _, n := range nodes {
		if err := html.Render(&sb, n); err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}

// walk calls fn for every element node in the fragment, depth first
func walk(nodes []*html.Node, fn func(*html.Node)) {
	for _, n := range nodes {
		walkNode(n, fn)
	}
}

func walkNode(n *html.Node, fn func(*html.Node)) {
	if n.Type == html.ElementNode {
		fn(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkNode(c, fn)
	}
}

func getAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	attrs := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			continue
		}
		attrs = append(attrs, a)
	}
	n.Attr = attrs
}

func hasClass(n *html.Node, class string) bool {
	val, _ := getAttr(n, "class")
	for _, c := range strings.Fields(val) {
		if c == class {
			return true
		}
	}
	return false
}

func addClasses(n *html.Node, classes ...string) {
	val, _ := getAttr(n, "class")
	fields := strings.Fields(val)
	for _, class := range classes {
		if !hasClass(n, class) {
			fields = append(fields, class)
			setAttr(n, "class", strings.Join(fields, " "))
		}
	}
}

func removeClasses(n *html.Node, classes ...string) {
	val, ok := getAttr(n, "class")
	if !ok {
		return
	}
	drop := make(map[string]bool, len(classes))
	for _, c := range classes {
		drop[c] = true
	}
	kept := make([]string, 0)
	for _, c := range strings.Fields(val) {
		if !drop[c] {
			kept = append(kept, c)
		}
	}
	setAttr(n, "class", strings.Join(kept, " "))
}

// innerText concatenates the text content below n
func innerText(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return strings.TrimSpace(sb.String())
}

// setText replaces all children of n with a single text node
func setText(n *html.Node, text string) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}
